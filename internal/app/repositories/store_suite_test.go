package repositories

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oguzk/studentdesk/internal/app/models"
	"github.com/oguzk/studentdesk/internal/pkg/apperrors"
)

// runStoreSuite exercises the Store contract against a fresh backend.
// Every backend must pass it unchanged.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	newStudent := func(first, last, email string, grade int, status models.StudentStatus) *models.Student {
		return &models.Student{
			FirstName: first,
			LastName:  last,
			Email:     email,
			Grade:     grade,
			Status:    status,
		}
	}

	t.Run("create assigns id, code and timestamps", func(t *testing.T) {
		store := newStore(t)

		created, err := store.CreateStudent(ctx, newStudent("Ayse", "Yilmaz", "ayse@example.com", 9, models.StatusActive))
		require.NoError(t, err)

		assert.Positive(t, created.ID)
		assert.True(t, strings.HasPrefix(created.Code, "ST"))
		assert.False(t, created.CreatedAt.IsZero())
		assert.False(t, created.UpdatedAt.IsZero())
	})

	t.Run("create defaults a blank status to active", func(t *testing.T) {
		store := newStore(t)

		created, err := store.CreateStudent(ctx, newStudent("Ayse", "Yilmaz", "ayse@example.com", 9, ""))
		require.NoError(t, err)
		assert.Equal(t, models.StatusActive, created.Status)

		got, err := store.GetStudentByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusActive, got.Status)
	})

	t.Run("create keeps an explicit code", func(t *testing.T) {
		store := newStore(t)

		s := newStudent("Bora", "Demir", "bora@example.com", 10, models.StatusActive)
		s.Code = "ST-CUSTOM"
		created, err := store.CreateStudent(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, "ST-CUSTOM", created.Code)

		byCode, err := store.GetStudentByCode(ctx, "ST-CUSTOM")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byCode.ID)
	})

	t.Run("create rejects a duplicate code", func(t *testing.T) {
		store := newStore(t)

		s := newStudent("Bora", "Demir", "bora@example.com", 10, models.StatusActive)
		s.Code = "ST-DUP"
		_, err := store.CreateStudent(ctx, s)
		require.NoError(t, err)

		again := newStudent("Cem", "Aksoy", "cem@example.com", 9, models.StatusActive)
		again.Code = "ST-DUP"
		_, err = store.CreateStudent(ctx, again)
		assert.ErrorIs(t, err, apperrors.ErrStudentCodeExists)
	})

	t.Run("get by id", func(t *testing.T) {
		store := newStore(t)

		created, err := store.CreateStudent(ctx, newStudent("Ayse", "Yilmaz", "ayse@example.com", 9, models.StatusActive))
		require.NoError(t, err)

		got, err := store.GetStudentByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "Ayse", got.FirstName)

		_, err = store.GetStudentByID(ctx, created.ID+1000)
		assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
	})

	t.Run("get by unknown code", func(t *testing.T) {
		store := newStore(t)

		_, err := store.GetStudentByCode(ctx, "ST-NOPE")
		assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
	})

	t.Run("list applies the filter pipeline", func(t *testing.T) {
		store := newStore(t)

		for _, s := range []*models.Student{
			newStudent("Ayse", "Yilmaz", "ayse@example.com", 9, models.StatusActive),
			newStudent("Bora", "Demir", "bora@example.com", 10, models.StatusInactive),
			newStudent("Elif", "Demir", "elif@example.com", 10, models.StatusActive),
		} {
			_, err := store.CreateStudent(ctx, s)
			require.NoError(t, err)
		}

		all, err := store.ListStudents(ctx, models.StudentFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		active, err := store.ListStudents(ctx, models.StudentFilter{Status: "active", Grade: 10})
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "Elif", active[0].FirstName)

		demir, err := store.ListStudents(ctx, models.StudentFilter{Search: "demir", Sort: models.SortNameDesc})
		require.NoError(t, err)
		require.Len(t, demir, 2)
		assert.Equal(t, "Elif", demir[0].FirstName)
		assert.Equal(t, "Bora", demir[1].FirstName)
	})

	t.Run("partial update merges fields", func(t *testing.T) {
		store := newStore(t)

		created, err := store.CreateStudent(ctx, newStudent("Ayse", "Yilmaz", "ayse@example.com", 9, models.StatusActive))
		require.NoError(t, err)

		grade := 10
		section := "B"
		updated, err := store.UpdateStudent(ctx, created.ID, models.StudentPatch{Grade: &grade, Section: &section})
		require.NoError(t, err)

		assert.Equal(t, 10, updated.Grade)
		assert.Equal(t, "B", updated.Section)
		assert.Equal(t, "Ayse", updated.FirstName)
		assert.Equal(t, created.Code, updated.Code)
		assert.Equal(t, models.StatusActive, updated.Status)
	})

	t.Run("update with an invalid status keeps the stored one", func(t *testing.T) {
		store := newStore(t)

		created, err := store.CreateStudent(ctx, newStudent("Ayse", "Yilmaz", "ayse@example.com", 9, models.StatusPending))
		require.NoError(t, err)

		bogus := models.StudentStatus("expelled")
		updated, err := store.UpdateStudent(ctx, created.ID, models.StudentPatch{Status: &bogus})
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, updated.Status)
	})

	t.Run("update reindexes a changed code", func(t *testing.T) {
		store := newStore(t)

		created, err := store.CreateStudent(ctx, newStudent("Ayse", "Yilmaz", "ayse@example.com", 9, models.StatusActive))
		require.NoError(t, err)
		oldCode := created.Code

		code := "ST-MOVED"
		_, err = store.UpdateStudent(ctx, created.ID, models.StudentPatch{Code: &code})
		require.NoError(t, err)

		byNew, err := store.GetStudentByCode(ctx, "ST-MOVED")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byNew.ID)

		_, err = store.GetStudentByCode(ctx, oldCode)
		assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
	})

	t.Run("update rejects a code already taken", func(t *testing.T) {
		store := newStore(t)

		first := newStudent("Ayse", "Yilmaz", "ayse@example.com", 9, models.StatusActive)
		first.Code = "ST-TAKEN"
		_, err := store.CreateStudent(ctx, first)
		require.NoError(t, err)

		second, err := store.CreateStudent(ctx, newStudent("Bora", "Demir", "bora@example.com", 10, models.StatusActive))
		require.NoError(t, err)

		code := "ST-TAKEN"
		_, err = store.UpdateStudent(ctx, second.ID, models.StudentPatch{Code: &code})
		assert.ErrorIs(t, err, apperrors.ErrStudentCodeExists)
	})

	t.Run("update of a missing record", func(t *testing.T) {
		store := newStore(t)

		grade := 10
		_, err := store.UpdateStudent(ctx, 999, models.StudentPatch{Grade: &grade})
		assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
	})

	t.Run("delete reports existence", func(t *testing.T) {
		store := newStore(t)

		created, err := store.CreateStudent(ctx, newStudent("Ayse", "Yilmaz", "ayse@example.com", 9, models.StatusActive))
		require.NoError(t, err)

		deleted, err := store.DeleteStudent(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		// Second delete of the same id is a no-op, not an error
		deleted, err = store.DeleteStudent(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		_, err = store.GetStudentByID(ctx, created.ID)
		assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
	})

	t.Run("delete frees the code", func(t *testing.T) {
		store := newStore(t)

		s := newStudent("Ayse", "Yilmaz", "ayse@example.com", 9, models.StatusActive)
		s.Code = "ST-FREE"
		created, err := store.CreateStudent(ctx, s)
		require.NoError(t, err)

		_, err = store.DeleteStudent(ctx, created.ID)
		require.NoError(t, err)

		again := newStudent("Bora", "Demir", "bora@example.com", 10, models.StatusActive)
		again.Code = "ST-FREE"
		_, err = store.CreateStudent(ctx, again)
		assert.NoError(t, err)
	})

	t.Run("stats counts by status", func(t *testing.T) {
		store := newStore(t)

		for _, s := range []*models.Student{
			newStudent("Ayse", "Yilmaz", "a@example.com", 9, models.StatusActive),
			newStudent("Bora", "Demir", "b@example.com", 10, models.StatusActive),
			newStudent("Cem", "Aksoy", "c@example.com", 9, models.StatusInactive),
			newStudent("Deniz", "Kaya", "d@example.com", 11, models.StatusPending),
		} {
			_, err := store.CreateStudent(ctx, s)
			require.NoError(t, err)
		}

		stats, err := store.StudentStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, stats.TotalStudents)
		assert.Equal(t, 2, stats.ActiveStudents)
		assert.Equal(t, 1, stats.PendingStudents)
		assert.Equal(t, 1, stats.IssuesReported)
	})

	t.Run("user accounts", func(t *testing.T) {
		store := newStore(t)

		created, err := store.CreateUser(ctx, &models.User{
			Username: "ayse.demir",
			Password: "$2a$12$fakefakefakefakefakefakefakefakefakefakefakefakefakef",
			RoleType: models.RoleStudent,
		})
		require.NoError(t, err)
		assert.Positive(t, created.ID)

		byName, err := store.GetUserByUsername(ctx, "ayse.demir")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byName.ID)
		assert.NotEmpty(t, byName.Password)

		byID, err := store.GetUserByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "ayse.demir", byID.Username)
		assert.Nil(t, byID.LastLoginAt)

		_, err = store.CreateUser(ctx, &models.User{Username: "ayse.demir", Password: "x", RoleType: models.RoleStudent})
		assert.ErrorIs(t, err, apperrors.ErrUsernameExists)

		_, err = store.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})

	t.Run("last login stamp", func(t *testing.T) {
		store := newStore(t)

		created, err := store.CreateUser(ctx, &models.User{
			Username: "bora.kaya",
			Password: "hash",
			RoleType: models.RoleAdmin,
		})
		require.NoError(t, err)

		at := time.Now().Truncate(time.Second)
		require.NoError(t, store.UpdateUserLastLogin(ctx, created.ID, at))

		got, err := store.GetUserByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastLoginAt)
		assert.WithinDuration(t, at, *got.LastLoginAt, time.Second)

		assert.ErrorIs(t, store.UpdateUserLastLogin(ctx, created.ID+1000, at), apperrors.ErrUserNotFound)
	})
}
