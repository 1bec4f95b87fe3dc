package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oguzk/studentdesk/internal/app/models"
	"github.com/oguzk/studentdesk/internal/app/models/dto"
	"github.com/oguzk/studentdesk/internal/app/repositories"
	"github.com/oguzk/studentdesk/internal/pkg/apperrors"
)

func newTestStudentService(t *testing.T) *StudentService {
	t.Helper()
	return NewStudentService(repositories.NewMemoryStore(), zerolog.Nop())
}

func createRequest() *dto.CreateStudentRequest {
	return &dto.CreateStudentRequest{
		FirstName: "Ayse",
		LastName:  "Yilmaz",
		Email:     "ayse@example.com",
		Grade:     9,
	}
}

func TestStudentService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults status to active", func(t *testing.T) {
		service := newTestStudentService(t)

		student, err := service.Create(ctx, createRequest())
		require.NoError(t, err)
		assert.Equal(t, models.StatusActive, student.Status)
		assert.NotEmpty(t, student.Code)
	})

	t.Run("trims whitespace", func(t *testing.T) {
		service := newTestStudentService(t)

		req := createRequest()
		req.FirstName = "  Ayse "
		req.Email = " ayse@example.com "
		student, err := service.Create(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "Ayse", student.FirstName)
		assert.Equal(t, "ayse@example.com", student.Email)
	})

	t.Run("rejects a malformed email", func(t *testing.T) {
		service := newTestStudentService(t)

		req := createRequest()
		req.Email = "not-an-email"
		_, err := service.Create(ctx, req)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	t.Run("rejects a non-positive grade", func(t *testing.T) {
		service := newTestStudentService(t)

		req := createRequest()
		req.Grade = 0
		_, err := service.Create(ctx, req)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		service := newTestStudentService(t)

		req := createRequest()
		req.Status = "graduated"
		_, err := service.Create(ctx, req)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	t.Run("rejects a malformed code", func(t *testing.T) {
		service := newTestStudentService(t)

		req := createRequest()
		req.Code = "has spaces!"
		_, err := service.Create(ctx, req)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	t.Run("reports a duplicate code", func(t *testing.T) {
		service := newTestStudentService(t)

		req := createRequest()
		req.Code = "ST-FIXED"
		_, err := service.Create(ctx, req)
		require.NoError(t, err)

		second := createRequest()
		second.Code = "ST-FIXED"
		second.Email = "other@example.com"
		_, err = service.Create(ctx, second)
		assert.ErrorIs(t, err, apperrors.ErrStudentCodeExists)
	})
}

func TestStudentService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store lists as empty slice", func(t *testing.T) {
		service := newTestStudentService(t)

		students, err := service.List(ctx, models.StudentFilter{})
		require.NoError(t, err)
		require.NotNil(t, students)
		assert.Empty(t, students)
	})

	t.Run("rejects an unknown status filter", func(t *testing.T) {
		service := newTestStudentService(t)

		_, err := service.List(ctx, models.StudentFilter{Status: "bogus"})
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	t.Run("accepts the all status filter", func(t *testing.T) {
		service := newTestStudentService(t)
		_, err := service.Create(ctx, createRequest())
		require.NoError(t, err)

		students, err := service.List(ctx, models.StudentFilter{Status: models.StatusFilterAll})
		require.NoError(t, err)
		assert.Len(t, students, 1)
	})
}

func TestStudentService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("applies supplied fields only", func(t *testing.T) {
		service := newTestStudentService(t)
		created, err := service.Create(ctx, createRequest())
		require.NoError(t, err)

		grade := 10
		updated, err := service.Update(ctx, created.ID, &dto.UpdateStudentRequest{Grade: &grade})
		require.NoError(t, err)
		assert.Equal(t, 10, updated.Grade)
		assert.Equal(t, "Ayse", updated.FirstName)
	})

	t.Run("unknown status in a patch keeps the stored one", func(t *testing.T) {
		service := newTestStudentService(t)
		created, err := service.Create(ctx, createRequest())
		require.NoError(t, err)

		status := "graduated"
		updated, err := service.Update(ctx, created.ID, &dto.UpdateStudentRequest{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, models.StatusActive, updated.Status)
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		service := newTestStudentService(t)
		created, err := service.Create(ctx, createRequest())
		require.NoError(t, err)

		empty := "   "
		_, err = service.Update(ctx, created.ID, &dto.UpdateStudentRequest{FirstName: &empty})
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	t.Run("rejects a malformed email", func(t *testing.T) {
		service := newTestStudentService(t)
		created, err := service.Create(ctx, createRequest())
		require.NoError(t, err)

		bad := "nope"
		_, err = service.Update(ctx, created.ID, &dto.UpdateStudentRequest{Email: &bad})
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	t.Run("missing record", func(t *testing.T) {
		service := newTestStudentService(t)

		grade := 10
		_, err := service.Update(ctx, 999, &dto.UpdateStudentRequest{Grade: &grade})
		assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
	})
}

func TestStudentService_Delete(t *testing.T) {
	ctx := context.Background()
	service := newTestStudentService(t)

	created, err := service.Create(ctx, createRequest())
	require.NoError(t, err)

	deleted, err := service.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = service.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestStudentService_Stats(t *testing.T) {
	ctx := context.Background()
	service := newTestStudentService(t)

	for _, status := range []string{"active", "active", "inactive", "pending"} {
		req := createRequest()
		req.Email = status + "@example.com"
		req.Status = status
		_, err := service.Create(ctx, req)
		require.NoError(t, err)
	}

	stats, err := service.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalStudents)
	assert.Equal(t, 2, stats.ActiveStudents)
	assert.Equal(t, 1, stats.PendingStudents)
	assert.Equal(t, 1, stats.IssuesReported)
}
