package repositories

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oguzk/studentdesk/internal/app/models"
)

func sampleStudents() []*models.Student {
	return []*models.Student{
		{ID: 1, Code: "ST0001", FirstName: "Ayse", LastName: "Yilmaz", Email: "ayse@example.com", Grade: 9, Status: models.StatusActive},
		{ID: 2, Code: "ST0002", FirstName: "Bora", LastName: "Demir", Email: "bora@example.com", Grade: 10, Status: models.StatusInactive},
		{ID: 3, Code: "ST0003", FirstName: "Cem", LastName: "Aksoy", Email: "cem@example.com", Grade: 9, Status: models.StatusPending},
		{ID: 4, Code: "ST0004", FirstName: "Deniz", LastName: "Kaya", Email: "deniz.kaya@example.com", Grade: 11, Status: models.StatusActive},
		{ID: 5, Code: "ST0005", FirstName: "Elif", LastName: "Demir", Email: "elif@example.com", Grade: 10, Status: models.StatusActive},
	}
}

func ids(students []*models.Student) []int64 {
	out := make([]int64, 0, len(students))
	for _, s := range students {
		out = append(out, s.ID)
	}
	return out
}

func TestApplyStudentFilter_Status(t *testing.T) {
	students := sampleStudents()

	t.Run("single status", func(t *testing.T) {
		result := ApplyStudentFilter(students, models.StudentFilter{Status: "active"})
		assert.Equal(t, []int64{1, 4, 5}, ids(result))
	})

	t.Run("all matches every status", func(t *testing.T) {
		result := ApplyStudentFilter(students, models.StudentFilter{Status: models.StatusFilterAll})
		assert.Len(t, result, len(students))
	})

	t.Run("empty status matches every status", func(t *testing.T) {
		result := ApplyStudentFilter(students, models.StudentFilter{})
		assert.Len(t, result, len(students))
	})
}

func TestApplyStudentFilter_Grade(t *testing.T) {
	students := sampleStudents()

	result := ApplyStudentFilter(students, models.StudentFilter{Grade: 10})
	assert.Equal(t, []int64{2, 5}, ids(result))

	// Zero means no grade constraint
	result = ApplyStudentFilter(students, models.StudentFilter{Grade: 0})
	assert.Len(t, result, len(students))
}

func TestApplyStudentFilter_Search(t *testing.T) {
	students := sampleStudents()

	t.Run("matches last name case-insensitively", func(t *testing.T) {
		result := ApplyStudentFilter(students, models.StudentFilter{Search: "DEMIR"})
		assert.Equal(t, []int64{2, 5}, ids(result))
	})

	t.Run("matches email", func(t *testing.T) {
		result := ApplyStudentFilter(students, models.StudentFilter{Search: "deniz.kaya@"})
		assert.Equal(t, []int64{4}, ids(result))
	})

	t.Run("matches code", func(t *testing.T) {
		result := ApplyStudentFilter(students, models.StudentFilter{Search: "st0003"})
		assert.Equal(t, []int64{3}, ids(result))
	})

	t.Run("does not match across the field boundary", func(t *testing.T) {
		// "se yi" spans the end of "Ayse" and the start of "Yilmaz";
		// it is a substring of neither field, so nothing matches
		result := ApplyStudentFilter(students, models.StudentFilter{Search: "se yi"})
		assert.Empty(t, result)

		result = ApplyStudentFilter(students, models.StudentFilter{Search: "ayse yilmaz"})
		assert.Empty(t, result)
	})

	t.Run("surrounding whitespace is ignored", func(t *testing.T) {
		result := ApplyStudentFilter(students, models.StudentFilter{Search: "  demir  "})
		assert.Equal(t, []int64{2, 5}, ids(result))
	})

	t.Run("no hit yields empty non-nil slice", func(t *testing.T) {
		result := ApplyStudentFilter(students, models.StudentFilter{Search: "zzz"})
		require.NotNil(t, result)
		assert.Empty(t, result)
	})
}

func TestApplyStudentFilter_ConstraintsAreConjunctive(t *testing.T) {
	students := sampleStudents()

	result := ApplyStudentFilter(students, models.StudentFilter{Status: "active", Grade: 10, Search: "demir"})
	assert.Equal(t, []int64{5}, ids(result))
}

func TestApplyStudentFilter_Sorting(t *testing.T) {
	students := sampleStudents()

	t.Run("default is name ascending", func(t *testing.T) {
		result := ApplyStudentFilter(students, models.StudentFilter{})
		assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(result))
	})

	t.Run("name descending", func(t *testing.T) {
		result := ApplyStudentFilter(students, models.StudentFilter{Sort: models.SortNameDesc})
		assert.Equal(t, []int64{5, 4, 3, 2, 1}, ids(result))
	})

	t.Run("id descending", func(t *testing.T) {
		result := ApplyStudentFilter(students, models.StudentFilter{Sort: models.SortIDDesc})
		assert.Equal(t, []int64{5, 4, 3, 2, 1}, ids(result))
	})

	t.Run("unknown sort falls back to name ascending", func(t *testing.T) {
		result := ApplyStudentFilter(students, models.StudentFilter{Sort: "created_at_desc"})
		assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(result))
	})

	t.Run("first and last names compare as a pair", func(t *testing.T) {
		// Joining into one string would put "Ana Maria Lopez" before
		// "Ana Zuniga"; comparing field by field, "Ana" sorts first
		spaced := []*models.Student{
			{ID: 1, FirstName: "Ana Maria", LastName: "Lopez"},
			{ID: 2, FirstName: "Ana", LastName: "Zuniga"},
		}
		result := ApplyStudentFilter(spaced, models.StudentFilter{Sort: models.SortNameAsc})
		assert.Equal(t, []int64{2, 1}, ids(result))

		result = ApplyStudentFilter(spaced, models.StudentFilter{Sort: models.SortNameDesc})
		assert.Equal(t, []int64{1, 2}, ids(result))
	})

	t.Run("equal names keep input order", func(t *testing.T) {
		twins := []*models.Student{
			{ID: 7, FirstName: "Mina", LastName: "Arslan"},
			{ID: 3, FirstName: "Mina", LastName: "Arslan"},
			{ID: 5, FirstName: "Mina", LastName: "Arslan"},
		}
		result := ApplyStudentFilter(twins, models.StudentFilter{Sort: models.SortNameAsc})
		assert.Equal(t, []int64{7, 3, 5}, ids(result))
	})
}

func TestApplyStudentFilter_Pagination(t *testing.T) {
	students := sampleStudents()

	t.Run("first page", func(t *testing.T) {
		result := ApplyStudentFilter(students, models.StudentFilter{Page: 1, Limit: 2})
		assert.Equal(t, []int64{1, 2}, ids(result))
	})

	t.Run("middle page", func(t *testing.T) {
		result := ApplyStudentFilter(students, models.StudentFilter{Page: 2, Limit: 2})
		assert.Equal(t, []int64{3, 4}, ids(result))
	})

	t.Run("short last page", func(t *testing.T) {
		result := ApplyStudentFilter(students, models.StudentFilter{Page: 3, Limit: 2})
		assert.Equal(t, []int64{5}, ids(result))
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		result := ApplyStudentFilter(students, models.StudentFilter{Page: 9, Limit: 2})
		require.NotNil(t, result)
		assert.Empty(t, result)
	})

	t.Run("zero page disables slicing", func(t *testing.T) {
		result := ApplyStudentFilter(students, models.StudentFilter{Page: 0, Limit: 2})
		assert.Len(t, result, len(students))
	})

	t.Run("pagination runs after filtering and sorting", func(t *testing.T) {
		result := ApplyStudentFilter(students, models.StudentFilter{Status: "active", Sort: models.SortIDDesc, Page: 2, Limit: 2})
		assert.Equal(t, []int64{1}, ids(result))
	})
}

func TestNewStudentCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := NewStudentCode()
		assert.True(t, strings.HasPrefix(code, "ST"))
		assert.Len(t, code, 10)
		assert.Equal(t, strings.ToUpper(code), code)
		assert.False(t, seen[code], "generated code %q twice", code)
		seen[code] = true
	}
}

func TestApplyStudentPatch(t *testing.T) {
	base := func() *models.Student {
		return &models.Student{
			ID:        1,
			Code:      "ST0001",
			FirstName: "Ayse",
			LastName:  "Yilmaz",
			Email:     "ayse@example.com",
			Grade:     9,
			Status:    models.StatusActive,
		}
	}

	t.Run("nil fields keep stored values", func(t *testing.T) {
		s := base()
		grade := 10
		applyStudentPatch(s, models.StudentPatch{Grade: &grade})
		assert.Equal(t, 10, s.Grade)
		assert.Equal(t, "Ayse", s.FirstName)
		assert.Equal(t, "ayse@example.com", s.Email)
		assert.Equal(t, models.StatusActive, s.Status)
	})

	t.Run("valid status is applied", func(t *testing.T) {
		s := base()
		status := models.StatusInactive
		applyStudentPatch(s, models.StudentPatch{Status: &status})
		assert.Equal(t, models.StatusInactive, s.Status)
	})

	t.Run("invalid status keeps the stored value", func(t *testing.T) {
		s := base()
		status := models.StudentStatus("graduated")
		applyStudentPatch(s, models.StudentPatch{Status: &status})
		assert.Equal(t, models.StatusActive, s.Status)
	})

	t.Run("empty code keeps the stored code", func(t *testing.T) {
		s := base()
		code := ""
		applyStudentPatch(s, models.StudentPatch{Code: &code})
		assert.Equal(t, "ST0001", s.Code)
	})
}

func TestCountStats(t *testing.T) {
	stats := countStats(sampleStudents())

	assert.Equal(t, 5, stats.TotalStudents)
	assert.Equal(t, 3, stats.ActiveStudents)
	assert.Equal(t, 1, stats.PendingStudents)
	assert.Equal(t, 1, stats.IssuesReported)
}
