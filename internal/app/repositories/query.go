package repositories

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/oguzk/studentdesk/internal/app/models"
	"github.com/oguzk/studentdesk/internal/pkg/helpers"
)

// ApplyStudentFilter runs the listing pipeline over the given records:
// status, grade and search constraints first (conjunctive), then sorting,
// then the page slice. Every backend funnels its listings through here so
// query semantics stay identical regardless of where the data lives.
func ApplyStudentFilter(students []*models.Student, filter models.StudentFilter) []*models.Student {
	result := make([]*models.Student, 0, len(students))
	for _, s := range students {
		if matchesFilter(s, filter) {
			result = append(result, s)
		}
	}

	sortStudents(result, filter.Sort)

	if filter.Page > 0 && filter.Limit > 0 {
		start, end := helpers.CalculateSliceIndices(filter.Page, filter.Limit, len(result))
		result = result[start:end]
	}

	return result
}

func matchesFilter(s *models.Student, filter models.StudentFilter) bool {
	if filter.Status != "" && filter.Status != models.StatusFilterAll && string(s.Status) != filter.Status {
		return false
	}
	if filter.Grade > 0 && s.Grade != filter.Grade {
		return false
	}
	if query := strings.ToLower(strings.TrimSpace(filter.Search)); query != "" && !matchesSearch(s, query) {
		return false
	}
	return true
}

// matchesSearch reports whether the query appears in any searchable
// field. A hit on a single field is enough; a query spanning two fields
// matches nothing.
func matchesSearch(s *models.Student, query string) bool {
	fields := []string{s.FirstName, s.LastName, s.Email, s.Code}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// sortStudents orders records in place. Unknown sort values fall back to
// name_asc. Sorting is stable so equal keys keep their relative order.
func sortStudents(students []*models.Student, order string) {
	switch order {
	case models.SortNameDesc:
		sort.SliceStable(students, func(i, j int) bool {
			return nameLess(students[j], students[i])
		})
	case models.SortIDAsc:
		sort.SliceStable(students, func(i, j int) bool {
			return students[i].ID < students[j].ID
		})
	case models.SortIDDesc:
		sort.SliceStable(students, func(i, j int) bool {
			return students[i].ID > students[j].ID
		})
	default:
		sort.SliceStable(students, func(i, j int) bool {
			return nameLess(students[i], students[j])
		})
	}
}

// nameLess compares first names, then last names, case-insensitively.
// The fields are compared as a pair, never as one joined string.
func nameLess(a, b *models.Student) bool {
	af, bf := strings.ToLower(a.FirstName), strings.ToLower(b.FirstName)
	if af != bf {
		return af < bf
	}
	return strings.ToLower(a.LastName) < strings.ToLower(b.LastName)
}

// NewStudentCode generates a random student code with the ST prefix
func NewStudentCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "ST" + strings.ToUpper(raw[:8])
}

// applyStudentPatch merges the supplied fields of the patch into dst.
// A nil field keeps the stored value; an invalid status in the patch is
// ignored rather than rejected.
func applyStudentPatch(dst *models.Student, patch models.StudentPatch) {
	if patch.Code != nil && *patch.Code != "" {
		dst.Code = *patch.Code
	}
	if patch.FirstName != nil {
		dst.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		dst.LastName = *patch.LastName
	}
	if patch.Email != nil {
		dst.Email = *patch.Email
	}
	if patch.Phone != nil {
		dst.Phone = *patch.Phone
	}
	if patch.Grade != nil {
		dst.Grade = *patch.Grade
	}
	if patch.Section != nil {
		dst.Section = *patch.Section
	}
	if patch.Address != nil {
		dst.Address = *patch.Address
	}
	if patch.Notes != nil {
		dst.Notes = *patch.Notes
	}
	if patch.Status != nil && patch.Status.Valid() {
		dst.Status = *patch.Status
	}
	if patch.UserID != nil {
		dst.UserID = patch.UserID
	}
}

// countStats tallies status counters over the given records. The
// IssuesReported field carries the inactive count.
func countStats(students []*models.Student) *models.StudentStats {
	stats := &models.StudentStats{TotalStudents: len(students)}
	for _, s := range students {
		switch s.Status {
		case models.StatusActive:
			stats.ActiveStudents++
		case models.StatusPending:
			stats.PendingStudents++
		case models.StatusInactive:
			stats.IssuesReported++
		}
	}
	return stats
}
