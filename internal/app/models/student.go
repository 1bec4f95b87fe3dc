package models

import (
	"time"
)

// StudentStatus is the lifecycle state of a student record
type StudentStatus string

const (
	StatusActive   StudentStatus = "active"
	StatusInactive StudentStatus = "inactive"
	StatusPending  StudentStatus = "pending"
)

// StatusFilterAll is the filter value that matches every status
const StatusFilterAll = "all"

// Valid reports whether s is one of the known status values
func (s StudentStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending:
		return true
	}
	return false
}

// Student defines the student model based on the 'students' table
type Student struct {
	ID        int64         `json:"id" db:"id" example:"1"`                          // Unique identifier for the student record
	Code      string        `json:"code" db:"code" example:"ST4F2A91C3"`             // Unique human-readable student code
	FirstName string        `json:"firstName" db:"first_name" example:"Ayse"`        // Student's first name
	LastName  string        `json:"lastName" db:"last_name" example:"Demir"`         // Student's last name
	Email     string        `json:"email" db:"email" example:"ayse@example.com"`     // Contact email address
	Phone     string        `json:"phone,omitempty" db:"phone"`                      // Contact phone number
	Grade     int           `json:"grade" db:"grade" example:"10"`                   // Grade level
	Section   string        `json:"section,omitempty" db:"section" example:"B"`      // Class section
	Address   string        `json:"address,omitempty" db:"address"`                  // Postal address
	Notes     string        `json:"notes,omitempty" db:"notes"`                      // Free-form notes
	Status    StudentStatus `json:"status" db:"status" example:"active"`             // Lifecycle status
	UserID    *int64        `json:"userId,omitempty" db:"user_id"`                   // Linked login account, nil when none
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`                       // Record creation time
	UpdatedAt time.Time     `json:"updatedAt" db:"updated_at"`                       // Last modification time
}

// StudentPatch carries a partial update. Nil fields keep their current value.
type StudentPatch struct {
	Code      *string
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Grade     *int
	Section   *string
	Address   *string
	Notes     *string
	Status    *StudentStatus
	UserID    *int64
}

// StudentStats holds the derived counters shown on the dashboard.
// IssuesReported counts inactive students, a field name kept for
// compatibility with existing clients.
type StudentStats struct {
	TotalStudents   int `json:"totalStudents" example:"42"`
	ActiveStudents  int `json:"activeStudents" example:"35"`
	PendingStudents int `json:"pendingStudents" example:"4"`
	IssuesReported  int `json:"issuesReported" example:"3"`
}

// Sort orders accepted by student listings
const (
	SortNameAsc  = "name_asc"
	SortNameDesc = "name_desc"
	SortIDAsc    = "id_asc"
	SortIDDesc   = "id_desc"
)

// StudentFilter is the query contract for student listings. Zero values
// mean no constraint: an empty status (or "all") matches every status,
// grade 0 matches every grade, and page/limit 0 disables pagination.
type StudentFilter struct {
	Status string `form:"status" example:"active"`
	Grade  int    `form:"grade" binding:"omitempty,min=0" example:"10"`
	Search string `form:"search" example:"demir"`
	Sort   string `form:"sort" example:"name_asc"`
	Page   int    `form:"page" binding:"omitempty,min=1" example:"1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1" example:"20"`
}
