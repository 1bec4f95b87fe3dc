package repositories

import (
	"context"
	"time"

	"github.com/oguzk/studentdesk/internal/app/models"
)

// Store is the persistence contract shared by every backend. All
// implementations must honor the same semantics: listing applies the
// full filter pipeline, lookups return apperrors sentinels when the
// record is absent, creates default a blank status to active, and
// deletes report whether anything was removed.
type Store interface {
	// Student operations
	ListStudents(ctx context.Context, filter models.StudentFilter) ([]*models.Student, error)
	GetStudentByID(ctx context.Context, id int64) (*models.Student, error)
	GetStudentByCode(ctx context.Context, code string) (*models.Student, error)
	CreateStudent(ctx context.Context, student *models.Student) (*models.Student, error)
	UpdateStudent(ctx context.Context, id int64, patch models.StudentPatch) (*models.Student, error)
	DeleteStudent(ctx context.Context, id int64) (bool, error)
	StudentStats(ctx context.Context) (*models.StudentStats, error)

	// User operations
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error
}

// Compile-time interface checks
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*BoltStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*CachedStore)(nil)
)
