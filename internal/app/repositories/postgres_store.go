package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oguzk/studentdesk/internal/app/models"
	"github.com/oguzk/studentdesk/internal/db"
	"github.com/oguzk/studentdesk/internal/pkg/apperrors"
	"github.com/oguzk/studentdesk/internal/pkg/dberrors"
)

// PostgresStore persists records in PostgreSQL. Listings load the full
// student set and run through the shared filter pipeline so that query
// semantics match the other backends exactly.
type PostgresStore struct {
	db *db.PostgresDB
}

// NewPostgresStore creates a store backed by the given connection pool
func NewPostgresStore(database *db.PostgresDB) *PostgresStore {
	return &PostgresStore{db: database}
}

const studentColumns = `id, code, first_name, last_name, email, phone, grade, section, address, notes, status, user_id, created_at, updated_at`

func scanStudent(row pgx.Row) (*models.Student, error) {
	var s models.Student
	err := row.Scan(
		&s.ID, &s.Code, &s.FirstName, &s.LastName, &s.Email, &s.Phone,
		&s.Grade, &s.Section, &s.Address, &s.Notes, &s.Status, &s.UserID,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListStudents returns students matching the filter
func (p *PostgresStore) ListStudents(ctx context.Context, filter models.StudentFilter) ([]*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students ORDER BY id`, studentColumns)
	rows, err := p.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning student row: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading student rows: %w", err)
	}

	return ApplyStudentFilter(students, filter), nil
}

// GetStudentByID returns the student with the given id
func (p *PostgresStore) GetStudentByID(ctx context.Context, id int64) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1`, studentColumns)
	s, err := scanStudent(p.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error getting student by id: %w", err)
	}
	return s, nil
}

// GetStudentByCode returns the student with the given code
func (p *PostgresStore) GetStudentByCode(ctx context.Context, code string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE code = $1`, studentColumns)
	s, err := scanStudent(p.db.Pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error getting student by code: %w", err)
	}
	return s, nil
}

// CreateStudent inserts a new record. When no code was supplied a
// generated one is used; a collision on a generated code is retried.
func (p *PostgresStore) CreateStudent(ctx context.Context, student *models.Student) (*models.Student, error) {
	record := *student
	if record.Status == "" {
		record.Status = models.StatusActive
	}
	generated := record.Code == ""

	for attempt := 0; ; attempt++ {
		if generated {
			record.Code = NewStudentCode()
		}

		now := time.Now()
		query := `
			INSERT INTO students (code, first_name, last_name, email, phone, grade, section, address, notes, status, user_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
			RETURNING id`
		err := p.db.Pool.QueryRow(ctx, query,
			record.Code, record.FirstName, record.LastName, record.Email, record.Phone,
			record.Grade, record.Section, record.Address, record.Notes, record.Status,
			record.UserID, now,
		).Scan(&record.ID)
		if err == nil {
			record.CreatedAt = now
			record.UpdatedAt = now
			return &record, nil
		}

		if dberrors.IsDuplicateConstraintError(err, "students_code_key") {
			if generated && attempt < 3 {
				continue
			}
			return nil, apperrors.ErrStudentCodeExists
		}
		return nil, fmt.Errorf("error creating student: %w", err)
	}
}

// UpdateStudent merges the patch into the stored record inside a
// transaction so the read and write see the same row version
func (p *PostgresStore) UpdateStudent(ctx context.Context, id int64, patch models.StudentPatch) (*models.Student, error) {
	var updated *models.Student
	err := p.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1 FOR UPDATE`, studentColumns)
		current, err := scanStudent(tx.QueryRow(ctx, query, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrStudentNotFound
			}
			return fmt.Errorf("error loading student for update: %w", err)
		}

		record := *current
		applyStudentPatch(&record, patch)
		record.UpdatedAt = time.Now()

		_, err = tx.Exec(ctx, `
			UPDATE students
			SET code = $1, first_name = $2, last_name = $3, email = $4, phone = $5,
			    grade = $6, section = $7, address = $8, notes = $9, status = $10,
			    user_id = $11, updated_at = $12
			WHERE id = $13`,
			record.Code, record.FirstName, record.LastName, record.Email, record.Phone,
			record.Grade, record.Section, record.Address, record.Notes, record.Status,
			record.UserID, record.UpdatedAt, id,
		)
		if err != nil {
			if dberrors.IsDuplicateConstraintError(err, "students_code_key") {
				return apperrors.ErrStudentCodeExists
			}
			return fmt.Errorf("error updating student: %w", err)
		}

		updated = &record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteStudent removes the record, reporting whether it existed
func (p *PostgresStore) DeleteStudent(ctx context.Context, id int64) (bool, error) {
	tag, err := p.db.Pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("error deleting student: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// StudentStats returns the status counters in one aggregate query
func (p *PostgresStore) StudentStats(ctx context.Context) (*models.StudentStats, error) {
	var stats models.StudentStats
	err := p.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'active'),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'inactive')
		FROM students`,
	).Scan(&stats.TotalStudents, &stats.ActiveStudents, &stats.PendingStudents, &stats.IssuesReported)
	if err != nil {
		return nil, fmt.Errorf("error computing student stats: %w", err)
	}
	return &stats, nil
}

const userColumns = `id, username, password, role_type, created_at, updated_at, last_login_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.RoleType, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByID returns the user with the given id
func (p *PostgresStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	u, err := scanUser(p.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user by id: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns the user with the given username
func (p *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1`, userColumns)
	u, err := scanUser(p.db.Pool.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user by username: %w", err)
	}
	return u, nil
}

// CreateUser inserts a new user account
func (p *PostgresStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	record := *user
	now := time.Now()
	err := p.db.Pool.QueryRow(ctx, `
		INSERT INTO users (username, password, role_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id`,
		record.Username, record.Password, record.RoleType, now,
	).Scan(&record.ID)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_username_key") {
			return nil, apperrors.ErrUsernameExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	record.CreatedAt = now
	record.UpdatedAt = now
	return &record, nil
}

// UpdateUserLastLogin stamps the user's last successful login time
func (p *PostgresStore) UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error {
	tag, err := p.db.Pool.Exec(ctx,
		`UPDATE users SET last_login_at = $1, updated_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("error updating last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
