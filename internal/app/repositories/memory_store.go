package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/oguzk/studentdesk/internal/app/models"
	"github.com/oguzk/studentdesk/internal/pkg/apperrors"
)

// MemoryStore keeps every record in process memory. It is the default
// backend for development and the reference implementation for store
// semantics. Handlers run concurrently, so all access goes through the
// mutex and records are copied at the API boundary.
type MemoryStore struct {
	mu            sync.RWMutex
	students      map[int64]*models.Student
	studentCodes  map[string]int64
	users         map[int64]*models.User
	usernames     map[string]int64
	nextStudentID int64
	nextUserID    int64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		students:     make(map[int64]*models.Student),
		studentCodes: make(map[string]int64),
		users:        make(map[int64]*models.User),
		usernames:    make(map[string]int64),
	}
}

func cloneStudent(s *models.Student) *models.Student {
	clone := *s
	if s.UserID != nil {
		userID := *s.UserID
		clone.UserID = &userID
	}
	return &clone
}

func cloneUser(u *models.User) *models.User {
	clone := *u
	if u.LastLoginAt != nil {
		at := *u.LastLoginAt
		clone.LastLoginAt = &at
	}
	return &clone
}

// ListStudents returns students matching the filter
func (m *MemoryStore) ListStudents(ctx context.Context, filter models.StudentFilter) ([]*models.Student, error) {
	m.mu.RLock()
	snapshot := make([]*models.Student, 0, len(m.students))
	for _, s := range m.students {
		snapshot = append(snapshot, cloneStudent(s))
	}
	m.mu.RUnlock()

	return ApplyStudentFilter(snapshot, filter), nil
}

// GetStudentByID returns the student with the given id
func (m *MemoryStore) GetStudentByID(ctx context.Context, id int64) (*models.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.students[id]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	return cloneStudent(s), nil
}

// GetStudentByCode returns the student with the given code
func (m *MemoryStore) GetStudentByCode(ctx context.Context, code string) (*models.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.studentCodes[code]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	return cloneStudent(m.students[id]), nil
}

// CreateStudent inserts a new student record, assigning its id and,
// when the code is blank, a generated code
func (m *MemoryStore) CreateStudent(ctx context.Context, student *models.Student) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record := cloneStudent(student)
	if record.Status == "" {
		record.Status = models.StatusActive
	}
	if record.Code == "" {
		for {
			code := NewStudentCode()
			if _, exists := m.studentCodes[code]; !exists {
				record.Code = code
				break
			}
		}
	} else if _, exists := m.studentCodes[record.Code]; exists {
		return nil, apperrors.ErrStudentCodeExists
	}

	m.nextStudentID++
	record.ID = m.nextStudentID
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	m.students[record.ID] = record
	m.studentCodes[record.Code] = record.ID

	return cloneStudent(record), nil
}

// UpdateStudent merges the patch into the stored record
func (m *MemoryStore) UpdateStudent(ctx context.Context, id int64, patch models.StudentPatch) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.students[id]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}

	updated := cloneStudent(current)
	applyStudentPatch(updated, patch)

	if updated.Code != current.Code {
		if _, exists := m.studentCodes[updated.Code]; exists {
			return nil, apperrors.ErrStudentCodeExists
		}
		delete(m.studentCodes, current.Code)
		m.studentCodes[updated.Code] = id
	}

	updated.UpdatedAt = time.Now()
	m.students[id] = updated

	return cloneStudent(updated), nil
}

// DeleteStudent removes the record, reporting whether it existed
func (m *MemoryStore) DeleteStudent(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.students[id]
	if !ok {
		return false, nil
	}

	delete(m.students, id)
	delete(m.studentCodes, s.Code)
	return true, nil
}

// StudentStats returns the status counters
func (m *MemoryStore) StudentStats(ctx context.Context) (*models.StudentStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make([]*models.Student, 0, len(m.students))
	for _, s := range m.students {
		snapshot = append(snapshot, s)
	}
	return countStats(snapshot), nil
}

// GetUserByID returns the user with the given id
func (m *MemoryStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return cloneUser(u), nil
}

// GetUserByUsername returns the user with the given username
func (m *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.usernames[username]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return cloneUser(m.users[id]), nil
}

// CreateUser inserts a new user account
func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.usernames[user.Username]; exists {
		return nil, apperrors.ErrUsernameExists
	}

	record := cloneUser(user)
	m.nextUserID++
	record.ID = m.nextUserID
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	m.users[record.ID] = record
	m.usernames[record.Username] = record.ID

	return cloneUser(record), nil
}

// UpdateUserLastLogin stamps the user's last successful login time
func (m *MemoryStore) UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}

	updated := cloneUser(u)
	updated.LastLoginAt = &at
	updated.UpdatedAt = at
	m.users[id] = updated
	return nil
}
