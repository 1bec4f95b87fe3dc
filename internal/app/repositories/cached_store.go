package repositories

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oguzk/studentdesk/internal/app/models"
)

// DefaultCacheTTL is how long cached reads stay fresh when the
// configuration does not say otherwise
const DefaultCacheTTL = 60 * time.Second

type cacheEntry struct {
	value      interface{}
	capturedAt time.Time
}

// CachedStore wraps another Store with a read-through cache. Entries are
// keyed by operation name plus serialized arguments and expire after the
// TTL. Every write clears the whole cache: writes are rare in this
// system and a full clear can never serve stale data. The cache is
// process-local and never the source of truth.
//
// Cached values are shared between callers, so results must be treated
// as read-only.
type CachedStore struct {
	next Store
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCachedStore wraps next with a cache using the given TTL.
// A non-positive TTL falls back to DefaultCacheTTL.
func NewCachedStore(next Store, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedStore{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *CachedStore) lookup(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.capturedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (c *CachedStore) save(key string, value interface{}) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, capturedAt: c.now()}
	c.mu.Unlock()
}

func (c *CachedStore) invalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

func listKey(filter models.StudentFilter) string {
	return fmt.Sprintf("students:list:%s|%d|%s|%s|%d|%d",
		filter.Status, filter.Grade, strings.ToLower(filter.Search),
		filter.Sort, filter.Page, filter.Limit)
}

// ListStudents serves the listing from cache when fresh
func (c *CachedStore) ListStudents(ctx context.Context, filter models.StudentFilter) ([]*models.Student, error) {
	key := listKey(filter)
	if cached, ok := c.lookup(key); ok {
		return cached.([]*models.Student), nil
	}

	students, err := c.next.ListStudents(ctx, filter)
	if err != nil {
		return nil, err
	}
	c.save(key, students)
	return students, nil
}

// GetStudentByID serves the lookup from cache when fresh
func (c *CachedStore) GetStudentByID(ctx context.Context, id int64) (*models.Student, error) {
	key := fmt.Sprintf("students:id:%d", id)
	if cached, ok := c.lookup(key); ok {
		return cached.(*models.Student), nil
	}

	student, err := c.next.GetStudentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.save(key, student)
	return student, nil
}

// GetStudentByCode serves the lookup from cache when fresh
func (c *CachedStore) GetStudentByCode(ctx context.Context, code string) (*models.Student, error) {
	key := "students:code:" + code
	if cached, ok := c.lookup(key); ok {
		return cached.(*models.Student), nil
	}

	student, err := c.next.GetStudentByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	c.save(key, student)
	return student, nil
}

// CreateStudent writes through and clears the cache
func (c *CachedStore) CreateStudent(ctx context.Context, student *models.Student) (*models.Student, error) {
	created, err := c.next.CreateStudent(ctx, student)
	if err != nil {
		return nil, err
	}
	c.invalidateAll()
	return created, nil
}

// UpdateStudent writes through and clears the cache
func (c *CachedStore) UpdateStudent(ctx context.Context, id int64, patch models.StudentPatch) (*models.Student, error) {
	updated, err := c.next.UpdateStudent(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	c.invalidateAll()
	return updated, nil
}

// DeleteStudent writes through and clears the cache when a record
// was actually removed
func (c *CachedStore) DeleteStudent(ctx context.Context, id int64) (bool, error) {
	deleted, err := c.next.DeleteStudent(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		c.invalidateAll()
	}
	return deleted, nil
}

// StudentStats serves the counters from cache when fresh
func (c *CachedStore) StudentStats(ctx context.Context) (*models.StudentStats, error) {
	const key = "students:stats"
	if cached, ok := c.lookup(key); ok {
		return cached.(*models.StudentStats), nil
	}

	stats, err := c.next.StudentStats(ctx)
	if err != nil {
		return nil, err
	}
	c.save(key, stats)
	return stats, nil
}

// GetUserByID serves the lookup from cache when fresh
func (c *CachedStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	key := fmt.Sprintf("users:id:%d", id)
	if cached, ok := c.lookup(key); ok {
		return cached.(*models.User), nil
	}

	user, err := c.next.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.save(key, user)
	return user, nil
}

// GetUserByUsername serves the lookup from cache when fresh
func (c *CachedStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	key := "users:name:" + username
	if cached, ok := c.lookup(key); ok {
		return cached.(*models.User), nil
	}

	user, err := c.next.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	c.save(key, user)
	return user, nil
}

// CreateUser writes through and clears the cache
func (c *CachedStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	created, err := c.next.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	c.invalidateAll()
	return created, nil
}

// UpdateUserLastLogin writes through and clears the cache
func (c *CachedStore) UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error {
	if err := c.next.UpdateUserLastLogin(ctx, id, at); err != nil {
		return err
	}
	c.invalidateAll()
	return nil
}
