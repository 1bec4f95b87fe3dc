package repositories

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/oguzk/studentdesk/internal/app/models"
	"github.com/oguzk/studentdesk/internal/pkg/apperrors"
)

// Bucket names used by the bolt backend
const (
	bucketStudents     = "students"
	bucketStudentCodes = "student_codes"
	bucketUsers        = "users"
	bucketUsernames    = "usernames"
)

// BoltStore persists records as JSON documents in a bbolt file. Record
// ids come from each bucket's sequence counter, so they are native to
// the backend and survive restarts. The code and username buckets are
// secondary indexes mapping unique keys to record ids.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) the database file and ensures all
// buckets exist
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketStudents, bucketStudentCodes, bucketUsers, bucketUsernames} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close releases the database file
func (b *BoltStore) Close() error {
	return b.db.Close()
}

func itob(v int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return buf
}

// ListStudents returns students matching the filter
func (b *BoltStore) ListStudents(ctx context.Context, filter models.StudentFilter) ([]*models.Student, error) {
	var students []*models.Student
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketStudents)).ForEach(func(_, v []byte) error {
			var s models.Student
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("failed to decode student record: %w", err)
			}
			students = append(students, &s)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return ApplyStudentFilter(students, filter), nil
}

// GetStudentByID returns the student with the given id
func (b *BoltStore) GetStudentByID(ctx context.Context, id int64) (*models.Student, error) {
	var student *models.Student
	err := b.db.View(func(tx *bbolt.Tx) error {
		var err error
		student, err = getStudentTx(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return student, nil
}

// GetStudentByCode returns the student with the given code
func (b *BoltStore) GetStudentByCode(ctx context.Context, code string) (*models.Student, error) {
	var student *models.Student
	err := b.db.View(func(tx *bbolt.Tx) error {
		idBytes := tx.Bucket([]byte(bucketStudentCodes)).Get([]byte(code))
		if idBytes == nil {
			return apperrors.ErrStudentNotFound
		}
		var err error
		student, err = getStudentTx(tx, int64(binary.BigEndian.Uint64(idBytes)))
		return err
	})
	if err != nil {
		return nil, err
	}
	return student, nil
}

func getStudentTx(tx *bbolt.Tx, id int64) (*models.Student, error) {
	data := tx.Bucket([]byte(bucketStudents)).Get(itob(id))
	if data == nil {
		return nil, apperrors.ErrStudentNotFound
	}
	var s models.Student
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode student record: %w", err)
	}
	return &s, nil
}

func putStudentTx(tx *bbolt.Tx, s *models.Student) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode student record: %w", err)
	}
	return tx.Bucket([]byte(bucketStudents)).Put(itob(s.ID), data)
}

// CreateStudent inserts a new record, taking its id from the bucket
// sequence and generating a code when none was supplied
func (b *BoltStore) CreateStudent(ctx context.Context, student *models.Student) (*models.Student, error) {
	record := *student
	if record.Status == "" {
		record.Status = models.StatusActive
	}
	err := b.db.Update(func(tx *bbolt.Tx) error {
		students := tx.Bucket([]byte(bucketStudents))
		codes := tx.Bucket([]byte(bucketStudentCodes))

		if record.Code == "" {
			for {
				code := NewStudentCode()
				if codes.Get([]byte(code)) == nil {
					record.Code = code
					break
				}
			}
		} else if codes.Get([]byte(record.Code)) != nil {
			return apperrors.ErrStudentCodeExists
		}

		seq, err := students.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate student id: %w", err)
		}
		record.ID = int64(seq)
		now := time.Now()
		record.CreatedAt = now
		record.UpdatedAt = now

		if err := putStudentTx(tx, &record); err != nil {
			return err
		}
		return codes.Put([]byte(record.Code), itob(record.ID))
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateStudent merges the patch into the stored record
func (b *BoltStore) UpdateStudent(ctx context.Context, id int64, patch models.StudentPatch) (*models.Student, error) {
	var updated *models.Student
	err := b.db.Update(func(tx *bbolt.Tx) error {
		current, err := getStudentTx(tx, id)
		if err != nil {
			return err
		}

		record := *current
		applyStudentPatch(&record, patch)

		if record.Code != current.Code {
			codes := tx.Bucket([]byte(bucketStudentCodes))
			if codes.Get([]byte(record.Code)) != nil {
				return apperrors.ErrStudentCodeExists
			}
			if err := codes.Delete([]byte(current.Code)); err != nil {
				return err
			}
			if err := codes.Put([]byte(record.Code), itob(id)); err != nil {
				return err
			}
		}

		record.UpdatedAt = time.Now()
		if err := putStudentTx(tx, &record); err != nil {
			return err
		}
		updated = &record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteStudent removes the record and its code index entry
func (b *BoltStore) DeleteStudent(ctx context.Context, id int64) (bool, error) {
	deleted := false
	err := b.db.Update(func(tx *bbolt.Tx) error {
		students := tx.Bucket([]byte(bucketStudents))
		data := students.Get(itob(id))
		if data == nil {
			return nil
		}

		var s models.Student
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode student record: %w", err)
		}

		if err := students.Delete(itob(id)); err != nil {
			return err
		}
		if err := tx.Bucket([]byte(bucketStudentCodes)).Delete([]byte(s.Code)); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// StudentStats returns the status counters
func (b *BoltStore) StudentStats(ctx context.Context) (*models.StudentStats, error) {
	var students []*models.Student
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketStudents)).ForEach(func(_, v []byte) error {
			var s models.Student
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("failed to decode student record: %w", err)
			}
			students = append(students, &s)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return countStats(students), nil
}

// boltUser re-exposes the password hash, which the model hides from
// API serialization but the backend has to persist
type boltUser struct {
	models.User
	Password string `json:"password"`
}

func encodeUser(u *models.User) ([]byte, error) {
	data, err := json.Marshal(&boltUser{User: *u, Password: u.Password})
	if err != nil {
		return nil, fmt.Errorf("failed to encode user record: %w", err)
	}
	return data, nil
}

func decodeUser(data []byte) (*models.User, error) {
	var rec boltUser
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode user record: %w", err)
	}
	user := rec.User
	user.Password = rec.Password
	return &user, nil
}

func getUserTx(tx *bbolt.Tx, id int64) (*models.User, error) {
	data := tx.Bucket([]byte(bucketUsers)).Get(itob(id))
	if data == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return decodeUser(data)
}

// GetUserByID returns the user with the given id
func (b *BoltStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user *models.User
	err := b.db.View(func(tx *bbolt.Tx) error {
		var err error
		user, err = getUserTx(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByUsername returns the user with the given username
func (b *BoltStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user *models.User
	err := b.db.View(func(tx *bbolt.Tx) error {
		idBytes := tx.Bucket([]byte(bucketUsernames)).Get([]byte(username))
		if idBytes == nil {
			return apperrors.ErrUserNotFound
		}
		var err error
		user, err = getUserTx(tx, int64(binary.BigEndian.Uint64(idBytes)))
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a new user account
func (b *BoltStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	record := *user
	err := b.db.Update(func(tx *bbolt.Tx) error {
		users := tx.Bucket([]byte(bucketUsers))
		usernames := tx.Bucket([]byte(bucketUsernames))

		if usernames.Get([]byte(record.Username)) != nil {
			return apperrors.ErrUsernameExists
		}

		seq, err := users.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate user id: %w", err)
		}
		record.ID = int64(seq)
		now := time.Now()
		record.CreatedAt = now
		record.UpdatedAt = now

		data, err := encodeUser(&record)
		if err != nil {
			return err
		}
		if err := users.Put(itob(record.ID), data); err != nil {
			return err
		}
		return usernames.Put([]byte(record.Username), itob(record.ID))
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateUserLastLogin stamps the user's last successful login time
func (b *BoltStore) UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		user, err := getUserTx(tx, id)
		if err != nil {
			return err
		}

		user.LastLoginAt = &at
		user.UpdatedAt = at

		data, err := encodeUser(user)
		if err != nil {
			return err
		}
		return tx.Bucket([]byte(bucketUsers)).Put(itob(id), data)
	})
}
