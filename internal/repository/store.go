package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a guarded update matched no row because its
	// precondition no longer holds.
	ErrConflict = errors.New("precondition failed")
)

// Store groups the repositories over one connection or transaction.
type Store struct {
	db *gorm.DB

	Admins        *AdminRepository
	Students      *StudentRepository
	Equipment     *EquipmentRepository
	Requests      *RequestRepository
	Notifications *NotificationRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Admins:        NewAdminRepository(db),
		Students:      NewStudentRepository(db),
		Equipment:     NewEquipmentRepository(db),
		Requests:      NewRequestRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

func (s *Store) DB() *gorm.DB { return s.db }

// InTx runs fn against a Store bound to a single transaction. Any error
// returned by fn rolls the transaction back.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Page normalizes pagination input.
type Page struct {
	Page  int
	Limit int
}

func (p Page) normalize(defaultLimit, maxLimit int) Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// Resolve applies the defaults a list call with defaultLimit would use.
func (p Page) Resolve(defaultLimit int) Page { return p.normalize(defaultLimit, maxPageLimit) }

const maxPageLimit = 100

func (p Page) offset() int { return (p.Page - 1) * p.Limit }

func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(strings.TrimSpace(s)))
	return "%" + s + "%"
}
