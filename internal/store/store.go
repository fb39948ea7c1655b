// Package store is the GORM persistence layer. Every query is scoped to a
// tenant id.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
	// ErrInUse is returned when a row is still referenced, e.g. a client
	// with invoices.
	ErrInUse = errors.New("in use")
)

// Pagination defaults for list endpoints.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Page is an offset/limit window.
type Page struct {
	Skip  int
	Limit int
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	skip := p.Skip
	if skip < 0 {
		skip = 0
	}
	return q.Offset(skip).Limit(limit)
}

// Store wraps a *gorm.DB opened with TranslateError.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle, for health checks.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) scoped(ctx context.Context, tenantID string) *gorm.DB {
	return s.db.WithContext(ctx).Where("user_id = ?", tenantID)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrInUse
	}
	return err
}

func (s *Store) get(ctx context.Context, tenantID string, id uint, dst any) error {
	return translate(s.scoped(ctx, tenantID).First(dst, id).Error)
}

func (s *Store) deleteScoped(ctx context.Context, tenantID string, id uint, model any) error {
	res := s.scoped(ctx, tenantID).Delete(model, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
