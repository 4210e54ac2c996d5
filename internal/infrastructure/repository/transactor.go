package repository

import (
	"context"

	interfaces "campus-enrollment/internal/interfaces/infrastructure"

	"gorm.io/gorm"
)

// Transactor runs units of work in a database transaction
type Transactor struct {
	db *gorm.DB
}

var _ interfaces.Transactor = (*Transactor)(nil)

// NewTransactor creates a new GORM transactor
func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

// Stores returns repositories bound to the plain connection pool
func (t *Transactor) Stores() interfaces.Stores {
	return storesFor(t.db)
}

// WithinTransaction commits when fn returns nil and rolls back otherwise
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, stores interfaces.Stores) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, storesFor(tx))
	})
}

func storesFor(db *gorm.DB) interfaces.Stores {
	return interfaces.Stores{
		Activities:  NewActivityRepository(db),
		Enrollments: NewEnrollmentRepository(db),
	}
}
