// Package store is the persistence boundary for customers, items and orders.
//
// Two implementations share the same contract: GormStore talks to
// PostgreSQL or MySQL through GORM, MemoryStore keeps everything in
// process and enforces the same referential rules. Callers that need
// atomicity run their work inside WithTx and use the Store handed to the
// callback for every read and write.
package store

import (
	"context"
	"errors"

	"github.com/ashendes/retail-api/internal/models"
)

var (
	// ErrNotFound is returned when no row matches the requested id
	ErrNotFound = errors.New("record not found")
	// ErrConstraint is returned when a write violates a key, foreign key or check constraint
	ErrConstraint = errors.New("constraint violation")
	// ErrImmutable is returned when updating a record type that cannot change after creation
	ErrImmutable = errors.New("record is immutable")
)

// Repository is the CRUD surface of a single table
type Repository[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

// Store groups the repositories and owns transactions
type Store interface {
	Customers() Repository[models.Customer]
	Items() Repository[models.Item]
	Orders() Repository[models.Order]

	// WithTx runs fn in a transaction. A non-nil error from fn rolls back
	// every write made through tx.
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
