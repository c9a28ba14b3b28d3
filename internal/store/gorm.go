package store

import (
	"context"
	"fmt"

	"github.com/ashendes/retail-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on top of a GORM connection
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open GORM handle
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Customers() Repository[models.Customer] {
	return gormTable[models.Customer]{db: s.db}
}

func (s *GormStore) Items() Repository[models.Item] {
	return gormTable[models.Item]{db: s.db}
}

func (s *GormStore) Orders() Repository[models.Order] {
	return gormTable[models.Order]{
		db:        s.db,
		preload:   []string{"Customer", "Item"},
		updateErr: ErrImmutable,
	}
}

// WithTx runs fn inside a database transaction. Nested calls use savepoints.
func (s *GormStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// Ping checks the underlying connection pool
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("resolve sql db handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Migrate creates or updates the tables for every model
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&models.Customer{}, &models.Item{}, &models.Order{})
}

// Close releases the connection pool
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormTable[T any] struct {
	db        *gorm.DB
	preload   []string
	updateErr error
}

func (t gormTable[T]) query(ctx context.Context) *gorm.DB {
	q := t.db.WithContext(ctx)
	for _, assoc := range t.preload {
		q = q.Preload(assoc)
	}
	return q
}

func (t gormTable[T]) List(ctx context.Context) ([]T, error) {
	var rows []T
	if err := t.query(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

func (t gormTable[T]) Get(ctx context.Context, id uint) (*T, error) {
	var row T
	if err := t.query(ctx).First(&row, id).Error; err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (t gormTable[T]) Create(ctx context.Context, entity *T) error {
	return translate(t.db.WithContext(ctx).Omit(clause.Associations).Create(entity).Error)
}

// Update writes every column of entity, including zero values
func (t gormTable[T]) Update(ctx context.Context, entity *T) error {
	if t.updateErr != nil {
		return t.updateErr
	}
	err := t.db.WithContext(ctx).
		Model(entity).
		Select("*").
		Omit(clause.Associations).
		Updates(entity).
		Error
	return translate(err)
}

func (t gormTable[T]) Delete(ctx context.Context, id uint) error {
	result := t.db.WithContext(ctx).Delete(new(T), id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t gormTable[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := t.db.WithContext(ctx).Model(new(T)).Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return n, nil
}

var _ Store = (*GormStore)(nil)
