package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ashendes/retail-api/internal/models"
)

// MemoryStore is an in-process Store. Transactions run serially against a
// copy of the data that replaces the original only when the callback
// succeeds.
type MemoryStore struct {
	mu   *sync.Mutex
	data *memoryData
	inTx bool
}

type memoryData struct {
	customers memTable[models.Customer]
	items     memTable[models.Item]
	orders    memTable[models.Order]
}

// NewMemoryStore returns an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu: &sync.Mutex{},
		data: &memoryData{
			customers: newMemTable(func(c *models.Customer) *uint { return &c.ID }),
			items:     newMemTable(func(i *models.Item) *uint { return &i.ID }),
			orders:    newMemTable(func(o *models.Order) *uint { return &o.ID }),
		},
	}
}

func (s *MemoryStore) Customers() Repository[models.Customer] {
	return memRepo[models.Customer]{
		store: s,
		table: func(d *memoryData) *memTable[models.Customer] { return &d.customers },
		beforeDelete: func(d *memoryData, id uint) error {
			return d.orders.referenced(func(o *models.Order) bool { return o.CustomerID == id }, "customer", id)
		},
	}
}

func (s *MemoryStore) Items() Repository[models.Item] {
	return memRepo[models.Item]{
		store: s,
		table: func(d *memoryData) *memTable[models.Item] { return &d.items },
		beforeWrite: func(_ *memoryData, item *models.Item) error {
			if item.Price.IsNegative() {
				return fmt.Errorf("%w: item price must not be negative", ErrConstraint)
			}
			if !models.MoneyFits(item.Price) {
				return fmt.Errorf("%w: item price %s does not fit numeric(12,2)", ErrConstraint, item.Price)
			}
			return nil
		},
		beforeDelete: func(d *memoryData, id uint) error {
			return d.orders.referenced(func(o *models.Order) bool { return o.ItemID == id }, "item", id)
		},
	}
}

func (s *MemoryStore) Orders() Repository[models.Order] {
	return memRepo[models.Order]{
		store:     s,
		table:     func(d *memoryData) *memTable[models.Order] { return &d.orders },
		updateErr: ErrImmutable,
		beforeWrite: func(d *memoryData, order *models.Order) error {
			if order.Quantity <= 0 {
				return fmt.Errorf("%w: order quantity must be positive", ErrConstraint)
			}
			if !models.MoneyFits(order.AmountDue) {
				return fmt.Errorf("%w: amount due %s does not fit numeric(12,2)", ErrConstraint, order.AmountDue)
			}
			if _, ok := d.customers.rows[order.CustomerID]; !ok {
				return fmt.Errorf("%w: customer %d does not exist", ErrConstraint, order.CustomerID)
			}
			if _, ok := d.items.rows[order.ItemID]; !ok {
				return fmt.Errorf("%w: item %d does not exist", ErrConstraint, order.ItemID)
			}
			return nil
		},
		resolve: func(d *memoryData, order *models.Order) {
			if c, ok := d.customers.rows[order.CustomerID]; ok {
				order.Customer = &c
			}
			if i, ok := d.items.rows[order.ItemID]; ok {
				order.Item = &i
			}
		},
	}
}

// WithTx runs fn against a snapshot and commits it when fn returns nil
func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		// nested: behave like a savepoint
		snapshot := s.data.clone()
		if err := fn(s); err != nil {
			*s.data = *snapshot
			return err
		}
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.data.clone()
	tx := &MemoryStore{mu: s.mu, data: working, inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = working
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// do runs fn with the store's data, locking unless already inside a transaction
func (s *MemoryStore) do(ctx context.Context, fn func(d *memoryData) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.inTx {
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (d *memoryData) clone() *memoryData {
	return &memoryData{
		customers: d.customers.clone(),
		items:     d.items.clone(),
		orders:    d.orders.clone(),
	}
}

type memTable[T any] struct {
	rows   map[uint]T
	nextID uint
	id     func(*T) *uint
}

func newMemTable[T any](id func(*T) *uint) memTable[T] {
	return memTable[T]{rows: make(map[uint]T), nextID: 1, id: id}
}

func (t memTable[T]) clone() memTable[T] {
	rows := make(map[uint]T, len(t.rows))
	for k, v := range t.rows {
		rows[k] = v
	}
	return memTable[T]{rows: rows, nextID: t.nextID, id: t.id}
}

func (t memTable[T]) sortedIDs() []uint {
	ids := make([]uint, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (t memTable[T]) referenced(match func(*T) bool, kind string, id uint) error {
	for _, row := range t.rows {
		if match(&row) {
			return fmt.Errorf("%w: %s %d is still referenced", ErrConstraint, kind, id)
		}
	}
	return nil
}

type memRepo[T any] struct {
	store        *MemoryStore
	table        func(*memoryData) *memTable[T]
	beforeWrite  func(*memoryData, *T) error
	beforeDelete func(*memoryData, uint) error
	resolve      func(*memoryData, *T)
	updateErr    error
}

func (r memRepo[T]) output(d *memoryData, row T) T {
	if r.resolve != nil {
		r.resolve(d, &row)
	}
	return row
}

func (r memRepo[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	err := r.store.do(ctx, func(d *memoryData) error {
		table := r.table(d)
		out = make([]T, 0, len(table.rows))
		for _, id := range table.sortedIDs() {
			out = append(out, r.output(d, table.rows[id]))
		}
		return nil
	})
	return out, err
}

func (r memRepo[T]) Get(ctx context.Context, id uint) (*T, error) {
	var out *T
	err := r.store.do(ctx, func(d *memoryData) error {
		row, ok := r.table(d).rows[id]
		if !ok {
			return ErrNotFound
		}
		row = r.output(d, row)
		out = &row
		return nil
	})
	return out, err
}

func (r memRepo[T]) Create(ctx context.Context, entity *T) error {
	return r.store.do(ctx, func(d *memoryData) error {
		table := r.table(d)
		if r.beforeWrite != nil {
			if err := r.beforeWrite(d, entity); err != nil {
				return err
			}
		}

		id := table.id(entity)
		if *id == 0 {
			*id = table.nextID
		} else if _, exists := table.rows[*id]; exists {
			return fmt.Errorf("%w: duplicate id %d", ErrConstraint, *id)
		}
		if *id >= table.nextID {
			table.nextID = *id + 1
		}
		table.rows[*id] = stripAssociations(*entity)
		return nil
	})
}

func (r memRepo[T]) Update(ctx context.Context, entity *T) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.store.do(ctx, func(d *memoryData) error {
		table := r.table(d)
		id := *table.id(entity)
		if _, ok := table.rows[id]; !ok {
			return ErrNotFound
		}
		if r.beforeWrite != nil {
			if err := r.beforeWrite(d, entity); err != nil {
				return err
			}
		}
		table.rows[id] = stripAssociations(*entity)
		return nil
	})
}

func (r memRepo[T]) Delete(ctx context.Context, id uint) error {
	return r.store.do(ctx, func(d *memoryData) error {
		table := r.table(d)
		if _, ok := table.rows[id]; !ok {
			return ErrNotFound
		}
		if r.beforeDelete != nil {
			if err := r.beforeDelete(d, id); err != nil {
				return err
			}
		}
		delete(table.rows, id)
		return nil
	})
}

func (r memRepo[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.store.do(ctx, func(d *memoryData) error {
		n = int64(len(r.table(d).rows))
		return nil
	})
	return n, err
}

// stripAssociations drops resolved associations so stored rows only carry keys
func stripAssociations[T any](row T) T {
	if order, ok := any(&row).(*models.Order); ok {
		order.Customer = nil
		order.Item = nil
	}
	return row
}

var _ Store = (*MemoryStore)(nil)
