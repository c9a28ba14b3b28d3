package patterns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashendes/retail-api/internal/metrics"
)

// ErrBulkheadFull is returned when no slot frees up within the wait budget
var ErrBulkheadFull = errors.New("bulkhead full")

// Bulkhead caps the number of concurrent calls to a dependency
type Bulkhead struct {
	semaphore chan struct{}
	wait      time.Duration
	name      string
	service   string
}

// NewBulkhead creates a new bulkhead with specified capacity
func NewBulkhead(size int, wait time.Duration, name, service string) *Bulkhead {
	if size <= 0 {
		size = 1
	}
	return &Bulkhead{
		semaphore: make(chan struct{}, size),
		wait:      wait,
		name:      name,
		service:   service,
	}
}

// Execute runs fn once a slot is free, giving up after the wait budget or
// when ctx is done
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	timer := time.NewTimer(b.wait)
	defer timer.Stop()

	select {
	case b.semaphore <- struct{}{}:
		metrics.BulkheadActiveRequests.WithLabelValues(b.service, b.name).Inc()

		defer func() {
			<-b.semaphore
			metrics.BulkheadActiveRequests.WithLabelValues(b.service, b.name).Dec()
		}()

		return fn()

	case <-timer.C:
		metrics.BulkheadRejectedRequests.WithLabelValues(b.service, b.name).Inc()
		return fmt.Errorf("%w: %s", ErrBulkheadFull, b.name)

	case <-ctx.Done():
		return ctx.Err()
	}
}
