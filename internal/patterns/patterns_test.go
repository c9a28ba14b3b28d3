package patterns

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkheadRejectsWhenFull(t *testing.T) {
	b := NewBulkhead(1, 20*time.Millisecond, "test", "patterns-test")

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = b.Execute(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	err := b.Execute(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrBulkheadFull)

	close(release)
}

func TestBulkheadHonoursContext(t *testing.T) {
	b := NewBulkhead(1, time.Second, "ctx", "patterns-test")

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = b.Execute(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, b.Execute(ctx, func() error { return nil }), context.Canceled)
}

func TestBulkheadPassesThroughResult(t *testing.T) {
	b := NewBulkhead(2, time.Second, "result", "patterns-test")
	boom := errors.New("boom")
	assert.ErrorIs(t, b.Execute(context.Background(), func() error { return boom }), boom)
	assert.NoError(t, b.Execute(context.Background(), func() error { return nil }))
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker("trip", "patterns-test", BreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  2,
		FailureRatio: 0.5,
	})
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(func() (interface{}, error) { return nil, boom })
		require.ErrorIs(t, err, boom)
	}

	assert.Equal(t, 1, cb.GetStateValue())
	assert.Equal(t, "open", cb.GetState())
	assert.Equal(t, CircuitStatus{Name: "trip", State: "open", Value: 1}, cb.Status())

	_, err := cb.Execute(func() (interface{}, error) { return "unreached", nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}
