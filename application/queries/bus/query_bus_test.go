package bus

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoQuery struct {
	Value string
}

func (q echoQuery) Validate() error {
	if q.Value == "" {
		return errors.New("value is required")
	}
	return nil
}

type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
	timers int
}

func (m *countingMetrics) StartTimer(metric, label string) Timer {
	m.mu.Lock()
	m.timers++
	m.mu.Unlock()
	return stopFunc(func() {})
}

func (m *countingMetrics) Increment(metric, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[metric+":"+label]++
}

type stopFunc func()

func (f stopFunc) Stop() { f() }

func TestQueryBus(t *testing.T) {
	echo := QueryHandlerFunc(func(_ context.Context, q Query) (interface{}, error) {
		return q.(echoQuery).Value, nil
	})

	t.Run("Should dispatch to the registered handler", func(t *testing.T) {
		b := NewQueryBus()
		require.NoError(t, b.Register(echoQuery{}, echo))

		result, err := b.Ask(context.Background(), echoQuery{Value: "hi"})
		require.NoError(t, err)
		assert.Equal(t, "hi", result)
	})

	t.Run("Should reject duplicate registration", func(t *testing.T) {
		b := NewQueryBus()
		require.NoError(t, b.Register(echoQuery{}, echo))
		assert.Error(t, b.Register(echoQuery{}, echo))
	})

	t.Run("Should validate before dispatch", func(t *testing.T) {
		b := NewQueryBus()
		require.NoError(t, b.Register(echoQuery{}, echo))

		_, err := b.Ask(context.Background(), echoQuery{})
		assert.ErrorContains(t, err, "query validation failed")
	})

	t.Run("Should fail for unknown query types", func(t *testing.T) {
		_, err := NewQueryBus().Ask(context.Background(), echoQuery{Value: "x"})
		assert.ErrorContains(t, err, "no handler registered")
	})

	t.Run("Should keep the handler error in the chain", func(t *testing.T) {
		sentinel := errors.New("boom")
		b := NewQueryBus()
		require.NoError(t, b.Register(echoQuery{}, QueryHandlerFunc(func(context.Context, Query) (interface{}, error) {
			return nil, sentinel
		})))

		_, err := b.Ask(context.Background(), echoQuery{Value: "x"})
		assert.ErrorIs(t, err, sentinel)
	})
}

func TestMetricsMiddleware(t *testing.T) {
	metrics := &countingMetrics{counts: map[string]int{}}
	mw := NewMetricsMiddleware(metrics)

	ok := mw.Wrap(QueryHandlerFunc(func(context.Context, Query) (interface{}, error) { return 1, nil }))
	failing := mw.Wrap(QueryHandlerFunc(func(context.Context, Query) (interface{}, error) { return nil, errors.New("x") }))

	_, _ = ok.Handle(context.Background(), echoQuery{Value: "a"})
	_, _ = failing.Handle(context.Background(), echoQuery{Value: "a"})

	assert.Equal(t, 2, metrics.counts["query_count:echoQuery"])
	assert.Equal(t, 1, metrics.counts["query_success:echoQuery"])
	assert.Equal(t, 1, metrics.counts["query_errors:echoQuery"])
	assert.Equal(t, 2, metrics.timers)
}
