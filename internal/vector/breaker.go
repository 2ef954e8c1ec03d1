package vector

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerBackend wraps a Backend with a circuit breaker: a struggling
// vector database trips the breaker and recall silently falls back to
// keyword-only ranking rather than every recall paying a timeout.
type BreakerBackend struct {
	inner  Backend
	search *gobreaker.CircuitBreaker[[]Match]
}

func NewBreakerBackend(inner Backend) *BreakerBackend {
	settings := gobreaker.Settings{
		Name:        "vector",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &BreakerBackend{
		inner:  inner,
		search: gobreaker.NewCircuitBreaker[[]Match](settings),
	}
}

func (b *BreakerBackend) Search(ctx context.Context, query string, candidateIDs []string, limit int) ([]Match, error) {
	return b.search.Execute(func() ([]Match, error) {
		return b.inner.Search(ctx, query, candidateIDs, limit)
	})
}

func (b *BreakerBackend) Index(ctx context.Context, memoryID, content string) error {
	return b.inner.Index(ctx, memoryID, content)
}

var _ Backend = (*BreakerBackend)(nil)
