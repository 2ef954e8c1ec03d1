package llm

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerClient wraps a Client with a circuit breaker so a flaky external
// LLM backend degrades to the template fallback instead of stalling every
// consolidation/distillation call behind repeated timeouts.
type BreakerClient struct {
	inner     Client
	summarize *gobreaker.CircuitBreaker[string]
	extract   *gobreaker.CircuitBreaker[string]
}

func NewBreakerClient(inner Client) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &BreakerClient{
		inner:     inner,
		summarize: gobreaker.NewCircuitBreaker[string](settings),
		extract:   gobreaker.NewCircuitBreaker[string](settings),
	}
}

func (b *BreakerClient) Summarize(ctx context.Context, contents []string) (string, error) {
	return b.summarize.Execute(func() (string, error) {
		return b.inner.Summarize(ctx, contents)
	})
}

func (b *BreakerClient) Extract(ctx context.Context, transcript string) (string, error) {
	return b.extract.Execute(func() (string, error) {
		return b.inner.Extract(ctx, transcript)
	})
}

var _ Client = (*BreakerClient)(nil)
