// Package vector provides the semantic-search backend hybrid ranking
// consumes, as an opaque, swappable operation: a noop default and a
// pgvector-backed implementation.
package vector

import "context"

// Match is one (memory id, similarity score) pair a Backend returns for a
// query, score normalized to [0,1].
type Match struct {
	MemoryID string
	Score    float64
}

// Backend is the semantic-search abstraction. Search returns at most limit
// matches for query, restricted to the ids in candidateIDs (the workspace's
// recall candidate pool; the vector backend never originates candidates,
// only scores them).
type Backend interface {
	Search(ctx context.Context, query string, candidateIDs []string, limit int) ([]Match, error)
	Index(ctx context.Context, memoryID, content string) error
}

// Noop is the zero-configuration default: no vector backend configured,
// hybrid ranking always falls back to pure keyword.
type Noop struct{}

func (Noop) Search(context.Context, string, []string, int) ([]Match, error) { return nil, nil }
func (Noop) Index(context.Context, string, string) error                    { return nil }

var _ Backend = Noop{}
