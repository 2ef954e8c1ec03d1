package decay

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memento/internal/model"
	"memento/internal/platform/idgen"
	"memento/internal/store/workspace"
)

func newTestStore(t *testing.T) *workspace.Store {
	t.Helper()
	store, err := workspace.Open(context.Background(), filepath.Join(t.TempDir(), "ws.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSweepWritesBackChangedRelevance(t *testing.T) {
	store := newTestStore(t)
	m := model.Memory{
		ID:        idgen.New("mem"),
		Content:   "stale memory",
		Type:      model.MemoryFact,
		CreatedAt: time.Now().UTC().Add(-30 * 24 * time.Hour),
		Relevance: 1,
	}
	require.NoError(t, store.InsertMemory(context.Background(), m))

	svc := NewService(store)
	updated, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	got, err := store.GetMemory(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Less(t, got.Relevance, 1.0)
}

func TestSweepSkipsUnchangedRelevance(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC()
	// Future-dated so rec(M) is exactly 1 at sweep time; with no accesses
	// the recomputed relevance equals the stored 1.
	m := model.Memory{
		ID:        idgen.New("mem"),
		Content:   "brand new memory",
		Type:      model.MemoryFact,
		CreatedAt: now.Add(time.Hour),
		Relevance: 1,
	}
	require.NoError(t, store.InsertMemory(context.Background(), m))

	svc := NewService(store)
	updated, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
}

func TestSweepSkipsExpired(t *testing.T) {
	store := newTestStore(t)
	past := time.Now().UTC().Add(-time.Hour)
	expired := model.Memory{
		ID:        idgen.New("mem"),
		Content:   "expired",
		Type:      model.MemoryFact,
		CreatedAt: time.Now().UTC().Add(-60 * 24 * time.Hour),
		ExpiresAt: &past,
		Relevance: 1,
	}
	require.NoError(t, store.InsertMemory(context.Background(), expired))

	svc := NewService(store)
	updated, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
}
