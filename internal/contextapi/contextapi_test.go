package contextapi

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memento/internal/blob"
	"memento/internal/config"
	"memento/internal/identity"
	"memento/internal/memory"
	"memento/internal/model"
	"memento/internal/skiplist"
	"memento/internal/store/workspace"
	"memento/internal/vector"
	"memento/internal/workspacemgr"
)

type noPeeks struct{}

func (noPeeks) ResolvePeeks(context.Context, *model.User, []string) ([]*workspacemgr.Handle, error) {
	return nil, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := workspace.Open(context.Background(), filepath.Join(t.TempDir(), "ws.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ws := &model.Workspace{ID: "ws1", Name: "default"}
	handle := &workspacemgr.Handle{Workspace: ws, Store: store, Key: nil}

	memSvc := memory.NewService(store, &blob.Store{}, vector.Noop{}, nil, config.Plan{MaxMemories: 1000}, "ws1")
	skipSvc := skiplist.NewService(store, nil)
	identSvc := identity.NewService(store, nil)

	return NewService(handle, memSvc, skipSvc, identSvc, vector.Noop{}, noPeeks{}, &model.User{ID: "u1"})
}

func TestComposeIncludesAllSectionsByDefault(t *testing.T) {
	svc := newTestService(t)
	resp, err := svc.Compose(context.Background(), Request{Message: "hello"})
	require.NoError(t, err)
	assert.NotNil(t, resp.WorkingMemory)
	assert.NotNil(t, resp.Memories)
	assert.NotNil(t, resp.SkipList)
	assert.NotNil(t, resp.Identity)
}

func TestComposeRespectsIncludeFilter(t *testing.T) {
	svc := newTestService(t)
	resp, err := svc.Compose(context.Background(), Request{Message: "hello", Include: []string{SectionIdentity}})
	require.NoError(t, err)
	assert.Nil(t, resp.WorkingMemory)
	assert.Nil(t, resp.Memories)
	assert.Nil(t, resp.SkipList)
	assert.NotNil(t, resp.Identity)
}

func TestComposeMemoriesFindsCreatedMemory(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.memories.Create(context.Background(), memory.CreateInput{
		Content: "the deploy pipeline uses github actions",
		Type:    model.MemoryFact,
	})
	require.NoError(t, err)

	resp, err := svc.Compose(context.Background(), Request{Message: "deploy pipeline", Include: []string{SectionMemories}})
	require.NoError(t, err)
	require.NotNil(t, resp.Memories)
	require.Len(t, resp.Memories.Results, 1)
	assert.Equal(t, "the deploy pipeline uses github actions", resp.Memories.Results[0].Memory.Content)
}

func TestComposeMetaReflectsMemoryCount(t *testing.T) {
	svc := newTestService(t)
	resp, err := svc.Compose(context.Background(), Request{Message: "nothing matches at all"})
	require.NoError(t, err)
	require.NotNil(t, resp.Meta.MemoryCount)
	assert.Equal(t, 0, *resp.Meta.MemoryCount)
}

func TestSortItemsOrdersByPriorityThenRecency(t *testing.T) {
	now := time.Now()
	items := []model.Item{
		{ID: "low", Priority: 1, CreatedAt: now},
		{ID: "high", Priority: 5, CreatedAt: now.Add(-time.Hour)},
	}
	sortItems(items)
	assert.Equal(t, "high", items[0].ID)
}
