package item

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memento/internal/config"
	"memento/internal/model"
	"memento/internal/store/workspace"
)

func newTestService(t *testing.T, key []byte) *Service {
	t.Helper()
	store, err := workspace.Open(context.Background(), filepath.Join(t.TempDir(), "ws.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewService(store, key, config.PlanByName("pro"))
}

func TestCreateRejectsEmptyTitle(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.Create(context.Background(), CreateInput{Category: model.CategoryActiveWork, Title: ""})
	assert.Error(t, err)
}

func TestCreateAndGetRoundTripsEncrypted(t *testing.T) {
	key := make([]byte, 32)
	svc := newTestService(t, key)
	it, err := svc.Create(context.Background(), CreateInput{
		Category: model.CategoryActiveWork,
		Title:    "ship the release",
		Content:  "cut v1.2 and notify the team",
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), it.ID)
	require.NoError(t, err)
	assert.Equal(t, "ship the release", got.Title)
	assert.Equal(t, "cut v1.2 and notify the team", got.Content)
}

func TestListFreeTextQueryMatchesAfterDecryption(t *testing.T) {
	key := make([]byte, 32)
	svc := newTestService(t, key)
	_, err := svc.Create(context.Background(), CreateInput{Category: model.CategoryActiveWork, Title: "ship the release"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateInput{Category: model.CategoryActiveWork, Title: "buy groceries"})
	require.NoError(t, err)

	results, err := svc.List(context.Background(), workspace.ItemFilter{Query: "release"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ship the release", results[0].Title)
}

func TestArchivedItemsExcludedFromQuota(t *testing.T) {
	svc := newTestService(t, nil)
	it, err := svc.Create(context.Background(), CreateInput{Category: model.CategoryActiveWork, Title: "a task"})
	require.NoError(t, err)

	archived := model.StatusArchived
	_, err = svc.Update(context.Background(), it.ID, UpdateInput{Status: &archived})
	require.NoError(t, err)

	assert.False(t, model.Item{Status: model.StatusArchived}.CountsTowardQuota())
}
