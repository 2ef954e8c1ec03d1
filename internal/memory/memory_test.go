package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memento/internal/blob"
	"memento/internal/config"
	"memento/internal/model"
	"memento/internal/store/workspace"
	"memento/internal/vector"
)

func newTestService(t *testing.T, key []byte) *Service {
	t.Helper()
	store, err := workspace.Open(context.Background(), filepath.Join(t.TempDir(), "ws.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	blobStore := blob.New(t.TempDir())
	return NewService(store, blobStore, vector.Noop{}, key, config.PlanByName("pro"), "ws-test")
}

func TestCreateRejectsEmptyContent(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.Create(context.Background(), CreateInput{Content: "", Type: model.MemoryFact})
	assert.Error(t, err)
}

func TestCreateRejectsInvalidType(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.Create(context.Background(), CreateInput{Content: "hello", Type: "bogus"})
	assert.Error(t, err)
}

func TestCreateAndGetRoundTripsPlaintext(t *testing.T) {
	svc := newTestService(t, nil)
	m, err := svc.Create(context.Background(), CreateInput{
		Content: "the mcp sdk uses zod for schema validation",
		Type:    model.MemoryFact,
		Tags:    []string{"mcp", "Tech"},
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, "the mcp sdk uses zod for schema validation", got.Content)
	assert.ElementsMatch(t, []string{"mcp", "tech"}, got.Tags)
}

func TestCreateAndGetRoundTripsEncrypted(t *testing.T) {
	key := make([]byte, 32)
	svc := newTestService(t, key)
	m, err := svc.Create(context.Background(), CreateInput{Content: "secret content", Type: model.MemoryFact})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret content", got.Content)
}

func TestDeleteRemovesMemory(t *testing.T) {
	svc := newTestService(t, nil)
	m, err := svc.Create(context.Background(), CreateInput{Content: "to delete", Type: model.MemoryFact})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), m.ID))
	_, err = svc.Get(context.Background(), m.ID)
	assert.Error(t, err)
}

func TestCreateRejectsOversizedImageBatch(t *testing.T) {
	svc := newTestService(t, nil)
	var images []ImageUpload
	for i := 0; i < 6; i++ {
		images = append(images, ImageUpload{Filename: "a.jpg", MimeType: "image/jpeg", Data: []byte("x")})
	}
	_, err := svc.Create(context.Background(), CreateInput{Content: "c", Type: model.MemoryFact, Images: images})
	assert.Error(t, err)
}
