package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	content := []byte("fake jpeg bytes")
	require.NoError(t, store.Put("ws1", "mem1", "photo.jpg", content))

	got, err := store.Get("ws1", "mem1", "photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Get("ws1", "mem1", "missing.jpg")
	require.Error(t, err)
}

func TestDeleteMemoryRemovesAllBlobs(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, store.Put("ws1", "mem1", "a.jpg", []byte("a")))
	require.NoError(t, store.Put("ws1", "mem1", "b.jpg", []byte("b")))
	require.NoError(t, store.DeleteMemory("ws1", "mem1"))

	_, err := store.Get("ws1", "mem1", "a.jpg")
	assert.Error(t, err)
}

func TestPathNeutralizesTraversal(t *testing.T) {
	store := New(t.TempDir())
	err := store.Put("ws1", "mem1", "../../etc/passwd", []byte("x"))
	assert.NoError(t, err, "filepath.Base neutralizes traversal, writing under the safe dir instead")
}
