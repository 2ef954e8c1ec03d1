package workspacemgr

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"memento/internal/crypto"
	"memento/internal/model"
	"memento/internal/store/control"
)

func newTestManager(t *testing.T, masterKey []byte) (*Manager, *control.Store) {
	t.Helper()
	ctx := context.Background()
	cs, err := control.Open(ctx, filepath.Join(t.TempDir(), "control.db"))
	require.NoError(t, err)
	kc, err := crypto.NewKeyCache(16)
	require.NoError(t, err)
	return New(cs, kc, masterKey, zap.NewNop()), cs
}

func newWorkspace(t *testing.T, cs *control.Store, dir string) *model.Workspace {
	t.Helper()
	u, err := cs.CreateUser(context.Background(), "u@example.com", "U", "free")
	require.NoError(t, err)
	ws, err := cs.CreateWorkspace(context.Background(), u.ID, "default", filepath.Join(dir, "ws.db"))
	require.NoError(t, err)
	return ws
}

func TestOpenWithoutMasterKeyDegradesToNilKey(t *testing.T) {
	mgr, cs := newTestManager(t, nil)
	ws := newWorkspace(t, cs, t.TempDir())

	handle, err := mgr.Open(context.Background(), ws)
	require.NoError(t, err)
	assert.Nil(t, handle.Key)
	assert.NotNil(t, handle.Store)
}

func TestOpenReusesCachedStoreForSameWorkspace(t *testing.T) {
	mgr, cs := newTestManager(t, nil)
	ws := newWorkspace(t, cs, t.TempDir())

	h1, err := mgr.Open(context.Background(), ws)
	require.NoError(t, err)
	h2, err := mgr.Open(context.Background(), ws)
	require.NoError(t, err)
	assert.Same(t, h1.Store, h2.Store)
}

func TestOpenWithMasterKeyMaterializesAndPersistsWrappedKey(t *testing.T) {
	masterKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	mgr, cs := newTestManager(t, masterKey)
	ws := newWorkspace(t, cs, t.TempDir())
	require.Empty(t, ws.EncryptedKey)

	h1, err := mgr.Open(context.Background(), ws)
	require.NoError(t, err)
	require.NotNil(t, h1.Key)
	require.Len(t, h1.Key, 32)
	assert.NotEmpty(t, ws.EncryptedKey)

	persisted, err := cs.WorkspaceByID(context.Background(), ws.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, persisted.EncryptedKey)

	// A fresh manager (cold cache) unwrapping the persisted blob must
	// recover the identical data key.
	kc2, err := crypto.NewKeyCache(16)
	require.NoError(t, err)
	mgr2 := New(cs, kc2, masterKey, zap.NewNop())
	h2, err := mgr2.Open(context.Background(), persisted)
	require.NoError(t, err)
	assert.Equal(t, h1.Key, h2.Key)
}

func TestInvalidateKeyForcesReload(t *testing.T) {
	masterKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	mgr, cs := newTestManager(t, masterKey)
	ws := newWorkspace(t, cs, t.TempDir())

	h1, err := mgr.Open(context.Background(), ws)
	require.NoError(t, err)

	mgr.InvalidateKey(ws.ID)

	h2, err := mgr.Open(context.Background(), ws)
	require.NoError(t, err)
	assert.Equal(t, h1.Key, h2.Key)
}
