// Package workspacemgr owns the process-wide cache of open workspace store
// handles and their unwrapped encryption keys: a workspace store handle and
// its unwrapped key are created per-workspace but reused across all
// concurrent requests for that workspace.
package workspacemgr

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"memento/internal/crypto"
	"memento/internal/model"
	"memento/internal/store/control"
	"memento/internal/store/workspace"
)

// Handle bundles an open workspace store with its (possibly nil, if
// encryption is disabled) unwrapped data key.
type Handle struct {
	Workspace *model.Workspace
	Store     *workspace.Store
	Key       []byte
}

// Manager caches open workspace.Store handles and unwrapped keys by
// workspace id. A single Manager is constructed at process start and
// shared by every request handler and background worker.
type Manager struct {
	control   *control.Store
	keyCache  *crypto.KeyCache
	masterKey []byte
	logger    *zap.Logger

	mu      sync.Mutex
	storeOf map[string]*workspace.Store
}

func New(controlStore *control.Store, keyCache *crypto.KeyCache, masterKey []byte, logger *zap.Logger) *Manager {
	return &Manager{
		control:   controlStore,
		keyCache:  keyCache,
		masterKey: masterKey,
		logger:    logger,
		storeOf:   make(map[string]*workspace.Store),
	}
}

// Open returns the cached (store, key) pair for ws, opening/materializing
// on first use. Safe for concurrent callers.
func (m *Manager) Open(ctx context.Context, ws *model.Workspace) (*Handle, error) {
	st, err := m.storeFor(ctx, ws)
	if err != nil {
		return nil, err
	}
	key, err := m.keyFor(ctx, ws)
	if err != nil {
		return nil, err
	}
	return &Handle{Workspace: ws, Store: st, Key: key}, nil
}

func (m *Manager) storeFor(ctx context.Context, ws *model.Workspace) (*workspace.Store, error) {
	m.mu.Lock()
	if st, ok := m.storeOf[ws.ID]; ok {
		m.mu.Unlock()
		return st, nil
	}
	m.mu.Unlock()

	st, err := workspace.Open(ctx, ws.DBURL)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.storeOf[ws.ID]; ok {
		// Another goroutine opened it first; keep the winner, drop ours.
		_ = st.Close()
		return existing, nil
	}
	m.storeOf[ws.ID] = st
	return st, nil
}

func (m *Manager) keyFor(ctx context.Context, ws *model.Workspace) ([]byte, error) {
	if m.masterKey == nil {
		// Degraded plaintext-passthrough mode: no master key configured.
		return nil, nil
	}
	return m.keyCache.GetOrLoad(ws.ID, func() ([]byte, error) {
		if ws.EncryptedKey != "" {
			return crypto.UnwrapKey(m.masterKey, ws.EncryptedKey)
		}
		// First use of this workspace: generate, wrap, persist, cache.
		dataKey, err := crypto.GenerateKey()
		if err != nil {
			return nil, err
		}
		wrapped, err := crypto.WrapKey(m.masterKey, dataKey)
		if err != nil {
			return nil, err
		}
		if err := m.control.SetWorkspaceEncryptedKey(ctx, ws.ID, wrapped); err != nil {
			return nil, err
		}
		ws.EncryptedKey = wrapped
		return dataKey, nil
	})
}

// InvalidateKey is the explicit test hook for cache invalidation.
func (m *Manager) InvalidateKey(workspaceID string) {
	m.keyCache.Invalidate(workspaceID)
}
