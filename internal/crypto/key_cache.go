package crypto

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// KeyCache is the process-wide unwrapped-workspace-key cache: keyed by
// workspace id, lock-free on hit, single-flighted on miss so concurrent
// requests for the same cold workspace only unwrap once.
type KeyCache struct {
	cache *lru.Cache[string, []byte]
	group singleflight.Group
}

// NewKeyCache builds a cache holding up to capacity unwrapped workspace
// keys in memory at once.
func NewKeyCache(capacity int) (*KeyCache, error) {
	c, err := lru.New[string, []byte](capacity)
	if err != nil {
		return nil, err
	}
	return &KeyCache{cache: c}, nil
}

// GetOrLoad returns the cached key for workspaceID, or calls load exactly
// once across concurrent callers on a miss and caches the result.
func (kc *KeyCache) GetOrLoad(workspaceID string, load func() ([]byte, error)) ([]byte, error) {
	if key, ok := kc.cache.Get(workspaceID); ok {
		return key, nil
	}
	v, err, _ := kc.group.Do(workspaceID, func() (any, error) {
		if key, ok := kc.cache.Get(workspaceID); ok {
			return key, nil
		}
		key, err := load()
		if err != nil {
			return nil, err
		}
		kc.cache.Add(workspaceID, key)
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate removes a cached key. Intended for explicit test hooks only.
func (kc *KeyCache) Invalidate(workspaceID string) {
	kc.cache.Remove(workspaceID)
}
