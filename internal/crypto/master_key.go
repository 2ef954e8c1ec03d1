package crypto

import (
	"encoding/base64"

	"go.uber.org/zap"
)

// devMasterKey is the documented non-production fallback master key. It is
// deterministic so that local development data survives process restarts;
// it must never be reachable when Environment=="production" (config.Validate
// enforces this before MasterKeyFromConfig is ever called with source=="dev").
var devMasterKey = []byte("memento-dev-master-key-32-bytes!")

// MasterKeyFromConfig resolves the process-wide master key: an explicit
// base64-encoded secret in production, or a fixed dev fallback locally.
// A missing master key in production degrades field encryption to plaintext
// passthrough rather than failing closed; that degraded mode is logged,
// never silent.
func MasterKeyFromConfig(source, base64Key string, logger *zap.Logger) []byte {
	if source == "dev" {
		logger.Warn("using non-production fallback master key; do not run this way in production")
		return devMasterKey
	}
	if base64Key == "" {
		logger.Error("no master key configured; field encryption is running in degraded plaintext-passthrough mode")
		return nil
	}
	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil || len(key) != keyBytes {
		logger.Error("configured master key is invalid; field encryption is running in degraded plaintext-passthrough mode")
		return nil
	}
	return key
}
