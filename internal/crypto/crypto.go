// Package crypto implements field-level envelope encryption: a master key
// wraps per-workspace data keys, and data keys encrypt individual fields
// with AES-256-GCM.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"memento/internal/apperr"
)

const (
	encPrefix = "enc:"
	keyBytes  = 32 // AES-256
	nonceSize = 12 // 96-bit GCM IV
)

// GenerateKey returns a fresh random 256-bit workspace data key.
func GenerateKey() ([]byte, error) {
	k := make([]byte, keyBytes)
	if _, err := rand.Read(k); err != nil {
		return nil, apperr.NewInternal("failed to generate workspace key", err)
	}
	return k, nil
}

// WrapKey wraps a workspace data key under the master key, producing the
// base64(IV ‖ wrapped-key-bytes) blob stored on the workspace row.
func WrapKey(masterKey, dataKey []byte) (string, error) {
	sealed, err := seal(masterKey, dataKey)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// UnwrapKey reverses WrapKey.
func UnwrapKey(masterKey []byte, blob string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, apperr.NewIntegrity("malformed wrapped workspace key")
	}
	return open(masterKey, raw)
}

// Encrypt encrypts plaintext under key, returning the on-disk
// "enc:" + base64(IV) + ":" + base64(ciphertext‖tag) format.
func Encrypt(plaintext string, key []byte) (string, error) {
	sealed, iv, err := sealWithIV(key, []byte(plaintext))
	if err != nil {
		return "", err
	}
	return encPrefix + base64.StdEncoding.EncodeToString(iv) + ":" + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. A value with no "enc:" prefix is plaintext and
// is passed through unchanged, supporting migration from an unencrypted
// deployment. A malformed "enc:" payload is a fatal integrity error, never
// silently returned as plaintext.
func Decrypt(value string, key []byte) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}
	body := strings.TrimPrefix(value, encPrefix)
	parts := strings.SplitN(body, ":", 2)
	if len(parts) != 2 {
		return "", apperr.NewIntegrity("malformed encrypted field: missing IV separator")
	}
	iv, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", apperr.NewIntegrity("malformed encrypted field: bad IV encoding")
	}
	ciphertext, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", apperr.NewIntegrity("malformed encrypted field: bad ciphertext encoding")
	}
	plain, err := openWithIV(key, iv, ciphertext)
	if err != nil {
		return "", apperr.NewIntegrity("malformed encrypted field: authentication failed")
	}
	return string(plain), nil
}

// EncryptOptional encrypts plaintext under key, or returns it unchanged
// when key is nil (degraded mode: no master key configured).
func EncryptOptional(plaintext string, key []byte) (string, error) {
	if key == nil {
		return plaintext, nil
	}
	return Encrypt(plaintext, key)
}

// DecryptOptional mirrors EncryptOptional for reads.
func DecryptOptional(value string, key []byte) (string, error) {
	if key == nil {
		return value, nil
	}
	return Decrypt(value, key)
}

// IsEncrypted reports whether value carries the "enc:" envelope prefix.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, encPrefix)
}

// EncryptMany encrypts the named string fields of record in place.
func EncryptMany(record map[string]string, fields []string, key []byte) error {
	for _, f := range fields {
		v, ok := record[f]
		if !ok {
			continue
		}
		enc, err := Encrypt(v, key)
		if err != nil {
			return err
		}
		record[f] = enc
	}
	return nil
}

// DecryptMany decrypts the named string fields of record in place.
func DecryptMany(record map[string]string, fields []string, key []byte) error {
	for _, f := range fields {
		v, ok := record[f]
		if !ok {
			continue
		}
		dec, err := Decrypt(v, key)
		if err != nil {
			return err
		}
		record[f] = dec
	}
	return nil
}

func sealWithIV(key, plaintext []byte) (ciphertext, iv []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}
	iv = make([]byte, nonceSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, apperr.NewInternal("failed to generate IV", err)
	}
	return gcm.Seal(nil, iv, plaintext, nil), iv, nil
}

func openWithIV(key, iv, ciphertext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, iv, ciphertext, nil)
}

// seal is used for key-wrapping: IV ‖ sealed bytes, concatenated so the
// wrapped blob is self-contained.
func seal(key, plaintext []byte) ([]byte, error) {
	sealed, iv, err := sealWithIV(key, plaintext)
	if err != nil {
		return nil, err
	}
	return append(iv, sealed...), nil
}

func open(key, blob []byte) ([]byte, error) {
	if len(blob) < nonceSize {
		return nil, apperr.NewIntegrity("malformed wrapped key: too short")
	}
	iv, ciphertext := blob[:nonceSize], blob[nonceSize:]
	plain, err := openWithIV(key, iv, ciphertext)
	if err != nil {
		return nil, apperr.NewIntegrity("malformed wrapped key: authentication failed")
	}
	return plain, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != keyBytes {
		return nil, errors.New("crypto: key must be 32 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperr.NewInternal("failed to init AES cipher", err)
	}
	return cipher.NewGCM(block)
}
