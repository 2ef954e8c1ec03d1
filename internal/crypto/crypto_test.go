package crypto

import "testing"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	plaintext := "the mcp sdk uses zod for schema validation"
	enc, err := Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !IsEncrypted(enc) {
		t.Fatalf("expected encrypted value to carry enc: prefix")
	}

	dec, err := Decrypt(enc, key)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if dec != plaintext {
		t.Fatalf("round trip mismatch: got %q want %q", dec, plaintext)
	}
}

func TestEncryptIsRandomized(t *testing.T) {
	key, _ := GenerateKey()
	a, _ := Encrypt("same plaintext", key)
	b, _ := Encrypt("same plaintext", key)
	if a == b {
		t.Fatalf("two encryptions of equal plaintext must differ (random IV)")
	}
}

func TestDecryptPassthroughForPlaintext(t *testing.T) {
	key, _ := GenerateKey()
	plain := "not encrypted at all"
	out, err := Decrypt(plain, key)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if out != plain {
		t.Fatalf("expected passthrough, got %q", out)
	}
}

func TestDecryptMalformedIsFatal(t *testing.T) {
	key, _ := GenerateKey()
	_, err := Decrypt("enc:not-valid-base64:also-not-valid", key)
	if err == nil {
		t.Fatalf("expected malformed enc: payload to error")
	}
}

func TestWrapUnwrapKeyRoundTrip(t *testing.T) {
	master, _ := GenerateKey()
	dataKey, _ := GenerateKey()

	wrapped, err := WrapKey(master, dataKey)
	if err != nil {
		t.Fatalf("WrapKey: %v", err)
	}
	unwrapped, err := UnwrapKey(master, wrapped)
	if err != nil {
		t.Fatalf("UnwrapKey: %v", err)
	}
	if string(unwrapped) != string(dataKey) {
		t.Fatalf("unwrapped key does not match original")
	}

	enc, err := Encrypt("hello", dataKey)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	dec, err := Decrypt(enc, unwrapped)
	if err != nil {
		t.Fatalf("Decrypt with unwrapped key: %v", err)
	}
	if dec != "hello" {
		t.Fatalf("unwrapped key does not decrypt correctly: got %q", dec)
	}
}

func TestKeyCacheCoherence(t *testing.T) {
	kc, err := NewKeyCache(16)
	if err != nil {
		t.Fatalf("NewKeyCache: %v", err)
	}
	loads := 0
	load := func() ([]byte, error) {
		loads++
		return GenerateKey()
	}

	k1, err := kc.GetOrLoad("ws-1", load)
	if err != nil {
		t.Fatalf("GetOrLoad: %v", err)
	}
	k2, err := kc.GetOrLoad("ws-1", load)
	if err != nil {
		t.Fatalf("GetOrLoad: %v", err)
	}
	if string(k1) != string(k2) {
		t.Fatalf("expected same cached key across calls")
	}
	if loads != 1 {
		t.Fatalf("expected exactly one load, got %d", loads)
	}

	kc.Invalidate("ws-1")
	if _, err := kc.GetOrLoad("ws-1", load); err != nil {
		t.Fatalf("GetOrLoad after invalidate: %v", err)
	}
	if loads != 2 {
		t.Fatalf("expected reload after invalidate, got %d loads", loads)
	}
}
