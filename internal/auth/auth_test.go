package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCredentialShape(t *testing.T) {
	raw, prefix, hash, err := GenerateCredential()
	require.NoError(t, err)
	assert.Regexp(t, `^mk_`, raw)
	assert.Equal(t, raw[:credentialPrefixLen], prefix)
	assert.Equal(t, HashCredential(raw), hash)
}

func TestGenerateCredentialIsRandom(t *testing.T) {
	raw1, _, _, err := GenerateCredential()
	require.NoError(t, err)
	raw2, _, _, err := GenerateCredential()
	require.NoError(t, err)
	assert.NotEqual(t, raw1, raw2)
}

func TestEqualConstantTime(t *testing.T) {
	assert.True(t, Equal("abc", "abc"))
	assert.False(t, Equal("abc", "abd"))
	assert.False(t, Equal("abc", "abcd"))
}

func TestParsePeekHeader(t *testing.T) {
	assert.Nil(t, ParsePeekHeader(""))
	assert.Equal(t, []string{"work", "personal"}, ParsePeekHeader("work, personal"))
	assert.Equal(t, []string{"work"}, ParsePeekHeader(" work ,, "))
}
