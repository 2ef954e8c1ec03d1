package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHasPrefixAndIsUnique(t *testing.T) {
	a := New("mem")
	b := New("mem")
	assert.True(t, HasPrefix(a, "mem"))
	assert.True(t, HasPrefix(b, "mem"))
	assert.NotEqual(t, a, b)
}

func TestHasPrefixRejectsOtherPrefixes(t *testing.T) {
	id := New("ws")
	assert.False(t, HasPrefix(id, "usr"))
}

func TestNewIsLowercase(t *testing.T) {
	id := New("cred")
	for _, r := range id {
		assert.False(t, r >= 'A' && r <= 'Z')
	}
}
