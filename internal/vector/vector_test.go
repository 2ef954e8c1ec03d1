package vector

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopNeverErrorsAndFindsNothing(t *testing.T) {
	var b Backend = Noop{}
	matches, err := b.Search(context.Background(), "anything", []string{"m1"}, 5)
	require.NoError(t, err)
	assert.Nil(t, matches)
	assert.NoError(t, b.Index(context.Background(), "m1", "content"))
}

func TestHashEmbedDeterministic(t *testing.T) {
	a := hashEmbed("the quick brown fox")
	b := hashEmbed("the quick brown fox")
	require.Equal(t, a, b)
	require.Len(t, a, embeddingDim)
}

func TestHashEmbedDiffersOnDifferentText(t *testing.T) {
	a := hashEmbed("alpha beta gamma")
	b := hashEmbed("completely different words entirely")
	assert.NotEqual(t, a, b)
}

func TestHashEmbedIsL2Normalized(t *testing.T) {
	vec := hashEmbed("one two three four five")
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	assert.InDelta(t, 1.0, norm, 1e-6)
}

func TestHashEmbedEmptyTextIsZeroVector(t *testing.T) {
	vec := hashEmbed("")
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestBreakerBackendDelegatesToInner(t *testing.T) {
	bb := NewBreakerBackend(Noop{})
	matches, err := bb.Search(context.Background(), "q", []string{"m1"}, 3)
	require.NoError(t, err)
	assert.Nil(t, matches)
	assert.NoError(t, bb.Index(context.Background(), "m1", "c"))
}
