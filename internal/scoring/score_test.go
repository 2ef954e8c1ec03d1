package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memento/internal/model"
)

func mem(id, content string, tags []string, createdAt time.Time) model.Memory {
	return model.Memory{ID: id, Content: content, Tags: tags, CreatedAt: createdAt, Type: model.MemoryFact}
}

func TestAbstentionOnMissingTerm(t *testing.T) {
	now := time.Now()
	candidates := []model.Memory{
		mem("m1", "the mcp sdk uses zod for schema validation", nil, now),
	}
	terms := PrepareQuery("zod nonexistentterm")
	results := RankKeyword(candidates, terms, now, 0)
	assert.Nil(t, results, "expected abstention when a term matches no candidate")
}

func TestKeywordRankingFindsMatch(t *testing.T) {
	now := time.Now()
	candidates := []model.Memory{
		mem("m1", "the mcp sdk uses zod for schema validation", nil, now),
		mem("m2", "completely unrelated content about turbulence", nil, now),
	}
	terms := PrepareQuery("zod schema")
	results := RankKeyword(candidates, terms, now, 0)
	require.Len(t, results, 1)
	assert.Equal(t, "m1", results[0].Memory.ID)
}

func TestThresholdDropsLowScores(t *testing.T) {
	now := time.Now()
	candidates := []model.Memory{
		mem("m1", "zod schema validation library", nil, now),
	}
	terms := PrepareQuery("zod schema validation library extra")
	results := RankKeyword(candidates, terms, now, 0.99)
	assert.Empty(t, results)
}

func TestRecencyFactorDecaysOverTime(t *testing.T) {
	now := time.Now()
	fresh := recencyFactor(now, now)
	old := recencyFactor(now.Add(-30*24*time.Hour), now)
	assert.Greater(t, fresh, old)
	assert.LessOrEqual(t, fresh, 1.0)
	assert.Greater(t, old, 0.0)
}

func TestFutureDatedMemoryYieldsFullRecency(t *testing.T) {
	now := time.Now()
	future := recencyFactor(now.Add(24*time.Hour), now)
	assert.Equal(t, 1.0, future)
}

func TestAccessBoostCapped(t *testing.T) {
	assert.Equal(t, accessBoostCap, accessBoost(1000))
	assert.Greater(t, accessBoost(5), accessBoost(0))
}

func TestMergeHybridFallsBackToKeyword(t *testing.T) {
	now := time.Now()
	candidates := []model.Memory{mem("m1", "zod schema", nil, now)}
	terms := PrepareQuery("zod")
	results, ranking := MergeHybrid(candidates, terms, now, nil, 0.5, 0)
	assert.Equal(t, RankingKeyword, ranking)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].VectorScore)
}

func TestMergeHybridCombinesScores(t *testing.T) {
	now := time.Now()
	candidates := []model.Memory{
		mem("m1", "zod schema", nil, now),
		mem("m2", "completely different content", nil, now),
	}
	terms := PrepareQuery("zod")
	vector := map[string]float64{"m2": 0.9}
	results, ranking := MergeHybrid(candidates, terms, now, vector, 0.5, 0)
	assert.Equal(t, RankingHybrid, ranking)
	require.Len(t, results, 2)
	for _, r := range results {
		if r.Memory.ID == "m2" {
			require.NotNil(t, r.VectorScore)
			assert.InDelta(t, 0.45, r.Score, 0.01)
		}
	}
}
