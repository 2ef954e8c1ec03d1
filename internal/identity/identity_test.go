package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"memento/internal/model"
)

func TestGenerateCrystalIncludesAllSections(t *testing.T) {
	now := time.Now()
	items := []model.Item{
		{Category: model.CategoryActiveWork, Title: "ship release", Priority: 5},
	}
	memories := []model.Memory{
		{Content: "the mcp sdk uses zod", Type: model.MemoryFact, CreatedAt: now, Relevance: 0.9},
	}
	consolidations := []model.Consolidation{
		{Summary: "three things merged", SourceIDs: []string{"a", "b", "c"}, Method: model.SynthesisTemplate, CreatedAt: now},
	}

	crystal := GenerateCrystal(items, memories, consolidations)
	assert.Contains(t, crystal, "Active Work")
	assert.Contains(t, crystal, "ship release")
	assert.Contains(t, crystal, "zod")
	assert.Contains(t, crystal, "three things merged")
	assert.Contains(t, crystal, "3 sources consolidated")
}

func TestTopByRelevanceExcludesConsolidatedAndExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	memories := []model.Memory{
		{ID: "live", Relevance: 0.5, CreatedAt: now},
		{ID: "consolidated", Relevance: 0.9, CreatedAt: now, Consolidated: true},
		{ID: "expired", Relevance: 0.9, CreatedAt: now, ExpiresAt: &past},
	}
	top := topByRelevance(memories, 30)
	assert.Len(t, top, 1)
	assert.Equal(t, "live", top[0].ID)
}

func TestTopByRelevanceCapsAtN(t *testing.T) {
	now := time.Now()
	var memories []model.Memory
	for i := 0; i < 40; i++ {
		memories = append(memories, model.Memory{ID: "m", Relevance: float64(i), CreatedAt: now})
	}
	top := topByRelevance(memories, 30)
	assert.Len(t, top, 30)
	assert.Equal(t, 39.0, top[0].Relevance, "highest relevance sorts first")
}
