package consolidate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"memento/internal/model"
)

func tagged(id, content string, tags []string, createdAt time.Time) model.Memory {
	return model.Memory{ID: id, Content: content, Tags: tags, Type: model.MemoryFact, CreatedAt: createdAt}
}

func TestGroupByTagRequiresMinimumSize(t *testing.T) {
	now := time.Now()
	memories := []model.Memory{
		tagged("m1", "a", []string{"x"}, now),
		tagged("m2", "b", []string{"x"}, now),
		tagged("m3", "c", nil, now), // untagged, never grouped
	}
	groups := GroupByTag(memories)
	assert.Empty(t, groups, "component of size 2 should not be eligible")
}

func TestGroupByTagFormsComponent(t *testing.T) {
	now := time.Now()
	memories := []model.Memory{
		tagged("m1", "Consolidatable xyzzy item 0", []string{"consolidatable"}, now),
		tagged("m2", "Consolidatable xyzzy item 1", []string{"consolidatable"}, now),
		tagged("m3", "Consolidatable xyzzy item 2", []string{"consolidatable"}, now),
	}
	groups := GroupByTag(memories)
	assert.Len(t, groups, 1)
	assert.Len(t, groups[0], 3)
}

func TestGroupByTagIsCaseInsensitive(t *testing.T) {
	now := time.Now()
	memories := []model.Memory{
		tagged("m1", "a", []string{"Project"}, now),
		tagged("m2", "b", []string{"project"}, now),
		tagged("m3", "c", []string{"PROJECT"}, now),
	}
	groups := GroupByTag(memories)
	assert.Len(t, groups, 1)
}

func TestModalTypeTiesBrokenByFirstSeen(t *testing.T) {
	group := []model.Memory{
		{Type: model.MemoryFact},
		{Type: model.MemoryDecision},
	}
	assert.Equal(t, model.MemoryFact, ModalType(group))
}

func TestTemplateSummaryIncludesCountAndTags(t *testing.T) {
	now := time.Now()
	group := []model.Memory{
		tagged("m1", "first", []string{"b", "a"}, now),
		tagged("m2", "second", []string{"a"}, now),
		tagged("m3", "third", []string{"a"}, now),
	}
	summary := TemplateSummary(group)
	assert.Contains(t, summary, "[a, b]")
	assert.Contains(t, summary, "3 memories consolidated")
	assert.Contains(t, summary, "first")
}

func TestInheritedLinkagesIncludesConsolidatedFrom(t *testing.T) {
	now := time.Now()
	group := []model.Memory{
		tagged("m1", "first", []string{"a"}, now),
		tagged("m2", "second", []string{"a"}, now),
	}
	linkages := inheritedLinkages(group)
	found := 0
	for _, l := range linkages {
		if l.Label == "consolidated-from" {
			found++
		}
	}
	assert.Equal(t, 2, found)
}
