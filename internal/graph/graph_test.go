package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"memento/internal/model"
)

func TestValidateLinkagesDropsUnknownVariants(t *testing.T) {
	raw := []model.Linkage{
		{Type: model.LinkageMemory, ID: "m1"},
		{Type: "bogus", ID: "x"},
		{Type: model.LinkageFile, Path: ""},
		{Type: model.LinkageFile, Path: "/vault/a.txt"},
	}
	got := ValidateLinkages(raw)
	assert.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, "/vault/a.txt", got[1].Path)
}

func TestOutgoingEdgesCoversAllVariants(t *testing.T) {
	m := &model.Memory{
		ID: "m1",
		Linkages: []model.Linkage{
			{Type: model.LinkageMemory, ID: "m2", Label: "relates"},
			{Type: model.LinkageFile, Path: "docs/readme.md"},
			{Type: model.LinkageItem, ID: "it1"},
		},
	}
	edges := outgoingEdges(m)
	assert.Len(t, edges, 3)
	assert.Equal(t, "m2", edges[0].To)
	assert.Equal(t, "file:docs/readme.md", edges[1].To)
	assert.Equal(t, "item:it1", edges[2].To)
}

func TestIncomingEdgesStructuralMatchOnly(t *testing.T) {
	all := []model.Memory{
		{ID: "a", Linkages: []model.Linkage{{Type: model.LinkageMemory, ID: "target"}}},
		{ID: "b", Linkages: []model.Linkage{{Type: model.LinkageFile, Path: "target"}}},
	}
	edges := incomingEdges(all, "target")
	assert.Len(t, edges, 1)
	assert.Equal(t, "a", edges[0].From)
}
