// Package identity generates the identity crystal: a Markdown snapshot that
// assembles working memory, top memories, and recent consolidations into a
// single document.
package identity

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"memento/internal/crypto"
	"memento/internal/model"
	"memento/internal/platform/idgen"
)

const (
	topMemoryCount       = 30
	recentConsolidations = 10
)

var sectionOrder = []model.ItemCategory{
	model.CategoryActiveWork,
	model.CategoryStandingDecision,
	model.CategoryWaitingFor,
	model.CategorySkipList,
	model.CategorySessionNote,
}

var sectionTitle = map[model.ItemCategory]string{
	model.CategoryActiveWork:       "Active Work",
	model.CategoryStandingDecision: "Standing Decisions",
	model.CategoryWaitingFor:       "Waiting For",
	model.CategorySkipList:         "Skip List",
	model.CategorySessionNote:      "Session Notes",
}

// GenerateCrystal builds the structured Markdown identity crystal from
// items (already decrypted), memories (already decrypted, any order — this
// function takes the top 30 by relevance), and consolidations (most recent
// first expected, but this function re-sorts defensively).
func GenerateCrystal(items []model.Item, memories []model.Memory, consolidations []model.Consolidation) string {
	var b strings.Builder
	b.WriteString("# Identity Crystal\n\n")

	sourceCount := 0
	sourceCount += writeWorkingMemory(&b, items)
	sourceCount += writeMemories(&b, memories)
	sourceCount += writeConsolidations(&b, consolidations)

	fmt.Fprintf(&b, "\n---\n%d sources consolidated into this crystal.\n", sourceCount)
	return b.String()
}

func writeWorkingMemory(b *strings.Builder, items []model.Item) int {
	bySection := make(map[model.ItemCategory][]model.Item)
	for _, it := range items {
		bySection[it.Category] = append(bySection[it.Category], it)
	}

	count := 0
	for _, cat := range sectionOrder {
		section := bySection[cat]
		if len(section) == 0 {
			continue
		}
		fmt.Fprintf(b, "## %s\n\n", sectionTitle[cat])
		for _, it := range section {
			fmt.Fprintf(b, "- **%s** (priority %d): %s\n", it.Title, it.Priority, it.Content)
			count++
		}
		b.WriteString("\n")
	}
	return count
}

func writeMemories(b *strings.Builder, memories []model.Memory) int {
	top := topByRelevance(memories, topMemoryCount)
	if len(top) == 0 {
		return 0
	}
	b.WriteString("## Memories\n\n")
	for _, m := range top {
		fmt.Fprintf(b, "- [%s] %s (tags: %s)\n", m.Type, m.Content, strings.Join(m.Tags, ", "))
	}
	b.WriteString("\n")
	return len(top)
}

func writeConsolidations(b *strings.Builder, consolidations []model.Consolidation) int {
	sorted := make([]model.Consolidation, len(consolidations))
	copy(sorted, consolidations)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	if len(sorted) > recentConsolidations {
		sorted = sorted[:recentConsolidations]
	}
	if len(sorted) == 0 {
		return 0
	}

	b.WriteString("## Consolidations\n\n")
	for _, c := range sorted {
		fmt.Fprintf(b, "- %s (%d sources, %s)\n", c.Summary, len(c.SourceIDs), c.Method)
	}
	b.WriteString("\n")
	return len(sorted)
}

func topByRelevance(memories []model.Memory, n int) []model.Memory {
	active := make([]model.Memory, 0, len(memories))
	now := time.Now().UTC()
	for _, m := range memories {
		if m.Active(now) {
			active = append(active, m)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Relevance > active[j].Relevance })
	if len(active) > n {
		active = active[:n]
	}
	return active
}

// Snapshot builds and returns the model.IdentitySnapshot for persistence,
// encrypting the crystal text with key (or passthrough in degraded mode).
func Snapshot(crystal string, sourceCount int, key []byte) (*model.IdentitySnapshot, error) {
	enc, err := crypto.EncryptOptional(crystal, key)
	if err != nil {
		return nil, err
	}
	return &model.IdentitySnapshot{
		ID:          idgen.New("idsnap"),
		Crystal:     enc,
		SourceCount: sourceCount,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Decrypt reverses the encryption Snapshot applied, for reads.
func Decrypt(snap *model.IdentitySnapshot, key []byte) error {
	dec, err := crypto.DecryptOptional(snap.Crystal, key)
	if err != nil {
		return err
	}
	snap.Crystal = dec
	return nil
}
