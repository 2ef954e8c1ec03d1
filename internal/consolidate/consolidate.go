// Package consolidate implements union-find tag grouping over eligible
// memories, template/AI synthesis, and both the automatic pass and the
// agent-driven merge path.
package consolidate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"memento/internal/apperr"
	"memento/internal/llm"
	"memento/internal/model"
	"memento/internal/platform/idgen"
	"memento/internal/store/workspace"
)

// minGroupSize is the smallest connected component eligible for automatic
// consolidation.
const minGroupSize = 3

// EncryptFunc prepares a memory's plaintext content for storage. Consolidate
// does not own encryption; the caller wires in the workspace's own
// crypto.Encrypt (or a passthrough, in degraded mode).
type EncryptFunc func(plaintext string) (string, error)

// Service runs consolidation over one workspace's memory store.
type Service struct {
	store   *workspace.Store
	llm     llm.Client
	encrypt EncryptFunc
	logger  *zap.Logger
}

func NewService(store *workspace.Store, llmClient llm.Client, encrypt EncryptFunc, logger *zap.Logger) *Service {
	if encrypt == nil {
		encrypt = func(s string) (string, error) { return s, nil }
	}
	return &Service{store: store, llm: llmClient, encrypt: encrypt, logger: logger}
}

// GroupByTag partitions memories into connected components joined by shared
// (case-insensitive) tags, restricted to components of at least
// minGroupSize, in first-seen order.
func GroupByTag(memories []model.Memory) [][]model.Memory {
	tagged := make([]model.Memory, 0, len(memories))
	for _, m := range memories {
		if len(m.Tags) > 0 {
			tagged = append(tagged, m)
		}
	}
	if len(tagged) == 0 {
		return nil
	}

	tagIndex := make(map[string][]int)
	for i, m := range tagged {
		for _, t := range m.Tags {
			nt := model.NormalizeTag(t)
			tagIndex[nt] = append(tagIndex[nt], i)
		}
	}

	uf := newUnionFind(len(tagged))
	for _, idxs := range tagIndex {
		for i := 1; i < len(idxs); i++ {
			uf.union(idxs[0], idxs[i])
		}
	}

	var groups [][]model.Memory
	for _, comp := range uf.components(len(tagged)) {
		if len(comp) < minGroupSize {
			continue
		}
		g := make([]model.Memory, len(comp))
		for i, idx := range comp {
			g[i] = tagged[idx]
		}
		groups = append(groups, g)
	}
	return groups
}

// TagUnion returns the sorted, deduplicated union of tags across group.
func TagUnion(group []model.Memory) []string {
	seen := map[string]bool{}
	for _, m := range group {
		for _, t := range m.Tags {
			seen[model.NormalizeTag(t)] = true
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ModalType returns the most common memory type in group, ties broken by
// occurrence count then first-seen order.
func ModalType(group []model.Memory) model.MemoryType {
	counts := map[model.MemoryType]int{}
	firstSeen := map[model.MemoryType]int{}
	for i, m := range group {
		counts[m.Type]++
		if _, ok := firstSeen[m.Type]; !ok {
			firstSeen[m.Type] = i
		}
	}
	var best model.MemoryType
	bestCount, bestFirst := -1, -1
	for typ, count := range counts {
		fs := firstSeen[typ]
		if count > bestCount || (count == bestCount && fs < bestFirst) {
			best, bestCount, bestFirst = typ, count, fs
		}
	}
	return best
}

// TemplateSummary builds the deterministic fallback summary: a tag-union
// header followed by one bullet per source memory.
func TemplateSummary(group []model.Memory) string {
	union := TagUnion(group)
	s := fmt.Sprintf("[%s] — %d memories consolidated\n", joinTags(union), len(group))
	for _, m := range group {
		s += fmt.Sprintf("• %s (%s, %s)\n", m.Content, m.Type, m.CreatedAt.Format(time.RFC3339))
	}
	return s
}

func joinTags(tags []string) string {
	out := ""
	for i, t := range tags {
		if i > 0 {
			out += ", "
		}
		out += t
	}
	return out
}

// inheritedLinkages dedupes linkages inherited from every source memory,
// plus one consolidated-from linkage back to each source.
func inheritedLinkages(group []model.Memory) []model.Linkage {
	seen := map[string]bool{}
	var out []model.Linkage
	for _, m := range group {
		for _, l := range m.Linkages {
			key := string(l.Type) + "\x00" + l.Target() + "\x00" + l.Label
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, l)
		}
		key := "consolidated-from\x00" + m.ID
		if !seen[key] {
			seen[key] = true
			out = append(out, model.Linkage{Type: model.LinkageMemory, ID: m.ID, Label: "consolidated-from"})
		}
	}
	return out
}

func summedAccessCount(group []model.Memory) int {
	total := 0
	for _, m := range group {
		total += m.AccessCount
	}
	return total
}

// synthesize produces the consolidation's summary text, preferring the AI
// path and falling back to the template on any failure.
func (s *Service) synthesize(ctx context.Context, group []model.Memory, template string) (summary string, method model.SynthesisMethod) {
	if s.llm == nil {
		return template, model.SynthesisTemplate
	}
	contents := make([]string, len(group))
	for i, m := range group {
		contents[i] = m.Content
	}
	ai, err := s.llm.Summarize(ctx, contents)
	if err != nil || ai == "" {
		if s.logger != nil && err != nil {
			s.logger.Debug("consolidate: AI summary failed, using template", zap.Error(err))
		}
		return template, model.SynthesisTemplate
	}
	return ai, model.SynthesisAI
}

// commit writes the consolidation record, the new synthesized memory, and
// marks every source consolidated. Shared by the automatic pass and the
// agent-driven merge.
func (s *Service) commit(ctx context.Context, group []model.Memory, kind model.ConsolidationKind, overrideSummary, overrideType string, extraTags []string) (*model.Consolidation, error) {
	now := time.Now().UTC()
	template := TemplateSummary(group)

	summary := overrideSummary
	method := model.SynthesisTemplate
	if summary == "" {
		summary, method = s.synthesize(ctx, group, template)
	}

	tags := TagUnion(group)
	if len(extraTags) > 0 {
		tags = model.NormalizeTags(append(tags, extraTags...))
		sort.Strings(tags)
	}

	memType := ModalType(group)
	if overrideType != "" && model.ValidMemoryTypes[model.MemoryType(overrideType)] {
		memType = model.MemoryType(overrideType)
	}

	encContent, err := s.encrypt(summary)
	if err != nil {
		return nil, apperr.NewInternal("consolidate: encrypt summary", err)
	}

	newMem := model.Memory{
		ID:          idgen.New("mem"),
		Content:     encContent,
		Type:        memType,
		Tags:        tags,
		CreatedAt:   now,
		AccessCount: summedAccessCount(group),
		Linkages:    inheritedLinkages(group),
	}
	if err := s.store.InsertMemory(ctx, newMem); err != nil {
		return nil, err
	}

	sourceIDs := make([]string, len(group))
	for i, m := range group {
		sourceIDs[i] = m.ID
	}

	cons := model.Consolidation{
		ID:              idgen.New("cons"),
		Summary:         summary,
		SourceIDs:       sourceIDs,
		Tags:            tags,
		Kind:            kind,
		Method:          method,
		TemplateSummary: template,
		NewMemoryID:     newMem.ID,
		CreatedAt:       now,
	}
	if err := s.store.InsertConsolidation(ctx, cons); err != nil {
		return nil, err
	}

	for _, id := range sourceIDs {
		if err := s.store.MarkConsolidated(ctx, id, newMem.ID); err != nil {
			return nil, err
		}
	}

	return &cons, nil
}

// RunAutomaticPass runs one full automatic consolidation pass over the
// workspace: collect candidates, group by shared tag, synthesize and
// commit each eligible group.
func (s *Service) RunAutomaticPass(ctx context.Context) ([]model.Consolidation, error) {
	candidates, err := s.store.ListAllActive(ctx)
	if err != nil {
		return nil, err
	}
	groups := GroupByTag(candidates)

	out := make([]model.Consolidation, 0, len(groups))
	for _, g := range groups {
		cons, err := s.commit(ctx, g, model.ConsolidationAuto, "", "", nil)
		if err != nil {
			return out, err
		}
		out = append(out, *cons)
	}
	return out, nil
}

// MergeManual runs an agent-driven merge: sourceIDs (≥2) must all exist and
// be non-consolidated, or the whole merge is rejected.
func (s *Service) MergeManual(ctx context.Context, sourceIDs []string, summary, memType string, extraTags []string) (*model.Consolidation, error) {
	if len(sourceIDs) < 2 {
		return nil, apperr.NewValidation("merge requires at least 2 source memories")
	}

	group := make([]model.Memory, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		m, err := s.store.GetMemory(ctx, id)
		if err != nil {
			return nil, apperr.NewValidation("source memory " + id + " does not exist")
		}
		if m.Consolidated {
			return nil, apperr.NewValidation("source memory " + id + " is already consolidated")
		}
		group = append(group, *m)
	}

	return s.commit(ctx, group, model.ConsolidationManual, summary, memType, extraTags)
}
