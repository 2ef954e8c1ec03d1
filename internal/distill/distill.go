// Package distill implements distillation: turning a free-form conversation
// transcript into a bounded batch of candidate memories via an LLM call,
// tolerating noisy/fenced JSON output, deduplicating against what the
// workspace already knows, and writing survivors through the same
// encryption/embedding pipeline manual writes use.
package distill

import (
	"context"
	"encoding/json"
	"strings"

	"memento/internal/crypto"
	"memento/internal/llm"
	"memento/internal/memory"
	"memento/internal/model"
)

const (
	// maxCandidates bounds how many memories one distill call can create,
	// regardless of how many the transcript yields.
	maxCandidates = 20
	maxTags       = 3
	distillTag    = "source:distill"
)

// candidate is the shape we ask the LLM to emit per memory, and the shape
// we tolerate parsing back out of its (possibly noisy) response.
type candidate struct {
	Content string   `json:"content"`
	Type    string   `json:"type"`
	Tags    []string `json:"tags"`
}

// Service drives transcript distillation for one workspace.
type Service struct {
	memories *memory.Service
	client   llm.Client
}

func NewService(memories *memory.Service, client llm.Client) *Service {
	if client == nil {
		client = llm.Noop{}
	}
	return &Service{memories: memories, client: client}
}

// Run extracts candidates from transcript, filters and dedups them against
// existing, and persists the survivors. It returns the memories actually
// created; a transcript that yields nothing usable returns an empty slice,
// never an error, since distillation is best-effort.
func (s *Service) Run(ctx context.Context, transcript string, existing []model.Memory, key []byte) ([]*model.Memory, error) {
	raw, err := s.client.Extract(ctx, transcript)
	if err != nil {
		return nil, nil
	}

	candidates, err := parseCandidates(raw)
	if err != nil || len(candidates) == 0 {
		return nil, nil
	}
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	seen := make(map[string]bool, len(existing))
	for _, m := range existing {
		content, err := crypto.DecryptOptional(m.Content, key)
		if err != nil {
			continue
		}
		seen[normalize(content)] = true
	}

	var created []*model.Memory
	for _, c := range candidates {
		in, ok := validate(c)
		if !ok {
			continue
		}
		norm := normalize(in.Content)
		if seen[norm] {
			continue
		}
		seen[norm] = true

		m, err := s.memories.Create(ctx, in)
		if err != nil {
			continue
		}
		created = append(created, m)
	}
	return created, nil
}

// parseCandidates tolerates a Markdown code fence around the JSON array,
// or any amount of leading/trailing prose, by falling back to the first
// bracketed `[ ... ]` span in the text.
func parseCandidates(raw string) ([]candidate, error) {
	text := stripFences(raw)

	var out []candidate
	if err := json.Unmarshal([]byte(text), &out); err == nil {
		return out, nil
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, nil
	}
	return out, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		first := strings.TrimSpace(s[:nl])
		if first == "" || strings.EqualFold(first, "json") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// validate coerces and checks one raw candidate, returning the memory
// CreateInput it maps to. Rejects empty content or an unrecognized type.
func validate(c candidate) (memory.CreateInput, bool) {
	content := strings.TrimSpace(c.Content)
	if content == "" {
		return memory.CreateInput{}, false
	}
	mt := model.MemoryType(strings.ToLower(strings.TrimSpace(c.Type)))
	if !model.ValidMemoryTypes[mt] {
		mt = model.MemoryObservation
	}

	tags := c.Tags
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	normalized := model.NormalizeTags(tags)
	normalized = append(normalized, distillTag)

	return memory.CreateInput{
		Content: content,
		Type:    mt,
		Tags:    normalized,
	}, true
}

func normalize(content string) string {
	return strings.ToLower(strings.TrimSpace(content))
}
