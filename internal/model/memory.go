package model

import "time"

// MemoryType enumerates the recognized memory-variant tags. Unknown
// values are rejected at the boundary, never stored.
type MemoryType string

const (
	MemoryFact        MemoryType = "fact"
	MemoryDecision    MemoryType = "decision"
	MemoryInstruction MemoryType = "instruction"
	MemoryObservation MemoryType = "observation"
	MemoryPreference  MemoryType = "preference"
)

// ValidMemoryTypes is the closed vocabulary for MemoryType.
var ValidMemoryTypes = map[MemoryType]bool{
	MemoryFact: true, MemoryDecision: true, MemoryInstruction: true,
	MemoryObservation: true, MemoryPreference: true,
}

// LinkageType enumerates the three linkage variants: memory, item, and file.
// Anything else is dropped on write.
type LinkageType string

const (
	LinkageMemory LinkageType = "memory"
	LinkageItem   LinkageType = "item"
	LinkageFile   LinkageType = "file"
)

// Linkage is a tagged edge attached to a memory, pointing at another
// memory, a working-memory item, or a vault file path.
type Linkage struct {
	Type  LinkageType `json:"type"`
	ID    string      `json:"id,omitempty"`   // memory/item id
	Path  string      `json:"path,omitempty"` // file vault path
	Label string      `json:"label,omitempty"`
}

// Target returns the id or path this linkage points at, whichever applies.
func (l Linkage) Target() string {
	if l.Type == LinkageFile {
		return l.Path
	}
	return l.ID
}

// ImageMeta describes one inline image attached to a memory.
type ImageMeta struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Size     int    `json:"size"`
}

// Memory is a free-form piece of knowledge stored in a workspace.
type Memory struct {
	ID               string      `json:"id"`
	Content          string      `json:"content"`
	Type             MemoryType  `json:"type"`
	Tags             []string    `json:"tags"`
	CreatedAt        time.Time   `json:"created_at"`
	ExpiresAt        *time.Time  `json:"expires_at,omitempty"`
	Relevance        float64     `json:"relevance"`
	AccessCount      int         `json:"access_count"`
	LastAccessedAt   *time.Time  `json:"last_accessed_at,omitempty"`
	Consolidated     bool        `json:"consolidated"`
	ConsolidatedInto *string     `json:"consolidated_into,omitempty"`
	Linkages         []Linkage   `json:"linkages"`
	Images           []ImageMeta `json:"images,omitempty"`
}

// Expired reports whether the memory's expiration has passed as of now.
func (m Memory) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && !m.ExpiresAt.After(now)
}

// Active reports whether m should be visible to recall/consolidation:
// neither consolidated away nor expired.
func (m Memory) Active(now time.Time) bool {
	return !m.Consolidated && !m.Expired(now)
}

// Tokens returns the lowercased token set used for keyword scoring:
// content words union tag words.
func (m Memory) Tokens() []string {
	toks := tokenize(m.Content)
	for _, t := range m.Tags {
		toks = append(toks, normalizeTag(t))
	}
	return toks
}
