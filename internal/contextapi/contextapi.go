// Package contextapi implements the context composer: a single request that
// fans out over working memory, ranked memories, the skip list, and
// identity, with an optional read-only cross-workspace "peek" fan-out
// merged into the final ranking.
package contextapi

import (
	"context"
	"sort"
	"strconv"
	"time"

	"memento/internal/crypto"
	"memento/internal/identity"
	"memento/internal/memory"
	"memento/internal/model"
	"memento/internal/scoring"
	"memento/internal/skiplist"
	"memento/internal/store/workspace"
	"memento/internal/vector"
	"memento/internal/workspacemgr"
)

const (
	defaultAlpha     = 0.5
	defaultThreshold = 0
	defaultLimit     = 10
)

// Section names accepted in Request.Include.
const (
	SectionWorkingMemory = "working_memory"
	SectionMemories      = "memories"
	SectionSkipList      = "skip_list"
	SectionIdentity      = "identity"
)

var allSections = []string{SectionWorkingMemory, SectionMemories, SectionSkipList, SectionIdentity}

// Request is the decoded body of POST /context.
type Request struct {
	Message         string
	Include         []string
	PeekWorkspaces  []string
}

// Response is the composite result, with sections left nil when not
// requested.
type Response struct {
	WorkingMemory *WorkingMemorySection `json:"working_memory,omitempty"`
	Memories      *MemoriesSection      `json:"memories,omitempty"`
	SkipList      *SkipListSection      `json:"skip_list,omitempty"`
	Identity      *IdentitySection      `json:"identity,omitempty"`
	Meta          Meta                  `json:"meta"`
}

type WorkingMemorySection struct {
	Items []model.Item `json:"items"`
	Count int          `json:"count"`
}

type MemoriesSection struct {
	Results []scoring.Result `json:"results"`
	Query   []string         `json:"query_terms"`
	Ranking scoring.Ranking  `json:"ranking"`
}

type SkipListSection struct {
	Match *model.SkipEntry `json:"match"`
}

type IdentitySection struct {
	Crystal string `json:"crystal,omitempty"`
}

type Meta struct {
	Workspace       string    `json:"workspace"`
	LastUpdated     time.Time `json:"last_updated"`
	MemoryCount     *int      `json:"memory_count,omitempty"`
	PeekedWorkspaces []string `json:"peeked_workspaces,omitempty"`
}

// PeekResolver resolves the read-only peer workspace handles named in a
// request's peek_workspaces list.
type PeekResolver interface {
	ResolvePeeks(ctx context.Context, user *model.User, names []string) ([]*workspacemgr.Handle, error)
}

// Service composes one workspace's context response.
type Service struct {
	handle   *workspacemgr.Handle
	memories *memory.Service
	skip     *skiplist.Service
	ident    *identity.Service
	vectorIdx vector.Backend
	peeks    PeekResolver
	user     *model.User
}

func NewService(handle *workspacemgr.Handle, memories *memory.Service, skip *skiplist.Service, ident *identity.Service, vectorIdx vector.Backend, peeks PeekResolver, user *model.User) *Service {
	if vectorIdx == nil {
		vectorIdx = vector.Noop{}
	}
	return &Service{handle: handle, memories: memories, skip: skip, ident: ident, vectorIdx: vectorIdx, peeks: peeks, user: user}
}

// Compose runs the requested sections and assembles the response.
func (s *Service) Compose(ctx context.Context, req Request) (*Response, error) {
	include := req.Include
	if len(include) == 0 {
		include = allSections
	}
	want := make(map[string]bool, len(include))
	for _, section := range include {
		want[section] = true
	}

	resp := &Response{Meta: Meta{Workspace: s.handle.Workspace.Name, LastUpdated: time.Now().UTC()}}

	if want[SectionWorkingMemory] {
		items, err := s.handle.Store.ListActiveAndPaused(ctx)
		if err != nil {
			return nil, err
		}
		sortItems(items)
		resp.WorkingMemory = &WorkingMemorySection{Items: items, Count: len(items)}
	}

	if want[SectionMemories] {
		section, peeked, err := s.composeMemories(ctx, req)
		if err != nil {
			return nil, err
		}
		resp.Memories = section
		n := len(section.Results)
		resp.Meta.MemoryCount = &n
		resp.Meta.PeekedWorkspaces = peeked
	}

	if want[SectionSkipList] {
		match, err := s.skip.Check(ctx, req.Message)
		if err != nil {
			return nil, err
		}
		resp.SkipList = &SkipListSection{Match: match}
	}

	if want[SectionIdentity] {
		snap, err := s.ident.Latest(ctx)
		if err != nil {
			return nil, err
		}
		section := &IdentitySection{}
		if snap != nil {
			section.Crystal = snap.Crystal
		}
		resp.Identity = section
	}

	return resp, nil
}

func (s *Service) composeMemories(ctx context.Context, req Request) (*MemoriesSection, []string, error) {
	terms := scoring.PrepareQuery(req.Message)
	alpha := s.settingFloat(ctx, model.SettingRecallAlpha, defaultAlpha)
	threshold := s.settingFloat(ctx, model.SettingRecallThreshold, defaultThreshold)

	results, ranking, err := s.rankLocal(ctx, s.handle.Store, s.handle.Key, terms, alpha, threshold)
	if err != nil {
		return nil, nil, err
	}
	for i := range results {
		s.memories.TrackAccess(results[i].Memory.ID, req.Message)
	}

	var peekedNames []string
	if len(req.PeekWorkspaces) > 0 && s.peeks != nil {
		handles, err := s.peeks.ResolvePeeks(ctx, s.user, req.PeekWorkspaces)
		if err != nil {
			return nil, nil, err
		}
		for _, h := range handles {
			peekResults, _, err := s.rankLocal(ctx, h.Store, h.Key, terms, alpha, threshold)
			if err != nil {
				continue
			}
			for i := range peekResults {
				peekResults[i].Workspace = h.Workspace.Name
			}
			results = append(results, peekResults...)
			peekedNames = append(peekedNames, h.Workspace.Name)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Memory.CreatedAt.After(results[j].Memory.CreatedAt)
	})
	if len(results) > defaultLimit {
		results = results[:defaultLimit]
	}

	return &MemoriesSection{Results: results, Query: terms, Ranking: ranking}, peekedNames, nil
}

// rankLocal runs the scoring pipeline read-only over one workspace's
// candidate pool: keyword ranking, with an optional vector merge when a
// vector backend is configured for this workspace handle's owner.
func (s *Service) rankLocal(ctx context.Context, store *workspace.Store, key []byte, terms []string, alpha, threshold float64) ([]scoring.Result, scoring.Ranking, error) {
	candidates, err := store.ListAllActive(ctx)
	if err != nil {
		return nil, "", err
	}
	for i := range candidates {
		dec, err := crypto.DecryptOptional(candidates[i].Content, key)
		if err != nil {
			return nil, "", err
		}
		candidates[i].Content = dec
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}

	var vectorScores map[string]float64
	if matches, err := s.vectorIdx.Search(ctx, joinTerms(terms), ids, defaultLimit); err == nil && len(matches) > 0 {
		vectorScores = make(map[string]float64, len(matches))
		for _, m := range matches {
			vectorScores[m.MemoryID] = m.Score
		}
	}

	results, ranking := scoring.MergeHybrid(candidates, terms, time.Now().UTC(), vectorScores, alpha, threshold)
	return results, ranking, nil
}

func joinTerms(terms []string) string {
	out := ""
	for i, t := range terms {
		if i > 0 {
			out += " "
		}
		out += t
	}
	return out
}

func (s *Service) settingFloat(ctx context.Context, key string, fallback float64) float64 {
	v, ok, err := s.handle.Store.GetSetting(ctx, key)
	if err != nil || !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func sortItems(items []model.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Priority != items[j].Priority {
			return items[i].Priority > items[j].Priority
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
