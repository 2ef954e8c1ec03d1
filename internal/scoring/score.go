package scoring

import (
	"math"
	"sort"
	"strings"
	"time"

	"memento/internal/model"
)

const (
	recencyHalfLife    = 7 * 24 * time.Hour
	lastAccessHalfLife = 48 * time.Hour
	accessBoostCap     = 2.0
	accessBoostStep    = 0.1 // each access adds this much, up to the cap
	minRecency         = 0.01
)

// Ranking labels whether a result set was produced by pure keyword scoring
// or by merging in a vector backend's results.
type Ranking string

const (
	RankingKeyword Ranking = "keyword"
	RankingHybrid  Ranking = "hybrid"
)

// Result is one scored memory, carrying its component scores so handlers
// can expose keyword_score/vector_score alongside the composite.
type Result struct {
	Memory       *model.Memory
	KeywordScore float64
	VectorScore  *float64
	Score        float64
	Workspace    string // set only for peeked results
}

// recencyFactor is rec(M): exponential decay from creation with a ~7-day
// half-life, clamped to (0,1]. Future-dated memories yield 1.
func recencyFactor(createdAt, now time.Time) float64 {
	elapsed := now.Sub(createdAt)
	if elapsed <= 0 {
		return 1
	}
	f := math.Exp2(-float64(elapsed) / float64(recencyHalfLife))
	if f < minRecency {
		return minRecency
	}
	return f
}

// accessBoost is acc(M): monotonic in access count, capped at 2.0.
func accessBoost(accessCount int) float64 {
	b := 1 + float64(accessCount)*accessBoostStep
	if b > accessBoostCap {
		return accessBoostCap
	}
	return b
}

// lastAccessBoost is last(M): a bonus in (0,1], maximal just after access
// and decaying over ~48 hours to 0, added on top of a neutral baseline of 1
// so memories that have never been served aren't zeroed out of ranking.
func lastAccessBoost(lastAccessedAt *time.Time, now time.Time) float64 {
	if lastAccessedAt == nil {
		return 1
	}
	elapsed := now.Sub(*lastAccessedAt)
	if elapsed <= 0 {
		return 2
	}
	bonus := math.Exp2(-float64(elapsed) / float64(lastAccessHalfLife))
	return 1 + bonus
}

// keywordScore is kw(M) for prepared query terms. An empty Q means
// decay-mode ranking, where kw is defined as 1 for every candidate.
func keywordScore(m *model.Memory, terms []string) float64 {
	if len(terms) == 0 {
		return 1
	}
	tokens := m.Tokens()
	matched := 0
	for _, t := range terms {
		if termMatchesTokens(t, tokens) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func termMatchesTokens(term string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(tok, term) {
			return true
		}
	}
	return false
}

// Composite returns kw·rec·acc·last for m at time now given prepared terms.
func Composite(m *model.Memory, terms []string, now time.Time) (kw, score float64) {
	kw = keywordScore(m, terms)
	rec := recencyFactor(m.CreatedAt, now)
	acc := accessBoost(m.AccessCount)
	last := lastAccessBoost(m.LastAccessedAt, now)
	return kw, kw * rec * acc * last
}

// RelevanceForDecay computes the decay-mode (query-free) relevance the
// background decay worker writes back: rec·acc·last, with kw implicitly 1.
func RelevanceForDecay(m *model.Memory, now time.Time) float64 {
	_, score := Composite(m, nil, now)
	return score
}

// abstains reports whether any prepared term is absent from every
// candidate's content, triggering the abstention rule: rather than return
// a low-confidence partial match, recall returns nothing.
func abstains(candidates []model.Memory, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	for _, term := range terms {
		found := false
		for i := range candidates {
			if strings.Contains(strings.ToLower(candidates[i].Content), term) {
				found = true
				break
			}
		}
		if !found {
			return true
		}
	}
	return false
}

// RankKeyword runs the pure-keyword pipeline over candidates: query
// preparation already applied (terms), abstention, scoring, excluding
// kw=0 matches, and threshold filtering. Returns nil (not an error) on
// abstention.
func RankKeyword(candidates []model.Memory, terms []string, now time.Time, threshold float64) []Result {
	if abstains(candidates, terms) {
		return nil
	}
	out := make([]Result, 0, len(candidates))
	for i := range candidates {
		m := &candidates[i]
		kw, score := Composite(m, terms, now)
		if len(terms) > 0 && kw == 0 {
			continue
		}
		if score < threshold {
			continue
		}
		out = append(out, Result{Memory: m, KeywordScore: kw, Score: score})
	}
	sortResults(out)
	return out
}

// MergeHybrid implements the hybrid merge: for the union of keyword-ranked
// and vector-returned ids, final = α·kw + (1−α)·vec. Ties break by creation
// time descending.
func MergeHybrid(candidates []model.Memory, terms []string, now time.Time, vector map[string]float64, alpha, threshold float64) (results []Result, ranking Ranking) {
	if len(vector) == 0 {
		return RankKeyword(candidates, terms, now, threshold), RankingKeyword
	}
	if abstains(candidates, terms) {
		return nil, RankingHybrid
	}

	byID := make(map[string]*model.Memory, len(candidates))
	for i := range candidates {
		byID[candidates[i].ID] = &candidates[i]
	}

	out := make([]Result, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for i := range candidates {
		m := &candidates[i]
		kw := keywordScore(m, terms)
		if len(terms) > 0 && kw == 0 {
			if _, inVector := vector[m.ID]; !inVector {
				continue
			}
		}
		vec, inVector := vector[m.ID]
		// vec defaults to 0 when absent from the vector backend's results,
		// so final collapses to the pure keyword term for that candidate.
		final := alpha*kw + (1-alpha)*vec
		if final < threshold {
			continue
		}
		var vecPtr *float64
		if inVector {
			v := vec
			vecPtr = &v
		}
		out = append(out, Result{Memory: m, KeywordScore: kw, VectorScore: vecPtr, Score: final})
		seen[m.ID] = true
	}
	for id, vec := range vector {
		if seen[id] {
			continue
		}
		m, ok := byID[id]
		if !ok {
			continue // vector backend returned an id outside the candidate pool
		}
		kw := keywordScore(m, terms)
		final := alpha*kw + (1-alpha)*vec
		if final < threshold {
			continue
		}
		v := vec
		out = append(out, Result{Memory: m, KeywordScore: kw, VectorScore: &v, Score: final})
	}

	sortResults(out)
	return out, RankingHybrid
}

func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Memory.CreatedAt.After(results[j].Memory.CreatedAt)
	})
}
