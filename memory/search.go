package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/CoderCouple/context0/errors"
	"github.com/CoderCouple/context0/extract"
)

type (
	// TimeRange bounds CreatedAt, inclusive on both ends. Zero bounds are
	// open.
	TimeRange struct {
		Start time.Time `json:"start,omitempty"`
		End   time.Time `json:"end,omitempty"`
	}

	// SearchOptions tune a search. Zero values fall back to the defaults;
	// Threshold is a pointer so an explicit zero threshold is expressible.
	SearchOptions struct {
		Limit      int                `json:"limit,omitempty"`
		Threshold  *float64           `json:"threshold,omitempty"`
		Platforms  []string           `json:"platforms,omitempty"`
		Categories []extract.Category `json:"categories,omitempty"`
		TimeRange  *TimeRange         `json:"timeRange,omitempty"`

		// Now overrides the scoring clock; the zero value means time.Now().
		// Fixing it makes search fully deterministic.
		Now time.Time `json:"-"`
	}
)

const (
	// DefaultSearchLimit and DefaultSearchThreshold apply when options leave
	// them unset. The threshold is on the enhanced score scale.
	DefaultSearchLimit     = 10
	DefaultSearchThreshold = 0.3
)

// Search ranks the stored memories against query and returns the qualifying
// subset, best first. Returned memories have their access bookkeeping already
// applied; an empty result mutates nothing.
//
// The scoring is two-stage: a cheap base score (substring and word overlap
// plus a recency bonus) discards irrelevant memories before the multi-factor
// enhanced score is computed and compared against the threshold.
func Search(ctx context.Context, store Store, query string, opts SearchOptions) ([]ScoredMemory, error) {
	all, err := store.All(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read memories for search")
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	threshold := DefaultSearchThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}

	query = strings.TrimSpace(query)

	var candidates []ScoredMemory
	for _, mem := range all {
		if !passesFilters(mem, opts) {
			continue
		}
		if query == "" {
			// Browse mode: no text signal, ranking degenerates to recency.
			candidates = append(candidates, ScoredMemory{Memory: mem})
			continue
		}
		base := baseScore(mem, query, now)
		if base <= 0 {
			continue
		}
		candidates = append(candidates, ScoredMemory{Memory: mem, Score: base})
	}

	results := make([]ScoredMemory, 0, len(candidates))
	for _, cand := range candidates {
		cand.Score = enhanceScore(cand.Memory, cand.Score, now)
		if cand.Score >= threshold {
			results = append(results, cand)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Memory.CreatedAt.After(results[j].Memory.CreatedAt)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	if len(results) == 0 {
		return results, nil
	}

	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Memory.ID)
	}
	if err := store.Touch(ctx, ids, now); err != nil {
		return nil, errors.Wrapf(err, "failed to record memory access")
	}
	for _, r := range results {
		r.Memory.AccessCount++
		r.Memory.LastAccessedAt = now
	}

	return results, nil
}

func passesFilters(mem *Memory, opts SearchOptions) bool {
	if len(opts.Platforms) > 0 && !containsFold(opts.Platforms, mem.SourceTag) {
		return false
	}
	if len(opts.Categories) > 0 {
		found := false
		for _, c := range opts.Categories {
			if c == mem.Category {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if tr := opts.TimeRange; tr != nil {
		if !tr.Start.IsZero() && mem.CreatedAt.Before(tr.Start) {
			return false
		}
		if !tr.End.IsZero() && mem.CreatedAt.After(tr.End) {
			return false
		}
	}
	return true
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

// baseScore is the coarse relevance filter: +10 for a substring hit, +5 per
// query word appearing as a whole word, plus up to 5 for recency.
func baseScore(mem *Memory, query string, now time.Time) float64 {
	content := strings.ToLower(mem.Content)
	lowered := strings.ToLower(query)

	var score float64
	if strings.Contains(content, lowered) {
		score += 10
	}

	contentWords := wordSet(content)
	for _, word := range strings.Fields(lowered) {
		if _, ok := contentWords[word]; ok {
			score += 5
		}
	}

	if recency := 5 - daysSince(mem.CreatedAt, now); recency > 0 {
		score += recency
	}
	return score
}

// enhanceScore layers recency decay, access frequency and confidence on top
// of the base score. The search threshold compares against this value.
func enhanceScore(mem *Memory, base float64, now time.Time) float64 {
	score := base

	if decay := 2 - daysSince(mem.CreatedAt, now)*0.1; decay > 0 {
		score += decay
	}

	frequency := float64(mem.AccessCount) * 0.1
	if frequency > 1 {
		frequency = 1
	}
	score += frequency

	score += mem.Confidence * 2
	return score
}

func daysSince(t, now time.Time) float64 {
	return now.Sub(t).Hours() / 24
}

func wordSet(content string) map[string]struct{} {
	words := strings.FieldsFunc(content, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
