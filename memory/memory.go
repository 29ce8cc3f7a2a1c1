package memory

import (
	"strings"
	"time"

	"github.com/CoderCouple/context0/extract"
	"github.com/samber/lo"
)

type (
	// Memory is a persisted, deduplicated fact enriched with bookkeeping
	// fields. Content and Category are immutable after creation; a changed
	// fact is a new Memory.
	Memory struct {
		ID             string           `json:"id"`
		Content        string           `json:"content"`
		OriginalText   string           `json:"originalText,omitempty"`
		Category       extract.Category `json:"category"`
		Confidence     float64          `json:"confidence"`
		SourceTag      string           `json:"sourceTag,omitempty"`
		Keywords       []string         `json:"keywords,omitempty"`
		CreatedAt      time.Time        `json:"createdAt"`
		LastAccessedAt time.Time        `json:"lastAccessedAt"`
		AccessCount    int              `json:"accessCount"`
	}

	// Metadata is the caller-supplied context for an insert. Informational
	// only, never part of the dedup identity.
	Metadata struct {
		SourceTag    string `json:"sourceTag,omitempty"`
		OriginalText string `json:"originalText,omitempty"`
	}

	// Key is the dedup identity of a Memory. Two memories are duplicates iff
	// their keys are equal; OriginalText, SourceTag and object identity play
	// no part.
	Key struct {
		Content  string
		Category extract.Category
	}

	// ScoredMemory holds a memory with its relevance score.
	ScoredMemory struct {
		Memory *Memory `json:"memory"`
		Score  float64 `json:"score"`
	}
)

// KeyOf builds the dedup identity for a content/category pair. Content is
// trimmed and lowercased so that identity survives cosmetic differences.
func KeyOf(content string, category extract.Category) Key {
	return Key{
		Content:  strings.ToLower(strings.TrimSpace(content)),
		Category: category,
	}
}

// Key returns the dedup identity of m.
func (m *Memory) Key() Key {
	return KeyOf(m.Content, m.Category)
}

// Clone returns a deep copy of m. Stores hand out clones so that callers
// cannot mutate stored state behind the store's back.
func (m *Memory) Clone() *Memory {
	clone := *m
	clone.Keywords = append([]string(nil), m.Keywords...)
	return &clone
}

// stopwords excluded from keyword derivation. Keywords only inform search,
// they are not identity fields.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "was": {},
	"with": {}, "that": {}, "this": {}, "have": {}, "has": {}, "not": {},
	"but": {}, "you": {}, "your": {}, "its": {}, "from": {},
}

// DeriveKeywords lowercases content and splits it into unique tokens of at
// least three characters, minus stopwords.
func DeriveKeywords(content string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})

	tokens = lo.Filter(tokens, func(token string, _ int) bool {
		if len(token) < 3 {
			return false
		}
		_, stop := stopwords[token]
		return !stop
	})

	return lo.Uniq(tokens)
}
