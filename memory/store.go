package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/CoderCouple/context0/errors"
	"github.com/CoderCouple/context0/extract"
	"github.com/google/uuid"
)

type (
	// Store is the persistence surface of the engine. Implementations must
	// serialize mutations so that the dedup invariant holds: no two stored
	// memories share the same Key.
	Store interface {
		// Insert builds a Memory from fact and meta. If a memory with the same
		// Key exists, the existing one is returned; its confidence is raised
		// iff the new fact's confidence is strictly higher. Otherwise a new
		// memory is appended and the capacity policy applied.
		Insert(ctx context.Context, fact extract.Fact, meta Metadata) (*Memory, error)
		// Delete removes the memory with that id and reports whether it
		// existed. An unknown id is not an error.
		Delete(ctx context.Context, id string) (bool, error)
		// Clear removes all memories.
		Clear(ctx context.Context) error
		// All returns every stored memory, ascending by CreatedAt.
		All(ctx context.Context) ([]*Memory, error)
		// Touch records a successful search hit: AccessCount is incremented
		// and LastAccessedAt set to now for every listed id.
		Touch(ctx context.Context, ids []string, now time.Time) error
		// ReplaceAll swaps the stored set wholesale. This is the import path;
		// it bypasses dedup and destroys the previous contents.
		ReplaceAll(ctx context.Context, memories []*Memory) error
		Close() error
	}

	// InMemoryStore keeps memories in an ordered slice guarded by a mutex.
	InMemoryStore struct {
		mu          sync.RWMutex
		memories    []*Memory
		maxMemories int
		now         func() time.Time
	}
)

var _ Store = (*InMemoryStore)(nil)

// DefaultMaxMemories is the capacity cap applied when none is configured.
const DefaultMaxMemories = 1000

func NewInMemoryStore(maxMemories int) *InMemoryStore {
	if maxMemories <= 0 {
		maxMemories = DefaultMaxMemories
	}
	return &InMemoryStore{
		maxMemories: maxMemories,
		now:         time.Now,
	}
}

// normalizeFact validates a fact and applies the category default. Stores run
// it before the duplicate lookup so the dedup key and the confidence raise see
// the same identity and bounds as the create path.
func normalizeFact(fact extract.Fact) (extract.Fact, error) {
	if fact.Content == "" {
		return fact, errors.Wrapf(errors.ErrInvalidParams, "fact content is empty")
	}
	if fact.Confidence < 0 || fact.Confidence > 1 {
		return fact, errors.Wrapf(errors.ErrInvalidParams, "confidence %f out of [0,1]", fact.Confidence)
	}
	if fact.Category == "" {
		fact.Category = extract.CategoryGeneral
	}
	if !fact.Category.Valid() {
		return fact, errors.Wrapf(errors.ErrInvalidParams, "unknown category %q", fact.Category)
	}
	return fact, nil
}

// NewMemoryFromFact is the single construction path for memories, shared by
// every store implementation.
func NewMemoryFromFact(fact extract.Fact, meta Metadata, now time.Time) (*Memory, error) {
	fact, err := normalizeFact(fact)
	if err != nil {
		return nil, err
	}

	return &Memory{
		ID:             uuid.NewString(),
		Content:        fact.Content,
		OriginalText:   meta.OriginalText,
		Category:       fact.Category,
		Confidence:     fact.Confidence,
		SourceTag:      meta.SourceTag,
		Keywords:       DeriveKeywords(fact.Content),
		CreatedAt:      now,
		LastAccessedAt: now,
	}, nil
}

func (s *InMemoryStore) Insert(ctx context.Context, fact extract.Fact, meta Metadata) (*Memory, error) {
	fact, err := normalizeFact(fact)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := KeyOf(fact.Content, fact.Category)
	for _, existing := range s.memories {
		if existing.Key() != key {
			continue
		}
		if fact.Confidence > existing.Confidence {
			existing.Confidence = fact.Confidence
		}
		return existing.Clone(), nil
	}

	mem, err := NewMemoryFromFact(fact, meta, s.now())
	if err != nil {
		return nil, err
	}
	s.memories = append(s.memories, mem)
	s.evictLocked()

	return mem.Clone(), nil
}

// evictLocked enforces the capacity cap, dropping the oldest-created entries
// first. Callers hold the write lock.
func (s *InMemoryStore) evictLocked() {
	if len(s.memories) <= s.maxMemories {
		return
	}
	sort.SliceStable(s.memories, func(i, j int) bool {
		return s.memories[i].CreatedAt.Before(s.memories[j].CreatedAt)
	})
	s.memories = append([]*Memory(nil), s.memories[len(s.memories)-s.maxMemories:]...)
}

func (s *InMemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, mem := range s.memories {
		if mem.ID == id {
			s.memories = append(s.memories[:i], s.memories[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memories = nil
	return nil
}

func (s *InMemoryStore) All(ctx context.Context) ([]*Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*Memory, 0, len(s.memories))
	for _, mem := range s.memories {
		results = append(results, mem.Clone())
	}
	return results, nil
}

func (s *InMemoryStore) Touch(ctx context.Context, ids []string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	for _, mem := range s.memories {
		if _, ok := wanted[mem.ID]; ok {
			mem.AccessCount++
			mem.LastAccessedAt = now
		}
	}
	return nil
}

func (s *InMemoryStore) ReplaceAll(ctx context.Context, memories []*Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	replacement := make([]*Memory, 0, len(memories))
	for _, mem := range memories {
		if mem.ID == "" {
			return errors.Wrapf(errors.ErrInvalidParams, "memory without id")
		}
		replacement = append(replacement, mem.Clone())
	}
	sort.SliceStable(replacement, func(i, j int) bool {
		return replacement[i].CreatedAt.Before(replacement[j].CreatedAt)
	})

	s.memories = replacement
	s.evictLocked()
	return nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
