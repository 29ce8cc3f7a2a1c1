package memory_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/CoderCouple/context0/errors"
	"github.com/CoderCouple/context0/extract"
	"github.com/CoderCouple/context0/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSqliteStore(t *testing.T, maxMemories int) *memory.SqliteStore {
	t.Helper()
	store, err := memory.NewSqliteStore(filepath.Join(t.TempDir(), "memories.db"), maxMemories)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestSqliteStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSqliteStore(t, 0)

	mem, err := store.Insert(ctx, workFact("works at Acme Corp", 0.9), memory.Metadata{
		SourceTag:    "chatgpt",
		OriginalText: "I work at Acme Corp",
	})
	require.NoError(t, err)

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	got := all[0]
	assert.Equal(t, mem.ID, got.ID)
	assert.Equal(t, "works at Acme Corp", got.Content)
	assert.Equal(t, "I work at Acme Corp", got.OriginalText)
	assert.Equal(t, "chatgpt", got.SourceTag)
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)
	assert.Equal(t, []string{"works", "acme", "corp"}, got.Keywords)
	assert.Equal(t, 0, got.AccessCount)
}

func TestSqliteStoreDedup(t *testing.T) {
	ctx := context.Background()
	store := newTestSqliteStore(t, 0)

	first, err := store.Insert(ctx, workFact("works at Acme", 0.6), memory.Metadata{})
	require.NoError(t, err)

	second, err := store.Insert(ctx, workFact("  WORKS AT ACME ", 0.8), memory.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.InDelta(t, 0.8, second.Confidence, 1e-9)

	// A lower-confidence duplicate never lowers the stored value.
	third, err := store.Insert(ctx, workFact("works at Acme", 0.1), memory.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ID)
	assert.InDelta(t, 0.8, third.Confidence, 1e-9)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSqliteStoreDedupAppliesCategoryDefault(t *testing.T) {
	ctx := context.Background()
	store := newTestSqliteStore(t, 0)

	first, err := store.Insert(ctx, extract.Fact{Content: "plays chess", Confidence: 0.5}, memory.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, extract.CategoryGeneral, first.Category)

	second, err := store.Insert(ctx, extract.Fact{Content: "plays chess", Confidence: 0.5}, memory.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSqliteStoreRejectsInvalidDuplicate(t *testing.T) {
	ctx := context.Background()
	store := newTestSqliteStore(t, 0)

	_, err := store.Insert(ctx, workFact("works at Acme", 0.5), memory.Metadata{})
	require.NoError(t, err)

	_, err = store.Insert(ctx, workFact("works at Acme", 1.5), memory.Metadata{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidParams))

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.InDelta(t, 0.5, all[0].Confidence, 1e-9)
}

func TestSqliteStoreEviction(t *testing.T) {
	ctx := context.Background()
	store := newTestSqliteStore(t, 2)

	for _, content := range []string{"fact a", "fact b", "fact c"} {
		_, err := store.Insert(ctx, workFact(content, 0.5), memory.Metadata{})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "fact b", all[0].Content)
	assert.Equal(t, "fact c", all[1].Content)
}

func TestSqliteStoreEvictionBreaksTimestampTies(t *testing.T) {
	ctx := context.Background()
	store := newTestSqliteStore(t, 2)

	// Identical CreatedAt on every row: insertion order alone decides who is
	// oldest.
	created := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.ReplaceAll(ctx, []*memory.Memory{
		{ID: "a", Content: "fact a", Category: "work", Confidence: 0.5, CreatedAt: created, LastAccessedAt: created},
		{ID: "b", Content: "fact b", Category: "work", Confidence: 0.5, CreatedAt: created, LastAccessedAt: created},
		{ID: "c", Content: "fact c", Category: "work", Confidence: 0.5, CreatedAt: created, LastAccessedAt: created},
	}))

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, "c", all[1].ID)
}

func TestSqliteStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestSqliteStore(t, 0)

	mem, err := store.Insert(ctx, workFact("works at Acme", 0.5), memory.Metadata{})
	require.NoError(t, err)

	deleted, err := store.Delete(ctx, mem.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, mem.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestSqliteStoreTouch(t *testing.T) {
	ctx := context.Background()
	store := newTestSqliteStore(t, 0)

	mem, err := store.Insert(ctx, workFact("works at Acme", 0.5), memory.Metadata{})
	require.NoError(t, err)

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Touch(ctx, []string{mem.ID}, now))
	require.NoError(t, store.Touch(ctx, []string{mem.ID}, now))

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 2, all[0].AccessCount)
	assert.True(t, all[0].LastAccessedAt.Equal(now))
}

func TestSqliteStoreClearAndReplaceAll(t *testing.T) {
	ctx := context.Background()
	store := newTestSqliteStore(t, 0)

	_, err := store.Insert(ctx, workFact("works at Acme", 0.5), memory.Metadata{})
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx))
	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	restored := []*memory.Memory{
		{ID: "a", Content: "older", Category: "work", Confidence: 0.5, CreatedAt: now.Add(-time.Hour), LastAccessedAt: now},
		{ID: "b", Content: "newer", Category: "work", Confidence: 0.5, CreatedAt: now, LastAccessedAt: now},
	}
	require.NoError(t, store.ReplaceAll(ctx, restored))

	all, err = store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)

	err = store.ReplaceAll(ctx, []*memory.Memory{{Content: "no id"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidParams))
}

func TestSqliteStoreSettings(t *testing.T) {
	ctx := context.Background()
	store := newTestSqliteStore(t, 0)

	defaults := memory.SettingsRecord{
		MaxMemories:        memory.DefaultMaxMemories,
		SearchLimit:        memory.DefaultSearchLimit,
		SearchThreshold:    memory.DefaultSearchThreshold,
		InjectionMaxLength: memory.DefaultInjectionMaxLength,
	}

	settings, err := store.LoadSettings(ctx, defaults)
	require.NoError(t, err)
	assert.Equal(t, memory.DefaultMaxMemories, settings.MaxMemories)

	settings.SearchLimit = 25
	require.NoError(t, store.SaveSettings(ctx, settings))

	reloaded, err := store.LoadSettings(ctx, defaults)
	require.NoError(t, err)
	assert.Equal(t, 25, reloaded.SearchLimit)
}

func TestNewSqliteStoreRequiresPath(t *testing.T) {
	_, err := memory.NewSqliteStore("", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}
