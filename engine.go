package context0

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/CoderCouple/context0/config"
	"github.com/CoderCouple/context0/errors"
	"github.com/CoderCouple/context0/extract"
	"github.com/CoderCouple/context0/internal/mylog"
	"github.com/CoderCouple/context0/memory"
)

type (
	// Engine is the memory engine facade. It owns a fact extractor and a
	// memory store and exposes the narrow call/return API consumed by the
	// surrounding platform layers.
	Engine struct {
		extractor *extract.Extractor
		store     memory.Store
		logger    *slog.Logger

		memoryConfig *config.MemoryConfig
		logConfig    *config.LogConfig
	}

	// ExportPayload is the bulk backup format.
	ExportPayload struct {
		Memories   []*memory.Memory `json:"memories"`
		ExportedAt time.Time        `json:"exportedAt"`
	}
)

// fallbackConfidence is assigned to the minimal memory built when extraction
// results cannot be persisted.
const fallbackConfidence = 0.3

func NewEngine(ctx context.Context, optionFuncs ...Option) (*Engine, error) {
	e := &Engine{
		memoryConfig: config.NewMemoryConfig(),
		logConfig:    config.NewLogConfig(),
	}
	for _, f := range optionFuncs {
		f(e)
	}

	if e.logger == nil {
		e.logger = mylog.NewLogger(e.logConfig.LogLevel, e.logConfig.LogHandler)
	}
	if e.extractor == nil {
		e.extractor = extract.NewExtractor()
	}
	if e.store == nil {
		if e.memoryConfig.SqliteEnabled {
			store, err := memory.NewSqliteStore(e.memoryConfig.SqlitePath, e.memoryConfig.MaxMemories)
			if err != nil {
				return nil, err
			}
			e.store = store
		} else {
			e.store = memory.NewInMemoryStore(e.memoryConfig.MaxMemories)
		}
	}

	return e, nil
}

// Store exposes the underlying memory store.
func (e *Engine) Store() memory.Store {
	return e.store
}

func (e *Engine) Close() error {
	return e.store.Close()
}

// ExtractFacts runs pattern extraction on text without persisting anything.
func (e *Engine) ExtractFacts(text string) ([]extract.Fact, error) {
	return e.extractor.ExtractFacts(text)
}

// StoreMemory extracts facts from text and inserts each into the store. On a
// persistence failure it degrades to a single minimal general-category memory
// built from the raw text and tries one more save; when even that fails the
// call returns an empty list so best-effort capture never blocks the caller.
func (e *Engine) StoreMemory(ctx context.Context, text string, meta memory.Metadata) ([]*memory.Memory, error) {
	facts, err := e.extractor.ExtractFacts(text)
	if err != nil {
		return nil, err
	}
	if meta.OriginalText == "" {
		meta.OriginalText = text
	}

	memories := make([]*memory.Memory, 0, len(facts))
	for _, fact := range facts {
		mem, err := e.store.Insert(ctx, fact, meta)
		if err != nil {
			e.logger.Warn("memory insert failed, falling back to raw capture", mylog.Err(err))
			return e.storeFallback(ctx, text, meta), nil
		}
		memories = append(memories, mem)
	}

	return memories, nil
}

// storeFallback makes the one best-effort save of the raw text.
func (e *Engine) storeFallback(ctx context.Context, text string, meta memory.Metadata) []*memory.Memory {
	content := strings.TrimSpace(extract.Normalize(text))
	if len(content) > 200 {
		cut := 200
		// Never split a multi-byte rune.
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}

	mem, err := e.store.Insert(ctx, extract.Fact{
		Category:   extract.CategoryGeneral,
		Content:    content,
		Confidence: fallbackConfidence,
	}, meta)
	if err != nil {
		e.logger.Warn("fallback memory save failed, dropping capture", mylog.Err(err))
		return []*memory.Memory{}
	}
	return []*memory.Memory{mem}
}

// SearchMemories ranks stored memories against query. Unset options fall back
// to the engine's configured defaults. Persistence failures propagate; they
// are never reported as an empty result.
func (e *Engine) SearchMemories(ctx context.Context, query string, opts memory.SearchOptions) ([]memory.ScoredMemory, error) {
	if opts.Limit <= 0 {
		opts.Limit = e.memoryConfig.SearchLimit
	}
	if opts.Threshold == nil {
		threshold := e.memoryConfig.SearchThreshold
		opts.Threshold = &threshold
	}
	return memory.Search(ctx, e.store, query, opts)
}

// FormatMemoriesForInjection renders memories into a bounded text block.
func (e *Engine) FormatMemoriesForInjection(memories []*memory.Memory, opts memory.FormatOptions) string {
	if opts.MaxLength <= 0 {
		opts.MaxLength = e.memoryConfig.InjectionMaxLength
	}
	return memory.FormatForInjection(memories, opts)
}

// DeleteMemory removes one memory; an unknown id reports (false, nil).
func (e *Engine) DeleteMemory(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, errors.Wrapf(errors.ErrInvalidParams, "memory id is empty")
	}
	return e.store.Delete(ctx, id)
}

// ClearAllMemories wipes the store.
func (e *Engine) ClearAllMemories(ctx context.Context) error {
	return e.store.Clear(ctx)
}

// Settings returns the engine tunables. With a sqlite store the persisted
// settings row is authoritative and is created from the current configuration
// on first use; other stores report the configured values directly.
func (e *Engine) Settings(ctx context.Context) (*memory.SettingsRecord, error) {
	defaults := memory.SettingsRecord{
		MaxMemories:        e.memoryConfig.MaxMemories,
		SearchLimit:        e.memoryConfig.SearchLimit,
		SearchThreshold:    e.memoryConfig.SearchThreshold,
		InjectionMaxLength: e.memoryConfig.InjectionMaxLength,
	}

	store, ok := e.store.(*memory.SqliteStore)
	if !ok {
		return &defaults, nil
	}
	return store.LoadSettings(ctx, defaults)
}

// UpdateSettings applies new tunables to the running engine and, with a
// sqlite store, persists them. A changed MaxMemories takes effect on the next
// engine start; the store's cap is fixed at construction.
func (e *Engine) UpdateSettings(ctx context.Context, settings *memory.SettingsRecord) error {
	if settings == nil {
		return errors.Wrapf(errors.ErrInvalidParams, "settings is nil")
	}

	if settings.MaxMemories > 0 {
		e.memoryConfig.MaxMemories = settings.MaxMemories
	}
	if settings.SearchLimit > 0 {
		e.memoryConfig.SearchLimit = settings.SearchLimit
	}
	if settings.SearchThreshold >= 0 {
		e.memoryConfig.SearchThreshold = settings.SearchThreshold
	}
	if settings.InjectionMaxLength > 0 {
		e.memoryConfig.InjectionMaxLength = settings.InjectionMaxLength
	}

	if store, ok := e.store.(*memory.SqliteStore); ok {
		settings.UpdatedAt = time.Now()
		return store.SaveSettings(ctx, settings)
	}
	return nil
}

// ExportAll snapshots every stored memory for backup.
func (e *Engine) ExportAll(ctx context.Context) (*ExportPayload, error) {
	memories, err := e.store.All(ctx)
	if err != nil {
		return nil, err
	}
	return &ExportPayload{
		Memories:   memories,
		ExportedAt: time.Now(),
	}, nil
}

// ImportAll restores a backup, replacing the store contents wholesale. This
// is destructive: whatever was stored before the call is gone afterwards.
func (e *Engine) ImportAll(ctx context.Context, payload *ExportPayload) (bool, error) {
	if payload == nil {
		return false, errors.Wrapf(errors.ErrInvalidParams, "import payload is nil")
	}
	if err := e.store.ReplaceAll(ctx, payload.Memories); err != nil {
		return false, err
	}
	return true, nil
}
