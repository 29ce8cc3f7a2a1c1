package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/CoderCouple/context0/errors"
	"github.com/CoderCouple/context0/extract"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type (
	// SqliteStore persists memories through gorm on a sqlite database. It is
	// the durable counterpart of InMemoryStore with identical semantics.
	SqliteStore struct {
		db          *gorm.DB
		maxMemories int
	}

	// MemoryRecord is the database row for a Memory. ContentKey holds the
	// normalized content so the dedup identity is queryable.
	MemoryRecord struct {
		ID             string `gorm:"primaryKey"`
		Content        string `gorm:"type:text"`
		ContentKey     string `gorm:"index:idx_memories_identity"`
		OriginalText   string `gorm:"type:text"`
		Category       string `gorm:"index:idx_memories_identity"`
		Confidence     float64
		SourceTag      string
		Keywords       datatypes.JSONSlice[string]
		CreatedAt      time.Time `gorm:"index"`
		LastAccessedAt time.Time
		AccessCount    int
	}

	// SettingsRecord is the single-row "settings" record described by the
	// persisted state contract.
	SettingsRecord struct {
		ID                 uint      `gorm:"primaryKey" json:"-"`
		MaxMemories        int       `json:"maxMemories"`
		SearchLimit        int       `json:"searchLimit"`
		SearchThreshold    float64   `json:"searchThreshold"`
		InjectionMaxLength int       `json:"injectionMaxLength"`
		UpdatedAt          time.Time `json:"updatedAt"`
	}
)

func (MemoryRecord) TableName() string {
	return "memories"
}

func (SettingsRecord) TableName() string {
	return "settings"
}

var _ Store = (*SqliteStore)(nil)

// NewSqliteStore opens (creating if needed) the sqlite database at dbPath and
// migrates the memories and settings tables.
func NewSqliteStore(dbPath string, maxMemories int) (*SqliteStore, error) {
	if dbPath == "" {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "sqlite path is empty")
	}
	if maxMemories <= 0 {
		maxMemories = DefaultMaxMemories
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "failed to create sqlite directory at %s", dir)
		}
	}

	db, err := gorm.Open(
		sqlite.Open(fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL&_foreign_keys=on", dbPath)),
		&gorm.Config{},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite database at %s", dbPath)
	}

	if err := db.AutoMigrate(&MemoryRecord{}, &SettingsRecord{}); err != nil {
		return nil, errors.Wrapf(err, "failed to migrate memory tables")
	}

	return &SqliteStore{db: db, maxMemories: maxMemories}, nil
}

func recordFromMemory(mem *Memory) *MemoryRecord {
	return &MemoryRecord{
		ID:             mem.ID,
		Content:        mem.Content,
		ContentKey:     mem.Key().Content,
		OriginalText:   mem.OriginalText,
		Category:       string(mem.Category),
		Confidence:     mem.Confidence,
		SourceTag:      mem.SourceTag,
		Keywords:       datatypes.NewJSONSlice(mem.Keywords),
		CreatedAt:      mem.CreatedAt,
		LastAccessedAt: mem.LastAccessedAt,
		AccessCount:    mem.AccessCount,
	}
}

func (r *MemoryRecord) toMemory() *Memory {
	return &Memory{
		ID:             r.ID,
		Content:        r.Content,
		OriginalText:   r.OriginalText,
		Category:       extract.Category(r.Category),
		Confidence:     r.Confidence,
		SourceTag:      r.SourceTag,
		Keywords:       append([]string(nil), r.Keywords...),
		CreatedAt:      r.CreatedAt,
		LastAccessedAt: r.LastAccessedAt,
		AccessCount:    r.AccessCount,
	}
}

func (s *SqliteStore) Insert(ctx context.Context, fact extract.Fact, meta Metadata) (*Memory, error) {
	fact, err := normalizeFact(fact)
	if err != nil {
		return nil, err
	}

	var result *Memory

	// The duplicate check and the insert run in one transaction so the dedup
	// invariant survives concurrent writers.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		key := KeyOf(fact.Content, fact.Category)

		var existing MemoryRecord
		err := tx.Where("content_key = ? AND category = ?", key.Content, string(key.Category)).
			First(&existing).Error
		switch {
		case err == nil:
			if fact.Confidence > existing.Confidence {
				existing.Confidence = fact.Confidence
				if err := tx.Model(&MemoryRecord{}).Where("id = ?", existing.ID).
					Update("confidence", existing.Confidence).Error; err != nil {
					return errors.Wrapf(err, "failed to raise confidence")
				}
			}
			result = existing.toMemory()
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return errors.Wrapf(err, "failed to check duplicate")
		}

		mem, err := NewMemoryFromFact(fact, meta, time.Now())
		if err != nil {
			return err
		}
		if err := tx.Create(recordFromMemory(mem)).Error; err != nil {
			return errors.Wrapf(err, "failed to save memory record")
		}
		if err := evictTx(tx, s.maxMemories); err != nil {
			return err
		}

		result = mem
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// evictTx drops the oldest-created rows until the count is at or under max.
// rowid breaks created_at ties so rows written in the same clock tick evict in
// insertion order.
func evictTx(tx *gorm.DB, max int) error {
	var count int64
	if err := tx.Model(&MemoryRecord{}).Count(&count).Error; err != nil {
		return errors.Wrapf(err, "failed to count memories")
	}
	if count <= int64(max) {
		return nil
	}

	var ids []string
	if err := tx.Model(&MemoryRecord{}).
		Order("created_at ASC, rowid ASC").
		Limit(int(count) - max).
		Pluck("id", &ids).Error; err != nil {
		return errors.Wrapf(err, "failed to pick eviction candidates")
	}
	if err := tx.Delete(&MemoryRecord{}, "id IN ?", ids).Error; err != nil {
		return errors.Wrapf(err, "failed to evict memories")
	}
	return nil
}

func (s *SqliteStore) Delete(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&MemoryRecord{}, "id = ?", id)
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "failed to delete memory %s", id)
	}
	return res.RowsAffected > 0, nil
}

func (s *SqliteStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&MemoryRecord{}).Error; err != nil {
		return errors.Wrapf(err, "failed to clear memories")
	}
	return nil
}

func (s *SqliteStore) All(ctx context.Context) ([]*Memory, error) {
	var records []MemoryRecord
	if err := s.db.WithContext(ctx).Order("created_at ASC, rowid ASC").Find(&records).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to list memories")
	}

	memories := make([]*Memory, 0, len(records))
	for i := range records {
		memories = append(memories, records[i].toMemory())
	}
	return memories, nil
}

func (s *SqliteStore) Touch(ctx context.Context, ids []string, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(&MemoryRecord{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"access_count":     gorm.Expr("access_count + 1"),
			"last_accessed_at": now,
		}).Error; err != nil {
		return errors.Wrapf(err, "failed to touch memories")
	}
	return nil
}

func (s *SqliteStore) ReplaceAll(ctx context.Context, memories []*Memory) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&MemoryRecord{}).Error; err != nil {
			return errors.Wrapf(err, "failed to clear memories")
		}
		for _, mem := range memories {
			if mem.ID == "" {
				return errors.Wrapf(errors.ErrInvalidParams, "memory without id")
			}
			if err := tx.Create(recordFromMemory(mem)).Error; err != nil {
				return errors.Wrapf(err, "failed to save memory record")
			}
		}
		return evictTx(tx, s.maxMemories)
	})
}

// LoadSettings returns the persisted settings row, creating it from defaults
// when absent.
func (s *SqliteStore) LoadSettings(ctx context.Context, defaults SettingsRecord) (*SettingsRecord, error) {
	var settings SettingsRecord
	err := s.db.WithContext(ctx).First(&settings, "id = ?", 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = defaults
		settings.ID = 1
		if err := s.db.WithContext(ctx).Create(&settings).Error; err != nil {
			return nil, errors.Wrapf(err, "failed to save settings")
		}
		return &settings, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load settings")
	}
	return &settings, nil
}

// SaveSettings overwrites the settings row.
func (s *SqliteStore) SaveSettings(ctx context.Context, settings *SettingsRecord) error {
	settings.ID = 1
	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return errors.Wrapf(err, "failed to save settings")
	}
	return nil
}

func (s *SqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrapf(err, "failed to get db")
	}
	return sqlDB.Close()
}
