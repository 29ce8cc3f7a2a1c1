package config

// MemoryConfig holds the tunables of the memory engine. Defaults follow the
// retention and search behavior documented on the Engine.
type MemoryConfig struct {
	// MaxMemories is the hard cap on stored memories. Overflowing inserts
	// evict the oldest entries by creation time.
	MaxMemories int `env:"MEMORY_MAX_MEMORIES" yaml:"maxMemories"`

	// SearchLimit and SearchThreshold are the defaults applied when a search
	// request leaves them unset.
	SearchLimit     int     `env:"MEMORY_SEARCH_LIMIT" yaml:"searchLimit"`
	SearchThreshold float64 `env:"MEMORY_SEARCH_THRESHOLD" yaml:"searchThreshold"`

	// InjectionMaxLength bounds the rendered injection block, in characters.
	InjectionMaxLength int `env:"MEMORY_INJECTION_MAX_LENGTH" yaml:"injectionMaxLength"`

	// SqliteEnabled switches the engine from the in-memory store to the
	// sqlite-backed one at SqlitePath.
	SqliteEnabled bool   `env:"MEMORY_SQLITE_ENABLED" yaml:"sqliteEnabled"`
	SqlitePath    string `env:"MEMORY_SQLITE_PATH" yaml:"sqlitePath"`
}

func NewMemoryConfig() *MemoryConfig {
	return &MemoryConfig{
		MaxMemories:        1000,
		SearchLimit:        10,
		SearchThreshold:    0.3,
		InjectionMaxLength: 800,
	}
}
