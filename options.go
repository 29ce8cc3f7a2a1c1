package context0

import (
	"log/slog"

	"github.com/CoderCouple/context0/config"
	"github.com/CoderCouple/context0/extract"
	"github.com/CoderCouple/context0/memory"
)

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithStore(store memory.Store) Option {
	return func(e *Engine) {
		e.store = store
	}
}

func WithExtractor(extractor *extract.Extractor) Option {
	return func(e *Engine) {
		e.extractor = extractor
	}
}

func WithMemoryConfig(conf *config.MemoryConfig) Option {
	return func(e *Engine) {
		if conf != nil {
			e.memoryConfig = conf
		}
	}
}

func WithLogConfig(conf *config.LogConfig) Option {
	return func(e *Engine) {
		if conf != nil {
			e.logConfig = conf
		}
	}
}
