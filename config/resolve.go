package config

import (
	"os"
	"strings"

	"github.com/CoderCouple/context0/errors"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
)

// ResolveConfig overlays environment variables (and a .env file when present)
// onto config, matching fields by their `env` tag.
func ResolveConfig[T any](config *T) error {
	if config == nil {
		return errors.New("config is nil")
	}

	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(".env"); err != nil {
			return errors.Wrapf(err, "failed to load .env")
		}
	}

	env := map[string]string{}
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[key] = value
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "env",
		WeaklyTypedInput: true,
		Result:           config,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to build config decoder")
	}
	if err := decoder.Decode(env); err != nil {
		return errors.Wrapf(err, "failed to resolve config from environment")
	}

	return nil
}
