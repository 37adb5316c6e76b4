package envconfig

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once

	cacheMu sync.Mutex
	cache   = map[string]any{}
)

// loadDotEnv loads the default .env file once per process. A missing file is
// not an error; existing environment variables are never overridden.
func loadDotEnv() {
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})
}

// Load parses environment variables into the provided struct based on its
// `env` field tags. Each config type is parsed at most once per process;
// later calls for the same type receive the cached copy even if the
// environment changed in between. Use Get for values that must track runtime
// environment changes.
//
// Example:
//
//	type StoreConfig struct {
//		URI    string `env:"DATASTORE_URI,required"`
//		DBName string `env:"DATASTORE_DB_NAME,required"`
//	}
//
//	var cfg StoreConfig
//	if err := envconfig.Load(&cfg); err != nil {
//		// handle error
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	loadDotEnv()

	key := reflect.TypeOf(v).Elem().String()

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached, ok := cache[key]; ok {
		*v = cached.(T)
		return nil
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParse, err)
	}

	// Store a copy so later mutations through other pointers cannot leak
	// into the cache.
	cache[key] = *v

	return nil
}

// MustLoad is Load but panics on failure.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("envconfig: failed to load required configuration: %v", err))
	}
}

// ResetCache clears the per-type config cache. Intended for tests that
// mutate the environment between loads.
func ResetCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	cache = map[string]any{}
}
