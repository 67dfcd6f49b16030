// Package config parses environment variables (optionally seeded from a
// .env file) into typed configuration structs, once per struct type.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu     sync.Mutex
	loaded = make(map[reflect.Type]any)

	dotenvOnce sync.Once
)

// Load fills v from the environment using `env` / `envDefault` struct tags.
// The .env file in the working directory is read once, if present. A config
// type is parsed on first successful Load and served from cache afterwards;
// failed parses are not cached so a corrected environment can be retried.
//
//	type IdentityConfig struct {
//		URL    string `env:"IDENTITY_URL,required,notEmpty"`
//		APIKey string `env:"IDENTITY_API_KEY,required,notEmpty"`
//	}
//
//	var cfg IdentityConfig
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](v *T) error {
	dotenvOnce.Do(func() {
		// a missing .env file is fine
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	key := reflect.TypeFor[T]()

	mu.Lock()
	defer mu.Unlock()

	if cached, ok := loaded[key]; ok {
		*v = cached.(T)
		return nil
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	loaded[key] = parsed
	*v = parsed

	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// reset drops every cached config. Tests only.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	clear(loaded)
}
