package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pianoxl/pkg/config"
)

type serviceConfig struct {
	URL     string `env:"TEST_SERVICE_URL,required,notEmpty"`
	Retries int    `env:"TEST_SERVICE_RETRIES" envDefault:"3"`
}

type otherConfig struct {
	Name string `env:"TEST_OTHER_NAME" envDefault:"other"`
}

func TestLoad(t *testing.T) {
	t.Run("parses values and defaults", func(t *testing.T) {
		config.Reset()
		t.Setenv("TEST_SERVICE_URL", "https://id.example.com")

		var cfg serviceConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "https://id.example.com", cfg.URL)
		assert.Equal(t, 3, cfg.Retries)
	})

	t.Run("missing required value is an error", func(t *testing.T) {
		config.Reset()
		t.Setenv("TEST_SERVICE_URL", "")

		var cfg serviceConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("cached per type", func(t *testing.T) {
		config.Reset()
		t.Setenv("TEST_SERVICE_URL", "first")

		var first serviceConfig
		require.NoError(t, config.Load(&first))

		t.Setenv("TEST_SERVICE_URL", "second")
		var second serviceConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, "first", second.URL)

		var other otherConfig
		require.NoError(t, config.Load(&other))
		assert.Equal(t, "other", other.Name)
	})

	t.Run("nil pointer", func(t *testing.T) {
		assert.ErrorIs(t, config.Load[serviceConfig](nil), config.ErrNilPointer)
	})

	t.Run("must load panics on failure", func(t *testing.T) {
		config.Reset()
		t.Setenv("TEST_SERVICE_URL", "")

		var cfg serviceConfig
		assert.Panics(t, func() { config.MustLoad(&cfg) })
	})
}
