package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.IsDevelopment())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, false},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, false},
		{"missing table", func(c *Config) { c.AWS.TableName = "" }, false},
		{"negative trust weight", func(c *Config) { c.Trust.PerConnection = -1 }, false},
		{"trust base above bound", func(c *Config) { c.Trust.Base = 101 }, false},
		{"trust cap above bound", func(c *Config) { c.Trust.GroupCap = 150 }, false},
		{"negative suggest weight", func(c *Config) { c.Suggest.Mutuals = -0.5 }, false},
		{"zero default limit", func(c *Config) { c.Suggest.DefaultLimit = 0 }, false},
		{"max below default limit", func(c *Config) { c.Suggest.MaxLimit = 5; c.Suggest.DefaultLimit = 10 }, false},
		{"zero weights are allowed", func(c *Config) {
			c.Trust.PerConnection = 0
			c.Suggest.Location = 0
		}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoaderHierarchy(t *testing.T) {
	dir := t.TempDir()

	base := `
server:
  port: 9090
trust:
  base: 20
`
	production := `
trust:
  base: 5
suggest:
  defaultLimit: 20
  maxLimit: 60
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.yaml"), []byte(base), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "production.yaml"), []byte(production), 0o644))

	t.Run("environment file overrides base", func(t *testing.T) {
		cfg, err := NewLoader(dir, Production).Load()
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, float64(5), cfg.Trust.Base)
		assert.Equal(t, 20, cfg.Suggest.DefaultLimit)
		assert.Contains(t, cfg.LoadedFrom, filepath.Join(dir, "base.yaml"))
		assert.Contains(t, cfg.LoadedFrom, filepath.Join(dir, "production.yaml"))
	})

	t.Run("missing files fall back to defaults", func(t *testing.T) {
		cfg, err := NewLoader(t.TempDir(), Development).Load()
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().Server.Port, cfg.Server.Port)
	})

	t.Run("env vars override files", func(t *testing.T) {
		t.Setenv("PORT", "7070")
		t.Setenv("TABLE_NAME", "kinship-prod")
		t.Setenv("REQUEST_TIMEOUT", "45s")
		t.Setenv("ENABLE_WEBSOCKET", "false")

		cfg, err := NewLoader(dir, Production).Load()
		require.NoError(t, err)

		assert.Equal(t, 7070, cfg.Server.Port)
		assert.Equal(t, "kinship-prod", cfg.AWS.TableName)
		assert.Equal(t, 45*time.Second, cfg.Server.RequestTimeout)
		assert.False(t, cfg.Features.EnableWebSocket)
	})

	t.Run("invalid merged config is rejected", func(t *testing.T) {
		bad := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(bad, "base.yaml"),
			[]byte("trust:\n  base: -3\n"), 0o644))

		_, err := NewLoader(bad, Development).Load()
		assert.Error(t, err)
	})

	t.Run("malformed yaml is rejected", func(t *testing.T) {
		bad := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(bad, "base.yaml"),
			[]byte("server: [not-a-map"), 0o644))

		_, err := NewLoader(bad, Development).Load()
		assert.Error(t, err)
	})
}

func TestLoadFromEnv(t *testing.T) {
	t.Run("unknown APP_ENV falls back to development", func(t *testing.T) {
		t.Setenv("APP_ENV", "sandbox")
		t.Setenv("CONFIG_PATH", t.TempDir())

		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.Equal(t, Development, cfg.Environment)
	})

	t.Run("APP_ENV selects the environment", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("CONFIG_PATH", t.TempDir())

		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.Equal(t, Production, cfg.Environment)
	})
}
