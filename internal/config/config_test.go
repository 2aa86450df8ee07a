package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(envConfig, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.RemoveCommands)
	assert.Equal(t, "https://api.clashroyale.com/v1", cfg.RoyaleBaseURL)
	assert.Equal(t, 300*time.Second, cfg.SimpleTimeout)
	assert.Equal(t, 840*time.Second, cfg.BracketTimeout)
	assert.Equal(t, BackendMemory, cfg.SessionBackend)
	assert.NoError(t, cfg.Validate())
}

func TestLoadLayers(t *testing.T) {
	path := writeFile(t, "fft.yaml", `
log_level: debug
guild_id: "123"
bracket_timeout: 600s
openai_max_tokens: 90
registered_clans:
  - guild: "123"
    abbr: FRG
    tag: "#FROG"
  - guild: "999"
    abbr: OTH
    tag: "#OTHER"
`)
	t.Setenv(envConfig, "")
	t.Setenv("FFT_LOG_LEVEL", "warn")
	t.Setenv("FFT_REDIS_DB", "3")
	t.Setenv("FFT_ROYALE_TIMEOUT", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel, "env overrides file")
	assert.Equal(t, "123", cfg.GuildID)
	assert.Equal(t, 600*time.Second, cfg.BracketTimeout)
	assert.Equal(t, 90, cfg.OpenAIMaxTokens)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 2*time.Second, cfg.RoyaleTimeout)
	assert.Equal(t, 300*time.Second, cfg.SimpleTimeout, "untouched default survives")
	require.Len(t, cfg.RegisteredClans, 2)
	assert.Equal(t, Clan{Guild: "123", Abbr: "FRG", Tag: "#FROG"}, cfg.RegisteredClans[0])
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	path := writeFile(t, "fft.yaml", "session_backend: redis\n")
	t.Setenv(envConfig, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.SessionBackend)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrLoadConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bracket timeout at token lifetime", func(c *Config) { c.BracketTimeout = 900 * time.Second }, false},
		{"bracket timeout just below", func(c *Config) { c.BracketTimeout = 899 * time.Second }, true},
		{"zero simple timeout", func(c *Config) { c.SimpleTimeout = 0 }, false},
		{"unknown backend", func(c *Config) { c.SessionBackend = "mongo" }, false},
		{"redis without addr", func(c *Config) {
			c.SessionBackend = BackendRedis
			c.RedisAddr = ""
		}, false},
		{"redis", func(c *Config) { c.SessionBackend = BackendRedis }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestValidateBot(t *testing.T) {
	cfg := New()
	assert.ErrorIs(t, cfg.ValidateBot(), ErrInvalidConfig)

	cfg.DiscordToken = "discord"
	assert.ErrorIs(t, cfg.ValidateBot(), ErrInvalidConfig)

	cfg.RoyaleAPIToken = "royale"
	assert.NoError(t, cfg.ValidateBot())
}

func TestClansForGuild(t *testing.T) {
	cfg := New()
	cfg.RegisteredClans = []Clan{
		{Guild: "g1", Abbr: "FRG", Tag: "#FROG"},
		{Guild: "g1", Abbr: "TDS", Tag: "#TOAD"},
		{Guild: "g2", Abbr: "FRG2", Tag: "#FROG2"},
	}

	assert.Len(t, cfg.ClansForGuild("g1", ""), 2)
	assert.Equal(t, []Clan{{Guild: "g1", Abbr: "TDS", Tag: "#TOAD"}}, cfg.ClansForGuild("g1", "td"))
	assert.Equal(t, []Clan{{Guild: "g1", Abbr: "FRG", Tag: "#FROG"}}, cfg.ClansForGuild("g1", "#fr"))
	assert.Empty(t, cfg.ClansForGuild("g3", ""))
}

func TestLoadDotenv(t *testing.T) {
	path := writeFile(t, ".env", "FFT_DOTENV_PROBE=loaded\n")
	t.Setenv("FFT_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("FFT_DOTENV_PROBE"))

	require.NoError(t, LoadDotenv(filepath.Join(t.TempDir(), "missing.env"), path))
	assert.Equal(t, "loaded", os.Getenv("FFT_DOTENV_PROBE"))
}
