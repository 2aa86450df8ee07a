// Package config holds the bot's process configuration.
//
// Values are layered: defaults from New, then an optional YAML file, then
// FFT_-prefixed environment variables. Keys are flat and match the koanf tags.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// MaxBracketTimeout is the lifetime of a Discord interaction token. A bracket
// session must end before its token does.
const MaxBracketTimeout = 900 * time.Second

// Clan is a clan registered for autocomplete in one guild.
type Clan struct {
	Guild string `koanf:"guild"`
	Abbr  string `koanf:"abbr"`
	Tag   string `koanf:"tag"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	DiscordToken string `koanf:"discord_token"`
	// GuildID registers commands in a single guild. Empty registers them globally.
	GuildID        string `koanf:"guild_id"`
	RemoveCommands bool   `koanf:"remove_commands"`

	RoyaleAPIToken string        `koanf:"royale_api_token"`
	RoyaleBaseURL  string        `koanf:"royale_base_url"`
	RoyaleTimeout  time.Duration `koanf:"royale_timeout"`
	// RoyaleRateLimit caps API requests per second. Zero disables the limit.
	RoyaleRateLimit float64 `koanf:"royale_rate_limit"`
	RoyaleBurst     int     `koanf:"royale_burst"`

	// RendererURL is the HTML to PNG endpoint. Empty disables it.
	RendererURL     string        `koanf:"renderer_url"`
	RendererTimeout time.Duration `koanf:"renderer_timeout"`

	// OpenAIAPIKey enables the recap appended to text versions.
	OpenAIAPIKey      string  `koanf:"openai_api_key"`
	OpenAIModel       string  `koanf:"openai_model"`
	OpenAIMaxTokens   int     `koanf:"openai_max_tokens"`
	OpenAITemperature float64 `koanf:"openai_temperature"`

	SessionBackend string `koanf:"session_backend"`
	RedisAddr      string `koanf:"redis_addr"`
	RedisPassword  string `koanf:"redis_password"`
	RedisDB        int    `koanf:"redis_db"`

	SimpleTimeout  time.Duration `koanf:"simple_timeout"`
	BracketTimeout time.Duration `koanf:"bracket_timeout"`

	// OpsAddr serves /healthz and /metrics. Empty disables it.
	OpsAddr string `koanf:"ops_addr"`

	RegisteredClans []Clan `koanf:"registered_clans"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		RemoveCommands:    true,
		RoyaleBaseURL:     "https://api.clashroyale.com/v1",
		RoyaleTimeout:     10 * time.Second,
		RoyaleRateLimit:   10,
		RoyaleBurst:       5,
		RendererTimeout:   30 * time.Second,
		OpenAIModel:       "gpt-4o-mini",
		OpenAIMaxTokens:   150,
		OpenAITemperature: 0.7,
		SessionBackend:    BackendMemory,
		RedisAddr:         "localhost:6379",
		SimpleTimeout:     300 * time.Second,
		BracketTimeout:    840 * time.Second,
	}
}

// Validate checks settings every command depends on.
func (c *Config) Validate() error {
	if c.SimpleTimeout <= 0 {
		return fmt.Errorf("%w: simple_timeout must be positive", ErrInvalidConfig)
	}
	if c.BracketTimeout <= 0 || c.BracketTimeout >= MaxBracketTimeout {
		return fmt.Errorf("%w: bracket_timeout must be between 0 and %s, got %s",
			ErrInvalidConfig, MaxBracketTimeout, c.BracketTimeout)
	}
	switch c.SessionBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("%w: unknown session_backend %q", ErrInvalidConfig, c.SessionBackend)
	}
	if c.SessionBackend == BackendRedis && c.RedisAddr == "" {
		return fmt.Errorf("%w: redis_addr is required for the redis backend", ErrInvalidConfig)
	}
	if c.RoyaleRateLimit < 0 {
		return fmt.Errorf("%w: royale_rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.RoyaleBaseURL == "" {
		return fmt.Errorf("%w: royale_base_url must not be empty", ErrInvalidConfig)
	}
	return nil
}

// ValidateBot checks the extra settings the Discord bot needs.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DiscordToken == "" {
		return fmt.Errorf("%w: discord_token is required", ErrInvalidConfig)
	}
	if c.RoyaleAPIToken == "" {
		return fmt.Errorf("%w: royale_api_token is required", ErrInvalidConfig)
	}
	return nil
}

// ClansForGuild returns the clans registered for guildID whose abbreviation
// or tag contains prefix, case-insensitively.
func (c *Config) ClansForGuild(guildID, prefix string) []Clan {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	var out []Clan
	for _, clan := range c.RegisteredClans {
		if clan.Guild != guildID {
			continue
		}
		if prefix != "" &&
			!strings.Contains(strings.ToLower(clan.Abbr), prefix) &&
			!strings.Contains(strings.ToLower(clan.Tag), prefix) {
			continue
		}
		out = append(out, clan)
	}
	return out
}
