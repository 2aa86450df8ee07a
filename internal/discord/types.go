package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/sashabaranov/go-openai"

	"github.com/hunterjsb/fftournament/internal/config"
	"github.com/hunterjsb/fftournament/internal/interaction"
	"github.com/hunterjsb/fftournament/internal/metrics"
	"github.com/hunterjsb/fftournament/internal/tournament"
	"github.com/hunterjsb/fftournament/pkg/logger"
)

// DiscordBot represents a Discord bot
type DiscordBot struct {
	Session         *discordgo.Session
	Config          *Config
	BotUserID       string
	GuildID         string
	Commands        []*discordgo.ApplicationCommand
	CommandHandlers map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)

	log logger.Logger
}

// Config holds Discord bot configuration and the services it drives.
type Config struct {
	DiscordToken   string
	GuildID        string
	RemoveCommands bool

	Tournaments TournamentFetcher
	Sessions    Sessions
	// Clans lists the registered clans of a guild matching a typed prefix.
	Clans   func(guildID, prefix string) []config.Clan
	Logger  logger.Logger
	Metrics *metrics.Recorder
}

// TournamentFetcher loads a tournament snapshot by tag.
type TournamentFetcher interface {
	GetTournamentByTag(ctx context.Context, tag string) (*tournament.Snapshot, error)
}

// Sessions starts interactive sessions and routes component events to them.
type Sessions interface {
	Start(ctx context.Context, req interaction.StartRequest) (string, error)
	Dispatch(ctx context.Context, ev interaction.Event) error
}

// OpenAIClient wraps the OpenAI API client
type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}
