// Package discord connects the tournament sessions to Discord: slash command
// registration, option parsing, component routing and clan autocomplete.
package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/hunterjsb/fftournament/internal/tournament"
	"github.com/hunterjsb/fftournament/pkg/logger"
)

const commandName = "fftournament"

var subcommandDescriptions = map[tournament.Kind]string{
	tournament.KindPlayersRanking: "Ranking of the tournament players",
	tournament.KindClansRanking:   "Ranking of the clans by total score",
	tournament.KindWinner:         "The tournament winner",
	tournament.KindPassWinner:     "Draw a random winner for the pass",
	tournament.KindPodium:         "The top three players",
	tournament.KindBracket:        "8-player bracket seeded from the standings",
}

// tournamentCommand builds /fftournament with one subcommand per kind.
func tournamentCommand() *discordgo.ApplicationCommand {
	subcommands := make([]*discordgo.ApplicationCommandOption, 0, len(tournament.Kinds))
	for _, kind := range tournament.Kinds {
		options := []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        optionTag,
				Description: "Tag of the tournament",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        optionTextVersion,
				Description: "Show the text version of the command too",
			},
		}
		if kind == tournament.KindBracket {
			options = append(options, &discordgo.ApplicationCommandOption{
				Type:         discordgo.ApplicationCommandOptionString,
				Name:         optionClan,
				Description:  "Only count friendly battles played for this clan",
				Autocomplete: true,
			})
		}
		subcommands = append(subcommands, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        string(kind),
			Description: subcommandDescriptions[kind],
			Options:     options,
		})
	}
	return &discordgo.ApplicationCommand{
		Name:        commandName,
		Description: "Tournament results and tools",
		Options:     subcommands,
	}
}

// NewDiscordBot creates a new Discord bot with the provided configuration
func NewDiscordBot(config *Config) (*DiscordBot, error) {
	if config.Tournaments == nil || config.Sessions == nil {
		return nil, errors.New("discord bot needs a tournament fetcher and a session manager")
	}
	session, err := discordgo.New("Bot " + config.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	log := config.Logger
	if log == nil {
		log = logger.Nop()
	}

	bot := &DiscordBot{
		Session:         session,
		Config:          config,
		GuildID:         config.GuildID,
		CommandHandlers: make(map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)),
		log:             log,
	}
	bot.CommandHandlers[commandName] = bot.handleTournamentCommand

	return bot, nil
}

// Start starts the Discord bot
func (b *DiscordBot) Start() error {
	ctx := context.Background()

	user, err := b.Session.User("@me")
	if err != nil {
		return fmt.Errorf("error getting bot user: %w", err)
	}
	b.BotUserID = user.ID

	b.Session.AddHandler(b.interactionHandler)

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening Discord session: %w", err)
	}

	registeredCommands, err := b.registerCommands()
	if err != nil {
		return fmt.Errorf("error registering commands: %w", err)
	}
	b.Commands = registeredCommands

	b.log.Info(ctx, "bot is running",
		logger.String("user", user.Username),
		logger.Int("commands", len(registeredCommands)),
		logger.String("guild_id", b.GuildID))
	return nil
}

// Stop closes the gateway connection, removing the commands first when configured to.
func (b *DiscordBot) Stop() error {
	ctx := context.Background()
	if b.Config.RemoveCommands {
		b.log.Info(ctx, "removing commands")
		for _, cmd := range b.Commands {
			if err := b.Session.ApplicationCommandDelete(b.BotUserID, b.GuildID, cmd.ID); err != nil {
				b.log.Warn(ctx, "error removing command", logger.String("command", cmd.Name), logger.Error(err))
			}
		}
	}
	return b.Session.Close()
}

// registerCommands registers the defined slash commands
func (b *DiscordBot) registerCommands() ([]*discordgo.ApplicationCommand, error) {
	commands := []*discordgo.ApplicationCommand{tournamentCommand()}
	registeredCommands := make([]*discordgo.ApplicationCommand, len(commands))

	for i, cmd := range commands {
		registered, err := b.Session.ApplicationCommandCreate(b.BotUserID, b.GuildID, cmd)
		if err != nil {
			return nil, fmt.Errorf("error creating command '%s': %w", cmd.Name, err)
		}
		registeredCommands[i] = registered
	}

	return registeredCommands, nil
}

// interactionHandler routes Discord interaction events. A panic in a handler
// is logged and never takes the gateway down.
func (b *DiscordBot) interactionHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error(context.Background(), "interaction handler panicked",
				logger.String("interaction_id", i.ID),
				logger.Any("panic", r))
			b.Config.Metrics.InteractionError("panic")
		}
	}()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if handler, ok := b.CommandHandlers[i.ApplicationCommandData().Name]; ok {
			handler(s, i)
		}
	case discordgo.InteractionMessageComponent:
		b.handleComponent(s, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		b.handleAutocomplete(s, i)
	}
}

// sendError replaces the deferred reply with an error embed
func (b *DiscordBot) sendError(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, title, description string) {
	content := ""
	embeds := []*discordgo.MessageEmbed{errorEmbed(title, description)}
	components := []discordgo.MessageComponent{}
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content:    &content,
		Embeds:     &embeds,
		Components: &components,
	}, discordgo.WithContext(ctx)); err != nil {
		b.log.Error(ctx, "error editing error response", logger.Error(err))
	}
}
