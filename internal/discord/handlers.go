package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hunterjsb/fftournament/internal/config"
	"github.com/hunterjsb/fftournament/internal/interaction"
	"github.com/hunterjsb/fftournament/internal/royale"
	"github.com/hunterjsb/fftournament/internal/tournament"
	"github.com/hunterjsb/fftournament/pkg/logger"
)

const (
	commandTimeout     = 30 * time.Second
	interactionTimeout = 2 * time.Minute
	maxChoices         = 25
)

// handleTournamentCommand handles /fftournament <kind>
func (b *DiscordBot) handleTournamentCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	data := i.ApplicationCommandData()
	display := data.Name
	if sub := subcommandName(data); sub != "" {
		display += " " + sub
	}
	userID := ""
	if u := interactionUser(i.Interaction); u != nil {
		userID = u.ID
	}
	b.log.Info(ctx, "Executing "+display,
		logger.String("user_id", userID),
		logger.String("guild_id", i.GuildID))

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}, discordgo.WithContext(ctx)); err != nil {
		b.log.Error(ctx, "error acknowledging interaction", logger.Error(err))
		return
	}

	if err := b.runTournamentCommand(ctx, s, i, userID); err != nil {
		b.log.Error(ctx, "Error executing "+display,
			logger.String("user_id", userID),
			logger.Error(err))
		b.Config.Metrics.InteractionError("command")
		if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Content: interaction.CommandFailureNotice,
			Flags:   discordgo.MessageFlagsEphemeral,
		}, discordgo.WithContext(ctx)); err != nil {
			b.log.Error(ctx, "error sending failure notice", logger.Error(err))
		}
	}
}

// runTournamentCommand fetches the tournament and opens a session on the
// deferred reply. Failures the user should see as an embed are reported here
// and return nil.
func (b *DiscordBot) runTournamentCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, userID string) error {
	params, err := ParseCommandOptions(i.ApplicationCommandData())
	if err != nil {
		return err
	}

	snap, err := b.Config.Tournaments.GetTournamentByTag(ctx, params.Tag)
	if err != nil {
		b.log.Warn(ctx, "tournament fetch failed", logger.String("tag", params.Tag), logger.Error(err))
		if errors.Is(err, royale.ErrNotFound) {
			b.sendError(ctx, s, i, "Tournament Not Found", fmt.Sprintf("Could not find tournament `%s`", params.Tag))
		} else {
			b.sendError(ctx, s, i, "API Error", "Error fetching the tournament from the Clash Royale API")
		}
		return nil
	}

	_, err = b.Config.Sessions.Start(ctx, interaction.StartRequest{
		UserID:      userID,
		GuildID:     i.GuildID,
		ChannelID:   i.ChannelID,
		Kind:        params.Kind,
		Snapshot:    snap,
		TextVersion: params.TextVersion,
		ClanFilter:  params.Clan,
		Surface:     newMessageSurface(s, i.Interaction),
	})

	var insufficient *tournament.InsufficientParticipantsError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tournament.ErrEmptyResult):
		return newMessageSurface(s, i.Interaction).ShowNotice(ctx, interaction.EmptyTournamentNotice)
	case errors.As(err, &insufficient):
		b.sendError(ctx, s, i, "Not Enough Players", interaction.InsufficientNotice(insufficient))
		return nil
	default:
		return err
	}
}

// handleComponent routes a button or select event to its session.
func (b *DiscordBot) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	target, ours, parseErr := parseCustomID(data.CustomID)
	if !ours {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}, discordgo.WithContext(ctx)); err != nil {
		b.log.Error(ctx, "error acknowledging component", logger.Error(err))
		return
	}
	if parseErr != nil {
		b.log.Warn(ctx, "malformed component id", logger.String("custom_id", data.CustomID), logger.Error(parseErr))
		return
	}

	user := interactionUser(i.Interaction)
	if user == nil {
		return
	}
	out := newMessageSurface(s, i.Interaction)
	err := b.Config.Sessions.Dispatch(ctx, interaction.Event{
		Kind:      target.Kind,
		SessionID: target.SessionID,
		UserID:    user.ID,
		Values:    data.Values,
		Page:      target.Page,
		Out:       out,
	})

	var handling *interaction.HandlingError
	switch {
	case err == nil:
	case errors.Is(err, interaction.ErrSessionNotFound),
		errors.Is(err, interaction.ErrForeignUser),
		errors.Is(err, interaction.ErrSessionExpired):
		b.log.Debug(ctx, "component event dropped",
			logger.String("session_id", target.SessionID),
			logger.String("event", string(target.Kind)),
			logger.String("user_id", user.ID),
			logger.Error(err))
	case errors.Is(err, interaction.ErrBusy):
		if err := out.Fail(ctx, interaction.BusyNotice); err != nil {
			b.log.Error(ctx, "error sending busy notice", logger.Error(err))
		}
	case errors.As(err, &handling):
		// reported to the user by the session
	default:
		b.log.Error(ctx, "component dispatch failed",
			logger.String("session_id", target.SessionID),
			logger.String("event", string(target.Kind)),
			logger.Error(err))
	}
}

// handleAutocomplete suggests the invoking guild's registered clans.
func (b *DiscordBot) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var choices []*discordgo.ApplicationCommandOptionChoice
	focused := focusedOption(i.ApplicationCommandData().Options)
	if focused != nil && focused.Name == optionClan && b.Config.Clans != nil {
		choices = clanChoices(b.Config.Clans(i.GuildID, focused.StringValue()))
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	}, discordgo.WithContext(ctx)); err != nil {
		b.log.Warn(ctx, "error answering autocomplete", logger.Error(err))
	}
}

func clanChoices(clans []config.Clan) []*discordgo.ApplicationCommandOptionChoice {
	if len(clans) > maxChoices {
		clans = clans[:maxChoices]
	}
	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(clans))
	for i, c := range clans {
		choices[i] = &discordgo.ApplicationCommandOptionChoice{Name: c.Abbr, Value: c.Tag}
	}
	return choices
}
