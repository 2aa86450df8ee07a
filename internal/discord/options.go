package discord

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/hunterjsb/fftournament/internal/tournament"
)

const (
	optionTag         = "tag"
	optionTextVersion = "text_version"
	optionClan        = "clan"
)

// CommandOptions holds parsed /fftournament options.
type CommandOptions struct {
	Kind        tournament.Kind
	Tag         string
	TextVersion bool
	Clan        string
}

// ParseCommandOptions extracts the subcommand and its options. Options are
// looked up by name, so their order does not matter.
func ParseCommandOptions(data discordgo.ApplicationCommandInteractionData) (CommandOptions, error) {
	if len(data.Options) == 0 || data.Options[0].Type != discordgo.ApplicationCommandOptionSubCommand {
		return CommandOptions{}, errors.New("missing subcommand")
	}
	sub := data.Options[0]

	kind, err := tournament.ParseKind(sub.Name)
	if err != nil {
		return CommandOptions{}, err
	}

	params := CommandOptions{Kind: kind}
	for _, opt := range sub.Options {
		switch opt.Name {
		case optionTag:
			params.Tag = tournament.NormalizeTag(opt.StringValue())
		case optionTextVersion:
			params.TextVersion = opt.BoolValue()
		case optionClan:
			params.Clan = tournament.NormalizeTag(opt.StringValue())
		}
	}

	if params.Tag == "" {
		return CommandOptions{}, fmt.Errorf("%s: tournament tag is required", sub.Name)
	}
	return params, nil
}

// subcommandName returns the invoked subcommand, or "" when there is none.
func subcommandName(data discordgo.ApplicationCommandInteractionData) string {
	if len(data.Options) > 0 && data.Options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		return data.Options[0].Name
	}
	return ""
}

// focusedOption returns the option being autocompleted.
func focusedOption(options []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range options {
		if opt.Focused {
			return opt
		}
		if len(opt.Options) > 0 {
			if f := focusedOption(opt.Options); f != nil {
				return f
			}
		}
	}
	return nil
}
