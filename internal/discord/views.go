package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/hunterjsb/fftournament/internal/interaction"
	"github.com/hunterjsb/fftournament/internal/render"
)

const maxEmbedDescription = 4000

// message is the full content of a session message.
type message struct {
	Content    string
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
	Files      []*discordgo.File
	// Overflow holds description chunks sent as follow-up embeds.
	Overflow []*discordgo.MessageEmbed
}

func pageMessage(p interaction.Page) message {
	options := make([]discordgo.SelectMenuOption, len(p.Options))
	for i, o := range p.Options {
		options[i] = discordgo.SelectMenuOption{
			Label:       o.Label,
			Value:       o.Value,
			Description: o.Description,
			Default:     o.Selected,
		}
	}
	minValues := 0

	content := p.Title
	if p.Excluded > 0 {
		content += fmt.Sprintf("\nExcluded so far: **%d**", p.Excluded)
	}

	return message{
		Content: content,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						MenuType:    discordgo.StringSelectMenu,
						CustomID:    customID(actionSelect, p.SessionID),
						Placeholder: "Players to exclude",
						MinValues:   &minValues,
						MaxValues:   len(options),
						Options:     options,
					},
				},
			},
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Previous",
						Style:    discordgo.SecondaryButton,
						CustomID: pageCustomID(p.SessionID, p.Index-1),
						Disabled: !p.HasPrev,
					},
					discordgo.Button{
						Label:    "Next",
						Style:    discordgo.SecondaryButton,
						CustomID: pageCustomID(p.SessionID, p.Index+1),
						Disabled: !p.HasNext,
					},
					discordgo.Button{
						Label:    "Generate",
						Style:    discordgo.SuccessButton,
						CustomID: customID(actionGenerate, p.SessionID),
					},
				},
			},
		},
	}
}

func drawMessage(d interaction.Draw) message {
	clan := "No clan"
	if d.Candidate.Clan != nil {
		clan = d.Candidate.Clan.Name
	}
	embed := &discordgo.MessageEmbed{
		Title: "🎲 Winner draw",
		Description: fmt.Sprintf("**%s** (%s)\nRank **#%d** - **%s**",
			render.EscapeMarkdown(d.Candidate.Name), render.EscapeMarkdown(clan), d.Rank, render.Points(d.Candidate.Score)),
		Color: render.ColorWinner,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%d player(s) left to draw", d.Remaining),
		},
	}
	return message{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Redraw",
						Style:    discordgo.SecondaryButton,
						CustomID: customID(actionRedraw, d.SessionID),
					},
					discordgo.Button{
						Label:    "Confirm",
						Style:    discordgo.SuccessButton,
						CustomID: customID(actionConfirm, d.SessionID),
					},
				},
			},
		},
	}
}

func outputMessage(out *render.Output, c interaction.Controls) message {
	chunks := []string{""}
	if out.Description != "" {
		chunks = chunkString(out.Description, maxEmbedDescription)
	}

	embed := &discordgo.MessageEmbed{
		Title:       out.Title,
		Description: chunks[0],
		Color:       out.Color,
	}
	msg := message{Embeds: []*discordgo.MessageEmbed{embed}}

	if out.Image != nil {
		embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + out.Image.Name}
		msg.Files = []*discordgo.File{fileOf(out.Image)}
	}
	for _, chunk := range chunks[1:] {
		msg.Overflow = append(msg.Overflow, &discordgo.MessageEmbed{Description: chunk, Color: out.Color})
	}

	if c.UpdateResults {
		msg.Components = []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Update Results",
						Style:    discordgo.PrimaryButton,
						CustomID: customID(actionUpdate, c.SessionID),
					},
				},
			},
		}
	}
	return msg
}

func errorEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       render.ColorError,
	}
}
