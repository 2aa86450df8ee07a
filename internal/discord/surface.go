package discord

import (
	"bytes"
	"context"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/hunterjsb/fftournament/internal/interaction"
	"github.com/hunterjsb/fftournament/internal/render"
)

// messageSurface edits the message behind an interaction that has already
// been deferred. For a slash command that is the command's reply; for a
// component it is the message the component sits on.
type messageSurface struct {
	s *discordgo.Session
	i *discordgo.Interaction
}

var _ interaction.Responder = (*messageSurface)(nil)

func newMessageSurface(s *discordgo.Session, i *discordgo.Interaction) *messageSurface {
	return &messageSurface{s: s, i: i}
}

func fileOf(f *render.File) *discordgo.File {
	return &discordgo.File{
		Name:        f.Name,
		ContentType: f.ContentType,
		Reader:      bytes.NewReader(f.Data),
	}
}

func (m *messageSurface) edit(ctx context.Context, msg message) error {
	content := msg.Content
	embeds := msg.Embeds
	if embeds == nil {
		embeds = []*discordgo.MessageEmbed{}
	}
	components := msg.Components
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	// The attachment list is the full set kept after the edit: earlier
	// images are dropped and new files are referenced by upload index.
	attachments := make([]*discordgo.MessageAttachment, len(msg.Files))
	for i, f := range msg.Files {
		attachments[i] = &discordgo.MessageAttachment{ID: strconv.Itoa(i), Filename: f.Name}
	}
	_, err := m.s.InteractionResponseEdit(m.i, &discordgo.WebhookEdit{
		Content:     &content,
		Embeds:      &embeds,
		Components:  &components,
		Files:       msg.Files,
		Attachments: &attachments,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}

	for _, embed := range msg.Overflow {
		if _, err := m.s.FollowupMessageCreate(m.i, true, &discordgo.WebhookParams{
			Embeds: []*discordgo.MessageEmbed{embed},
		}, discordgo.WithContext(ctx)); err != nil {
			return err
		}
	}
	return nil
}

func (m *messageSurface) ShowPage(ctx context.Context, p interaction.Page) error {
	return m.edit(ctx, pageMessage(p))
}

func (m *messageSurface) ShowDraw(ctx context.Context, d interaction.Draw) error {
	return m.edit(ctx, drawMessage(d))
}

func (m *messageSurface) ShowNotice(ctx context.Context, text string) error {
	return m.edit(ctx, message{Content: text})
}

func (m *messageSurface) ShowOutput(ctx context.Context, out *render.Output, c interaction.Controls) error {
	return m.edit(ctx, outputMessage(out, c))
}

func (m *messageSurface) Retire(ctx context.Context, notice string, keepContent bool) error {
	if !keepContent {
		return m.edit(ctx, message{Content: notice})
	}
	components := []discordgo.MessageComponent{}
	_, err := m.s.InteractionResponseEdit(m.i, &discordgo.WebhookEdit{
		Content:    &notice,
		Components: &components,
	}, discordgo.WithContext(ctx))
	return err
}

// Ack is a no-op: component interactions are deferred on arrival.
func (m *messageSurface) Ack(context.Context) error { return nil }

func (m *messageSurface) Fail(ctx context.Context, text string) error {
	_, err := m.s.FollowupMessageCreate(m.i, true, &discordgo.WebhookParams{
		Content: text,
		Flags:   discordgo.MessageFlagsEphemeral,
	}, discordgo.WithContext(ctx))
	return err
}
