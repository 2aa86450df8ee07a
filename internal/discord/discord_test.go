package discord

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hunterjsb/fftournament/internal/config"
	"github.com/hunterjsb/fftournament/internal/interaction"
	"github.com/hunterjsb/fftournament/internal/render"
	"github.com/hunterjsb/fftournament/internal/tournament"
)

func TestCustomIDRoundTrip(t *testing.T) {
	tests := []struct {
		id   string
		want componentTarget
	}{
		{customID(actionSelect, "s1"), componentTarget{Kind: interaction.EventSelect, SessionID: "s1"}},
		{pageCustomID("s1", 3), componentTarget{Kind: interaction.EventNavigate, SessionID: "s1", Page: 3}},
		{pageCustomID("s1", -1), componentTarget{Kind: interaction.EventNavigate, SessionID: "s1", Page: -1}},
		{customID(actionGenerate, "s1"), componentTarget{Kind: interaction.EventGenerate, SessionID: "s1"}},
		{customID(actionRedraw, "s1"), componentTarget{Kind: interaction.EventRedraw, SessionID: "s1"}},
		{customID(actionConfirm, "s1"), componentTarget{Kind: interaction.EventConfirm, SessionID: "s1"}},
		{customID(actionUpdate, "s1"), componentTarget{Kind: interaction.EventUpdateResults, SessionID: "s1"}},
	}
	for _, tt := range tests {
		got, ours, err := parseCustomID(tt.id)
		require.NoError(t, err, tt.id)
		assert.True(t, ours, tt.id)
		assert.Equal(t, tt.want, got, tt.id)
	}
}

func TestParseCustomIDRejects(t *testing.T) {
	_, ours, err := parseCustomID("approve_ip:123")
	assert.False(t, ours)
	assert.NoError(t, err)

	for _, id := range []string{"fft:select", "fft:unknown:s1", "fft:page:s1", "fft:page:s1:x", "fft:generate:"} {
		_, ours, err := parseCustomID(id)
		assert.True(t, ours, id)
		assert.Error(t, err, id)
	}
}

func stringOpt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value,
	}
}

func TestParseCommandOptions(t *testing.T) {
	data := discordgo.ApplicationCommandInteractionData{
		Name: commandName,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{{
			Name: "bracket",
			Type: discordgo.ApplicationCommandOptionSubCommand,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: optionTextVersion, Type: discordgo.ApplicationCommandOptionBoolean, Value: true},
				stringOpt(optionClan, "frog"),
				stringOpt(optionTag, " abc123 "),
			},
		}},
	}

	got, err := ParseCommandOptions(data)
	require.NoError(t, err)
	assert.Equal(t, CommandOptions{Kind: tournament.KindBracket, Tag: "#ABC123", TextVersion: true, Clan: "#FROG"}, got)
	assert.Equal(t, "bracket", subcommandName(data))
}

func TestParseCommandOptionsErrors(t *testing.T) {
	_, err := ParseCommandOptions(discordgo.ApplicationCommandInteractionData{Name: commandName})
	assert.Error(t, err)

	_, err = ParseCommandOptions(discordgo.ApplicationCommandInteractionData{
		Options: []*discordgo.ApplicationCommandInteractionDataOption{{
			Name: "leaderboard", Type: discordgo.ApplicationCommandOptionSubCommand,
		}},
	})
	assert.Error(t, err)

	_, err = ParseCommandOptions(discordgo.ApplicationCommandInteractionData{
		Options: []*discordgo.ApplicationCommandInteractionDataOption{{
			Name: "podium", Type: discordgo.ApplicationCommandOptionSubCommand,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{stringOpt(optionTag, "  ")},
		}},
	})
	assert.Error(t, err)
}

func TestFocusedOption(t *testing.T) {
	focused := stringOpt(optionClan, "fr")
	focused.Focused = true
	opts := []*discordgo.ApplicationCommandInteractionDataOption{{
		Name: "bracket",
		Type: discordgo.ApplicationCommandOptionSubCommand,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			stringOpt(optionTag, "#T"),
			focused,
		},
	}}
	assert.Same(t, focused, focusedOption(opts))
	assert.Nil(t, focusedOption(opts[0].Options[:1]))
}

func TestTournamentCommand(t *testing.T) {
	cmd := tournamentCommand()
	assert.Equal(t, commandName, cmd.Name)
	require.Len(t, cmd.Options, len(tournament.Kinds))

	for i, sub := range cmd.Options {
		assert.Equal(t, string(tournament.Kinds[i]), sub.Name)
		assert.NotEmpty(t, sub.Description)
		require.NotEmpty(t, sub.Options)
		assert.Equal(t, optionTag, sub.Options[0].Name)
		assert.True(t, sub.Options[0].Required)

		hasClan := false
		for _, o := range sub.Options {
			if o.Name == optionClan {
				hasClan = true
				assert.True(t, o.Autocomplete)
			}
		}
		assert.Equal(t, sub.Name == string(tournament.KindBracket), hasClan, sub.Name)
	}
}

func TestClanChoices(t *testing.T) {
	clans := make([]config.Clan, 30)
	for i := range clans {
		clans[i] = config.Clan{Guild: "g", Abbr: "C" + strings.Repeat("x", i), Tag: "#T"}
	}
	choices := clanChoices(clans)
	require.Len(t, choices, maxChoices)
	assert.Equal(t, "C", choices[0].Name)
	assert.Equal(t, "#T", choices[0].Value)
	assert.Empty(t, clanChoices(nil))
}

func TestChunkString(t *testing.T) {
	assert.Equal(t, []string{"short"}, chunkString("short", 10))

	got := chunkString("aaaa\nbbbb\ncccc", 9)
	assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, got)

	long := strings.Repeat("é", 10) // 20 bytes
	for _, c := range chunkString(long, 5) {
		assert.LessOrEqual(t, len(c), 5)
		assert.True(t, strings.HasPrefix(c, "é"), "chunks must not split a rune")
	}
	assert.Equal(t, long, strings.Join(chunkString(long, 5), ""))
}

func TestPageMessage(t *testing.T) {
	msg := pageMessage(interaction.Page{
		SessionID: "s1",
		Title:     "Select players",
		Index:     0,
		Total:     2,
		Excluded:  1,
		HasNext:   true,
		Options: []interaction.Option{
			{Value: "#A", Label: "1. a", Description: "No clan - 3 pts", Selected: true},
			{Value: "#B", Label: "2. b", Description: "No clan - 1 pt"},
		},
	})

	assert.Contains(t, msg.Content, "Select players")
	assert.Contains(t, msg.Content, "Excluded so far: **1**")
	require.Len(t, msg.Components, 2)

	menu := msg.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	assert.Equal(t, "fft:select:s1", menu.CustomID)
	assert.Equal(t, 0, *menu.MinValues)
	assert.Equal(t, 2, menu.MaxValues)
	assert.True(t, menu.Options[0].Default)
	assert.False(t, menu.Options[1].Default)

	buttons := msg.Components[1].(discordgo.ActionsRow).Components
	prev := buttons[0].(discordgo.Button)
	next := buttons[1].(discordgo.Button)
	gen := buttons[2].(discordgo.Button)
	assert.True(t, prev.Disabled)
	assert.False(t, next.Disabled)
	assert.Equal(t, "fft:page:s1:1", next.CustomID)
	assert.Equal(t, "fft:generate:s1", gen.CustomID)
}

func TestDrawMessage(t *testing.T) {
	msg := drawMessage(interaction.Draw{
		SessionID: "s1",
		Candidate: tournament.Participant{Tag: "#A", Name: "dark_knight", Score: 7},
		Rank:      2,
		Remaining: 4,
	})
	require.Len(t, msg.Embeds, 1)
	assert.Contains(t, msg.Embeds[0].Description, "dark\\_knight")
	assert.Contains(t, msg.Embeds[0].Description, "#2")
	assert.Contains(t, msg.Embeds[0].Footer.Text, "4")

	buttons := msg.Components[0].(discordgo.ActionsRow).Components
	assert.Equal(t, "fft:redraw:s1", buttons[0].(discordgo.Button).CustomID)
	assert.Equal(t, "fft:confirm:s1", buttons[1].(discordgo.Button).CustomID)
}

func TestOutputMessage(t *testing.T) {
	out := &render.Output{
		Title:       "__Bracket #T__ :",
		Description: strings.Repeat("line\n", 1500),
		Color:       render.ColorDefault,
		Image:       &render.File{Name: "bracket.png", ContentType: "image/png", Data: []byte("png")},
	}
	msg := outputMessage(out, interaction.Controls{SessionID: "s1", UpdateResults: true})

	require.Len(t, msg.Embeds, 1)
	assert.LessOrEqual(t, len(msg.Embeds[0].Description), maxEmbedDescription)
	assert.Equal(t, "attachment://bracket.png", msg.Embeds[0].Image.URL)
	require.Len(t, msg.Files, 1)
	body, err := io.ReadAll(msg.Files[0].Reader)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), body)
	assert.NotEmpty(t, msg.Overflow)

	button := msg.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.Button)
	assert.Equal(t, "fft:update:s1", button.CustomID)

	plain := outputMessage(&render.Output{Title: "t"}, interaction.Controls{})
	assert.Empty(t, plain.Components)
	assert.Empty(t, plain.Files)
	assert.Empty(t, plain.Overflow)
}

func TestOpenAIRecap(t *testing.T) {
	var req openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"  What a final!  "}}]}`)
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("key")
	cfg.BaseURL = srv.URL
	client := newOpenAIClient(cfg, "", 120, 0.5)

	got, err := client.Recap(context.Background(), "podium: a, b, c")
	require.NoError(t, err)
	assert.Equal(t, "What a final!", got)
	assert.Equal(t, openai.GPT4oMini, req.Model)
	assert.Equal(t, 120, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "podium: a, b, c", req.Messages[1].Content)
}

func TestOpenAIRecapNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("key")
	cfg.BaseURL = srv.URL
	_, err := newOpenAIClient(cfg, "gpt-4o", 10, 0).Recap(context.Background(), "x")
	assert.Error(t, err)
}

func TestNewDiscordBotRequiresServices(t *testing.T) {
	_, err := NewDiscordBot(&Config{DiscordToken: "t"})
	assert.Error(t, err)
}
