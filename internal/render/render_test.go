package render

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hunterjsb/fftournament/internal/bracket"
	"github.com/hunterjsb/fftournament/internal/tournament"
	"github.com/hunterjsb/fftournament/pkg/logger"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func snapshot() *tournament.Snapshot {
	frogs := &tournament.Clan{Tag: "#FROG", Name: "Frogs"}
	ended := time.Date(2024, 1, 5, 20, 0, 0, 0, time.UTC)
	return &tournament.Snapshot{
		Name:                "Friday Cup",
		Tag:                 "#CUP",
		Status:              "ended",
		Description:         "weekly",
		Type:                "open",
		LevelCap:            11,
		Capacity:            3,
		MaxCapacity:         50,
		StartedTime:         time.Date(2024, 1, 5, 18, 0, 0, 0, time.UTC),
		EndedTime:           &ended,
		PreparationDuration: 65 * time.Minute,
		Members: []tournament.Participant{
			{Tag: "#A", Name: "dark_knight", Score: 12, Clan: frogs},
			{Tag: "#B", Name: "<b>bold</b>", Score: 5},
			{Tag: "#C", Name: "solo", Score: 1, Clan: frogs},
		},
	}
}

func fullBracket(t *testing.T) *bracket.Bracket {
	t.Helper()
	members := make([]tournament.Participant, bracket.Seeds)
	for i := range members {
		members[i] = tournament.Participant{Tag: string(rune('A' + i)), Name: "seed_" + string(rune('1'+i))}
	}
	b, err := bracket.New(members, "")
	require.NoError(t, err)
	b.QuarterFinals[0].Winner, b.QuarterFinals[0].Loser = b.QuarterFinals[0].Player1, b.QuarterFinals[0].Player2
	b.QuarterFinals[0].Score = "3-0"
	return b
}

func TestPoints(t *testing.T) {
	assert.Equal(t, "0 pt", Points(0))
	assert.Equal(t, "1 pt", Points(1))
	assert.Equal(t, "2 pts", Points(2))
}

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0 minute"},
		{time.Minute, "1 minute"},
		{30 * time.Minute, "30 minutes"},
		{time.Hour, "1 hour"},
		{65 * time.Minute, "1 hour 5 minutes"},
		{2*time.Hour + time.Minute, "2 hours 1 minute"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HumanDuration(tt.in), "%s", tt.in)
	}
}

func TestTextPlayersRanking(t *testing.T) {
	got := Text(Request{Kind: tournament.KindPlayersRanking, Snapshot: snapshot()})

	assert.Contains(t, got, "- Name: **Friday Cup**\n")
	assert.Contains(t, got, "- Tournament Players: **3 / 50**\n")
	assert.Contains(t, got, "- Tournament start date: <t:1704477600:F> (<t:1704477600:R>)\n")
	assert.Contains(t, got, "- Tournament end date: <t:1704484800:F>")
	assert.Contains(t, got, "- Preparation duration: **1 hour 5 minutes**\n")
	assert.Contains(t, got, "Results:\n1. **dark\\_knight** (Frogs) - **12 pts**\n")
	assert.Contains(t, got, "2. **<b>bold</b>** (No clan) - **5 pts**\n")
	assert.Contains(t, got, "3. **solo** (Frogs) - **1 pt**\n")
}

func TestTextKinds(t *testing.T) {
	snap := snapshot()

	clans := Text(Request{Kind: tournament.KindClansRanking, Snapshot: snap})
	assert.Contains(t, clans, "1. **Frogs** - **13 pts** (2 players)")

	winner := Text(Request{Kind: tournament.KindWinner, Snapshot: snap.WithMembers(snap.Members[1])})
	assert.Contains(t, winner, "🏆 **<b>bold</b>** (No clan) - **5 pts**")

	podium := Text(Request{Kind: tournament.KindPodium, Snapshot: snap})
	assert.Contains(t, podium, "🥇 **dark\\_knight**")
	assert.Contains(t, podium, "🥉 **solo**")
}

func TestBracketText(t *testing.T) {
	b := fullBracket(t)
	got := Text(Request{Kind: tournament.KindBracket, Bracket: b})

	assert.Contains(t, got, "__Quarter-finals__")
	assert.Contains(t, got, "QF1: **seed\\_1** (3) ✅ vs **seed\\_8** (0) ❌\n")
	assert.Contains(t, got, "QF2: **seed\\_4** vs **seed\\_5**\n")
	assert.Contains(t, got, "SF1: TBD vs TBD\n")
	assert.NotContains(t, got, "Champion")
}

func TestHTMLEscapesNames(t *testing.T) {
	doc, err := HTML(Request{Kind: tournament.KindPlayersRanking, Snapshot: snapshot()})
	require.NoError(t, err)
	assert.Contains(t, string(doc), "<h1>Friday Cup</h1>")
	assert.Contains(t, string(doc), "&lt;b&gt;bold&lt;/b&gt;")
	assert.Contains(t, string(doc), "No clan")

	doc, err = HTML(Request{Kind: tournament.KindBracket, Bracket: fullBracket(t)})
	require.NoError(t, err)
	assert.Contains(t, string(doc), `class="side won"`)
	assert.Contains(t, string(doc), "Semi-finals")
}

func TestHTMLRenderer(t *testing.T) {
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		got, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngMagic)
	}))
	defer srv.Close()

	file, err := NewHTMLRenderer(srv.URL, time.Second).Render(context.Background(),
		Request{Kind: tournament.KindWinner, Snapshot: snapshot()})
	require.NoError(t, err)
	assert.Equal(t, "winner.png", file.Name)
	assert.Equal(t, pngMagic, file.Data)
	assert.Contains(t, string(got), "dark_knight")
	assert.NotContains(t, string(got), "solo", "winner shows the leader only")
}

func TestHTMLRendererFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTMLRenderer(srv.URL, time.Second).Render(context.Background(),
		Request{Kind: tournament.KindPodium, Snapshot: snapshot()})
	assert.Error(t, err)
}

func TestChartRenderer(t *testing.T) {
	file, err := ChartRenderer{}.Render(context.Background(),
		Request{Kind: tournament.KindPlayersRanking, Snapshot: snapshot()})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(file.Data, pngMagic))

	_, err = ChartRenderer{}.Render(context.Background(),
		Request{Kind: tournament.KindBracket, Bracket: fullBracket(t)})
	assert.ErrorIs(t, err, ErrUnsupported)
}

type failingRenderer struct{ calls int }

func (f *failingRenderer) Name() string { return "failing" }

func (f *failingRenderer) Render(context.Context, Request) (*File, error) {
	f.calls++
	return nil, errors.New("renderer down")
}

type staticNarrator struct {
	text string
	err  error
}

func (n staticNarrator) Recap(context.Context, string) (string, error) {
	return n.text, n.err
}

func TestServiceFallsBackToText(t *testing.T) {
	failing := &failingRenderer{}
	svc := NewService(logger.Nop(), nil, nil, failing)

	out, err := svc.Generate(context.Background(), Request{Kind: tournament.KindWinner, Snapshot: snapshot()})
	require.NoError(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.Nil(t, out.Image)
	assert.Equal(t, ColorWinner, out.Color)
	assert.Equal(t, "__Tournament #CUP__ :", out.Title)
	assert.Contains(t, out.Description, "🏆 **dark\\_knight**")
}

func TestServiceImageWithoutText(t *testing.T) {
	svc := NewService(logger.Nop(), nil, staticNarrator{text: "great run"}, &failingRenderer{}, ChartRenderer{})

	out, err := svc.Generate(context.Background(), Request{Kind: tournament.KindPodium, Snapshot: snapshot()})
	require.NoError(t, err)
	require.NotNil(t, out.Image)
	assert.Empty(t, out.Description)
}

func TestServiceTextWithRecap(t *testing.T) {
	svc := NewService(logger.Nop(), nil, staticNarrator{text: " great run \n"}, ChartRenderer{})

	out, err := svc.Generate(context.Background(), Request{Kind: tournament.KindPodium, Snapshot: snapshot(), Text: true})
	require.NoError(t, err)
	require.NotNil(t, out.Image)
	assert.Contains(t, out.Description, "🥇")
	assert.True(t, len(out.Description) > len("great run"))
	assert.Contains(t, out.Description, "\ngreat run")

	svc = NewService(logger.Nop(), nil, staticNarrator{err: errors.New("quota")})
	out, err = svc.Generate(context.Background(), Request{Kind: tournament.KindPodium, Snapshot: snapshot(), Text: true})
	require.NoError(t, err)
	assert.NotContains(t, out.Description, "quota")
}

func TestServiceValidation(t *testing.T) {
	svc := NewService(logger.Nop(), nil, nil)
	ctx := context.Background()

	empty := snapshot().WithMembers()
	_, err := svc.Generate(ctx, Request{Kind: tournament.KindPlayersRanking, Snapshot: empty})
	assert.ErrorIs(t, err, tournament.ErrEmptyResult)

	clanless := snapshot().WithMembers(tournament.Participant{Tag: "#Z", Name: "z"})
	_, err = svc.Generate(ctx, Request{Kind: tournament.KindClansRanking, Snapshot: clanless})
	assert.ErrorIs(t, err, tournament.ErrEmptyResult)

	_, err = svc.Generate(ctx, Request{Kind: tournament.KindBracket})
	assert.Error(t, err)

	out, err := svc.Generate(ctx, Request{Kind: tournament.KindBracket, Bracket: fullBracket(t)})
	require.NoError(t, err)
	assert.Contains(t, out.Description, "QF4")
}
