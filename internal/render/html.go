package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hunterjsb/fftournament/internal/bracket"
	"github.com/hunterjsb/fftournament/internal/tournament"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type htmlRow struct {
	Name   string
	Score  int
	Detail string
}

type htmlPage struct {
	Title       string
	Snapshot    *tournament.Snapshot
	Bracket     *bracket.Bracket
	Preparation string
	Started     string
	Ended       string
	Rows        []htmlRow
}

// HTML renders the page the external renderer screenshots.
func HTML(req Request) ([]byte, error) {
	page := htmlPage{Bracket: req.Bracket, Snapshot: req.Snapshot}

	if req.Kind != tournament.KindBracket {
		s := req.Snapshot
		page.Title = s.Name
		page.Preparation = HumanDuration(s.PreparationDuration)
		if !s.StartedTime.IsZero() {
			page.Started = s.StartedTime.UTC().Format("Monday 2 January 2006 15:04")
		}
		if s.EndedTime != nil {
			page.Ended = s.EndedTime.UTC().Format("Monday 2 January 2006 15:04")
		}
		page.Rows = htmlRows(req.Kind, s)
	} else {
		page.Title = "Bracket"
		if req.Snapshot != nil {
			page.Title = req.Snapshot.Name
		}
	}

	var buf bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&buf, "layout", page); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}
	return buf.Bytes(), nil
}

func htmlRows(kind tournament.Kind, s *tournament.Snapshot) []htmlRow {
	if kind == tournament.KindClansRanking {
		standings := tournament.RankClans(s.Members)
		rows := make([]htmlRow, len(standings))
		for i, c := range standings {
			rows[i] = htmlRow{Name: c.Clan.Name, Score: c.Score, Detail: fmt.Sprintf("%d players", c.Members)}
		}
		return rows
	}

	shown := members(kind, s)
	rows := make([]htmlRow, len(shown))
	for i, m := range shown {
		detail := "No clan"
		if m.Clan != nil {
			detail = m.Clan.Name
		}
		rows[i] = htmlRow{Name: m.Name, Score: m.Score, Detail: detail}
	}
	return rows
}

// HTMLRenderer posts the rendered page to an HTML-to-image service and
// returns the PNG it answers with.
type HTMLRenderer struct {
	url  string
	http *http.Client
}

// NewHTMLRenderer targets the renderer endpoint at url.
func NewHTMLRenderer(url string, timeout time.Duration) *HTMLRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTMLRenderer{url: url, http: &http.Client{Timeout: timeout}}
}

func (h *HTMLRenderer) Name() string { return "html" }

func (h *HTMLRenderer) Render(ctx context.Context, req Request) (*File, error) {
	doc, err := HTML(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(doc))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "text/html; charset=utf-8")
	httpReq.Header.Set("Accept", "image/png")

	resp, err := h.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("renderer request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("renderer responded with status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/png") {
		return nil, fmt.Errorf("renderer responded with %s", ct)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("renderer returned an empty image")
	}
	return &File{Name: fileName(req.Kind), ContentType: "image/png", Data: data}, nil
}

func fileName(kind tournament.Kind) string {
	return string(kind) + ".png"
}
