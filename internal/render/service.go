package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hunterjsb/fftournament/internal/metrics"
	"github.com/hunterjsb/fftournament/internal/tournament"
	"github.com/hunterjsb/fftournament/pkg/logger"
)

// Service is the Generator used by the bot. Image renderers are tried in
// order; text is produced on request or when no image could be made.
type Service struct {
	images   []ImageRenderer
	narrator Narrator
	log      logger.Logger
	metrics  *metrics.Recorder
}

// NewService builds a generator. narrator and rec may be nil.
func NewService(log logger.Logger, rec *metrics.Recorder, narrator Narrator, images ...ImageRenderer) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{images: images, narrator: narrator, log: log, metrics: rec}
}

// Generate validates the request and produces its output.
func (s *Service) Generate(ctx context.Context, req Request) (*Output, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	out := &Output{Title: Title(req), Color: ColorDefault}
	if req.Kind == tournament.KindWinner || req.Kind == tournament.KindPassWinner {
		out.Color = ColorWinner
	}

	out.Image = s.image(ctx, req)
	if req.Text || out.Image == nil {
		out.Description = Text(req)
		if req.Text {
			if recap := s.recap(ctx, req); recap != "" {
				out.Description += "\n" + recap
			}
		}
	}
	return out, nil
}

func validate(req Request) error {
	if req.Kind == tournament.KindBracket {
		if req.Bracket == nil {
			return fmt.Errorf("bracket request without bracket")
		}
		return nil
	}
	if req.Snapshot == nil {
		return fmt.Errorf("%s request without snapshot", req.Kind)
	}
	if len(req.Snapshot.Members) == 0 {
		return tournament.ErrEmptyResult
	}
	if req.Kind == tournament.KindClansRanking && len(tournament.RankClans(req.Snapshot.Members)) == 0 {
		return tournament.ErrEmptyResult
	}
	return nil
}

func (s *Service) image(ctx context.Context, req Request) *File {
	for _, r := range s.images {
		start := time.Now()
		file, err := r.Render(ctx, req)
		if errors.Is(err, ErrUnsupported) {
			continue
		}
		if err != nil {
			s.log.Warn(ctx, "image renderer failed",
				logger.String("renderer", r.Name()),
				logger.String("kind", string(req.Kind)),
				logger.Error(err))
			continue
		}
		s.metrics.ObserveRender(string(req.Kind), r.Name(), time.Since(start))
		return file
	}
	return nil
}

func (s *Service) recap(ctx context.Context, req Request) string {
	if s.narrator == nil {
		return ""
	}
	recap, err := s.narrator.Recap(ctx, RecapPrompt(req))
	if err != nil {
		s.log.Warn(ctx, "recap unavailable", logger.Error(err))
		return ""
	}
	return strings.TrimSpace(recap)
}

// RecapPrompt summarises a result for the narrator.
func RecapPrompt(req Request) string {
	var b strings.Builder
	if req.Kind == tournament.KindBracket {
		b.WriteString("Bracket state of a Clash Royale clan tournament:\n")
		b.WriteString(BracketText(req.Bracket))
		return b.String()
	}

	fmt.Fprintf(&b, "Clash Royale tournament %q, %s:\n", req.Snapshot.Name, req.Kind.Label())
	for i, m := range tournament.Top(members(req.Kind, req.Snapshot), chartMaxBars) {
		clan := m.ClanName()
		if clan == "" {
			clan = "no clan"
		}
		fmt.Fprintf(&b, "%d. %s (%s) %d points\n", i+1, m.Name, clan, m.Score)
	}
	return b.String()
}
