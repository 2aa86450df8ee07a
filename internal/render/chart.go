package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/hunterjsb/fftournament/internal/tournament"
)

const chartMaxBars = 10

var (
	chartBackground = drawing.ColorFromHex("1e1f22")
	chartText       = drawing.ColorFromHex("f2f3f5")
	chartBar        = drawing.ColorFromHex("5865f2")
	chartGold       = drawing.ColorFromHex("f1c40f")
)

// ChartRenderer draws standings as a bar chart. It cannot draw a bracket.
type ChartRenderer struct{}

func (ChartRenderer) Name() string { return "chart" }

func (ChartRenderer) Render(_ context.Context, req Request) (*File, error) {
	if req.Kind == tournament.KindBracket || req.Snapshot == nil {
		return nil, ErrUnsupported
	}

	var bars []chart.Value
	if req.Kind == tournament.KindClansRanking {
		for _, c := range tournament.RankClans(req.Snapshot.Members) {
			bars = append(bars, chart.Value{Label: c.Clan.Name, Value: float64(c.Score)})
		}
	} else {
		for _, m := range members(req.Kind, req.Snapshot) {
			bars = append(bars, chart.Value{Label: m.Name, Value: float64(m.Score)})
		}
	}
	if len(bars) == 0 {
		return nil, tournament.ErrEmptyResult
	}
	if len(bars) > chartMaxBars {
		bars = bars[:chartMaxBars]
	}

	top := 0.0
	for i := range bars {
		bars[i].Style = chart.Style{FillColor: chartBar, StrokeColor: chartBar}
		if bars[i].Value > top {
			top = bars[i].Value
		}
	}
	bars[0].Style = chart.Style{FillColor: chartGold, StrokeColor: chartGold}

	graph := chart.BarChart{
		Title:      fmt.Sprintf("%s - %s", req.Snapshot.Name, req.Kind.Label()),
		TitleStyle: chart.Style{FontColor: chartText},
		Width:      1024,
		Height:     512,
		BarWidth:   60,
		Background: chart.Style{
			FillColor: chartBackground,
			Padding:   chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16},
		},
		Canvas: chart.Style{FillColor: chartBackground},
		XAxis:  chart.Style{FontColor: chartText},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: chartText},
			Range: &chart.ContinuousRange{Min: 0, Max: top*1.1 + 1},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return &File{Name: fileName(req.Kind), ContentType: "image/png", Data: buffer.Bytes()}, nil
}
