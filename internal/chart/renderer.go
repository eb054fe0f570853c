// Package chart renders temperature charts to PNG files and sweeps stale ones.
package chart

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/m3rciful/routeweather/core/logger"
	"github.com/m3rciful/routeweather/internal/forecast"
)

const (
	height       = 512
	minWidth     = 640
	widthPerBar  = 120
	lineWidth    = 960
	fileSuffix   = ".png"
	temperatureY = "Temperature (°C)"
)

// Renderer writes chart images into a directory.
type Renderer struct {
	dir string
}

// NewRenderer prepares dir for chart output.
func NewRenderer(dir string) (*Renderer, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("chart dir: %w", err)
	}
	return &Renderer{dir: dir}, nil
}

// Dir returns the output directory.
func (r *Renderer) Dir() string { return r.dir }

// RenderBar draws one bar per city.
func (r *Renderer) RenderBar(ctx context.Context, cities []string, temps []float64) (string, error) {
	if len(cities) == 0 || len(cities) != len(temps) {
		return "", fmt.Errorf("bar chart needs one value per city, got %d cities and %d values", len(cities), len(temps))
	}
	bars := make([]gochart.Value, len(cities))
	for i, city := range cities {
		bars[i] = gochart.Value{Label: city, Value: temps[i]}
	}
	lo, hi := bounds(temps, true)
	graph := gochart.BarChart{
		Title:        "Temperature comparison (1 day)",
		Width:        max(minWidth, widthPerBar*len(cities)),
		Height:       height,
		BarWidth:     60,
		UseBaseValue: true,
		BaseValue:    0,
		Background:   gochart.Style{Padding: gochart.Box{Top: 40}},
		YAxis: gochart.YAxis{
			Name:  temperatureY,
			Range: &gochart.ContinuousRange{Min: lo, Max: hi},
		},
		Bars: bars,
	}
	return r.write(ctx, forecast.OneDay, func(f *os.File) error {
		return graph.Render(gochart.PNG, f)
	})
}

// RenderLines draws one line per city across its dated points.
func (r *Renderer) RenderLines(ctx context.Context, h forecast.Horizon, series []forecast.Series) (string, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("line chart needs at least one series")
	}
	var all []float64
	lines := make([]gochart.Series, 0, len(series))
	for _, s := range series {
		xs := make([]time.Time, len(s.Points))
		ys := make([]float64, len(s.Points))
		for i, p := range s.Points {
			xs[i] = parseDate(p.Date, i)
			ys[i] = p.TemperatureC
		}
		all = append(all, ys...)
		lines = append(lines, gochart.TimeSeries{
			Name:    s.City,
			Style:   gochart.Style{StrokeWidth: 2, DotWidth: 4},
			XValues: xs,
			YValues: ys,
		})
	}

	lo, hi := bounds(all, false)
	graph := gochart.Chart{
		Title:      fmt.Sprintf("Temperature over %d days", h.Days()),
		Width:      lineWidth,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 20}},
		XAxis: gochart.XAxis{
			Name:           "Date",
			ValueFormatter: gochart.TimeDateValueFormatter,
		},
		YAxis: gochart.YAxis{
			Name:  temperatureY,
			Range: &gochart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: lines,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	return r.write(ctx, h, func(f *os.File) error {
		return graph.Render(gochart.PNG, f)
	})
}

func (r *Renderer) write(ctx context.Context, h forecast.Horizon, render func(*os.File) error) (string, error) {
	start := time.Now()
	path := filepath.Join(r.dir, h.String()+"_"+uuid.NewString()+fileSuffix)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create chart file: %w", err)
	}
	renderErr := render(f)
	closeErr := f.Close()
	if renderErr != nil || closeErr != nil {
		_ = os.Remove(path)
		if renderErr != nil {
			return "", fmt.Errorf("render chart: %w", renderErr)
		}
		return "", fmt.Errorf("close chart file: %w", closeErr)
	}
	logger.Debug(ctx, "chart", "render.done",
		slog.String("horizon", h.String()),
		slog.String("file", filepath.Base(path)),
		slog.Duration("duration", logger.Took(start)),
	)
	return path, nil
}

// bounds returns a non-degenerate value range, padded by one degree when all
// values coincide. withZero pins zero inside the range for bar baselines.
func bounds(values []float64, withZero bool) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if withZero {
		lo = math.Min(lo, 0)
		hi = math.Max(hi, 0)
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return -1, 1
	}
	if lo == hi {
		return lo - 1, hi + 1
	}
	pad := (hi - lo) * 0.1
	return lo - pad, hi + pad
}

// parseDate reads a YYYY-MM-DD date; unparsable dates fall back to
// consecutive days so the x axis stays ordered.
func parseDate(raw string, idx int) time.Time {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t
	}
	return time.Date(2000, 1, 1+idx, 0, 0, 0, 0, time.UTC)
}
