// Package orchestrator runs a forecast over a user's route, assembles the
// report and serves charts from the cached temperature series.
package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/m3rciful/routeweather/core/logger"
	"github.com/m3rciful/routeweather/core/metrics"
	"github.com/m3rciful/routeweather/core/tracing"
	"github.com/m3rciful/routeweather/internal/forecast"
	"github.com/m3rciful/routeweather/internal/session"
)

const (
	tracerName = "github.com/m3rciful/routeweather/internal/orchestrator"

	// threeDayChartPoints caps each line of a 3-day chart.
	threeDayChartPoints = 3
)

// Resolver fetches exactly h.Days() records for a city.
type Resolver interface {
	Resolve(ctx context.Context, city string, h forecast.Horizon) ([]forecast.Record, error)
}

// Renderer draws temperature charts and returns the image path.
type Renderer interface {
	RenderBar(ctx context.Context, cities []string, temps []float64) (string, error)
	RenderLines(ctx context.Context, h forecast.Horizon, series []forecast.Series) (string, error)
}

// Orchestrator is the forecast use case shared by the bot and the CLI.
type Orchestrator struct {
	sessions *session.Store
	cache    *forecast.Cache
	resolver Resolver
	renderer Renderer
	tracer   trace.Tracer
	metrics  *metrics.Metrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTracer overrides the tracer used for run spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithMetrics records run counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New builds an orchestrator.
func New(sessions *session.Store, cache *forecast.Cache, resolver Resolver, renderer Renderer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sessions: sessions,
		cache:    cache,
		resolver: resolver,
		renderer: renderer,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run forecasts every city of the user's route in route order and returns the
// report. The route is consumed whatever the result. An empty route yields an
// empty report and leaves the cache alone. The first failing city aborts the
// run and nothing is cached.
func (o *Orchestrator) Run(ctx context.Context, user int64, h forecast.Horizon) (report string, err error) {
	if !h.Valid() {
		return "", &forecast.UnsupportedHorizonError{Raw: h.String()}
	}
	sess, _ := o.sessions.Get(user)
	route := sess.Route
	defer o.sessions.ClearRoute(user)

	if len(route) == 0 {
		logger.Info(ctx, "orchestrator", "run.skip", slog.String("cause", "empty route"))
		return "", nil
	}

	ctx, span := o.tracer.Start(ctx, "forecast.run", trace.WithAttributes(
		attribute.Int64("user", user),
		attribute.String("horizon", h.String()),
		attribute.Int("cities", len(route)),
	))
	start := time.Now()
	defer func() {
		tracing.End(span, err)
		o.metrics.ForecastRun(h.String(), err)
	}()

	o.cache.Clear(user)
	blocks := make([]string, 0, len(route)*h.Days())
	snap := forecast.Snapshot{Horizon: h}
	for _, city := range route {
		records, err := o.resolver.Resolve(ctx, city, h)
		if err != nil {
			logger.Warn(ctx, "orchestrator", "run.fail",
				slog.String("horizon", h.String()),
				slog.String("city", logger.SanitizeLimit(city, 64)),
				slog.String("err", err.Error()),
				slog.String("err_code", logger.ErrorCode(err)),
				slog.Duration("duration", logger.Took(start)),
			)
			return "", err
		}
		points := make([]forecast.Point, 0, len(records))
		for _, rec := range records {
			blocks = append(blocks, FormatBlock(city, rec))
			points = append(points, rec.Point())
		}
		snap.Set(city, points)
	}
	o.cache.Put(user, snap)

	logger.Info(ctx, "orchestrator", "run.done",
		slog.String("horizon", h.String()),
		slog.Int("count", len(route)),
		slog.String("cities", logger.SanitizeLimit(snap.Describe(), 256)),
		slog.Duration("duration", logger.Took(start)),
	)
	return strings.Join(blocks, blockSeparator), nil
}

// RenderChart draws the cached series of user. It fails with
// *forecast.InsufficientDataError when nothing is cached or the cached run
// has a different horizon. The caller owns the returned file.
func (o *Orchestrator) RenderChart(ctx context.Context, user int64, h forecast.Horizon) (path string, err error) {
	ctx, span := o.tracer.Start(ctx, "forecast.chart", trace.WithAttributes(
		attribute.Int64("user", user),
		attribute.String("horizon", h.String()),
	))
	defer func() { tracing.End(span, err) }()

	snap, ok := o.cache.Get(user)
	if !ok || snap.Horizon != h {
		return "", &forecast.InsufficientDataError{Horizon: h}
	}

	if h == forecast.OneDay {
		cities := snap.Cities()
		temps := make([]float64, 0, len(cities))
		for _, city := range cities {
			t, _ := snap.Scalar(city)
			temps = append(temps, t)
		}
		return o.renderer.RenderBar(ctx, cities, temps)
	}

	series := snap.Series
	if h == forecast.ThreeDay {
		for i := range series {
			if len(series[i].Points) > threeDayChartPoints {
				series[i].Points = series[i].Points[:threeDayChartPoints]
			}
		}
	}
	return o.renderer.RenderLines(ctx, h, series)
}

// DeclineChart drops the cached series of user. A route still being
// collected is kept so that a late "no" on an old chart offer does not
// destroy a new flow.
func (o *Orchestrator) DeclineChart(user int64) {
	o.cache.Clear(user)
	if !o.sessions.InProgress(user) {
		o.sessions.ClearRoute(user)
	}
}
