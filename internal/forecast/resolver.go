package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/m3rciful/routeweather/core/logger"
)

const (
	defaultCallTimeout = 10 * time.Second
	tracerName         = "github.com/m3rciful/routeweather/internal/forecast"
)

// Provider is the weather data source consumed by the resolver.
// FindLocationKey returns ErrLocationNotFound when the city has no match.
type Provider interface {
	FindLocationKey(ctx context.Context, city string) (string, error)
	FetchOneDay(ctx context.Context, key string) (Record, error)
	FetchMultiDay(ctx context.Context, key string) ([]Record, error)
}

// KeyCache remembers provider location keys per city name.
type KeyCache interface {
	Lookup(ctx context.Context, city string) (string, bool, error)
	Store(ctx context.Context, city, key string) error
}

// Resolver turns a city name into a fixed-length forecast for a horizon.
type Resolver struct {
	provider Provider
	keys     KeyCache
	timeout  time.Duration
	tracer   trace.Tracer
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithKeyCache makes the resolver consult and fill a location key cache.
func WithKeyCache(c KeyCache) ResolverOption {
	return func(r *Resolver) { r.keys = c }
}

// WithCallTimeout bounds each individual provider call.
func WithCallTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithTracer overrides the tracer used for resolve spans.
func WithTracer(t trace.Tracer) ResolverOption {
	return func(r *Resolver) {
		if t != nil {
			r.tracer = t
		}
	}
}

// NewResolver builds a resolver on top of the given provider.
func NewResolver(p Provider, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		provider: p,
		timeout:  defaultCallTimeout,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns exactly h.Days() records for city in provider order.
// Errors are *CityNotFoundError, *ProviderUnavailableError or
// *UnsupportedHorizonError.
func (r *Resolver) Resolve(ctx context.Context, city string, h Horizon) ([]Record, error) {
	if !h.Valid() {
		return nil, &UnsupportedHorizonError{Raw: fmt.Sprint(int(h))}
	}
	city = strings.TrimSpace(city)

	ctx, span := r.tracer.Start(ctx, "forecast.resolve", trace.WithAttributes(
		attribute.String("city", city),
		attribute.String("horizon", h.String()),
	))
	defer span.End()

	start := time.Now()
	records, err := r.resolve(ctx, city, h)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn(ctx, "forecast", "resolve.fail",
			slog.String("city", logger.SanitizeLimit(city, 64)),
			slog.String("horizon", h.String()),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.Took(start)),
		)
		return nil, err
	}
	logger.Debug(ctx, "forecast", "resolve.done",
		slog.String("city", logger.SanitizeLimit(city, 64)),
		slog.String("horizon", h.String()),
		slog.Int("count", len(records)),
		slog.Duration("duration", logger.Took(start)),
	)
	return records, nil
}

func (r *Resolver) resolve(ctx context.Context, city string, h Horizon) ([]Record, error) {
	key, err := r.locationKey(ctx, city)
	if err != nil {
		return nil, err
	}

	if h == OneDay {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		rec, err := r.provider.FetchOneDay(callCtx, key)
		if err != nil {
			return nil, asProviderError("forecast.1day", err)
		}
		rec.Date = normalizeDate(rec.Date)
		return []Record{rec}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	all, err := r.provider.FetchMultiDay(callCtx, key)
	if err != nil {
		return nil, asProviderError("forecast.5day", err)
	}
	n := h.Days()
	if len(all) < n {
		return nil, &ProviderUnavailableError{
			Op:  "forecast.5day",
			Err: fmt.Errorf("provider returned %d daily records, need %d", len(all), n),
		}
	}
	out := make([]Record, n)
	copy(out, all[:n])
	for i := range out {
		out[i].Date = normalizeDate(out[i].Date)
	}
	return out, nil
}

func (r *Resolver) locationKey(ctx context.Context, city string) (string, error) {
	if r.keys != nil {
		key, ok, err := r.keys.Lookup(ctx, city)
		switch {
		case err != nil:
			logger.Warn(ctx, "geocache", "lookup.fail",
				slog.String("city", logger.SanitizeLimit(city, 64)),
				slog.String("err", err.Error()),
			)
		case ok && key != "":
			logger.Debug(ctx, "geocache", "lookup", slog.String("cache", "hit"))
			return key, nil
		default:
			logger.Debug(ctx, "geocache", "lookup", slog.String("cache", "miss"))
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	key, err := r.provider.FindLocationKey(callCtx, city)
	if err != nil {
		if errors.Is(err, ErrLocationNotFound) {
			return "", &CityNotFoundError{City: city}
		}
		return "", asProviderError("location.search", err)
	}
	if key == "" {
		return "", &CityNotFoundError{City: city}
	}

	if r.keys != nil {
		if err := r.keys.Store(ctx, city, key); err != nil {
			logger.Warn(ctx, "geocache", "store.fail",
				slog.String("city", logger.SanitizeLimit(city, 64)),
				slog.String("err", err.Error()),
			)
		}
	}
	return key, nil
}

func asProviderError(op string, err error) error {
	var notFound *CityNotFoundError
	if errors.As(err, &notFound) {
		return err
	}
	var unavailable *ProviderUnavailableError
	if errors.As(err, &unavailable) {
		return err
	}
	return &ProviderUnavailableError{Op: op, Err: err}
}

// normalizeDate reduces a provider timestamp to YYYY-MM-DD.
func normalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.Format(time.DateOnly)
	}
	if len(raw) >= len(time.DateOnly) {
		return raw[:len(time.DateOnly)]
	}
	return raw
}
