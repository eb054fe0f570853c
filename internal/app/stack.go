package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/routeweather/core/metrics"
	"github.com/m3rciful/routeweather/internal/accuweather"
	"github.com/m3rciful/routeweather/internal/chart"
	"github.com/m3rciful/routeweather/internal/config"
	"github.com/m3rciful/routeweather/internal/forecast"
	"github.com/m3rciful/routeweather/internal/geocache"
	"github.com/m3rciful/routeweather/internal/orchestrator"
	"github.com/m3rciful/routeweather/internal/session"
)

// cliUser owns the session used by one-off route runs outside Telegram.
const cliUser int64 = 0

// Stack is the forecast side of the application: provider, location cache,
// session store, forecast cache, chart renderer and the orchestrator on top.
type Stack struct {
	Sessions     *session.Store
	Cache        *forecast.Cache
	Provider     *accuweather.Client
	Renderer     *chart.Renderer
	Orchestrator *orchestrator.Orchestrator

	keys forecast.KeyCache
	db   *sqlx.DB
}

// NewStack builds the forecast components from cfg. db is required only by
// the postgres location cache.
func NewStack(cfg *config.Config, m *metrics.Metrics, db *sqlx.DB) (*Stack, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}
	provider := accuweather.New(cfg.Weather.APIKey,
		accuweather.WithBaseURL(cfg.Weather.BaseURL),
		accuweather.WithLanguage(cfg.Weather.Language),
		accuweather.WithMetrics(m),
	)
	keys, err := newKeyCache(cfg.LocationCache, db)
	if err != nil {
		return nil, err
	}
	renderer, err := chart.NewRenderer(cfg.Chart.Dir)
	if err != nil {
		_ = closeKeyCache(keys)
		return nil, err
	}

	resolver := forecast.NewResolver(provider,
		forecast.WithKeyCache(keys),
		forecast.WithCallTimeout(cfg.Weather.Timeout()),
	)
	sessions := session.NewStore()
	cache := forecast.NewCache()
	return &Stack{
		Sessions:     sessions,
		Cache:        cache,
		Provider:     provider,
		Renderer:     renderer,
		Orchestrator: orchestrator.New(sessions, cache, resolver, renderer, orchestrator.WithMetrics(m)),
		keys:         keys,
		db:           db,
	}, nil
}

func newKeyCache(cfg config.LocationCacheConfig, db *sqlx.DB) (forecast.KeyCache, error) {
	switch cfg.Backend {
	case geocache.BackendRedis:
		return geocache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, geocache.WithTTL(cfg.TTL())), nil
	case geocache.BackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("app: postgres location cache needs a database connection")
		}
		return geocache.NewPostgres(db, cfg.TTL()), nil
	case geocache.BackendMemory, "":
		return geocache.NewMemory(cfg.TTL()), nil
	default:
		return nil, fmt.Errorf("app: unknown location cache backend %q", cfg.Backend)
	}
}

func closeKeyCache(keys forecast.KeyCache) error {
	if c, ok := keys.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// Ping checks the external stores the stack depends on.
func (s *Stack) Ping(ctx context.Context) error {
	var errs []error
	if p, ok := s.keys.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("location cache: %w", err))
		}
	}
	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close releases the location cache connection. The database belongs to
// whoever opened it.
func (s *Stack) Close() error {
	if s == nil {
		return nil
	}
	return closeKeyCache(s.keys)
}

// Route runs one forecast for cities outside any chat. With withChart the
// chart is rendered as well and its path returned; the caller owns the file.
func (s *Stack) Route(ctx context.Context, cities []string, h forecast.Horizon, withChart bool) (report, chartPath string, err error) {
	s.Sessions.Start(cliUser)
	defer s.Sessions.Reset(cliUser)
	for _, city := range cities {
		if name := strings.TrimSpace(city); name != "" {
			if err := s.Sessions.AppendCity(cliUser, name); err != nil {
				return "", "", err
			}
		}
	}

	report, err = s.Orchestrator.Run(ctx, cliUser, h)
	if err != nil || report == "" || !withChart {
		return report, "", err
	}
	chartPath, err = s.Orchestrator.RenderChart(ctx, cliUser, h)
	if err != nil {
		return report, "", err
	}
	return report, chartPath, nil
}
