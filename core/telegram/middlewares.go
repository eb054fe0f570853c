package telegram

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/routeweather/core/config"
	"github.com/m3rciful/routeweather/core/metrics"
	"github.com/m3rciful/routeweather/core/telegram/middleware"
)

// DefaultMiddlewares is the chain every update passes, outermost first:
// panic recovery, update counters, the per-user rate limit when
// rate_limit.interval_ms is set, then the logging context and the update span.
func DefaultMiddlewares(cfg *coreconfig.Config, m *metrics.Metrics, onLimited func(tele.Context) error) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "metrics", Use: middleware.UpdateMetricsMiddleware(m)},
	}
	if limit := rateLimit(cfg, onLimited); limit != nil {
		mws = append(mws, Middleware{Name: "rate_limit", Use: limit})
	}
	return append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "tracing", Use: middleware.TracingMiddleware(nil)},
	)
}

func rateLimit(cfg *coreconfig.Config, onLimited func(tele.Context) error) tele.MiddlewareFunc {
	if cfg == nil || cfg.RateLimit.IntervalMS <= 0 {
		return nil
	}
	exclude := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
	for _, kind := range cfg.RateLimit.ExcludeUpdates {
		exclude[strings.ToLower(strings.TrimSpace(kind))] = struct{}{}
	}
	return middleware.RateLimitMiddleware(middleware.RateLimitOptions{
		Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
		Exclude:   exclude,
		OnLimited: onLimited,
	})
}
