package middleware

import (
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/routeweather/core/logger"
	tghelpers "github.com/m3rciful/routeweather/core/telegram/helpers"
)

// RateLimitOptions configure RateLimitMiddleware.
type RateLimitOptions struct {
	// Interval is the minimum gap between two updates of one user.
	Interval time.Duration
	// Exclude holds update kinds (see UpdateKind) that are never limited.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

type userLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[int64]time.Time
}

// allow records an update of user at now unless it came too soon.
func (l *userLimiter) allow(user int64, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.last[user]; ok && now.Sub(last) < l.interval {
		return false
	}
	if len(l.last) >= 1024 {
		for id, at := range l.last {
			if now.Sub(at) >= l.interval {
				delete(l.last, id)
			}
		}
	}
	l.last[user] = now
	return true
}

// RateLimitMiddleware drops updates that arrive from the same user within
// opts.Interval of the previous accepted one.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	limiter := &userLimiter{interval: opts.Interval, last: make(map[int64]time.Time)}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			kind := UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip || user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if limiter.allow(user.ID, time.Now()) {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "rate_limit",
				slog.String("status", "rate_limited"),
				slog.String("kind", kind),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
