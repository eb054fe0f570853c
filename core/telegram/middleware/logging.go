package middleware

import (
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/routeweather/core/logger"
	"github.com/m3rciful/routeweather/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/routeweather/core/telegram/helpers"
)

// receiptLog remembers recently logged update ids so an update that passes
// the chain twice produces one receipt line.
type receiptLog struct {
	mu   sync.Mutex
	seen map[int]time.Time
	ttl  time.Duration
}

var receipts = &receiptLog{seen: make(map[int]time.Time), ttl: 10 * time.Second}

func (r *receiptLog) first(updateID int) bool {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if at, ok := r.seen[updateID]; ok && now.Sub(at) <= r.ttl {
		return false
	}
	if len(r.seen) >= 256 {
		for id, at := range r.seen {
			if now.Sub(at) > r.ttl {
				delete(r.seen, id)
			}
		}
	}
	r.seen[updateID] = now
	return true
}

// LoggerMiddleware builds the update's logging context (and rid) and logs a
// sampled receipt line.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		if logger.ShouldSampleDebug() && receipts.first(c.Update().ID) {
			logger.Debug(ctx, "tg", "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	upd := c.Update()
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("kind", UpdateKind(upd)),
	}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil && user.LanguageCode != "" {
		attrs = append(attrs, slog.String("lang", user.LanguageCode))
	}

	switch UpdateKind(upd) {
	case "callback":
		if key, payload := callbacks.ParseCallbackData(upd.Callback); key != "" {
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
			if payload != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
			}
		}
	case "location":
		// Coordinates stay out of the logs.
		attrs = append(attrs, slog.Bool("location", true))
	case "message":
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
		}
	}
	return attrs
}
