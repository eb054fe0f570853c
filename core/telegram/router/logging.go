package router

import (
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/routeweather/core/logger"
	tghelpers "github.com/m3rciful/routeweather/core/telegram/helpers"
)

// summarized wraps h so that each call is tagged with name and logged once.
func summarized(name string, h tele.HandlerFunc, extras ...slog.Attr) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		tghelpers.WithHandler(c, name)
		err := h(c)
		logHandled(c, name, start, outcome(err), err, extras...)
		return err
	}
}

func outcome(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// logHandled writes the handler.handled line. status differs from the
// outcome only for updates nobody handled ("skip").
func logHandled(c tele.Context, name string, start time.Time, status string, err error, extras ...slog.Attr) {
	attrs := append([]slog.Attr{
		slog.String("status", status),
		slog.String("handler", name),
		slog.String("outcome", outcome(err)),
		slog.Duration("duration", logger.Took(start)),
	}, extras...)
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", logger.ErrorCode(err)),
		)
	}
	logger.Info(tghelpers.WithHandler(c, name), "tg", "handler.handled", attrs...)
}

// normalizeHandlerName turns a command or callback key into a handler label.
func normalizeHandlerName(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.ReplaceAll(name, " ", "_")
}
