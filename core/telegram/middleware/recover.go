package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/routeweather/core/logger"
	tghelpers "github.com/m3rciful/routeweather/core/telegram/helpers"
)

// RecoverMiddleware turns a handler panic into an error log line so the
// poller keeps running. The update is considered handled.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error(tghelpers.BuildContext(c), "tg", "panic",
				slog.String("status", "fail"),
				slog.String("kind", UpdateKind(c.Update())),
				slog.String("err", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
			err = nil
		}()
		return next(c)
	}
}
