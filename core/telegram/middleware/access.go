package middleware

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/routeweather/core/logger"
	tghelpers "github.com/m3rciful/routeweather/core/telegram/helpers"
)

// AdminOptions configure AdminOnlyMiddleware.
type AdminOptions struct {
	AdminID int64
	// OnReject answers callers that are not the admin; nil drops the update.
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware passes only updates sent by the configured admin.
// With AdminID unset nobody is admin.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if sender := c.Sender(); opts.AdminID != 0 && sender != nil && sender.ID == opts.AdminID {
				return next(c)
			}
			logger.Info(tghelpers.BuildContext(c), "tg", "admin.reject",
				slog.String("status", "denied"),
				slog.Bool("admin_set", opts.AdminID != 0),
			)
			if opts.OnReject == nil {
				return nil
			}
			return opts.OnReject(c)
		}
	}
}
