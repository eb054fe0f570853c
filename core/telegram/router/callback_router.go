package router

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/routeweather/core/telegram"
	"github.com/m3rciful/routeweather/core/telegram/callbacks"
)

// CallbackOptions configure CallbackRoute.
type CallbackOptions struct {
	// NotFound overrides the registry fallback for unknown keys.
	NotFound tele.HandlerFunc
}

// CallbackRoute dispatches button presses by their unique key. The press is
// acknowledged first so the client stops its spinner whatever happens next.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		_ = c.Respond()

		key, _ := callbacks.ParseCallbackData(c.Callback())
		keyAttr := slog.String("cb_key", key)
		if h, ok := reg.GetCallback(key); ok && h != nil {
			return summarized("callback."+normalizeHandlerName(key), h, keyAttr)(c)
		}

		fallback := opts.NotFound
		if fallback == nil {
			fallback = reg.CallbackNotFound()
		}
		if fallback == nil {
			logHandled(c, "callback.not_found", time.Now(), "skip", nil, keyAttr)
			return nil
		}
		return summarized("callback.not_found", fallback, keyAttr, slog.String("reason", "not_found"))(c)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
