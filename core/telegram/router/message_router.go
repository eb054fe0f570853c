package router

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/routeweather/core/telegram"
)

// TextOptions configure TextRoutes.
type TextOptions struct {
	// UnknownText answers text when the registry has no fallback.
	UnknownText tele.HandlerFunc
	// Location handles shared locations; nil leaves them unrouted.
	Location tele.HandlerFunc
}

// TextRoutes builds handlers for free text and shared locations. Slash text
// naming a registered command or alias runs that command, admin commands
// excepted; anything else goes to the registry text fallback.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		text := c.Text()
		if reg != nil && strings.HasPrefix(text, "/") {
			if key, cmd, ok := reg.LookupCommand(commandName(text)); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return summarized(normalizeHandlerName(key), cmd.Handler)(c)
			}
		}
		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return summarized("text", fb)(c)
			}
		}
		if opts.UnknownText != nil {
			return summarized("unknown_text", opts.UnknownText)(c)
		}
		logHandled(c, "unknown_text", time.Now(), "skip", nil)
		return nil
	}

	routes := []tg.Route{{Endpoint: tele.OnText, Handler: handler}}
	if opts.Location != nil {
		routes = append(routes, tg.Route{Endpoint: tele.OnLocation, Handler: summarized("location", opts.Location)})
	}
	return routes
}

// commandName strips arguments and a "@botname" suffix from slash text.
func commandName(text string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	name, _, _ = strings.Cut(name, "@")
	return name
}
