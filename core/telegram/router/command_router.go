package router

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/routeweather/core/logger"
	tg "github.com/m3rciful/routeweather/core/telegram"
	"github.com/m3rciful/routeweather/core/telegram/middleware"
)

// CommandRouteOptions configure CommandRoutes.
type CommandRouteOptions struct {
	AdminID int64
	// OnAdminReject answers non-admin callers of admin commands.
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes exposes every registered command, and its aliases, as a
// route. Admin commands are gated by AdminOnlyMiddleware.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	adminOnly := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for name, def := range cmds {
		h := summarized(normalizeHandlerName(name), def.Handler)
		if def.AdminOnly {
			h = adminOnly(h)
		}
		routes = append(routes, tg.Route{Endpoint: name, Handler: h})
		for _, alias := range def.Aliases {
			routes = append(routes, tg.Route{Endpoint: "/" + normalizeHandlerName(alias), Handler: h})
		}
	}

	logger.Info(context.Background(), "tg.wire", "complete",
		slog.Int("commands", len(cmds)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}
