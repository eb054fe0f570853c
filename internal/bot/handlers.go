package bot

import (
	"context"
	"log/slog"

	coreconfig "github.com/m3rciful/routeweather/core/config"
	"github.com/m3rciful/routeweather/core/logger"
	tg "github.com/m3rciful/routeweather/core/telegram"
	"github.com/m3rciful/routeweather/core/telegram/callbacks"
	"github.com/m3rciful/routeweather/core/telegram/commands"
	tghelpers "github.com/m3rciful/routeweather/core/telegram/helpers"
	"github.com/m3rciful/routeweather/core/telegram/router"
	"github.com/m3rciful/routeweather/internal/conversation"

	tele "gopkg.in/telebot.v4"
)

// Engine handles one dialog event.
type Engine interface {
	Handle(ctx context.Context, ev conversation.Event) conversation.Outcome
}

// Queue runs jobs for one user in submission order.
type Queue interface {
	Submit(ctx context.Context, key int64, run func(context.Context)) error
}

// StatsFunc renders the admin statistics reply.
type StatsFunc func(ctx context.Context) string

// Handlers turn Telegram updates into dialog events.
type Handlers struct {
	engine Engine
	queue  Queue
	stats  StatsFunc
}

// NewHandlers builds the update handlers. stats may be nil, which disables /stats.
func NewHandlers(engine Engine, queue Queue, stats StatsFunc) *Handlers {
	return &Handlers{engine: engine, queue: queue, stats: stats}
}

// Register adds the bot's commands, button tokens and fallbacks to reg.
func (h *Handlers) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{Handler: h.onText, Description: "Start the bot"})
	reg.RegisterCommand("/help", commands.Command{Handler: h.onText, Description: "How to use the bot"})
	reg.RegisterCommand("/weather", commands.Command{Handler: h.onText, Description: "Weather along a route"})
	reg.RegisterCommand("/cancel", commands.Command{Handler: h.onText, Description: "Cancel the route being entered"})
	if h.stats != nil {
		reg.RegisterCommand("/stats", commands.Command{
			Handler:     h.onStats,
			Description: "Runtime statistics",
			AdminOnly:   true,
			Hidden:      true,
		})
	}

	if err := reg.RegisterCallbacks(conversation.Tokens(), h.onChoice); err != nil {
		logger.Warn(context.Background(), "tg.wire", "register.callbacks", slog.String("err", err.Error()))
	}
	// Unknown or outdated buttons still reach the dialog, which answers them.
	reg.SetCallbackNotFound(h.onChoice)
	reg.SetTextFallback(h.onText)
}

// Routes builds the telebot routes for a registry prepared by Register.
func (h *Handlers) Routes(cfg *coreconfig.Config, reg *tg.Registry) []tg.Route {
	var adminID int64
	if cfg != nil {
		adminID = cfg.Telegram.AdminID
	}
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       adminID,
		OnAdminReject: h.onText,
	})
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{Location: h.onLocation})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	return routes
}

// OnRateLimited tells the user to slow down.
func (h *Handlers) OnRateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Too many requests, please wait."})
	}
	return nil
}

func (h *Handlers) onText(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	return h.submit(c, conversation.TextEvent(user.ID, c.Text()))
}

func (h *Handlers) onLocation(c tele.Context) error {
	user := c.Sender()
	msg := c.Message()
	if user == nil || msg == nil || msg.Location == nil {
		return nil
	}
	loc := msg.Location
	return h.submit(c, conversation.LocationEvent(user.ID, float64(loc.Lat), float64(loc.Lng)))
}

func (h *Handlers) onChoice(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	return h.submit(c, conversation.ChoiceEvent(user.ID, callbacks.CallbackKey(c)))
}

func (h *Handlers) onStats(c tele.Context) error {
	return c.Send(h.stats(tghelpers.BuildContext(c)))
}

// submit queues ev behind the user's earlier events and returns at once;
// the engine reports its own outcome.
func (h *Handlers) submit(c tele.Context, ev conversation.Event) error {
	ctx := tghelpers.Detach(tghelpers.BuildContext(c))
	err := h.queue.Submit(ctx, ev.User, func(ctx context.Context) {
		h.engine.Handle(ctx, ev)
	})
	if err != nil {
		logger.Warn(ctx, "tg", "dispatch",
			slog.String("status", "fail"),
			slog.String("kind", ev.Kind.String()),
			slog.String("err", err.Error()),
		)
	}
	return err
}
