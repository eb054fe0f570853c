package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/routeweather/core/config"
	"github.com/m3rciful/routeweather/core/logger"
	tghelpers "github.com/m3rciful/routeweather/core/telegram/helpers"
	"github.com/m3rciful/routeweather/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry
	// Bot is used as is when set; otherwise one is built from Config.
	Bot *tele.Bot

	Middlewares []Middleware
	Routes      []Route

	DisableWebhookCleanup bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot      *tele.Bot
	Registry *Registry
}

// NewBot builds a synchronous bot: updates are handed to handlers one at a
// time in arrival order, and handlers are expected to return quickly.
func NewBot(cfg *coreconfig.Config) (*tele.Bot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("telegram: nil config provided")
	}
	poller := NewPoller(cfg)

	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:       cfg.Telegram.Token,
		Poller:      poller,
		Client:      BuildHTTPClient(),
		Synchronous: true,
		OnError:     logBotError,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %s", netutil.SanitizeError(err))
	}
	took := time.Since(start)

	ctx := context.Background()
	switch p := poller.(type) {
	case *tele.Webhook:
		logger.Info(ctx, "tg", "mode",
			slog.String("mode", RunModeWebhook),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
			slog.Duration("duration", logger.RoundMS(took)),
		)
	case *tele.LongPoller:
		logger.Info(ctx, "tg", "mode",
			slog.String("mode", RunModeLongpoll),
			slog.Int("timeout_seconds", int(p.Timeout/time.Second)),
			slog.Duration("duration", logger.RoundMS(took)),
		)
	}
	return bot, nil
}

// RunTelegram composes and runs a Telegram bot until the provided context is done.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}

	cfg := opts.Config
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	bot := opts.Bot
	if bot == nil {
		var err error
		if bot, err = NewBot(cfg); err != nil {
			return err
		}
	}

	if !opts.DisableWebhookCleanup && cfg.Telegram.RunMode == coreconfig.RunModeLongpoll {
		if err := bot.RemoveWebhook(false); err != nil {
			logger.Warn(ctx, "tg", "delete_webhook",
				slog.String("status", "fail"),
				slog.String("err", netutil.SanitizeError(err)),
			)
		} else {
			logger.Debug(ctx, "tg", "delete_webhook", slog.String("status", "ok"))
		}
	}

	for _, mw := range opts.Middlewares {
		if mw.Use == nil {
			continue
		}
		bot.Use(mw.Use)
	}

	for _, route := range opts.Routes {
		if route.Endpoint == nil || route.Handler == nil {
			continue
		}
		bot.Handle(route.Endpoint, route.Handler)
	}

	InitBotCommands(bot, reg)

	rt := Runtime{
		Bot:      bot,
		Registry: reg,
	}

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runDone := make(chan struct{})
	go func() {
		bot.Start()
		close(runDone)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		bot.Stop()
		<-runDone
		runErr = ctx.Err()
	case <-runDone:
	}

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.WithoutCancel(ctx), rt)
	}

	if stopErr != nil {
		return stopErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func logBotError(err error, c tele.Context) {
	ctx := context.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(c)
	}
	logger.Error(ctx, "tg", "bot.error",
		slog.String("err", netutil.SanitizeError(err)),
		slog.String("err_kind", netutil.ClassifyError(err)),
	)
}
