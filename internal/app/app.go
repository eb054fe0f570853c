// Package app wires the route weather bot together from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/routeweather/core/bootstrap"
	"github.com/m3rciful/routeweather/core/logger"
	"github.com/m3rciful/routeweather/core/metrics"
	coretelegram "github.com/m3rciful/routeweather/core/telegram"
	"github.com/m3rciful/routeweather/core/telegram/serial"
	"github.com/m3rciful/routeweather/core/tracing"
	"github.com/m3rciful/routeweather/internal/bot"
	"github.com/m3rciful/routeweather/internal/chart"
	"github.com/m3rciful/routeweather/internal/config"
	"github.com/m3rciful/routeweather/internal/conversation"
	"github.com/m3rciful/routeweather/internal/session"
)

// Options tune New.
type Options struct {
	// ConfigPath is watched for logging.level changes when set.
	ConfigPath string
	// Bot replaces the Telegram bot built from the configuration.
	Bot *tele.Bot
	// Bootstrap replaces bootstrap.Run.
	Bootstrap func(context.Context, bootstrap.Options) (*bootstrap.Result, error)
}

// App owns every long-lived component of the bot.
type App struct {
	cfg     *config.Config
	started time.Time

	infra   *bootstrap.Result
	tracer  *tracing.Provider
	metrics *metrics.Metrics
	ops     *metrics.Server
	levels  *logger.LevelWatcher
	janitor *chart.Janitor

	stack    *Stack
	bot      *tele.Bot
	queue    *serial.Dispatcher
	handlers *bot.Handlers
	registry *coretelegram.Registry
}

// New initializes logging, tracing, metrics, storage and the Telegram side
// of the application. On error everything opened so far is released.
func New(ctx context.Context, cfg *config.Config, opts Options) (a *App, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}
	a = &App{cfg: cfg, started: time.Now()}
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
			a = nil
		}
	}()

	run := opts.Bootstrap
	if run == nil {
		run = bootstrap.Run
	}
	bootOpts := bootstrap.Options{Config: cfg.CoreConfig()}
	if cfg.UsesDatabase() {
		db := cfg.Database
		bootOpts.Database = &db
	}
	if a.infra, err = run(ctx, bootOpts); err != nil {
		return nil, err
	}

	if a.tracer, err = tracing.Setup(ctx, cfg.Tracing); err != nil {
		return nil, fmt.Errorf("app: tracing: %w", err)
	}

	a.metrics = metrics.New()
	if addr := strings.TrimSpace(cfg.Ops.Listen); addr != "" {
		a.ops = metrics.NewServer(addr, a.metrics, a.health)
		a.ops.Start()
	}

	if a.levels, err = logger.WatchLevel(opts.ConfigPath, cfg.Logging.LevelFile); err != nil {
		logger.Warn(ctx, "app", "log_level.watch", slog.String("status", "fail"), slog.String("err", err.Error()))
		err = nil
	}

	if a.stack, err = NewStack(cfg, a.metrics, a.infra.DB); err != nil {
		return nil, err
	}
	a.janitor = chart.NewJanitor(a.stack.Renderer.Dir(),
		time.Duration(cfg.Chart.RetentionMinutes)*time.Minute,
		time.Duration(cfg.Chart.SweepIntervalMinutes)*time.Minute,
	)
	if err = a.janitor.Start(); err != nil {
		return nil, fmt.Errorf("app: chart janitor: %w", err)
	}

	a.bot = opts.Bot
	if a.bot == nil {
		if a.bot, err = coretelegram.NewBot(cfg.CoreConfig()); err != nil {
			return nil, err
		}
	}

	a.queue = serial.New(serial.Options{
		Workers:   cfg.Dispatch.Workers,
		QueueSize: cfg.Dispatch.QueueSize,
		Metrics:   a.metrics,
	})
	engine := conversation.NewEngine(a.stack.Sessions, bot.NewGateway(a.bot, a.metrics), a.stack.Orchestrator,
		conversation.WithGeocoder(a.stack.Provider),
		conversation.WithMetrics(a.metrics),
		conversation.WithLocker(session.NewLocker()),
	)
	a.handlers = bot.NewHandlers(engine, a.queue, a.stats)
	a.registry = coretelegram.NewRegistry()
	a.handlers.Register(a.registry)

	logger.Info(ctx, "app", "wired",
		slog.String("location_cache", cfg.LocationCache.Backend),
		slog.String("chart_dir", a.stack.Renderer.Dir()),
		slog.Int("workers", cfg.Dispatch.Workers),
		slog.Bool("ops", a.ops != nil),
		slog.Duration("duration", logger.Took(a.started)),
	)
	return a, nil
}

// Stack exposes the forecast components.
func (a *App) Stack() *Stack { return a.stack }

// TelegramRunOptions assembles the bot runtime: middlewares, routes and the
// registry filled by the update handlers.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	if a == nil || a.bot == nil {
		return coretelegram.RunOptions{}, fmt.Errorf("app: not initialized")
	}
	core := a.cfg.CoreConfig()
	return coretelegram.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Bot:         a.bot,
		Middlewares: coretelegram.DefaultMiddlewares(core, a.metrics, a.handlers.OnRateLimited),
		Routes:      a.handlers.Routes(core, a.registry),
		OnStop: func(ctx context.Context, _ coretelegram.Runtime) error {
			// Updates already queued still get answered.
			a.queue.Close()
			return nil
		},
	}, nil
}

// Close releases everything New opened. It is safe to call more than once.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.queue != nil {
		a.queue.Close()
	}
	if a.janitor != nil {
		a.janitor.Stop()
		a.janitor = nil
	}
	if a.levels != nil {
		if err := a.levels.Close(); err != nil {
			errs = append(errs, fmt.Errorf("log level watcher: %w", err))
		}
		a.levels = nil
	}
	if a.ops != nil {
		if err := a.ops.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("ops server: %w", err))
		}
		a.ops = nil
	}
	if a.stack != nil {
		if err := a.stack.Close(); err != nil {
			errs = append(errs, fmt.Errorf("location cache: %w", err))
		}
		a.stack = nil
	}
	if a.infra != nil {
		if err := a.infra.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
		a.infra = nil
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracing: %w", err))
		}
		a.tracer = nil
	}
	return errors.Join(errs...)
}

func (a *App) health(ctx context.Context) error {
	if a.stack == nil {
		return errors.New("not ready")
	}
	return a.stack.Ping(ctx)
}

func (a *App) stats(context.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Uptime: %s\n", time.Since(a.started).Round(time.Second))
	if a.stack != nil {
		fmt.Fprintf(&b, "Sessions: %d\n", a.stack.Sessions.Len())
	}
	fmt.Fprintf(&b, "Location cache: %s\n", a.cfg.LocationCache.Backend)
	if a.queue != nil {
		fmt.Fprintf(&b, "Recovered panics: %d", a.queue.Panics())
	}
	return strings.TrimRight(b.String(), "\n")
}
