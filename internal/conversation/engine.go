package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/m3rciful/routeweather/core/logger"
	"github.com/m3rciful/routeweather/core/metrics"
	"github.com/m3rciful/routeweather/internal/forecast"
	"github.com/m3rciful/routeweather/internal/session"
)

// Forecaster runs forecasts and charts for a user's route.
type Forecaster interface {
	// Run consumes the user's route and returns the report text. An empty
	// report means the route was empty.
	Run(ctx context.Context, user int64, h forecast.Horizon) (string, error)
	// RenderChart returns the path of a freshly rendered chart image.
	RenderChart(ctx context.Context, user int64, h forecast.Horizon) (string, error)
	// DeclineChart drops the cached series of user.
	DeclineChart(user int64)
}

// Geocoder resolves coordinates to a city name.
type Geocoder interface {
	CityAt(ctx context.Context, lat, lon float64) (string, error)
}

// Outcome is the result of handling one event.
type Outcome struct {
	Handler string
	State   session.State
	Err     error
}

// Engine is the route dialog state machine. Events of one user are
// serialized through the locker; events of different users run in parallel.
type Engine struct {
	sessions   *session.Store
	locks      *session.Locker
	gateway    Gateway
	forecaster Forecaster
	geocoder   Geocoder
	metrics    *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithGeocoder enables location messages.
func WithGeocoder(g Geocoder) Option {
	return func(e *Engine) { e.geocoder = g }
}

// WithMetrics records event counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLocker shares a locker with other components.
func WithLocker(l *session.Locker) Option {
	return func(e *Engine) {
		if l != nil {
			e.locks = l
		}
	}
}

// NewEngine wires the dialog on top of its collaborators.
func NewEngine(store *session.Store, gw Gateway, fc Forecaster, opts ...Option) *Engine {
	e := &Engine{
		sessions:   store,
		locks:      session.NewLocker(),
		gateway:    gw,
		forecaster: fc,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle processes one event. Any failure, including a panic, is reported to
// the originating user and returned in the outcome; it never escapes.
func (e *Engine) Handle(ctx context.Context, ev Event) Outcome {
	start := time.Now()
	prev := e.sessions.State(ev.User)
	ctx = logger.WithState(ctx, string(prev))

	var out Outcome
	_ = e.locks.WithLock(ev.User, func() error {
		out.Handler, out.Err = e.safeDispatch(ctx, ev)
		if out.Err != nil {
			e.reportError(ctx, ev.User, out.Err)
		}
		return nil
	})
	out.State = e.sessions.State(ev.User)

	e.metrics.Event(out.Handler, out.Err)
	attrs := []slog.Attr{
		slog.String("kind", ev.Kind.String()),
		slog.String("handler", out.Handler),
		slog.String("next_state", string(out.State)),
		slog.Duration("duration", logger.Took(start)),
	}
	if out.Err != nil {
		attrs = append(attrs,
			slog.String("status", "fail"),
			slog.String("err", out.Err.Error()),
			slog.String("err_code", logger.ErrorCode(out.Err)),
		)
		logger.Warn(ctx, "fsm", "event.handled", attrs...)
	} else {
		attrs = append(attrs, slog.String("status", "ok"))
		logger.Info(ctx, "fsm", "event.handled", attrs...)
	}
	return out
}

func (e *Engine) safeDispatch(ctx context.Context, ev Event) (handler string, err error) {
	handler = "unknown"
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "fsm", "panic.recovered",
				slog.String("handler", handler),
				slog.String("err", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return e.dispatch(ctx, ev)
}

func (e *Engine) dispatch(ctx context.Context, ev Event) (string, error) {
	switch ev.Kind {
	case KindText:
		text := strings.TrimSpace(ev.Text)
		if name, ok := parseCommand(text); ok {
			return e.command(ctx, ev.User, name)
		}
		return e.text(ctx, ev.User, text)
	case KindLocation:
		return e.location(ctx, ev.User, ev.Location)
	case KindChoice:
		return e.choice(ctx, ev.User, strings.TrimSpace(ev.Token))
	}
	return "unknown", e.notUnderstood(ctx, ev.User)
}

// parseCommand extracts the lowercase command name from "/name@bot args".
func parseCommand(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name := strings.TrimPrefix(strings.Fields(text)[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), true
}

func (e *Engine) command(ctx context.Context, user int64, name string) (string, error) {
	handler := "command." + name
	switch name {
	case "start":
		return handler, e.gateway.SendText(ctx, user, msgStart)
	case "help":
		return handler, e.gateway.SendText(ctx, user, msgHelp)
	case "weather":
		e.sessions.Start(user)
		return handler, e.gateway.SendText(ctx, user, msgAskOrigin)
	case "cancel":
		if !e.sessions.InProgress(user) {
			return handler, e.gateway.SendText(ctx, user, msgNothingToCancel)
		}
		e.sessions.Reset(user)
		return handler, e.gateway.SendText(ctx, user, msgCancelled)
	}
	return "command.unknown", e.notUnderstood(ctx, user)
}

func (e *Engine) text(ctx context.Context, user int64, city string) (string, error) {
	st := e.sessions.State(user)
	if !acceptsCity(st) {
		return "input.unexpected", e.notUnderstood(ctx, user)
	}
	step := cityStep(st)
	if city == "" {
		return "input." + step, e.gateway.SendText(ctx, user, msgEmptyCity+" "+cityPrompt(st))
	}
	return "input." + step, e.acceptCity(ctx, user, st, city)
}

func (e *Engine) location(ctx context.Context, user int64, loc Location) (string, error) {
	st := e.sessions.State(user)
	if st != session.StateAwaitingOrigin && st != session.StateAwaitingDestination {
		return "location.unexpected", e.notUnderstood(ctx, user)
	}
	handler := "location." + cityStep(st)
	if e.geocoder == nil {
		return handler, errors.New("location lookup is not available, please type the city name")
	}
	city, err := e.geocoder.CityAt(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		return handler, err
	}
	return handler, e.acceptCity(ctx, user, st, city)
}

func acceptsCity(st session.State) bool {
	switch st {
	case session.StateAwaitingOrigin, session.StateAwaitingDestination, session.StateAwaitingStopover:
		return true
	}
	return false
}

func cityStep(st session.State) string {
	switch st {
	case session.StateAwaitingOrigin:
		return "origin"
	case session.StateAwaitingDestination:
		return "destination"
	}
	return "stopover"
}

func cityPrompt(st session.State) string {
	switch st {
	case session.StateAwaitingOrigin:
		return msgAskOrigin
	case session.StateAwaitingDestination:
		return msgAskDestination
	}
	return msgAskStopover
}

func (e *Engine) acceptCity(ctx context.Context, user int64, st session.State, city string) error {
	if err := e.sessions.AppendCity(user, city); err != nil {
		return err
	}
	switch st {
	case session.StateAwaitingOrigin:
		if err := e.sessions.Transition(user, session.StateAwaitingDestination); err != nil {
			return err
		}
		return e.gateway.SendText(ctx, user, msgAskDestination)
	case session.StateAwaitingDestination:
		if err := e.sessions.Transition(user, session.StateAwaitingStopoverDecision); err != nil {
			return err
		}
		return e.gateway.SendChoices(ctx, user, msgOfferStopover, yesNo(TokenStopoverYes, TokenStopoverNo))
	default:
		if err := e.sessions.Transition(user, session.StateAwaitingStopoverDecision); err != nil {
			return err
		}
		return e.gateway.SendChoices(ctx, user, msgOfferMore, yesNo(TokenStopoverYes, TokenStopoverNo))
	}
}

func (e *Engine) choice(ctx context.Context, user int64, token string) (string, error) {
	handler := "choice." + token
	st := e.sessions.State(user)

	switch {
	case token == TokenStopoverYes && st == session.StateAwaitingStopoverDecision:
		if err := e.sessions.Transition(user, session.StateAwaitingStopover); err != nil {
			return handler, err
		}
		return handler, e.gateway.SendText(ctx, user, msgAskStopover)

	case token == TokenStopoverNo && st == session.StateAwaitingStopoverDecision:
		if err := e.sessions.Transition(user, session.StateAwaitingHorizonChoice); err != nil {
			return handler, err
		}
		return handler, e.gateway.SendChoices(ctx, user, msgAskHorizon, horizonMenu())

	case token == TokenChartNo:
		e.forecaster.DeclineChart(user)
		return handler, e.gateway.SendText(ctx, user, msgThanks)
	}

	if h, ok := parseHorizonToken(token, horizonPrefix); ok && st == session.StateAwaitingHorizonChoice {
		return handler, e.runForecast(ctx, user, h)
	}
	if h, ok := parseHorizonToken(token, chartPrefix); ok {
		path, err := e.forecaster.RenderChart(ctx, user, h)
		if err != nil {
			return handler, err
		}
		return handler, e.gateway.SendImage(ctx, user, path)
	}
	return "choice.stale", e.notUnderstood(ctx, user)
}

func (e *Engine) runForecast(ctx context.Context, user int64, h forecast.Horizon) error {
	if err := e.sessions.Transition(user, session.StateIdle); err != nil {
		return err
	}
	report, err := e.forecaster.Run(ctx, user, h)
	if err != nil {
		return err
	}
	if report == "" {
		return e.gateway.SendText(ctx, user, msgEmptyRoute)
	}
	if err := e.gateway.SendText(ctx, user, report); err != nil {
		return err
	}
	return e.gateway.SendChoices(ctx, user, msgOfferChart, yesNo(ChartToken(h), TokenChartNo))
}

func (e *Engine) notUnderstood(ctx context.Context, user int64) error {
	return e.gateway.SendText(ctx, user, msgNotUnderstood)
}

func (e *Engine) reportError(ctx context.Context, user int64, cause error) {
	if err := e.gateway.SendText(ctx, user, errorPrefix+cause.Error()); err != nil {
		logger.Warn(ctx, "fsm", "error.report.fail",
			slog.String("err", err.Error()),
			slog.String("cause", cause.Error()),
		)
	}
}
