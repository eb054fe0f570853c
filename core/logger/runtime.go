package logger

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"go.opentelemetry.io/otel/trace"
)

type ctxKey int

const (
	keyLogger ctxKey = iota
	keyRID
	keyUpdate
	keyHandler
	keyState
)

// updateMeta identifies the Telegram update a log line belongs to.
type updateMeta struct {
	updateID int
	userID   int64
	chatID   int64
}

func with(ctx context.Context, key ctxKey, v any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, v)
}

func from[T any](ctx context.Context, key ctxKey) T {
	var zero T
	if ctx == nil {
		return zero
	}
	v, _ := ctx.Value(key).(T)
	return v
}

// WithLogger makes log the logger used for events logged with ctx.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if log == nil {
		return orBackground(ctx)
	}
	return with(ctx, keyLogger, log)
}

// FromContext returns the logger stored by WithLogger, or the base logger.
func FromContext(ctx context.Context) *slog.Logger {
	if l := from[*slog.Logger](ctx, keyLogger); l != nil {
		return l
	}
	return L
}

// WithRID attaches the request correlation id.
func WithRID(ctx context.Context, rid string) context.Context { return with(ctx, keyRID, rid) }

// RIDFrom returns the correlation id or "".
func RIDFrom(ctx context.Context) string { return from[string](ctx, keyRID) }

// WithUpdateMeta attaches the update, user and chat ids.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return with(ctx, keyUpdate, updateMeta{updateID: updateID, userID: userID, chatID: chatID})
}

// UpdateIDFrom returns the Telegram update id or 0.
func UpdateIDFrom(ctx context.Context) int { return from[updateMeta](ctx, keyUpdate).updateID }

// UserIDFrom returns the Telegram user id or 0.
func UserIDFrom(ctx context.Context) int64 { return from[updateMeta](ctx, keyUpdate).userID }

// ChatIDFrom returns the chat id or 0.
func ChatIDFrom(ctx context.Context) int64 { return from[updateMeta](ctx, keyUpdate).chatID }

// WithHandler names the handler serving the update. Empty names are ignored.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		return orBackground(ctx)
	}
	return with(ctx, keyHandler, handler)
}

// HandlerFrom returns the handler name or "".
func HandlerFrom(ctx context.Context) string { return from[string](ctx, keyHandler) }

// WithState records the dialog state a handler started from.
func WithState(ctx context.Context, state string) context.Context {
	if state == "" {
		return orBackground(ctx)
	}
	return with(ctx, keyState, state)
}

// StateFrom returns the dialog state stored by WithState.
func StateFrom(ctx context.Context) string { return from[string](ctx, keyState) }

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// TraceIDFrom returns the trace id of the active span, or "".
func TraceIDFrom(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(orBackground(ctx)); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// SpanIDFrom returns the id of the active span, or "".
func SpanIDFrom(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(orBackground(ctx)); sc.HasSpanID() {
		return sc.SpanID().String()
	}
	return ""
}

// Sanitize drops control and format runes from s, keeping tabs and newlines.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
			return -1
		}
		return r
	}, s)
}

// SanitizeLimit sanitizes s and cuts it to limit runes, marking the cut
// with an ellipsis.
func SanitizeLimit(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(Sanitize(s))
	if len(r) <= limit {
		return string(r)
	}
	return string(r[:limit]) + "…"
}

// BuildRID returns the correlation id "updateID:chatID:userID".
func BuildRID(updateID int, chatID, userID int64) string {
	return strconv.Itoa(updateID) + ":" + strconv.FormatInt(chatID, 10) + ":" + strconv.FormatInt(userID, 10)
}

// CompactRID rewrites each numeric part of a BuildRID id in base 36, joined
// by dots. Anything else is returned unchanged.
func CompactRID(rid string) string {
	rid = strings.TrimSpace(rid)
	parts := strings.Split(rid, ":")
	if len(parts) != 3 {
		return rid
	}
	for i, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return rid
		}
		parts[i] = strconv.FormatInt(n, 36)
	}
	return strings.Join(parts, ".")
}
