package logger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func captureLine(t *testing.T, format logFormat, ctx context.Context, emit func(ctx context.Context)) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:    slog.LevelDebug,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	emit(WithLogger(ctx, slog.New(handler)))
	require.NoError(t, aw.Flush())
	require.NoError(t, aw.Close())
	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)
	return line
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	line := captureLine(t, formatKV, ctx, func(ctx context.Context) {
		Info(ctx, "fsm", "event.handled",
			slog.String("cause", "unit"),
			slog.String("status", "ok"),
		)
	})
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=fsm", "event=event.handled", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9"}
	require.GreaterOrEqual(t, len(tokens), len(expected), line)
	for i, prefix := range expected {
		assert.True(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, expected prefix %s", i, tokens[i], prefix)
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	ctx := WithRID(context.Background(), "rid-json")
	ctx = WithHandler(ctx, "choice.horizon_3")
	ctx = WithState(ctx, "awaiting_horizon_choice")

	line := captureLine(t, formatJSON, ctx, func(ctx context.Context) {
		Error(ctx, "orchestrator", "run.fail",
			slog.String("status", "fail"),
			slog.String("err", "boom"),
			slog.String("err_code", "PROVIDER_UNAVAILABLE"),
		)
	})
	require.True(t, strings.HasPrefix(line, "{"), line)
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"orchestrator"`, `"event":"run.fail"`, `"status":"fail"`, `"rid":"rid-json"`, `"handler":"choice.horizon_3"`, `"state":"awaiting_horizon_choice"`, `"err":"boom"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		require.True(t, idx > pos, "prefix %s not found in order within %s", pref, line)
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	rawRID := BuildRID(123, 456, 789)

	kv := captureLine(t, formatKV, WithRID(context.Background(), rawRID), func(ctx context.Context) {
		Info(ctx, "tg", "rid.test")
	})
	assert.Contains(t, kv, "rid="+CompactRID(rawRID))
	assert.NotContains(t, kv, "rid_full=")

	js := captureLine(t, formatJSON, WithRID(context.Background(), rawRID), func(ctx context.Context) {
		Info(ctx, "tg", "rid.test")
	})
	assert.Contains(t, js, `"rid":"`+CompactRID(rawRID)+`"`)
	assert.Contains(t, js, `"rid_full":"`+rawRID+`"`)
	assert.Contains(t, js, `"ts_unix_nano"`)
}

func TestStructuredHandlerDurationsAndEnums(t *testing.T) {
	line := captureLine(t, formatKV, context.Background(), func(ctx context.Context) {
		Debug(ctx, "geocache", "lookup",
			slog.Duration("duration", 1500*time.Microsecond),
			slog.Duration("backoff", 2*time.Second),
			slog.String("cache", "HIT"),
			slog.String("outcome", "weird"),
		)
	})
	assert.Contains(t, line, "duration_ms=2")
	assert.Contains(t, line, "backoff_ms=2000")
	assert.Contains(t, line, "cache=hit")
	assert.NotContains(t, line, "outcome=")
}

func TestTraceIDsComeFromActiveSpan(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	line := captureLine(t, formatKV, ctx, func(ctx context.Context) {
		Info(ctx, "forecast", "resolve.done")
	})
	assert.Contains(t, line, "trace_id="+span.SpanContext().TraceID().String())
	assert.Contains(t, line, "span_id="+span.SpanContext().SpanID().String())
	assert.Empty(t, TraceIDFrom(context.Background()))
}

type codedErr struct{ code string }

func (e *codedErr) Error() string { return "coded" }
func (e *codedErr) Code() string  { return e.code }

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, "CITY_NOT_FOUND", ErrorCode(fmt.Errorf("wrap: %w", &codedErr{code: "CITY_NOT_FOUND"})))
	assert.Equal(t, "TIMEOUT", ErrorCode(fmt.Errorf("call: %w", context.DeadlineExceeded)))
	assert.Equal(t, "CANCELLED", ErrorCode(context.Canceled))
	assert.Equal(t, "INTERNAL", ErrorCode(errors.New("boom")))
}

func TestSetLevel(t *testing.T) {
	prev := levelVar.Level()
	t.Cleanup(func() { levelVar.Set(prev) })

	lvl, err := SetLevel(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)
	assert.Equal(t, slog.LevelWarn, levelVar.Level())

	_, err = SetLevel("verbose")
	assert.Error(t, err)
	assert.Equal(t, slog.LevelWarn, levelVar.Level())
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "Mos", Sanitize("M\x00o\x7fs"))
	assert.Equal(t, "Sankt…", SanitizeLimit("Sankt-Peterburg", 5))
	assert.Equal(t, "", SanitizeLimit("x", 0))
}

func TestStructuredHandlerRedactsSecrets(t *testing.T) {
	token := "123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw1"
	line := captureLine(t, formatJSON, context.Background(), func(ctx context.Context) {
		Warn(ctx, "tg", "bot.error",
			slog.String("api_key", "abc"),
			slog.Group("db", slog.String("password", "hunter2")),
			slog.String("err", "Post https://api.telegram.org/bot"+token+"/getMe: timeout"),
		)
	})
	assert.Contains(t, line, `"api_key":"[redacted]"`)
	assert.Contains(t, line, `"db.password":"[redacted]"`)
	assert.NotContains(t, line, "hunter2")
	assert.NotContains(t, line, token)
	assert.Contains(t, line, "bot[redacted]/getMe")
}
