package middleware

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/routeweather/core/telegram/helpers"
	"github.com/m3rciful/routeweather/core/tracing"
)

const tracerName = "github.com/m3rciful/routeweather/core/telegram/middleware"

// TracingMiddleware opens a tg.update span per update and stores its context
// on c, so spans started by handlers become its children. It belongs after
// LoggerMiddleware, whose context it extends. A nil tracer uses the global
// provider.
func TracingMiddleware(tracer trace.Tracer) tele.MiddlewareFunc {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			upd := c.Update()
			ctx, span := tracer.Start(tghelpers.BuildContext(c), "tg.update",
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.Int("tg.update_id", upd.ID),
					attribute.String("tg.update_kind", UpdateKind(upd)),
				),
			)
			defer func() { tracing.End(span, err) }()
			tghelpers.StoreContext(c, ctx)
			return next(c)
		}
	}
}
