package middleware

import (
	"github.com/m3rciful/routeweather/core/metrics"

	tele "gopkg.in/telebot.v4"
)

// UpdateMetricsMiddleware counts every inbound update by kind.
func UpdateMetricsMiddleware(m *metrics.Metrics) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			m.Update(UpdateKind(c.Update()))
			return next(c)
		}
	}
}
