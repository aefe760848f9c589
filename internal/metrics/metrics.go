package metrics

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miniblog_http_requests_total",
			Help: "HTTP requests by method, matched route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miniblog_logins_total",
			Help: "Login attempts by result (success, failure).",
		},
		[]string{"result"},
	)

	ResetTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miniblog_reset_tokens_total",
			Help: "Password reset token events (issued, verified, rejected).",
		},
		[]string{"event"},
	)
)

// Middleware counts every request by its route pattern rather than the raw path.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		HTTPRequests.WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).Inc()
		return err
	}
}
