// Package metrics defines and registers all custom Prometheus metrics for the
// MovieHub frontend session service. It is the single source of truth for
// metric names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation (promauto) and exposed by the router on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "moviehub_frontend"

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionRestoresTotal counts completed session restorations.
// Label:
//   - outcome: "restored", "empty", "corrupt", "revoked", "failed" or "timeout"
var SessionRestoresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_restores_total",
		Help:      "Total number of session restorations, by outcome.",
	},
	[]string{"outcome"},
)

// AuthAttemptsTotal counts login and signup attempts.
// Labels:
//   - op: "login" or "signup"
//   - result: "success", "failure", "persistence_failure", "superseded" or "rejected"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of login/signup attempts, by operation and result.",
	},
	[]string{"op", "result"},
)

// AuthFallbacksTotal counts requests answered by the local directory because
// the backend was unreachable.
var AuthFallbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_fallbacks_total",
		Help:      "Total number of auth requests served by the local directory.",
	},
	[]string{"op"},
)

// SessionsLive tracks the number of in-memory session stores.
var SessionsLive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_live",
		Help:      "Current number of session stores held by the registry.",
	},
)

// ── Route guard metrics ───────────────────────────────────────────────────────

// GuardDecisionsTotal counts route guard decisions.
// Label:
//   - outcome: "render", "loading", "redirect_login" or "redirect_role_home"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by outcome.",
	},
	[]string{"outcome"},
)

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestDuration measures request latency.
// Labels:
//   - method, route (echo path template), status
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"method", "route", "status"},
)

// Session records store outcomes into the counters above.
type Session struct{}

func (Session) ObserveRestore(outcome string) {
	SessionRestoresTotal.WithLabelValues(outcome).Inc()
}

func (Session) ObserveAttempt(op, result string) {
	AuthAttemptsTotal.WithLabelValues(op, result).Inc()
}

// Middleware observes HTTPRequestDuration for every request.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			HTTPRequestDuration.
				WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
