package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/moviehub/frontend-session/internal/core/domain"
	"github.com/moviehub/frontend-session/internal/core/guard"
)

const ctxSnapshot = "session_snapshot"

// GuardConfig tunes Guard.
type GuardConfig struct {
	// Wait is how long a request for an initializing session waits for it to
	// become ready before the loading response is sent.
	Wait time.Duration
	// RetryAfter is advertised with the loading response.
	RetryAfter time.Duration
	// OnDecision, when set, is called with every final decision.
	OnDecision func(guard.Decision)
}

type loadingResponse struct {
	Status string `json:"status"`
}

// Guard applies the route guard to a view. It expects Client to have run.
func Guard(req guard.Requirement, cfg GuardConfig) echo.MiddlewareFunc {
	retryAfter := int(cfg.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			store, ok := StoreFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
			}

			snap := store.Snapshot()
			if snap.IsInitializing && cfg.Wait > 0 {
				timer := time.NewTimer(cfg.Wait)
				select {
				case <-store.Ready():
				case <-timer.C:
				case <-c.Request().Context().Done():
				}
				timer.Stop()
				snap = store.Snapshot()
			}

			d := guard.Evaluate(snap, req, c.Request().URL.RequestURI())
			if cfg.OnDecision != nil {
				cfg.OnDecision(d)
			}

			switch d.Outcome {
			case guard.Loading:
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return c.JSON(http.StatusServiceUnavailable, loadingResponse{Status: "loading"})
			case guard.RedirectToLogin, guard.RedirectToRoleHome:
				return c.Redirect(http.StatusFound, d.Location)
			}

			c.Set(ctxSnapshot, snap)
			return next(c)
		}
	}
}

// SnapshotFrom returns the snapshot the guard rendered with.
func SnapshotFrom(c echo.Context) (domain.Snapshot, bool) {
	snap, ok := c.Get(ctxSnapshot).(domain.Snapshot)
	return snap, ok
}
