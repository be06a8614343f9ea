package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/moviehub/frontend-session/internal/api/handler"
	"github.com/moviehub/frontend-session/internal/core/domain"
	"github.com/moviehub/frontend-session/internal/core/session"
	"github.com/moviehub/frontend-session/internal/infrastructure/authapi"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
//
// Login and signup failures carry the same message the session exposes as
// lastError.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ve *handler.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Error()
	}

	msg, isAuth := session.IsAuthError(err)
	if !isAuth {
		msg = err.Error()
	}

	var rejected *authapi.RejectedError
	if errors.As(err, &rejected) {
		return rejected.Status, msg
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrEmptyCredentials), errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, msg
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, msg
	case errors.Is(err, domain.ErrAccountDisabled), errors.Is(err, domain.ErrForbiddenRole):
		return http.StatusForbidden, msg
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, msg
	case errors.Is(err, domain.ErrUserExists), errors.Is(err, domain.ErrAttemptSuperseded):
		return http.StatusConflict, msg
	case errors.Is(err, domain.ErrSessionInitializing):
		c.Response().Header().Set("Retry-After", "1")
		return http.StatusServiceUnavailable, msg
	case errors.Is(err, domain.ErrAuthUnavailable):
		log.Warn().Err(err).Str("path", c.Path()).Msg("authentication backend unavailable")
		if !isAuth {
			msg = domain.ErrAuthUnavailable.Error()
		}
		return http.StatusBadGateway, msg
	case errors.Is(err, domain.ErrPersistence):
		log.Error().Err(err).Str("path", c.Path()).Msg("session persistence failed")
		if !isAuth {
			msg = session.MsgPersistence
		}
		return http.StatusServiceUnavailable, msg
	}

	if isAuth {
		// Any other failure reported by a collaborator is still a failed
		// attempt the user can read about.
		return http.StatusUnauthorized, msg
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
