package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moviehub/frontend-session/internal/api/middleware"
	"github.com/moviehub/frontend-session/internal/core/guard"
	"github.com/moviehub/frontend-session/internal/core/session"
)

// AuthHandler exposes the caller's session store over HTTP.
type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

func store(c echo.Context) (*session.Store, error) {
	s, ok := middleware.StoreFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
	}
	return s, nil
}

// awaitReady holds a login or signup until the caller's session has finished
// restoring. The wait is bounded by the restore timeout and the request.
func awaitReady(c echo.Context, s *session.Store) {
	select {
	case <-s.Ready():
	case <-c.Request().Context().Done():
	}
}

// Session returns the current snapshot of the caller's session.
func (h *AuthHandler) Session(c echo.Context) error {
	s, err := store(c)
	if err != nil {
		return err
	}
	snap := s.Snapshot()
	resp := sessionResponse{Snapshot: snap}
	if snap.IsAuthenticated {
		resp.Home = guard.RoleHome(snap.Role())
	}
	return c.JSON(http.StatusOK, resp)
}

// Login authenticates the caller and tells the frontend where to go next.
func (h *AuthHandler) Login(c echo.Context) error {
	s, err := store(c)
	if err != nil {
		return err
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	awaitReady(c, s)
	user, err := s.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{User: user, RedirectTo: guard.PostLoginDestination(user, req.From)})
}

// Signup registers a new account and logs the caller in.
func (h *AuthHandler) Signup(c echo.Context) error {
	s, err := store(c)
	if err != nil {
		return err
	}

	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	awaitReady(c, s)
	user, err := s.Signup(c.Request().Context(), req.toDomain())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, authResponse{User: user, RedirectTo: guard.PostLoginDestination(user, req.From)})
}

// Logout ends the caller's session. It always succeeds.
func (h *AuthHandler) Logout(c echo.Context) error {
	s, err := store(c)
	if err != nil {
		return err
	}
	s.Logout(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]string{"redirectTo": guard.LoginPath})
}

// ClearError dismisses the last login/signup failure.
func (h *AuthHandler) ClearError(c echo.Context) error {
	s, err := store(c)
	if err != nil {
		return err
	}
	s.ClearError()
	return c.NoContent(http.StatusNoContent)
}
