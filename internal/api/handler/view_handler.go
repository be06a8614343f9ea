package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moviehub/frontend-session/internal/api/middleware"
	"github.com/moviehub/frontend-session/internal/core/guard"
)

// ViewHandler renders the role dashboards and the login view. Page content is
// owned by the frontend; these only describe which view to show and for whom.
type ViewHandler struct{}

func NewViewHandler() *ViewHandler {
	return &ViewHandler{}
}

// Dashboard returns a handler for a guarded view named view.
func (h *ViewHandler) Dashboard(view string) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap, _ := middleware.SnapshotFrom(c)
		return c.JSON(http.StatusOK, viewResponse{View: view, User: snap.CurrentUser})
	}
}

type loginView struct {
	View      string `json:"view"`
	From      string `json:"from,omitempty"`
	LastError string `json:"lastError,omitempty"`
	IsBusy    bool   `json:"isBusy"`
}

// Login renders the login view, or sends an already authenticated visitor
// on to where they were going.
func (h *ViewHandler) Login(c echo.Context) error {
	snap, _ := middleware.SnapshotFrom(c)
	from := c.QueryParam("from")

	if snap.IsAuthenticated {
		return c.Redirect(http.StatusFound, guard.PostLoginDestination(snap.CurrentUser, from))
	}
	return c.JSON(http.StatusOK, loginView{
		View:      "login",
		From:      from,
		LastError: snap.LastError,
		IsBusy:    snap.IsBusy,
	})
}
