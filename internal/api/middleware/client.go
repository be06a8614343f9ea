package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/moviehub/frontend-session/internal/core/session"
)

const (
	ctxClientID = "client_id"
	ctxStore    = "session_store"
)

// StoreResolver hands out the session store of a client.
type StoreResolver interface {
	Get(clientID string) *session.Store
}

// CookieConfig describes the client cookie.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// Client identifies the browser by its client cookie, issuing a new one when
// it is missing or malformed, and puts the client's session store in the
// context.
func Client(stores StoreResolver, cookie CookieConfig) echo.MiddlewareFunc {
	if cookie.Name == "" {
		cookie.Name = "mh_client"
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			clientID := ""
			if ck, err := c.Cookie(cookie.Name); err == nil {
				if id, err := uuid.Parse(ck.Value); err == nil {
					clientID = id.String()
				}
			}
			if clientID == "" {
				clientID = uuid.NewString()
			}

			// Refreshed on every request so the cookie outlives idle periods.
			c.SetCookie(&http.Cookie{
				Name:     cookie.Name,
				Value:    clientID,
				Path:     "/",
				MaxAge:   int(cookie.MaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   cookie.Secure,
			})

			c.Set(ctxClientID, clientID)
			c.Set(ctxStore, stores.Get(clientID))
			return next(c)
		}
	}
}

// StoreFrom returns the session store put in the context by Client.
func StoreFrom(c echo.Context) (*session.Store, bool) {
	s, ok := c.Get(ctxStore).(*session.Store)
	return s, ok && s != nil
}

// ClientID returns the client ID put in the context by Client.
func ClientID(c echo.Context) string {
	id, _ := c.Get(ctxClientID).(string)
	return id
}
