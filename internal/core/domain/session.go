package domain

import "errors"

var (
	ErrSessionInitializing = errors.New("session is still initializing")
	ErrAttemptSuperseded   = errors.New("superseded by a newer session change")
	ErrPersistence         = errors.New("could not persist session")
)

// Snapshot is a read-only view of a session at one instant.
// IsAuthenticated implies CurrentUser != nil.
type Snapshot struct {
	CurrentUser     *User  `json:"currentUser,omitempty"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	IsInitializing  bool   `json:"isInitializing"`
	IsBusy          bool   `json:"isBusy"`
	LastError       string `json:"lastError,omitempty"`
}

// Role returns the current user's role, or the zero Role when nobody is
// logged in.
func (s Snapshot) Role() Role {
	if s.CurrentUser == nil {
		return ""
	}
	return s.CurrentUser.Role
}

// AuthError is returned by login and signup. Message is what the session
// exposes as LastError; Err keeps the cause for errors.Is.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Op + ": " + e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// UserMessager is implemented by errors that carry text meant for the user,
// such as a rejection message from the authentication backend.
type UserMessager interface {
	UserMessage() string
}
