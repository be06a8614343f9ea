package ports

import (
	"context"

	"github.com/moviehub/frontend-session/internal/core/domain"
)

// AuthService performs the credential check and account creation on behalf
// of a session. Errors carry a human-readable message.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*domain.AuthResult, error)
	Signup(ctx context.Context, data domain.SignupData) (*domain.AuthResult, error)
}

// TokenValidator resolves a previously issued token back to its user.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*domain.User, error)
}
