package ports

import (
	"context"

	"github.com/moviehub/frontend-session/internal/core/domain"
)

// UserRepository is the user directory behind the local authentication service.
type UserRepository interface {
	// FindByEmail matches the email case-insensitively.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// Create assigns the ID and returns the stored user.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
