package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/moviehub/frontend-session/internal/core/domain"
	"github.com/moviehub/frontend-session/internal/core/ports"
)

const defaultTokenTTL = 24 * time.Hour

// AuthService authenticates against a local user directory and issues
// HS256 tokens. It serves the session when the backend cannot.
type AuthService struct {
	repo      ports.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	cost      int
	now       func() time.Time
}

func NewAuthService(repo ports.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{
		repo:      repo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		cost:      bcrypt.DefaultCost,
		now:       time.Now,
	}
}

// WithBcryptCost sets the hashing cost used by Signup. Tests lower it.
func (s *AuthService) WithBcryptCost(cost int) *AuthService {
	s.cost = cost
	return s
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.ErrEmptyCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, domain.ErrAccountDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(user)
}

// Signup registers a new account. Only customers and theater owners may
// register themselves; the role defaults to customer.
func (s *AuthService) Signup(ctx context.Context, data domain.SignupData) (*domain.AuthResult, error) {
	email := strings.TrimSpace(data.Email)
	if email == "" || data.Password == "" {
		return nil, domain.ErrEmptyCredentials
	}

	role := data.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	switch role {
	case domain.RoleCustomer, domain.RoleTheaterOwner:
	case domain.RoleAdmin, domain.RoleSuperAdmin:
		return nil, domain.ErrForbiddenRole
	default:
		return nil, domain.ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(data.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.Create(ctx, &domain.User{
		FirstName:    strings.TrimSpace(data.FirstName),
		LastName:     strings.TrimSpace(data.LastName),
		Email:        email,
		Phone:        strings.TrimSpace(data.Phone),
		Role:         role,
		Active:       true,
		CreatedAt:    s.now().UTC(),
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}

	return s.issue(created)
}

// ValidateToken checks a token issued by this service and returns the
// current record of its user.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !tkn.Valid {
		return nil, domain.ErrInvalidToken
	}

	id, ok := claims["userId"].(float64)
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	user, err := s.repo.FindByID(ctx, int64(id))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	if !user.Active {
		return nil, domain.ErrAccountDisabled
	}
	return public(user), nil
}

func (s *AuthService) issue(user *domain.User) (*domain.AuthResult, error) {
	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &domain.AuthResult{User: public(user), Token: token}, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"userId": user.ID,
		"email":  user.Email,
		"role":   string(user.Role),
		"exp":    s.now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

// public strips the password hash before a user leaves the service.
func public(u *domain.User) *domain.User {
	c := u.Clone()
	c.PasswordHash = ""
	return c
}
