package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/moviehub/frontend-session/internal/core/domain"
	"github.com/moviehub/frontend-session/internal/core/ports"
)

// FallbackAuthService asks primary first and only turns to secondary when
// primary is unreachable. A credential rejection from primary is final.
type FallbackAuthService struct {
	primary   ports.AuthService
	secondary ports.AuthService
	log       zerolog.Logger
	onFall    func(op string)
}

func NewFallbackAuthService(primary, secondary ports.AuthService, log zerolog.Logger) *FallbackAuthService {
	return &FallbackAuthService{primary: primary, secondary: secondary, log: log}
}

// OnFallback registers fn to be called, with the operation name, every time
// secondary is used.
func (s *FallbackAuthService) OnFallback(fn func(op string)) *FallbackAuthService {
	s.onFall = fn
	return s
}

func (s *FallbackAuthService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	res, err := s.primary.Login(ctx, email, password)
	if !s.shouldFallBack("login", err) {
		return res, err
	}
	return s.secondary.Login(ctx, email, password)
}

func (s *FallbackAuthService) Signup(ctx context.Context, data domain.SignupData) (*domain.AuthResult, error) {
	res, err := s.primary.Signup(ctx, data)
	if !s.shouldFallBack("signup", err) {
		return res, err
	}
	return s.secondary.Signup(ctx, data)
}

func (s *FallbackAuthService) shouldFallBack(op string, err error) bool {
	if err == nil || !errors.Is(err, domain.ErrAuthUnavailable) {
		return false
	}
	s.log.Warn().Err(err).Str("op", op).Msg("auth backend unavailable, using local directory")
	if s.onFall != nil {
		s.onFall(op)
	}
	return true
}
