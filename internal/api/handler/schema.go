package handler

import (
	"reflect"
	"strings"

	"github.com/moviehub/frontend-session/internal/core/domain"
)

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	// From is the path the visitor was sent away from, if any.
	From string `json:"from"`
}

type signupRequest struct {
	FirstName string `json:"firstName" validate:"required,min=2,max=50"`
	LastName  string `json:"lastName"  validate:"required,min=2,max=50"`
	Email     string `json:"email"     validate:"required,email"`
	Phone     string `json:"phone"     validate:"omitempty,phone"`
	Password  string `json:"password"  validate:"required,min=8,password"`
	Role      string `json:"role"      validate:"omitempty,oneof=CUSTOMER THEATER_OWNER"`
	From      string `json:"from"`
}

func (r signupRequest) toDomain() domain.SignupData {
	return domain.SignupData{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Password:  r.Password,
		Phone:     r.Phone,
		Role:      domain.Role(r.Role),
	}
}

type authResponse struct {
	User       *domain.User `json:"user"`
	RedirectTo string       `json:"redirectTo"`
}

type sessionResponse struct {
	domain.Snapshot
	Home string `json:"home,omitempty"`
}

type viewResponse struct {
	View string       `json:"view"`
	User *domain.User `json:"user,omitempty"`
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}
