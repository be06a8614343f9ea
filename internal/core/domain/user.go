package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of actors the frontend knows about.
type Role string

const (
	RoleCustomer     Role = "CUSTOMER"
	RoleTheaterOwner Role = "THEATER_OWNER"
	RoleAdmin        Role = "ADMIN"
	RoleSuperAdmin   Role = "SUPER_ADMIN"
)

var ErrInvalidRole = errors.New("invalid role")

// Roles returns every known role, least privileged first.
func Roles() []Role {
	return []Role{RoleCustomer, RoleTheaterOwner, RoleAdmin, RoleSuperAdmin}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleTheaterOwner, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	if r == "" {
		return "UNKNOWN"
	}
	return string(r)
}

// ParseRole accepts the wire representation of a role, case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, string(r))
	}
	return json.Marshal(string(r))
}

func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// User is the authenticated actor. Display fields are carried through the
// session untouched.
type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	PasswordHash string    `json:"-"`
}

// Clone returns a copy that shares no memory with u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// SignupData carries a self-registration request. Role is optional and
// defaults to RoleCustomer in the authentication service.
type SignupData struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
	Role      Role
}

// AuthResult is what the authentication service hands back on success.
type AuthResult struct {
	User  *User
	Token string
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmptyCredentials   = errors.New("email and password are required")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("an account with this email already exists")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrForbiddenRole      = errors.New("role cannot be self-assigned")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAuthUnavailable    = errors.New("authentication service unavailable")
)
