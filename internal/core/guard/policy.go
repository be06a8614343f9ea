package guard

import (
	"net/url"
	"strings"

	"github.com/moviehub/frontend-session/internal/core/domain"
)

// LoginPath is the public login view.
const LoginPath = "/login"

// RoleHome returns the landing path for role. Unknown roles land on the
// login view.
func RoleHome(role domain.Role) string {
	switch role {
	case domain.RoleCustomer:
		return "/customer"
	case domain.RoleTheaterOwner:
		return "/theater-owner"
	case domain.RoleAdmin:
		return "/admin"
	case domain.RoleSuperAdmin:
		return "/super-admin"
	}
	return LoginPath
}

// PostLoginDestination returns where to send user after a successful login
// or signup: back to from when it is a usable local path, otherwise the
// role's home.
func PostLoginDestination(user *domain.User, from string) string {
	if isLocalPath(from) {
		return from
	}
	if user == nil {
		return LoginPath
	}
	return RoleHome(user.Role)
}

// LoginLocation is the login view carrying from as the return path.
func LoginLocation(from string) string {
	if !isLocalPath(from) {
		return LoginPath
	}
	return LoginPath + "?from=" + url.QueryEscape(from)
}

// isLocalPath rejects empty values, absolute and scheme-relative URLs, and
// the login view itself.
func isLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, `\`) {
		return false
	}
	u, err := url.Parse(p)
	if err != nil || u.IsAbs() || u.Host != "" {
		return false
	}
	return u.Path != LoginPath
}
