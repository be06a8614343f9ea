// Package guard decides, for each navigation, whether a view is rendered or
// the visitor is sent somewhere else.
package guard

import (
	"slices"

	"github.com/moviehub/frontend-session/internal/core/domain"
)

// Outcome is the kind of decision Evaluate makes.
type Outcome int

const (
	// Loading means the session is still initializing. Callers show a
	// placeholder and evaluate again once the session changes.
	Loading Outcome = iota
	Render
	RedirectToLogin
	RedirectToRoleHome
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Render:
		return "render"
	case RedirectToLogin:
		return "redirect_login"
	case RedirectToRoleHome:
		return "redirect_role_home"
	}
	return "unknown"
}

// Decision is the result of evaluating a navigation.
type Decision struct {
	Outcome Outcome
	// Location is where to send the visitor for redirect outcomes.
	Location string
	// From is the attempted path, set when redirecting to login.
	From string
}

// Requirement describes what a view needs. An empty Roles set admits any
// authenticated user.
type Requirement struct {
	Roles       []domain.Role
	RequireAuth bool
}

// Require returns a Requirement for a view that needs a logged-in user with
// one of roles.
func Require(roles ...domain.Role) Requirement {
	return Requirement{Roles: roles, RequireAuth: true}
}

// Public returns a Requirement for a view open to anonymous visitors. When
// roles are given, logged-in users outside them are still sent home.
func Public(roles ...domain.Role) Requirement {
	return Requirement{Roles: roles}
}

// Allows reports whether role satisfies the role set of r.
func (r Requirement) Allows(role domain.Role) bool {
	return len(r.Roles) == 0 || slices.Contains(r.Roles, role)
}

// Evaluate is a pure function of its inputs. Initialization is checked
// before authentication so a restoring session never flashes a login
// redirect.
func Evaluate(snap domain.Snapshot, req Requirement, path string) Decision {
	if snap.IsInitializing {
		return Decision{Outcome: Loading}
	}
	if req.RequireAuth && !snap.IsAuthenticated {
		return Decision{Outcome: RedirectToLogin, Location: LoginLocation(path), From: path}
	}
	if snap.CurrentUser != nil && !req.Allows(snap.CurrentUser.Role) {
		return Decision{Outcome: RedirectToRoleHome, Location: RoleHome(snap.CurrentUser.Role)}
	}
	return Decision{Outcome: Render}
}
