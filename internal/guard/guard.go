// Package guard decides whether a role-scoped view may render for the
// current session. It holds no state and is evaluated on every navigation.
package guard

import "github.com/me/clinic/pkg/model"

// LoginPath is the route of the login view.
const LoginPath = "/login"

// Kind is the outcome of a guard decision.
type Kind int

const (
	// Loading means the persisted session is still being restored; no
	// redirect decision can be made yet.
	Loading Kind = iota
	// Redirect sends the navigation to Decision.Target instead.
	Redirect
	// Allow renders the requested view.
	Allow
)

func (k Kind) String() string {
	switch k {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	case Allow:
		return "allow"
	}
	return "unknown"
}

// Input is what the guard knows about one navigation.
type Input struct {
	Authenticated bool
	CurrentRole   model.Role
	RequiredRole  model.Role // empty when any authenticated role may view
	Loading       bool
}

// InputFor builds an Input from a session snapshot.
func InputFor(sess model.Session, loading bool, required model.Role) Input {
	return Input{
		Authenticated: sess.IsAuthenticated(),
		CurrentRole:   sess.Role(),
		RequiredRole:  required,
		Loading:       loading,
	}
}

// Decision is the result of Decide or Resolve.
type Decision struct {
	Kind   Kind
	Target string // route rendered (Allow) or redirected to (Redirect)
}

// Decide gates a protected view. A role mismatch redirects to the login
// view, not to the user's own dashboard.
func Decide(in Input) Decision {
	switch {
	case in.Loading:
		return Decision{Kind: Loading}
	case !in.Authenticated:
		return Decision{Kind: Redirect, Target: LoginPath}
	case in.RequiredRole != "" && in.CurrentRole != in.RequiredRole:
		return Decision{Kind: Redirect, Target: LoginPath}
	default:
		return Decision{Kind: Allow}
	}
}
