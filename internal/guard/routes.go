package guard

import "github.com/me/clinic/pkg/model"

// dashboards maps each protected route to the role allowed to view it.
var dashboards = func() map[string]model.Role {
	m := make(map[string]model.Role)
	for _, r := range model.Roles() {
		m[r.DashboardPath()] = r
	}
	return m
}()

// RequiredRole returns the role a route is restricted to, and whether the
// route is a protected dashboard at all.
func RequiredRole(path string) (model.Role, bool) {
	r, ok := dashboards[path]
	return r, ok
}

// Resolve routes a navigation to path. The login view is public but sends
// an authenticated user to their own dashboard; dashboards go through
// Decide; "/" and unknown paths land on the user's dashboard or the login
// view.
func Resolve(path string, in Input) Decision {
	if in.Loading {
		return Decision{Kind: Loading}
	}

	if role, ok := dashboards[path]; ok {
		in.RequiredRole = role
		d := Decide(in)
		if d.Kind == Allow {
			d.Target = path
		}
		return d
	}

	if in.Authenticated && in.CurrentRole.Valid() {
		return Decision{Kind: Redirect, Target: in.CurrentRole.DashboardPath()}
	}
	if path == LoginPath {
		return Decision{Kind: Allow, Target: LoginPath}
	}
	return Decision{Kind: Redirect, Target: LoginPath}
}
