package session

import (
	"errors"
	"fmt"

	"github.com/me/clinic/pkg/model"
)

// ErrRegistrationNotSupported is returned by Register for roles that cannot
// self-register (admin).
var ErrRegistrationNotSupported = errors.New("registration is not available for this role")

// Strategy describes how one role authenticates against the backend.
type Strategy struct {
	Role         model.Role
	LoginPath    string
	RegisterPath string // empty when the role cannot register

	// LoginBody builds the request body the role's login endpoint expects.
	LoginBody func(model.Credentials) any
}

func emailLogin(c model.Credentials) any {
	return map[string]string{"email": c.Identifier, "password": c.Password}
}

func usernameLogin(c model.Credentials) any {
	return map[string]string{"username": c.Identifier, "password": c.Password}
}

var strategies = map[model.Role]Strategy{
	model.RolePatient: {
		Role:         model.RolePatient,
		LoginPath:    "/patient/login",
		RegisterPath: "/patient/register",
		LoginBody:    emailLogin,
	},
	model.RoleDoctor: {
		Role:         model.RoleDoctor,
		LoginPath:    "/doctor/login",
		RegisterPath: "/doctor/register",
		LoginBody:    emailLogin,
	},
	model.RoleAdmin: {
		Role:      model.RoleAdmin,
		LoginPath: "/admin/login",
		LoginBody: usernameLogin,
	},
}

// StrategyFor returns the authentication strategy for role.
func StrategyFor(role model.Role) (Strategy, error) {
	s, ok := strategies[role]
	if !ok {
		return Strategy{}, fmt.Errorf("invalid role %q", role)
	}
	return s, nil
}
