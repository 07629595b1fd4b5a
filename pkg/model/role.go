package model

import "fmt"

// Role identifies which dashboard and API subset a session may access.
type Role string

const (
	// RolePatient books appointments and reads their own records.
	RolePatient Role = "patient"
	// RoleDoctor manages their appointments and writes prescriptions.
	RoleDoctor Role = "doctor"
	// RoleAdmin manages patients, doctors, and appointments clinic-wide.
	RoleAdmin Role = "admin"
)

// Roles returns every known role in display order.
func Roles() []Role {
	return []Role{RolePatient, RoleDoctor, RoleAdmin}
}

// ParseRole converts a string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q (expected patient, doctor, or admin)", s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// DashboardPath returns the route of the role's dashboard, e.g. "/doctor-dashboard".
func (r Role) DashboardPath() string {
	return "/" + string(r) + "-dashboard"
}

// IdentifierLabel is what the login identifier is called for this role.
func (r Role) IdentifierLabel() string {
	if r == RoleAdmin {
		return "Username"
	}
	return "Email"
}

func (r Role) String() string {
	return string(r)
}
