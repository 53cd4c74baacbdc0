package models

import "strings"

// Role is the coarse account type carried in the session claim.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStandard Role = "standard"
)

// ParseRole maps a stored or claimed role string to a Role. Surrounding
// whitespace and case are ignored; anything other than admin is standard.
func ParseRole(raw string) Role {
	if strings.EqualFold(strings.TrimSpace(raw), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleStandard
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStandard
}

func (r Role) String() string { return string(r) }
