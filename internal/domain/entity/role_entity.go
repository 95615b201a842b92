package entity

import "fmt"

// Role is the privilege level of an account. It is a closed enumeration;
// the database constrains the column to the same four values.
type Role string

const (
	RoleAnonymous     Role = "ANONYMOUS"
	RoleAuthenticated Role = "AUTHENTICATED"
	RoleManager       Role = "MANAGER"
	RoleAdmin         Role = "ADMIN"
)

// AllRoles lists every representable role, ordered by increasing privilege.
func AllRoles() []Role {
	return []Role{RoleAnonymous, RoleAuthenticated, RoleManager, RoleAdmin}
}

func (r Role) Valid() bool {
	switch r {
	case RoleAnonymous, RoleAuthenticated, RoleManager, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole converts a raw string into a Role, rejecting anything outside
// the enumeration.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return r, nil
}
