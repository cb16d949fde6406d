package models

// Role is the marketplace side a user currently acts on.
type Role string

const (
	RoleTaker    Role = "taker"
	RoleProvider Role = "provider"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleTaker || r == RoleProvider
}
