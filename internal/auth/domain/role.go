// Package domain holds the user and role model of the auth bounded context.
package domain

// Role is one of the three dashboard roles. They form a strict hierarchy:
// dev > admin > vendedor. Permission checks compare ranks, never exact
// names — a dev can do anything an admin or vendedor can.
type Role string

const (
	RoleDev      Role = "dev"
	RoleAdmin    Role = "admin"
	RoleVendedor Role = "vendedor"
)

var roleRanks = map[Role]int{
	RoleVendedor: 1,
	RoleAdmin:    2,
	RoleDev:      3,
}

// ParseRole validates a role name. Unknown names yield ("", false).
func ParseRole(name string) (Role, bool) {
	role := Role(name)
	_, ok := roleRanks[role]
	return role, ok
}

// Rank returns the role's position in the hierarchy; unknown roles rank 0,
// below every defined role.
func (r Role) Rank() int {
	return roleRanks[r]
}

// AtLeast reports whether r ranks greater than or equal to other.
func (r Role) AtLeast(other Role) bool {
	return r.Rank() >= other.Rank()
}

// RoleRank adapts Rank for middleware that works on plain strings.
func RoleRank(name string) int {
	return Role(name).Rank()
}
