package gate

// Role is a single platform role. Roles arrive from the platform database as
// strings; converting them once keeps the rest of the gate free of raw
// string comparisons.
type Role string

// RoleSet is a set of roles used for membership checks.
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from role names.
func NewRoleSet(names ...string) RoleSet {
	s := make(RoleSet, len(names))
	for _, n := range names {
		s[Role(n)] = struct{}{}
	}
	return s
}

// Contains reports whether the set holds the given role.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

// IsAdminLike reports whether any of the given roles belongs to the
// privileged set. Only users passing this check may complete the face-gated
// login path.
func (s RoleSet) IsAdminLike(roles []string) bool {
	for _, r := range roles {
		if s.Contains(Role(r)) {
			return true
		}
	}
	return false
}
