package auth

// Guard decides whether a resolved identity may act on a resource.
type Guard struct {
	adminBypass bool
}

// NewGuard builds a guard. With adminBypass, admins pass ownership checks on any resource.
func NewGuard(adminBypass bool) *Guard {
	return &Guard{adminBypass: adminBypass}
}

// AuthorizeOwner is true iff the identity owns the resource (or is an admin with bypass enabled).
func (g *Guard) AuthorizeOwner(id Identity, ownerID string) bool {
	if id.UserID == "" || ownerID == "" {
		return false
	}

	if id.UserID == ownerID {
		return true
	}

	return g.adminBypass && id.IsAdmin()
}

// AuthorizeSelfOrAdmin gates User resources: a user may act on their own record, admins on any.
func (g *Guard) AuthorizeSelfOrAdmin(id Identity, userID string) bool {
	if id.UserID == "" {
		return false
	}

	return id.UserID == userID || id.IsAdmin()
}

func (g *Guard) RequireOwner(id Identity, ownerID string) error {
	if !g.AuthorizeOwner(id, ownerID) {
		return ErrForbidden
	}
	return nil
}

func (g *Guard) RequireSelfOrAdmin(id Identity, userID string) error {
	if !g.AuthorizeSelfOrAdmin(id, userID) {
		return ErrForbidden
	}
	return nil
}
