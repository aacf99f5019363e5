package domain

// Principal is the authenticated caller of a request. It is resolved from a
// session cookie or a bearer token and carries only what authorization needs.
type Principal interface {
	ID() int64
	IsAdmin() bool
	IsApproved() bool
}

type principal struct {
	id       int64
	admin    bool
	approved bool
}

func (p principal) ID() int64        { return p.id }
func (p principal) IsAdmin() bool    { return p.admin }
func (p principal) IsApproved() bool { return p.approved }

func NewPrincipal(id int64, admin, approved bool) Principal {
	return principal{id: id, admin: admin, approved: approved}
}

// PrincipalOf snapshots the authorization flags of u.
func PrincipalOf(u *User) Principal {
	return principal{id: u.ID, admin: u.IsAdmin, approved: u.IsApproved}
}

// PassesApprovalGate reports whether p may enter protected areas: admins
// always, contributors only once approved.
func PassesApprovalGate(p Principal) bool {
	return p.IsAdmin() || p.IsApproved()
}
