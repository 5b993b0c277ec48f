package domain

import "fmt"

// Role is the closed set of roles a principal can hold.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// PrincipalKind selects which account and refresh-token tables a principal
// lives in. Both kinds share one token pipeline.
type PrincipalKind string

const (
	KindCustomer PrincipalKind = "customer"
	KindAdmin    PrincipalKind = "admin"
)

// Kinds lists every principal kind.
var Kinds = []PrincipalKind{KindCustomer, KindAdmin}

// ParseKind maps the path segment used by the HTTP surface ("user" or
// "admin") or the kind name itself to a PrincipalKind.
func ParseKind(s string) (PrincipalKind, error) {
	switch s {
	case "user", string(KindCustomer):
		return KindCustomer, nil
	case string(KindAdmin):
		return KindAdmin, nil
	default:
		return "", fmt.Errorf("domain: unknown principal kind %q", s)
	}
}

// Role is the role granted to principals of this kind.
func (k PrincipalKind) Role() Role {
	if k == KindAdmin {
		return RoleAdmin
	}
	return RoleCustomer
}

// KindForRole is the inverse of PrincipalKind.Role.
func KindForRole(r Role) PrincipalKind {
	if r == RoleAdmin {
		return KindAdmin
	}
	return KindCustomer
}

// Principal is the identity a token is issued to.
type Principal struct {
	ID    string
	Email string
	Role  Role
}

// Kind reports which store the principal belongs to.
func (p Principal) Kind() PrincipalKind {
	return KindForRole(p.Role)
}
