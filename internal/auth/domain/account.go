package domain

import "time"

// Account is a stored principal with its credentials.
type Account struct {
	ID           string
	Kind         PrincipalKind
	Email        string
	Name         string
	PasswordHash string // argon2id PHC string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal strips the credentials.
func (a Account) Principal() Principal {
	return Principal{ID: a.ID, Email: a.Email, Role: a.Kind.Role()}
}
