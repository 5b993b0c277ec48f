package store

import "github.com/aussiebroadwan/shopauth/internal/auth/domain"

// Tables returns the account and refresh-token table names for kind. SQL
// drivers interpolate these into statements, so they must never come from
// user input.
func Tables(kind domain.PrincipalKind) (accounts, refreshTokens string) {
	if kind == domain.KindAdmin {
		return "admins", "admin_tokens"
	}
	return "customers", "refresh_tokens"
}
