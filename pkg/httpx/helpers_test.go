package httpx_test

import (
	"net/http"

	"github.com/aussiebroadwan/shopauth/pkg/autherr"
	"github.com/aussiebroadwan/shopauth/pkg/jwtx"
)

// stubValidator maps raw tokens to claims or errors.
type stubValidator struct {
	tokens map[string]jwtx.Claims
	errs   map[string]error
}

func (s stubValidator) ValidateAccess(token string) (jwtx.Claims, error) {
	if err, ok := s.errs[token]; ok {
		return jwtx.Claims{}, err
	}
	if c, ok := s.tokens[token]; ok {
		return c, nil
	}
	return jwtx.Claims{}, autherr.InvalidToken(nil)
}

func newStubValidator() stubValidator {
	return stubValidator{
		tokens: map[string]jwtx.Claims{
			"customer-token": {PrincipalID: "cust-1", Role: "CUSTOMER", TokenKind: jwtx.KindAccess},
			"admin-token":    {PrincipalID: "admin-1", Role: "ADMIN", TokenKind: jwtx.KindAccess},
		},
		errs: map[string]error{
			"expired-token": autherr.ExpiredToken("old@example.com"),
		},
	}
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})
