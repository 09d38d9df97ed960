// internal/middleware/auth.go
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"librarium/internal/httpjson"
	"librarium/internal/identity"
)

// Authenticator resolves bearer tokens into a request-scoped principal.
type Authenticator struct {
	tokens   *TokenManager
	identity identity.Service
}

func NewAuthenticator(tokens *TokenManager, identitySvc identity.Service) *Authenticator {
	return &Authenticator{tokens: tokens, identity: identitySvc}
}

// Authenticate verifies the Authorization header, loads the caller's profile
// and stamps its last-activity timestamp. Requests without a valid token get
// a 401.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			httpjson.Error(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		accountID, claims, err := a.tokens.Verify(tokenString)
		if err != nil {
			httpjson.Error(w, http.StatusUnauthorized, err.Error())
			return
		}

		ctx := r.Context()
		principal := &identity.Principal{AccountID: accountID}
		if claims.IsStaff {
			staff, err := a.identity.StaffByAccount(ctx, accountID)
			if err != nil {
				httpjson.Error(w, http.StatusUnauthorized, "unknown staff account")
				return
			}
			principal.Staff = staff
		} else {
			member, err := a.identity.MemberByAccount(ctx, accountID)
			if err != nil {
				httpjson.Error(w, http.StatusUnauthorized, "unknown member account")
				return
			}
			principal.Member = member
		}

		// Every authenticated request counts as activity; failures must not
		// break the request itself.
		if err := a.identity.TouchActivity(ctx, accountID); err != nil {
			slog.Warn("touch activity failed", "account_id", accountID, "err", err)
		}

		next.ServeHTTP(w, r.WithContext(identity.WithPrincipal(ctx, principal)))
	})
}

// RequireStaff gates staff-only routes. Access control here is deliberately
// soft: an authenticated member who wanders into a staff URL is redirected to
// their own summary page instead of receiving a hard error.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := identity.PrincipalFrom(r.Context())
		if !ok {
			httpjson.Error(w, http.StatusUnauthorized, "unauthenticated")
			return
		}
		if !principal.IsStaff() {
			http.Redirect(w, r, "/api/v1/me/summary", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
