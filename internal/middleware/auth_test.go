// internal/middleware/auth_test.go
package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarium/internal/identity"
)

// stubIdentity serves canned profiles for the middleware tests.
type stubIdentity struct {
	identity.Service

	member *identity.Member
	staff  *identity.Staff
	// accounts seen by TouchActivity
	touched []uuid.UUID
}

func (s *stubIdentity) MemberByAccount(_ context.Context, accountID uuid.UUID) (*identity.Member, error) {
	if s.member == nil || s.member.AccountID != accountID {
		return nil, identity.ErrMemberNotFound
	}
	return s.member, nil
}

func (s *stubIdentity) StaffByAccount(_ context.Context, accountID uuid.UUID) (*identity.Staff, error) {
	if s.staff == nil || s.staff.AccountID != accountID {
		return nil, identity.ErrStaffNotFound
	}
	return s.staff, nil
}

func (s *stubIdentity) TouchActivity(_ context.Context, accountID uuid.UUID) error {
	s.touched = append(s.touched, accountID)
	return nil
}

func principalEcho(t *testing.T, got **identity.Principal) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := identity.PrincipalFrom(r.Context())
		require.True(t, ok)
		*got = principal
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateLoadsMemberPrincipal(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)
	accountID := uuid.New()
	stub := &stubIdentity{member: &identity.Member{ID: uuid.New(), AccountID: accountID}}
	auth := NewAuthenticator(tokens, stub)

	token, err := tokens.Issue(accountID, false)
	require.NoError(t, err)

	var got *identity.Principal
	srv := auth.Authenticate(principalEcho(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans/mine", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, accountID, got.AccountID)
	require.NotNil(t, got.Member)
	assert.False(t, got.IsStaff())
	assert.Equal(t, []uuid.UUID{accountID}, stub.touched)
}

func TestAuthenticateLoadsStaffPrincipal(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)
	accountID := uuid.New()
	stub := &stubIdentity{staff: &identity.Staff{ID: uuid.New(), AccountID: accountID}}
	auth := NewAuthenticator(tokens, stub)

	token, err := tokens.Issue(accountID, true)
	require.NoError(t, err)

	var got *identity.Principal
	srv := auth.Authenticate(principalEcho(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.True(t, got.IsStaff())
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)
	auth := NewAuthenticator(tokens, &stubIdentity{})
	srv := auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthenticateRejectsUnknownAccount(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)
	auth := NewAuthenticator(tokens, &stubIdentity{})

	token, err := tokens.Issue(uuid.New(), false)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireStaffRedirectsMembers(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Member principal gets bounced to their own summary, not an error.
	principal := &identity.Principal{AccountID: uuid.New(), Member: &identity.Member{}}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	req = req.WithContext(identity.WithPrincipal(req.Context(), principal))
	rec := httptest.NewRecorder()
	RequireStaff(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/api/v1/me/summary", rec.Header().Get("Location"))

	// Staff passes through.
	principal = &identity.Principal{AccountID: uuid.New(), Staff: &identity.Staff{}}
	req = httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	req = req.WithContext(identity.WithPrincipal(req.Context(), principal))
	rec = httptest.NewRecorder()
	RequireStaff(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// No principal at all is a hard 401.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	rec = httptest.NewRecorder()
	RequireStaff(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
