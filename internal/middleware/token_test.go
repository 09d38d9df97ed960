// internal/middleware/token_test.go
package middleware

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssueAndVerify(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	accountID := uuid.New()

	token, err := tm.Issue(accountID, true)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	gotID, claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, accountID, gotID)
	assert.True(t, claims.IsStaff)

	token, err = tm.Issue(accountID, false)
	require.NoError(t, err)
	_, claims, err = tm.Verify(token)
	require.NoError(t, err)
	assert.False(t, claims.IsStaff)
}

func TestTokenVerifyRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	_, _, err := tm.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = tm.Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Hour)
	verifier := NewTokenManager("secret-b", time.Hour)

	token, err := issuer.Issue(uuid.New(), false)
	require.NoError(t, err)

	_, _, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenVerifyRejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute)

	token, err := tm.Issue(uuid.New(), false)
	require.NoError(t, err)

	_, _, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
