package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueThenParseRoundTrips(t *testing.T) {
	issuer := NewJWTIssuer("test-secret", time.Hour)
	token, err := issuer.Issue("local-1", "ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	localID, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "local-1", localID)
}

func TestParseRejectsEmptyToken(t *testing.T) {
	issuer := NewJWTIssuer("test-secret", time.Hour)
	_, err := issuer.Parse("")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseRejectsGarbageToken(t *testing.T) {
	issuer := NewJWTIssuer("test-secret", time.Hour)
	_, err := issuer.Parse("not-a-real-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseRejectsTokenFromDifferentSecret(t *testing.T) {
	issuer := NewJWTIssuer("secret-a", time.Hour)
	token, err := issuer.Issue("local-1", "ada@example.com")
	require.NoError(t, err)

	other := NewJWTIssuer("secret-b", time.Hour)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuer := NewJWTIssuer("test-secret", -time.Minute)
	token, err := issuer.Issue("local-1", "ada@example.com")
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
