package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/localmart/localmart-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundtrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")

	for _, ident := range []Identity{
		{Role: model.RoleUser, ID: 1},
		{Role: model.RoleSeller, ID: 1},
		{Role: model.RoleUser, ID: 18446744073709551615},
	} {
		token, err := issuer.Issue(ident)
		require.NoError(t, err)

		got, err := issuer.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, ident, got)
	}
}

func TestIssueRejectsIncompleteIdentity(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")

	_, err := issuer.Issue(Identity{Role: model.RoleUser, ID: 0})
	assert.Error(t, err)

	_, err = issuer.Issue(Identity{Role: "admin", ID: 1})
	assert.Error(t, err)
}

func TestParseRejectsBadTokens(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")

	_, err := issuer.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Signed with a different secret.
	other := NewTokenIssuer("other-secret")
	token, err := other.Issue(Identity{Role: model.RoleUser, ID: 3})
	require.NoError(t, err)
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	secret := []byte("test-secret")
	c := claims{
		Role: string(model.RoleUser),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "3",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	require.NoError(t, err)

	issuer := NewTokenIssuer("test-secret")
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsBadClaims(t *testing.T) {
	secret := []byte("test-secret")
	issuer := NewTokenIssuer("test-secret")

	tests := []struct {
		name    string
		subject string
		role    string
	}{
		{"non-numeric subject", "abc", string(model.RoleUser)},
		{"zero subject", "0", string(model.RoleUser)},
		{"unknown role", "3", "admin"},
		{"missing role", "3", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := claims{
				Role: tt.role,
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   tt.subject,
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
			}
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
			require.NoError(t, err)
			_, err = issuer.Parse(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestIdentityString(t *testing.T) {
	assert.Equal(t, "user:7", Identity{Role: model.RoleUser, ID: 7}.String())
	assert.Equal(t, "seller:7", Identity{Role: model.RoleSeller, ID: 7}.String())
}
