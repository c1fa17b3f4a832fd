package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/bookstore-backoffice/internal/apperror"
)

func TestIssueAndParse(t *testing.T) {
	// Arrange
	manager := NewTokenManager("secret", time.Hour)

	// Act
	token, issued, err := manager.Issue("u-1", "ana@example.com")
	require.NoError(t, err)
	claims, err := manager.Parse(token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, issued.TokenID(), claims.TokenID())
	assert.NotEmpty(t, claims.TokenID())
}

func TestParseExpiredToken(t *testing.T) {
	manager := NewTokenManager("secret", time.Minute)
	manager.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	token, _, err := manager.Issue("u-1", "ana@example.com")
	require.NoError(t, err)

	manager.now = time.Now
	_, err = manager.Parse(token)

	assert.True(t, apperror.Is(err, apperror.KindAuthentication))
	assert.EqualError(t, err, "Token has expired")
}

func TestParseRejectsForeignTokens(t *testing.T) {
	manager := NewTokenManager("secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)
	forged, _, err := other.Issue("u-1", "ana@example.com")
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"id": "u-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for _, token := range []string{forged, unsigned, "not-a-token"} {
		_, err := manager.Parse(token)
		assert.EqualError(t, err, "Invalid token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestNoopSessionStore(t *testing.T) {
	ctx := context.Background()
	var store SessionStore = NoopSessionStore{}

	require.NoError(t, store.Save(ctx, "jti", "u-1", time.Minute))
	require.NoError(t, store.Revoke(ctx, "jti"))
	active, err := store.Active(ctx, "jti")

	assert.NoError(t, err)
	assert.True(t, active)
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "bookstore:session:abc", sessionKey("abc"))
}
