package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nyapix/internal/models"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer([]byte("secret"), time.Hour)

	token, err := issuer.Issue(42, models.RoleAdmin)
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "42", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestParseRejects(t *testing.T) {
	issuer := NewIssuer([]byte("secret"), time.Hour)

	expired, err := NewIssuer([]byte("secret"), -time.Minute).Issue(1, models.RoleUser)
	require.NoError(t, err)
	otherKey, err := NewIssuer([]byte("other"), time.Hour).Issue(1, models.RoleUser)
	require.NoError(t, err)
	anonymous, err := issuer.Issue(0, models.RoleUser)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: 1,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":        "not-a-token",
		"expired":        expired,
		"other key":      otherKey,
		"no user":        anonymous,
		"none algorithm": noneAlg,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Parse(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestRandomSecret(t *testing.T) {
	a, err := RandomSecret()
	require.NoError(t, err)
	b, err := RandomSecret()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestViewer(t *testing.T) {
	anon := Viewer{}
	user := Viewer{ID: 3, Role: models.RoleUser}
	admin := Viewer{ID: 9, Role: models.RoleAdmin}

	assert.True(t, anon.Anonymous())
	assert.False(t, anon.IsAdmin())
	assert.False(t, anon.CanModify(0), "anonymous must not own id 0 items")

	assert.True(t, user.CanModify(3))
	assert.False(t, user.CanModify(4))
	assert.True(t, admin.CanModify(4))
	assert.False(t, Viewer{Role: models.RoleAdmin}.IsAdmin())
}
