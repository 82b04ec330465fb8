package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placement-storefront/models"
)

func TestValidateToken_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", "placement-auth")
	token, err := svc.GenerateToken(models.Identity{
		ID:              "u1",
		Name:            "Asha",
		Email:           "asha@example.com",
		Mobile:          "9876543210",
		EnrolledCourses: []string{"a"},
	}, time.Hour)
	require.NoError(t, err)

	identity, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.ID)
	assert.Equal(t, "9876543210", identity.ContactPhone())
	assert.True(t, identity.IsEnrolled("a"))
}

func TestValidateToken_Rejects(t *testing.T) {
	svc := NewJWTService("secret", "placement-auth")

	expired, err := svc.GenerateToken(models.Identity{ID: "u1"}, -time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrTokenExpired)

	other, err := NewJWTService("other", "placement-auth").GenerateToken(models.Identity{ID: "u1"}, time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := NewJWTService("secret", "someone-else").GenerateToken(models.Identity{ID: "u1"}, time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(wrongIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
