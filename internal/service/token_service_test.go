package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-scheduler/internal/models"
	appErrors "github.com/noah-isme/timetable-scheduler/pkg/errors"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "timetable"}, nil)

	token, expiresAt, err := svc.Issue("u-1", "Pat Planner", models.RolePlanner)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RolePlanner, claims.Role)
	assert.Equal(t, "timetable", claims.Issuer)
}

func TestTokenServiceRejectsForeignSecretAndExpiry(t *testing.T) {
	issuer := NewTokenService(TokenConfig{Secret: "other"}, nil)
	token, _, err := issuer.Issue("u-1", "", models.RoleViewer)
	require.NoError(t, err)

	svc := NewTokenService(TokenConfig{Secret: "secret"}, nil)
	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	expired := NewTokenService(TokenConfig{Secret: "secret", Expiry: time.Minute}, nil)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := expired.Issue("u-1", "", models.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.ValidateToken(stale)
	assert.Error(t, err)
}

func TestTokenServiceRejectsOtherAlgorithms(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret"}, nil)
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, &models.JWTClaims{UserID: "u-1", Role: models.RoleAdmin})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)

	_, _, err = svc.Issue("u-1", "", models.UserRole("ROOT"))
	assert.Error(t, err)
}
