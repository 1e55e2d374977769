package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/slippymap/slippy-backend/internal/config"
)

func testAuthConfig(t *testing.T, password string) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &config.Config{
		JWTSecret:         "test-secret",
		JWTAccessExpiry:   time.Hour,
		AdminPasswordHash: string(hash),
	}
}

func TestAuthService_Login_IssuesAdminToken(t *testing.T) {
	svc := NewAuthService(testAuthConfig(t, "hunter2"))

	token, expiresAt, err := svc.Login("hunter2")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "admin", claims["role"])
	assert.Equal(t, "admin", claims["sub"])
}

func TestAuthService_Login_RejectsWrongPassword(t *testing.T) {
	svc := NewAuthService(testAuthConfig(t, "hunter2"))

	_, _, err := svc.Login("wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_RequiresConfiguredHash(t *testing.T) {
	svc := NewAuthService(&config.Config{JWTSecret: "test-secret"})

	_, _, err := svc.Login("anything")
	assert.ErrorIs(t, err, ErrAuthNotConfigured)
}
