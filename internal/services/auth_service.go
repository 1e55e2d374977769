package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/slippymap/slippy-backend/internal/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid password")
	ErrAuthNotConfigured  = errors.New("admin password hash not configured")
)

// AuthService issues admin session tokens. There is a single admin identity
// authenticated by a bcrypt hash from the environment; no user table.
type AuthService struct {
	cfg *config.Config
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg}
}

// Login verifies the admin password and returns a signed access token.
func (s *AuthService) Login(password string) (string, time.Time, error) {
	if s.cfg.AdminPasswordHash == "" {
		return "", time.Time{}, ErrAuthNotConfigured
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.cfg.JWTAccessExpiry)
	claims := jwt.MapClaims{
		"sub":  "admin",
		"role": "admin",
		"iat":  time.Now().Unix(),
		"exp":  expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
