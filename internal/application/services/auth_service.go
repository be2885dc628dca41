package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskmaster/planner/internal/infrastructure/config"
	"github.com/taskmaster/planner/internal/infrastructure/logger"
)

// ErrAuthDisabled is returned when no signing secret is configured
var ErrAuthDisabled = errors.New("authentication is not configured")

// Claims represents the JWT claims
type Claims struct {
	Client string `json:"client"`
	jwt.RegisteredClaims
}

// AuthService issues and validates bearer tokens for API clients
type AuthService struct {
	cfg    config.SecurityConfig
	logger *logger.Logger
	now    func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(cfg config.SecurityConfig, logger *logger.Logger) *AuthService {
	return &AuthService{
		cfg:    cfg,
		logger: logger.WithComponent("auth"),
		now:    time.Now,
	}
}

// Enabled reports whether requests must carry a token
func (s *AuthService) Enabled() bool {
	return s.cfg.AuthEnabled()
}

// IssueToken signs a token for the named client
func (s *AuthService) IssueToken(client string) (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, ErrAuthDisabled
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.JWTExpiresIn)
	claims := &Claims{
		Client: client,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.cfg.JWTIssuer,
			Subject:   client,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Infow("Token issued", "client", client, "expires_at", expiresAt.UTC().Format(time.RFC3339))
	return tokenString, expiresAt, nil
}

// ValidateToken validates a JWT token and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	if !s.Enabled() {
		return nil, ErrAuthDisabled
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithIssuer(s.cfg.JWTIssuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
