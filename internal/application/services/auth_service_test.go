package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/planner/internal/infrastructure/config"
	"github.com/taskmaster/planner/internal/infrastructure/logger"
)

func testSecurity() config.SecurityConfig {
	return config.SecurityConfig{
		JWTSecret:    "0123456789abcdef0123",
		JWTIssuer:    "planner",
		JWTExpiresIn: time.Hour,
	}
}

func TestAuthServiceRoundTrip(t *testing.T) {
	auth := NewAuthService(testSecurity(), logger.NewNop())
	require.True(t, auth.Enabled())

	token, expiresAt, err := auth.IssueToken("phone")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "phone", claims.Client)
	assert.Equal(t, "phone", claims.Subject)
}

func TestAuthServiceRejectsForeignTokens(t *testing.T) {
	auth := NewAuthService(testSecurity(), logger.NewNop())

	other := testSecurity()
	other.JWTSecret = "another-secret-entirely"
	token, _, err := NewAuthService(other, logger.NewNop()).IssueToken("intruder")
	require.NoError(t, err)

	_, err = auth.ValidateToken(token)
	assert.Error(t, err)

	_, err = auth.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestAuthServiceRejectsExpiredTokens(t *testing.T) {
	auth := NewAuthService(testSecurity(), logger.NewNop())
	auth.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := auth.IssueToken("old")
	require.NoError(t, err)

	auth.now = time.Now
	_, err = auth.ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthServiceDisabled(t *testing.T) {
	auth := NewAuthService(config.SecurityConfig{}, logger.NewNop())
	assert.False(t, auth.Enabled())

	_, _, err := auth.IssueToken("x")
	assert.True(t, errors.Is(err, ErrAuthDisabled))
}
