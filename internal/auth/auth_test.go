// internal/auth/auth_test.go
package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(TokenConfig{Secret: []byte("0123456789abcdef0123456789abcdef")})
	require.NoError(t, err)
	return m
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager(TokenConfig{})
	assert.Error(t, err)
}

func TestIssueAndParse(t *testing.T) {
	m := newManager(t)

	signed, issued, err := m.Issue()
	require.NoError(t, err)
	assert.Equal(t, issued.IssuedAt+int64(DefaultExpiration/time.Second), issued.ExpiresAt)

	parsed, err := m.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, issued.SessionID, parsed.SessionID)
}

func TestParseRejectsTampering(t *testing.T) {
	m := newManager(t)
	signed, _, err := m.Issue()
	require.NoError(t, err)

	payload, sig, _ := strings.Cut(signed, ".")
	_, err = m.Parse(payload + "x." + sig)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Parse("no-dot")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewTokenManager(TokenConfig{Secret: []byte("another secret")})
	require.NoError(t, err)
	_, err = other.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseExpired(t *testing.T) {
	m := newManager(t)
	signed, _, err := m.Issue()
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(DefaultExpiration + time.Minute) }
	_, err = m.Parse(signed)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRevoke(t *testing.T) {
	m := newManager(t)
	signed, _, err := m.Issue()
	require.NoError(t, err)

	m.Revoke(signed)
	_, err = m.Parse(signed)
	assert.ErrorIs(t, err, ErrRevokedToken)

	// other sessions stay valid
	second, _, err := m.Issue()
	require.NoError(t, err)
	_, err = m.Parse(second)
	assert.NoError(t, err)

	m.Revoke("garbage")
}
