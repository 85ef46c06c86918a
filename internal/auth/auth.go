// internal/auth/auth.go
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// DefaultExpiration lifetime of an unlock session
const DefaultExpiration = 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrRevokedToken = errors.New("token has been revoked")
)

// TokenConfig holds the configuration for token generation
type TokenConfig struct {
	Secret     []byte
	Expiration time.Duration
}

// Token is a signed session: base64(sessionID|expiresAt|issuedAt).base64(hmac)
type Token struct {
	SessionID string `json:"session_id"`
	ExpiresAt int64  `json:"expires_at"`
	IssuedAt  int64  `json:"issued_at"`
}

// TokenManager issues, verifies and revokes session tokens
type TokenManager struct {
	config  TokenConfig
	revoked *gocache.Cache // session id -> struct{}, kept until the token would expire
	now     func() time.Time
}

// NewTokenManager requires a non-empty secret; zero expiration means DefaultExpiration
func NewTokenManager(cfg TokenConfig) (*TokenManager, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("secret key is required")
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = DefaultExpiration
	}
	return &TokenManager{
		config:  cfg,
		revoked: gocache.New(cfg.Expiration, time.Hour),
		now:     time.Now,
	}, nil
}

// Issue creates a token for a new session
func (m *TokenManager) Issue() (string, *Token, error) {
	now := m.now()
	token := &Token{
		SessionID: uuid.NewString(),
		ExpiresAt: now.Add(m.config.Expiration).Unix(),
		IssuedAt:  now.Unix(),
	}

	payload := fmt.Sprintf("%s|%d|%d", token.SessionID, token.ExpiresAt, token.IssuedAt)
	signed := base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." +
		base64.RawURLEncoding.EncodeToString(m.sign([]byte(payload)))
	return signed, token, nil
}

func (m *TokenManager) sign(payload []byte) []byte {
	h := hmac.New(sha256.New, m.config.Secret)
	h.Write(payload)
	return h.Sum(nil)
}

// Parse verifies signature, expiry and revocation
func (m *TokenManager) Parse(tokenString string) (*Token, error) {
	encodedPayload, encodedSignature, ok := strings.Cut(strings.TrimSpace(tokenString), ".")
	if !ok {
		return nil, ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(encodedPayload)
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrInvalidToken, err)
	}
	signature, err := base64.RawURLEncoding.DecodeString(encodedSignature)
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", ErrInvalidToken, err)
	}
	if !hmac.Equal(signature, m.sign(payload)) {
		return nil, ErrInvalidToken
	}

	fields := strings.Split(string(payload), "|")
	if len(fields) != 3 {
		return nil, ErrInvalidToken
	}
	expiresAt, err1 := strconv.ParseInt(fields[1], 10, 64)
	issuedAt, err2 := strconv.ParseInt(fields[2], 10, 64)
	if err1 != nil || err2 != nil {
		return nil, ErrInvalidToken
	}

	if m.now().Unix() > expiresAt {
		return nil, ErrExpiredToken
	}
	if _, revoked := m.revoked.Get(fields[0]); revoked {
		return nil, ErrRevokedToken
	}

	return &Token{SessionID: fields[0], ExpiresAt: expiresAt, IssuedAt: issuedAt}, nil
}

// Revoke invalidates a token until its natural expiry. Invalid tokens are ignored.
func (m *TokenManager) Revoke(tokenString string) {
	token, err := m.Parse(tokenString)
	if err != nil {
		return
	}
	ttl := time.Until(time.Unix(token.ExpiresAt, 0))
	if ttl <= 0 {
		return
	}
	m.revoked.Set(token.SessionID, struct{}{}, ttl)
}

// GenerateSecureKey returns length random bytes, 32 when length <= 0
func GenerateSecureKey(length int) ([]byte, error) {
	if length <= 0 {
		length = 32
	}
	key := make([]byte, length)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
