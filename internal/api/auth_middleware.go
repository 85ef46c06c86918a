// internal/api/auth_middleware.go
package api

import (
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/VeoPromptStudio/internal/auth"
	"github.com/Corphon/VeoPromptStudio/internal/config"
	apperrors "github.com/Corphon/VeoPromptStudio/internal/errors"
)

const (
	sessionIDKey     = "session_id"
	authenticatedKey = "authenticated"
)

// devAuthSecret keeps sessions valid across restarts in debug mode only
const devAuthSecret = "dev_auth_key_for_local_testing_only_"

// NewTokenManagerFromConfig uses AUTH_SECRET_KEY, a fixed key in debug mode,
// or a random key that invalidates sessions on restart
func NewTokenManagerFromConfig(cfg *config.AppConfig) (*auth.TokenManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	var secret []byte
	switch {
	case cfg.AuthSecretKey != "":
		secret = []byte(cfg.AuthSecretKey)
	case cfg.DebugMode:
		secret = []byte(devAuthSecret)
		log.Println("warning: using the fixed debug auth key, set AUTH_SECRET_KEY in production")
	default:
		key, err := auth.GenerateSecureKey(32)
		if err != nil {
			return nil, fmt.Errorf("generate auth key: %w", err)
		}
		secret = key
	}

	return auth.NewTokenManager(auth.TokenConfig{
		Secret:     secret,
		Expiration: auth.DefaultExpiration,
	})
}

// bearerToken extracts the token of "Authorization: Bearer <token>". Browsers
// cannot set headers on EventSource or WebSocket, so ?token= is accepted too.
func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return strings.TrimSpace(c.Query("token"))
}

// AuthMiddleware requires a valid unlocked session when enabled.
// When disabled every request passes as an anonymous session.
func AuthMiddleware(tokens *auth.TokenManager, enabled bool) gin.HandlerFunc {
	rh := NewResponseHelper()
	return func(c *gin.Context) {
		if !enabled {
			c.Set(authenticatedKey, false)
			c.Next()
			return
		}

		token := bearerToken(c)
		if token == "" {
			rh.Unauthorized(c, "access key required")
			c.Abort()
			return
		}

		parsed, err := tokens.Parse(token)
		if err != nil {
			rh.AppError(c, apperrors.NewUnauthorizedError("session is invalid or expired", err))
			c.Abort()
			return
		}

		c.Set(sessionIDKey, parsed.SessionID)
		c.Set(authenticatedKey, true)
		c.Next()
	}
}

// GetSessionFromContext returns the session id set by AuthMiddleware
func GetSessionFromContext(c *gin.Context) (string, bool) {
	id := c.GetString(sessionIDKey)
	return id, id != "" && c.GetBool(authenticatedKey)
}
