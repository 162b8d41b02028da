package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"signal-net/internal/service"
)

const (
	callerIDKey     = "caller_id"
	callerHandleKey = "caller_handle"
	bearerPrefix    = "bearer "
)

// accessTokenParser es lo unico que el middleware necesita de service.JWTService.
type accessTokenParser interface {
	ParseAccessToken(token string) (service.Claims, error)
}

// JWTAuthMiddleware exige un access token valido y deja el uid del llamante en el contexto.
func JWTAuthMiddleware(parser accessTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if parser == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured", "kind": "internal"})
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, "missing bearer token")
			return
		}

		claims, err := parser.ParseAccessToken(token)
		switch {
		case errors.Is(err, service.ErrJWTExpired):
			unauthorized(c, "token expired")
			return
		case err != nil:
			unauthorized(c, "invalid token")
			return
		}

		c.Set(callerIDKey, claims.UserID)
		c.Set(callerHandleKey, claims.Handle)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "kind": "unauthenticated"})
}

// callerID devuelve el usuario autenticado o responde 401.
func callerID(c *gin.Context) (string, bool) {
	id := c.GetString(callerIDKey)
	if id == "" {
		unauthorized(c, "unauthenticated")
		return "", false
	}
	return id, true
}
