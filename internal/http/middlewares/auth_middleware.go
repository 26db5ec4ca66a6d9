package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cunhadas/cadastro-api/internal/auth"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// RequireAuth guards protected routes. A missing or blank header is 401; a
// present but invalid or expired token is 403. The decoded claims are trusted
// as-is for their expiry window, with no storage re-check.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"erro": "Token não informado",
			})
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"erro": "Token não informado",
			})
			return
		}

		claims, err := m.jwt.VerifyToken(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"erro": "Token inválido ou expirado",
			})
			return
		}

		SetIdentity(c, claims.UserID, claims.Email, claims.Perfil)

		c.Next()
	}
}

// SetIdentity stashes the verified identity on the request context. Exported
// so handler tests can impersonate a caller without minting tokens.
func SetIdentity(c *gin.Context, userID int64, email, perfil string) {
	c.Set(ctxUserIDKey, userID)
	c.Set(ctxEmailKey, email)
	c.Set(ctxPerfilKey, perfil)
}

// Helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func PerfilFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxPerfilKey)
	if !ok {
		return "", false
	}
	perfil, ok := v.(string)
	return perfil, ok
}

func EmailFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxEmailKey)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok
}
