package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Token is the minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "missing Authorization header"})
			return
		}
		// Expect 'Bearer <token>'
		var token string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "invalid Authorization header"})
			return
		}

		idToken, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "invalid token"})
			return
		}

		var claims map[string]interface{}
		if err := idToken.Claims(&claims); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "failed to parse claims"})
			return
		}

		c.Set("claims", claims)
		c.Next()
	}
}

// ClaimsIdentity extracts the caller's stable identity from the verified
// claims stored by AuthMiddleware. ok is false when no usable subject exists.
func ClaimsIdentity(c *gin.Context) (sub, name, email string, ok bool) {
	v, exists := c.Get("claims")
	if !exists {
		return "", "", "", false
	}
	cm, okc := v.(map[string]interface{})
	if !okc {
		return "", "", "", false
	}
	sub, _ = cm["sub"].(string)
	name, _ = cm["name"].(string)
	email, _ = cm["email"].(string)
	if sub == "" {
		return "", "", "", false
	}
	if name == "" {
		name = email
	}
	return sub, name, email, true
}
