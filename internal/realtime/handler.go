package realtime

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/notewave/notewave/pkg/logger"
	"github.com/notewave/notewave/pkg/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Browser clients connect cross-origin from the notes frontend.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsClaims is the subset of token claims the channel needs.
type wsClaims struct {
	Sub   string `json:"sub"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ServeWS authenticates and upgrades a websocket connection, then binds it to
// the hub. Browsers cannot set headers on websocket requests, so the token is
// accepted from the 'token' query parameter with the Authorization header as
// a fallback.
func ServeWS(hub *Hub, ver middleware.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("token")
		if raw == "" {
			auth := c.GetHeader("Authorization")
			raw = strings.TrimPrefix(auth, "Bearer ")
			if raw == auth {
				raw = ""
			}
		}
		if raw == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "missing token"})
			return
		}

		token, err := ver.Verify(c.Request.Context(), raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "invalid token"})
			return
		}
		var claims wsClaims
		if err := token.Claims(&claims); err != nil || claims.Sub == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "failed to parse claims"})
			return
		}
		name := claims.Name
		if name == "" {
			name = claims.Email
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the error response.
			logger.Warnf("ws upgrade failed for %s: %v", claims.Sub, err)
			return
		}

		client := newWSClient(hub, conn, claims.Sub, name)
		go client.writePump()
		go client.readPump()
	}
}
