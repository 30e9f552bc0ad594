package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/notewave/notewave/internal/config"
	"github.com/notewave/notewave/internal/models"
	"github.com/notewave/notewave/internal/tokens"
	"github.com/notewave/notewave/internal/users"
)

// RegisterDevTokenIssuer exposes a development-only token mint at
// POST /auth/dev-token. It signs an HS256 access token for the given identity
// and upserts the user so email-based collaborator invites resolve. Callers
// must only register it when a JWT secret is configured and the environment
// is development; there is no credential check.
func RegisterDevTokenIssuer(r *gin.Engine, cfg *config.Config, userSvc *users.Service) {
	r.POST("/auth/dev-token", func(c *gin.Context) {
		var req struct {
			Sub   string `json:"sub"`
			Name  string `json:"name"`
			Email string `json:"email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
			return
		}
		if strings.TrimSpace(req.Sub) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "sub is required"})
			return
		}

		u := &models.User{Sub: req.Sub, Name: req.Name, Email: req.Email}
		if _, err := userSvc.UpsertFromClaims(c.Request.Context(), map[string]interface{}{
			"sub": req.Sub, "name": req.Name, "email": req.Email,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "failed to store user"})
			return
		}

		tok, err := tokens.GenerateAccessToken(cfg, u, cfg.JWT.AccessTokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "failed to sign token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"access_token": tok,
			"token_type":   "Bearer",
			"expires_in":   int(cfg.JWT.AccessTokenTTL.Seconds()),
		})
	})
}
