package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/notewave/notewave/internal/note"
	"github.com/notewave/notewave/internal/note/service"
	"github.com/notewave/notewave/internal/realtime"
	"github.com/notewave/notewave/internal/users"
	"github.com/notewave/notewave/pkg/logger"
	"github.com/notewave/notewave/pkg/middleware"
)

// RegisterNoteRoutes mounts the authenticated note API under /api/v1 and the
// unauthenticated public share endpoint under /api/public.
func RegisterNoteRoutes(r *gin.Engine, svc *service.Service, userSvc *users.Service, hub *realtime.Hub, ver middleware.Verifier) {
	api := r.Group("/api/v1", middleware.AuthMiddleware(ver))

	api.GET("/me", func(c *gin.Context) {
		actor, ok := identity(c)
		if !ok {
			return
		}
		// read-through: upsert only for identities not seen before
		u, err := userSvc.GetBySub(c.Request.Context(), actor.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		if u == nil {
			claims, _ := c.Get("claims")
			cm, okc := claims.(map[string]interface{})
			if !okc {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "missing claims"})
				return
			}
			u, err = userSvc.UpsertFromClaims(c.Request.Context(), cm)
			if err != nil {
				writeError(c, err)
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"sub": u.Sub, "name": u.Name, "email": u.Email})
	})

	api.POST("/notes", func(c *gin.Context) {
		actor, ok := identity(c)
		if !ok {
			return
		}
		var req struct {
			Title string `json:"title"`
			Body  string `json:"body"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
			return
		}
		n, err := svc.Create(c.Request.Context(), actor, req.Title, req.Body)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, n)
	})

	api.GET("/notes", func(c *gin.Context) {
		actor, ok := identity(c)
		if !ok {
			return
		}
		list, err := svc.List(c.Request.Context(), actor)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	api.GET("/notes/search", func(c *gin.Context) {
		actor, ok := identity(c)
		if !ok {
			return
		}
		list, err := svc.Search(c.Request.Context(), actor, c.Query("q"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	api.GET("/notes/:id", func(c *gin.Context) {
		actor, ok := identity(c)
		if !ok {
			return
		}
		n, role, err := svc.Get(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"note": n, "role": role})
	})

	api.PUT("/notes/:id", func(c *gin.Context) {
		actor, ok := identity(c)
		if !ok {
			return
		}
		var req struct {
			Title *string `json:"title,omitempty"`
			Body  *string `json:"body,omitempty"`
			Seq   int64   `json:"seq,omitempty"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
			return
		}
		n, err := svc.Update(c.Request.Context(), actor, c.Param("id"), req.Title, req.Body, req.Seq)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, n)
	})

	api.DELETE("/notes/:id", func(c *gin.Context) {
		actor, ok := identity(c)
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.GET("/notes/:id/presence", func(c *gin.Context) {
		actor, ok := identity(c)
		if !ok {
			return
		}
		// access check piggybacks on Get
		if _, _, err := svc.Get(c.Request.Context(), actor, c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		active := hub.ListActive(c.Param("id"))
		if active == nil {
			active = []realtime.PresenceEntry{}
		}
		c.JSON(http.StatusOK, gin.H{"active": active, "count": len(active)})
	})

	api.POST("/notes/:id/collaborators", func(c *gin.Context) {
		actor, ok := identity(c)
		if !ok {
			return
		}
		var req struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
			return
		}
		n, err := svc.AddCollaborator(c.Request.Context(), actor, c.Param("id"), req.Email, req.Role)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, n)
	})

	api.PUT("/notes/:id/collaborators/:userId", func(c *gin.Context) {
		actor, ok := identity(c)
		if !ok {
			return
		}
		var req struct {
			Role string `json:"role"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
			return
		}
		n, err := svc.UpdateCollaboratorRole(c.Request.Context(), actor, c.Param("id"), c.Param("userId"), req.Role)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, n)
	})

	api.DELETE("/notes/:id/collaborators/:userId", func(c *gin.Context) {
		actor, ok := identity(c)
		if !ok {
			return
		}
		n, err := svc.RemoveCollaborator(c.Request.Context(), actor, c.Param("id"), c.Param("userId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, n)
	})

	api.POST("/notes/:id/share", func(c *gin.Context) {
		actor, ok := identity(c)
		if !ok {
			return
		}
		token, shareURL, err := svc.GenerateShareLink(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "url": shareURL})
	})

	api.DELETE("/notes/:id/share", func(c *gin.Context) {
		actor, ok := identity(c)
		if !ok {
			return
		}
		if err := svc.DisableShareLink(c.Request.Context(), actor, c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.GET("/notes/:id/export", func(c *gin.Context) {
		actor, ok := identity(c)
		if !ok {
			return
		}
		url, err := svc.Export(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url})
	})

	r.GET("/api/public/notes/:token", func(c *gin.Context) {
		pub, err := svc.ResolvePublic(c.Request.Context(), c.Param("token"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, pub)
	})
}

// identity reads the verified caller identity. Writes a 401 and returns
// ok=false when the claims carry no subject.
func identity(c *gin.Context) (note.Identity, bool) {
	sub, name, email, ok := middleware.ClaimsIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "missing subject claim"})
		return note.Identity{}, false
	}
	return note.Identity{ID: sub, Name: name, Email: email}, true
}

// writeError maps domain errors onto the API's error envelope.
func writeError(c *gin.Context, err error) {
	var verr *note.ValidationError
	var perr *note.PermissionError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": verr.Error(), "field": verr.Field})
	case errors.As(err, &perr):
		c.JSON(http.StatusForbidden, gin.H{
			"error":        "permission_denied",
			"message":      perr.Error(),
			"requiredRole": perr.Required,
			"actualRole":   perr.Actual,
		})
	case errors.Is(err, note.ErrStaleEdit):
		c.JSON(http.StatusConflict, gin.H{"error": "stale_edit", "message": "a newer edit has already been applied"})
	case errors.Is(err, note.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "not found"})
	case errors.Is(err, service.ErrNoStorage):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage_unavailable", "message": "object storage not configured"})
	default:
		logger.Errorf("note api: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "internal server error"})
	}
}
