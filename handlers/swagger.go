package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the notes service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>notewave — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the note API surface.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "notewave", "version": "v0.1.0" },
  "paths": {
    "/api/v1/notes": {
      "post": {
        "summary": "Create a note",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string"},"body":{"type":"string"}}}}}},
        "responses": { "201": { "description": "note created" }, "400": { "description": "validation error" } }
      },
      "get": { "summary": "List notes owned by or shared with the caller", "responses": { "200": { "description": "note list" } } }
    },
    "/api/v1/notes/search": {
      "get": { "summary": "Keyword search over accessible notes", "parameters": [{"name":"q","in":"query","schema":{"type":"string"}}], "responses": { "200": { "description": "matching notes" } } }
    },
    "/api/v1/notes/{id}": {
      "get": { "summary": "Fetch a note with the caller's resolved role", "responses": { "200": { "description": "note and role" }, "403": { "description": "permission denied" }, "404": { "description": "not found" } } },
      "put": { "summary": "Update title/body with optional edit sequence", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string"},"body":{"type":"string"},"seq":{"type":"integer"}}}}}}, "responses": { "200": { "description": "updated note" }, "409": { "description": "stale edit" } } },
      "delete": { "summary": "Delete a note (owner only)", "responses": { "204": { "description": "deleted" } } }
    },
    "/api/v1/notes/{id}/collaborators": {
      "post": { "summary": "Invite a collaborator by email (owner only)", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"role":{"type":"string","enum":["viewer","editor"]}}}}}}, "responses": { "200": { "description": "updated note" } } }
    },
    "/api/v1/notes/{id}/collaborators/{userId}": {
      "put": { "summary": "Change a collaborator's role (owner only)", "responses": { "200": { "description": "updated note" } } },
      "delete": { "summary": "Remove a collaborator (owner only)", "responses": { "200": { "description": "updated note" } } }
    },
    "/api/v1/notes/{id}/share": {
      "post": { "summary": "Generate a public share link (owner only)", "responses": { "200": { "description": "token and URL" } } },
      "delete": { "summary": "Disable the public share link (owner only)", "responses": { "204": { "description": "disabled" } } }
    },
    "/api/v1/notes/{id}/export": {
      "get": { "summary": "Export a snapshot to object storage (owner only)", "responses": { "200": { "description": "presigned download URL" }, "503": { "description": "storage unavailable" } } }
    },
    "/api/v1/notes/{id}/presence": {
      "get": { "summary": "List active participants in the note's room", "responses": { "200": { "description": "active participants" } } }
    },
    "/api/public/notes/{token}": {
      "get": { "summary": "Read-only public note view", "responses": { "200": { "description": "public note" }, "404": { "description": "unknown or disabled token" } } }
    },
    "/api/v1/me": {
      "get": { "summary": "Get user info", "responses": { "200": { "description": "user or claims" } } }
    },
    "/auth/dev-token": {
      "post": { "summary": "Mint a development access token (only registered in development)", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"sub":{"type":"string"},"name":{"type":"string"},"email":{"type":"string"}}}}}}, "responses": { "200": { "description": "access token" } } }
    },
    "/ws": { "get": { "summary": "Realtime channel (websocket upgrade)", "responses": { "101": { "description": "switching protocols" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
