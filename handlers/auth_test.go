package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/notewave/notewave/internal/config"
	"github.com/notewave/notewave/internal/tokens"
	"github.com/notewave/notewave/internal/users"
	"github.com/notewave/notewave/pkg/middleware"
)

func devTokenRouter() (*gin.Engine, *config.Config) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.JWT.Secret = "dev-token-secret-32-bytes-xxxxxxxx"
	cfg.JWT.AccessTokenTTL = 15 * time.Minute

	r := gin.New()
	RegisterDevTokenIssuer(r, cfg, users.NewService(users.NewMemoryUserRepository()))
	return r, cfg
}

func TestDevTokenIssueAndVerify(t *testing.T) {
	r, cfg := devTokenRouter()

	body, _ := json.Marshal(gin.H{"sub": "dev-1", "name": "Dev One", "email": "dev1@example.com"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/dev-token", bytes.NewReader(body))
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(t, out.AccessToken)
	require.Equal(t, "Bearer", out.TokenType)
	require.Equal(t, 900, out.ExpiresIn)

	// the minted token passes the HS256 verifier and the auth middleware
	ver := tokens.NewHS256Verifier(cfg.JWT.Secret)
	protected := gin.New()
	protected.GET("/whoami", middleware.AuthMiddleware(ver), func(c *gin.Context) {
		sub, _, _, ok := middleware.ClaimsIdentity(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"sub": sub})
	})

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req2.Header.Set("Authorization", "Bearer "+out.AccessToken)
	protected.ServeHTTP(w2, req2)
	require.Equal(t, http.StatusOK, w2.Code)
	require.Contains(t, w2.Body.String(), "dev-1")
}

func TestDevTokenRequiresSub(t *testing.T) {
	r, _ := devTokenRouter()

	body, _ := json.Marshal(gin.H{"name": "No Sub"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/dev-token", bytes.NewReader(body))
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
