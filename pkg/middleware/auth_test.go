package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	claims map[string]interface{}
}

func (t *fakeToken) Claims(v interface{}) error {
	m, ok := v.(*map[string]interface{})
	if !ok {
		return errors.New("unexpected claims target")
	}
	*m = t.claims
	return nil
}

type fakeVerifier struct {
	accept string
	claims map[string]interface{}
}

func (v *fakeVerifier) Verify(_ context.Context, raw string) (Token, error) {
	if raw != v.accept {
		return nil, errors.New("bad token")
	}
	return &fakeToken{claims: v.claims}, nil
}

func newAuthRouter(ver Verifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthMiddleware(ver), func(c *gin.Context) {
		sub, name, _, ok := ClaimsIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sub": sub, "name": name})
	})
	return r
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	r := newAuthRouter(&fakeVerifier{accept: "good"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	r := newAuthRouter(&fakeVerifier{accept: "good"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	ver := &fakeVerifier{
		accept: "good",
		claims: map[string]interface{}{"sub": "user-1", "name": "Alice", "email": "alice@example.com"},
	}
	r := newAuthRouter(ver)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "user-1")
	require.Contains(t, w.Body.String(), "Alice")
}

func TestClaimsIdentityFallsBackToEmail(t *testing.T) {
	ver := &fakeVerifier{
		accept: "good",
		claims: map[string]interface{}{"sub": "user-2", "email": "bob@example.com"},
	}
	r := newAuthRouter(ver)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "bob@example.com")
}

func TestClaimsIdentityRequiresSub(t *testing.T) {
	ver := &fakeVerifier{
		accept: "good",
		claims: map[string]interface{}{"email": "nobody@example.com"},
	}
	r := newAuthRouter(ver)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
