package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/notewave/notewave/internal/config"
	"github.com/notewave/notewave/internal/models"
)

func TestHS256Verifier_AcceptsMintedToken(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "verifier-secret-32-bytes-xxxxxxxxxx"
	u := &models.User{Sub: "user-9", Name: "Vera", Email: "vera@example.com"}

	tokenStr, err := GenerateAccessToken(cfg, u, 2*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	tok, err := NewHS256Verifier(cfg.JWT.Secret).Verify(context.Background(), tokenStr)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		t.Fatalf("Claims error: %v", err)
	}
	if claims["sub"] != "user-9" {
		t.Fatalf("unexpected sub claim: got=%v want=%v", claims["sub"], "user-9")
	}
	if claims["email"] != "vera@example.com" {
		t.Fatalf("unexpected email claim: got=%v", claims["email"])
	}
}

func TestHS256Verifier_RejectsWrongSecret(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "secret-a-32-bytes-xxxxxxxxxxxxxxxx"
	u := &models.User{Sub: "u1", Name: "A", Email: "a@example.com"}
	tokenStr, err := GenerateAccessToken(cfg, u, 2*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	if _, err := NewHS256Verifier("secret-b-32-bytes-xxxxxxxxxxxxxxxx").Verify(context.Background(), tokenStr); err == nil {
		t.Fatalf("expected verification to fail with wrong secret")
	}
}

func TestHS256Verifier_RejectsExpiredToken(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "expiry-secret-32-bytes-xxxxxxxxxxx"
	u := &models.User{Sub: "u2", Name: "B", Email: "b@example.com"}
	tokenStr, err := GenerateAccessToken(cfg, u, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	if _, err := NewHS256Verifier(cfg.JWT.Secret).Verify(context.Background(), tokenStr); err == nil {
		t.Fatalf("expected verification to fail for expired token")
	}
}

func TestHS256Verifier_RejectsAlgNone(t *testing.T) {
	headerEnc := (&jwt.Token{}).EncodeSegment([]byte(`{"alg":"none"}`))
	payloadEnc := (&jwt.Token{}).EncodeSegment([]byte(`{"sub":"u-none","exp":9999999999}`))
	tok := headerEnc + "." + payloadEnc + "."

	if _, err := NewHS256Verifier("x").Verify(context.Background(), tok); err == nil {
		t.Fatalf("expected verification to reject alg=none token")
	}
}

func TestHS256Verifier_RejectsRS256Header(t *testing.T) {
	// a token claiming RSA must not be validated against the HMAC secret
	headerEnc := (&jwt.Token{}).EncodeSegment([]byte(`{"alg":"RS256","typ":"JWT"}`))
	payloadEnc := (&jwt.Token{}).EncodeSegment([]byte(`{"sub":"u-rsa","exp":9999999999}`))
	tok := headerEnc + "." + payloadEnc + ".bm90LWEtc2lnbmF0dXJl"

	if _, err := NewHS256Verifier("x").Verify(context.Background(), tok); err == nil {
		t.Fatalf("expected verification to reject non-HMAC signing method")
	}
}
