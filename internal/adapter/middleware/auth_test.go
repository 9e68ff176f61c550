package middleware

import (
	"crypto/ed25519"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSubject = "GSUBJECTAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

var authNow = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func newAuthEcho(t *testing.T, pub ed25519.PublicKey) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Use(JWTAuth(JWTConfig{Key: pub, Issuer: "iss", Audience: "aud", Now: func() time.Time { return authNow }}))
	e.GET("/whoami", func(c echo.Context) error {
		p, ok := Caller(c)
		if !ok {
			return c.String(http.StatusOK, "anonymous")
		}
		return c.String(http.StatusOK, string(p))
	})
	return e
}

func sign(t *testing.T, priv ed25519.PrivateKey, mutate func(*jwt.RegisteredClaims)) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   testSubject,
		Issuer:    "iss",
		Audience:  jwt.ClaimStrings{"aud"},
		ExpiresAt: jwt.NewNumericDate(authNow.Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(authNow),
	}
	if mutate != nil {
		mutate(&claims)
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(priv)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func doWhoami(e *echo.Echo, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authz != "" {
		req.Header.Set(echo.HeaderAuthorization, authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(rand.Reader)
	_, otherPriv, _ := ed25519.GenerateKey(rand.Reader)
	e := newAuthEcho(t, pub)

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{"anonymous", "", http.StatusOK, "anonymous"},
		{"valid", "Bearer " + sign(t, priv, nil), http.StatusOK, testSubject},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "bearer"},
		{"wrong key", "Bearer " + sign(t, otherPriv, nil), http.StatusUnauthorized, "signature"},
		{"expired", "Bearer " + sign(t, priv, func(c *jwt.RegisteredClaims) {
			c.ExpiresAt = jwt.NewNumericDate(authNow.Add(-time.Minute))
		}), http.StatusUnauthorized, "expired"},
		{"no exp", "Bearer " + sign(t, priv, func(c *jwt.RegisteredClaims) { c.ExpiresAt = nil }), http.StatusUnauthorized, "invalid"},
		{"wrong audience", "Bearer " + sign(t, priv, func(c *jwt.RegisteredClaims) {
			c.Audience = jwt.ClaimStrings{"other"}
		}), http.StatusUnauthorized, "audience"},
		{"bad subject", "Bearer " + sign(t, priv, func(c *jwt.RegisteredClaims) { c.Subject = "alice" }), http.StatusUnauthorized, "principal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doWhoami(e, tt.header)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body=%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Fatalf("body = %q, want it to contain %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestJWTAuth_RejectsHS256(t *testing.T) {
	pub, _, _ := ed25519.GenerateKey(rand.Reader)
	e := newAuthEcho(t, pub)

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   testSubject,
		ExpiresAt: jwt.NewNumericDate(authNow.Add(time.Hour)),
	}).SignedString([]byte("shared"))
	if err != nil {
		t.Fatal(err)
	}
	if rec := doWhoami(e, "Bearer "+s); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
