package middleware

import (
	"crypto/ed25519"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"deco-ledger/internal/domain/auth"
	"deco-ledger/internal/domain/ledger"
)

type JWTConfig struct {
	Key      ed25519.PublicKey
	Issuer   string
	Audience string
	Now      func() time.Time
}

// Caller returns the principal authenticated for this request, if any.
func Caller(c echo.Context) (ledger.Principal, bool) {
	return auth.CallerFrom(c.Request().Context())
}

// JWTAuth verifies an EdDSA bearer token and places its subject on the request
// context as the caller. Requests without a token continue anonymously; the
// ledger refuses anonymous writes that need a signer.
func JWTAuth(cfg JWTConfig) echo.MiddlewareFunc {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cfg.Now),
	)
	keyFunc := func(*jwt.Token) (any, error) { return cfg.Key, nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(echo.HeaderAuthorization)
			if raw == "" {
				return next(c)
			}
			tok, ok := strings.CutPrefix(raw, "Bearer ")
			if !ok || strings.TrimSpace(tok) == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authorization must be a bearer token"})
			}

			var claims jwt.RegisteredClaims
			if _, err := parser.ParseWithClaims(strings.TrimSpace(tok), &claims, keyFunc); err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": jwtErrorMessage(err)})
			}
			sub := ledger.Principal(claims.Subject)
			if !sub.Valid() {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "token subject is not a valid principal"})
			}

			req := c.Request()
			c.SetRequest(req.WithContext(auth.WithCaller(req.Context(), sub)))
			return next(c)
		}
	}
}

func jwtErrorMessage(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token is expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrEd25519Verification):
		return "token signature is invalid"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return "token issuer or audience mismatch"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "token alg is invalid"
	}
	return "token is invalid"
}
