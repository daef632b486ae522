package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys set by JWTMiddleware.
const (
	ContextUserID      = "user_id"
	ContextRole        = "role"
	ContextAccessToken = "access_token"
)

var errMissingSubject = errors.New("token has no subject")

// Claims is what we read from a Supabase access token.
type Claims struct {
	UserID string
	Role   string
}

// ParseToken verifies an HS256 Supabase access token and extracts the caller.
// The role comes from app_metadata.role when present and falls back to the
// top-level role claim; ResolveRole later swaps it for the stored role.
func ParseToken(tokenStr string, secret []byte) (*Claims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("jwt parse: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("jwt invalid")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errMissingSubject
	}

	role, _ := claims["role"].(string)
	if meta, ok := claims["app_metadata"].(map[string]interface{}); ok {
		if r, ok := meta["role"].(string); ok && r != "" {
			role = r
		}
	}
	return &Claims{UserID: sub, Role: role}, nil
}

// JWTMiddleware rejects requests without a valid bearer token and stores the
// caller's id, role and raw token on the context.
func JWTMiddleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, ok := BearerToken(c.Request())
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing or invalid Authorization header"})
			}

			claims, err := ParseToken(tokenStr, secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextRole, claims.Role)
			c.Set(ContextAccessToken, tokenStr)
			return next(c)
		}
	}
}

// BearerToken returns the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	h := r.Header.Get(echo.HeaderAuthorization)
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}
