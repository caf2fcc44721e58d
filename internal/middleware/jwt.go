package middleware // middleware provides reusable HTTP middleware for protected routes

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jesaworld/sms-backend/internal/utils"
)

// claimsKey is the context key under which JWTAuth stores the parsed claims.
const claimsKey = "claims"

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects its typed claims into the request context. The provided secret
// must match the one used when issuing tokens. Handlers retrieve the claims
// via CurrentClaims(c); user_id and role are additionally stored as plain
// context values for middleware that only needs those.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(claimsKey, claims)
			c.Set("user_id", claims.UserID)
			c.Set("role", claims.Role)
			return next(c)
		}
	}
}

// CurrentClaims returns the claims stored by JWTAuth, or nil when the route
// was not protected.
func CurrentClaims(c echo.Context) *utils.Claims {
	if v, ok := c.Get(claimsKey).(*utils.Claims); ok {
		return v
	}
	return nil
}
