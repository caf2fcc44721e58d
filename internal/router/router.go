package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/jesaworld/sms-backend/internal/config"
	"github.com/jesaworld/sms-backend/internal/handler"
	"github.com/jesaworld/sms-backend/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication routes under /api/auth and the
// authenticated /api/me endpoint. The unauthenticated group carries the
// Redis token-bucket limiter so credential and 2FA guessing stays bounded;
// when Redis is unavailable the limiter passes requests through.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, rdb *redis.Client) {
	g := e.Group("/api/auth", middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	g.POST("/superadmin/register", a.RegisterSuperAdmin)
	g.POST("/superadmin/verify-email", a.VerifyEmail)
	g.POST("/superadmin/verify-2fa", a.VerifyTwoFactor)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/api")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}
