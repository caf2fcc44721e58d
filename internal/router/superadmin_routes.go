package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/jesaworld/sms-backend/internal/config"
	"github.com/jesaworld/sms-backend/internal/handler"
	"github.com/jesaworld/sms-backend/internal/middleware"
	"github.com/jesaworld/sms-backend/internal/repository"
)

// RegisterSuperAdmin registers platform-operator endpoints under
// /api/superadmin. All routes require a valid JWT and the SUPERADMIN role.
// The school and administrator list endpoints sit behind the Redis response
// cache since they back the operator dashboard and change rarely.
func RegisterSuperAdmin(e *echo.Echo, h *handler.SuperAdminHandler, jwtSecret string, rdb *redis.Client) {
	g := e.Group(
		"/api/superadmin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleSuperAdmin),
	)

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// ---- Schools ----
	g.POST("/schools", h.CreateSchool)
	g.GET("/schools", h.ListSchools, cache)
	g.POST("/schools/:id/reactivate", h.ReactivateSchool)
	g.DELETE("/schools/:id", h.DeleteSchool)

	// ---- Administrators ----
	g.GET("/admins", h.ListAdmins, cache)

	// ---- Own account ----
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.POST("/change-password", h.ChangePassword)
}
