package router

import (
	"github.com/labstack/echo/v4"

	"github.com/jesaworld/sms-backend/internal/handler"
	"github.com/jesaworld/sms-backend/internal/middleware"
	"github.com/jesaworld/sms-backend/internal/repository"
)

// RegisterAdmin registers school-administration endpoints under /api/admin.
// Both ADMIN and SUPERADMIN may call them: handlers scope admins to their
// own school while superadmins name the target school explicitly. Hard user
// deletion is additionally restricted to SUPERADMIN inside the handler.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/api/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleAdmin, repository.RoleSuperAdmin),
	)

	// ---- Members ----
	g.POST("/users", h.CreateUser)
	g.POST("/users/bulk", h.BulkCreateStudents)
	g.GET("/users/:role", h.ListUsersByRole)
	g.PUT("/users/:id", h.UpdateUser)
	g.PUT("/users/:id/active", h.SetUserActive)
	g.DELETE("/users/:id", h.DeleteUser)
	g.GET("/stats", h.Stats)

	// ---- Subjects ----
	g.GET("/subjects", h.ListSubjects)
	g.POST("/subjects", h.CreateSubject)
	g.DELETE("/subjects/:id", h.DeleteSubject)

	// ---- Exam schedules ----
	g.GET("/exams", h.ListExams)
	g.POST("/exams", h.CreateExam)
	g.PUT("/exams/:id", h.UpdateExam)
	g.DELETE("/exams/:id", h.DeleteExam)
}
