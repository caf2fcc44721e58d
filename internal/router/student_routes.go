package router

import (
	"github.com/labstack/echo/v4"

	"github.com/jesaworld/sms-backend/internal/handler"
	"github.com/jesaworld/sms-backend/internal/middleware"
	"github.com/jesaworld/sms-backend/internal/repository"
)

// RegisterStudent registers the read-only student endpoints under
// /api/student. All routes require a valid JWT and the STUDENT role; the
// handlers scope everything to the student's own school and class.
func RegisterStudent(e *echo.Echo, h *handler.StudentHandler, jwtSecret string) {
	g := e.Group(
		"/api/student",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleStudent),
	)

	g.GET("/profile", h.Profile)
	g.GET("/exams", h.ListExams)
	g.GET("/notes", h.ListNotes)
	g.GET("/results", h.Results)
	g.GET("/attendance", h.Attendance)
}
