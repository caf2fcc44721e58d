package router

import (
	"github.com/labstack/echo/v4"

	"github.com/jesaworld/sms-backend/internal/handler"
	"github.com/jesaworld/sms-backend/internal/middleware"
	"github.com/jesaworld/sms-backend/internal/repository"
)

// RegisterTeacher registers teacher endpoints under /api/teacher. All
// routes require a valid JWT and the TEACHER role. Note editing is limited
// to the authoring teacher inside the handlers.
func RegisterTeacher(e *echo.Echo, h *handler.TeacherHandler, jwtSecret string) {
	g := e.Group(
		"/api/teacher",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleTeacher),
	)

	g.GET("/profile", h.Profile)
	g.GET("/exams", h.ListExams)

	// ---- Lesson notes ----
	g.GET("/notes", h.ListNotes)
	g.POST("/notes", h.CreateNote)
	g.PUT("/notes/:id", h.UpdateNote)
	g.DELETE("/notes/:id", h.DeleteNote)
}
