package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jesaworld/sms-backend/internal/middleware"
	"github.com/jesaworld/sms-backend/internal/repository"
)

// StudentHandler implements the read-only student endpoints: the student's
// profile with school details, the exams and lesson notes of their class,
// and the results and attendance placeholders.
type StudentHandler struct {
	Users   *repository.UserRepo
	Schools *repository.SchoolRepo
	Exams   *repository.ExamRepo
	Notes   *repository.NoteRepo
}

func NewStudentHandler(u *repository.UserRepo, s *repository.SchoolRepo, e *repository.ExamRepo, n *repository.NoteRepo) *StudentHandler {
	if u == nil || s == nil || e == nil || n == nil {
		panic("nil dependency passed to NewStudentHandler")
	}
	return &StudentHandler{Users: u, Schools: s, Exams: e, Notes: n}
}

// Profile returns the student's account together with their school details.
func (h *StudentHandler) Profile(c echo.Context) error {
	claims := middleware.CurrentClaims(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch profile"})
	}
	resp := echo.Map{"user": toUserResponse(u)}
	if u.SchoolID != nil {
		school, err := h.Schools.GetByID(ctx, *u.SchoolID)
		if err == nil {
			resp["school"] = echo.Map{
				"name":          school.Name,
				"school_number": school.SchoolNumber,
				"address":       strOrNil(school.Address),
				"phone":         strOrNil(school.Phone),
			}
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// studentClass resolves the caller's class from the database, since class
// assignments can change after a token was issued.
func (h *StudentHandler) studentClass(c echo.Context) (uint64, string, bool) {
	claims := middleware.CurrentClaims(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil || u.SchoolID == nil || !u.StudentClass.Valid {
		return 0, "", false
	}
	return *u.SchoolID, u.StudentClass.String, true
}

// ListExams returns the exam schedules of the student's class.
func (h *StudentHandler) ListExams(c echo.Context) error {
	schoolID, class, ok := h.studentClass(c)
	if !ok {
		return c.JSON(http.StatusOK, []repository.ExamSchedule{})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	exams, err := h.Exams.ListBySchoolAndClass(ctx, schoolID, class)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch exam schedules"})
	}
	return c.JSON(http.StatusOK, exams)
}

// ListNotes returns the lesson notes published for the student's class.
func (h *StudentHandler) ListNotes(c echo.Context) error {
	schoolID, class, ok := h.studentClass(c)
	if !ok {
		return c.JSON(http.StatusOK, []repository.LessonNote{})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	notes, err := h.Notes.ListBySchoolAndClass(ctx, schoolID, class)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch lesson notes"})
	}
	return c.JSON(http.StatusOK, notes)
}

// Results is a placeholder until the grading module ships.
func (h *StudentHandler) Results(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"results": []any{},
		"message": "results are not available yet",
	})
}

// Attendance is a placeholder until the attendance module ships.
func (h *StudentHandler) Attendance(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"attendance": []any{},
		"message":    "attendance records are not available yet",
	})
}
