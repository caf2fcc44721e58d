package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jesaworld/sms-backend/internal/middleware"
	"github.com/jesaworld/sms-backend/internal/repository"
)

// TeacherHandler implements the teacher endpoints: the teacher's own
// profile, the exam schedules of their school and their lesson notes.
type TeacherHandler struct {
	Users *repository.UserRepo
	Exams *repository.ExamRepo
	Notes *repository.NoteRepo
}

func NewTeacherHandler(u *repository.UserRepo, e *repository.ExamRepo, n *repository.NoteRepo) *TeacherHandler {
	if u == nil || e == nil || n == nil {
		panic("nil dependency passed to NewTeacherHandler")
	}
	return &TeacherHandler{Users: u, Exams: e, Notes: n}
}

// Profile returns the teacher's own account.
func (h *TeacherHandler) Profile(c echo.Context) error {
	claims := middleware.CurrentClaims(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch profile"})
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

// ListExams returns the exam schedules of the teacher's school.
func (h *TeacherHandler) ListExams(c echo.Context) error {
	claims := middleware.CurrentClaims(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	exams, err := h.Exams.ListBySchool(ctx, claims.SchoolID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch exam schedules"})
	}
	return c.JSON(http.StatusOK, exams)
}

// ListNotes returns the notes the teacher authored.
func (h *TeacherHandler) ListNotes(c echo.Context) error {
	claims := middleware.CurrentClaims(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	notes, err := h.Notes.ListByTeacher(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch lesson notes"})
	}
	return c.JSON(http.StatusOK, notes)
}

type noteReq struct {
	Subject string `json:"subject"`
	Class   string `json:"class"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreateNote publishes a lesson note to one class of the teacher's school.
func (h *TeacherHandler) CreateNote(c echo.Context) error {
	claims := middleware.CurrentClaims(c)
	var req noteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Subject == "" || req.Class == "" || req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "subject, class and title are required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	n := repository.LessonNote{
		SchoolID:  claims.SchoolID,
		TeacherID: claims.UserID,
		Subject:   req.Subject,
		Class:     req.Class,
		Title:     req.Title,
		Content:   req.Content,
	}
	if err := h.Notes.Create(ctx, &n); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create lesson note"})
	}
	return c.JSON(http.StatusCreated, n)
}

// UpdateNote rewrites a note the teacher authored. Notes of other teachers
// are reported as not found.
func (h *TeacherHandler) UpdateNote(c echo.Context) error {
	claims := middleware.CurrentClaims(c)
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid note id"})
	}
	var req noteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Notes.GetByID(ctx, id)
	if err != nil || n.TeacherID != claims.UserID {
		if err != nil && !errors.Is(err, repository.ErrNoteNotFound) {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update lesson note"})
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": "lesson note not found"})
	}

	n.Subject = req.Subject
	n.Class = req.Class
	n.Title = req.Title
	n.Content = req.Content
	if err := h.Notes.Update(ctx, &n); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update lesson note"})
	}
	return c.JSON(http.StatusOK, n)
}

// DeleteNote removes a note the teacher authored.
func (h *TeacherHandler) DeleteNote(c echo.Context) error {
	claims := middleware.CurrentClaims(c)
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid note id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Notes.GetByID(ctx, id)
	if err != nil || n.TeacherID != claims.UserID {
		if err != nil && !errors.Is(err, repository.ErrNoteNotFound) {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete lesson note"})
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": "lesson note not found"})
	}
	if err := h.Notes.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete lesson note"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
