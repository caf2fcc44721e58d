package handler

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jesaworld/sms-backend/internal/repository"
)

// dbTimeout bounds every database round trip made from a handler.
const dbTimeout = 5 * time.Second

// reqCtx derives a bounded context from the incoming request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// pathID parses the numeric :id route parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	return n, err == nil && n > 0
}

// nullStr maps an optional JSON string to its SQL representation; empty
// strings are stored as NULL.
func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// strOrNil converts a nullable column to a JSON-friendly pointer.
func strOrNil(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// userResponse is the JSON shape of a user record across admin and
// superadmin endpoints. Password hash and one-time codes never leave the
// repository layer.
type userResponse struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `json:"role"`
	SchoolID     *uint64   `json:"school_id,omitempty"`
	StudentID    *string   `json:"student_id,omitempty"`
	StudentClass *string   `json:"student_class,omitempty"`
	Subjects     *string   `json:"subjects,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	Address      *string   `json:"address,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func toUserResponse(u repository.User) userResponse {
	return userResponse{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         u.Role,
		SchoolID:     u.SchoolID,
		StudentID:    strOrNil(u.StudentID),
		StudentClass: strOrNil(u.StudentClass),
		Subjects:     strOrNil(u.Subjects),
		Phone:        strOrNil(u.Phone),
		Address:      strOrNil(u.Address),
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
	}
}

// schoolResponse is the JSON shape of a school record.
type schoolResponse struct {
	ID                uint64     `json:"id"`
	SchoolNumber      string     `json:"school_number"`
	Name              string     `json:"name"`
	Address           *string    `json:"address,omitempty"`
	Phone             *string    `json:"phone,omitempty"`
	Email             *string    `json:"email,omitempty"`
	MaxStudents       int        `json:"max_students"`
	MaxTeachers       int        `json:"max_teachers"`
	ValidUntil        time.Time  `json:"valid_until"`
	LastReactivatedAt *time.Time `json:"last_reactivated_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UserCount         *int       `json:"user_count,omitempty"`
}

func toSchoolResponse(s repository.School) schoolResponse {
	resp := schoolResponse{
		ID:           s.ID,
		SchoolNumber: s.SchoolNumber,
		Name:         s.Name,
		Address:      strOrNil(s.Address),
		Phone:        strOrNil(s.Phone),
		Email:        strOrNil(s.Email),
		MaxStudents:  s.MaxStudents,
		MaxTeachers:  s.MaxTeachers,
		ValidUntil:   s.ValidUntil,
		CreatedAt:    s.CreatedAt,
	}
	if s.LastReactivatedAt.Valid {
		t := s.LastReactivatedAt.Time
		resp.LastReactivatedAt = &t
	}
	return resp
}
