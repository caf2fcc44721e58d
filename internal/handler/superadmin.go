package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jesaworld/sms-backend/internal/config"
	"github.com/jesaworld/sms-backend/internal/identifier"
	"github.com/jesaworld/sms-backend/internal/middleware"
	"github.com/jesaworld/sms-backend/internal/repository"
	"github.com/jesaworld/sms-backend/internal/utils"
)

// schoolCreateAttempts bounds how often a school insert is retried after the
// allocator loses the race on a school number.
const schoolCreateAttempts = 5

// SuperAdminHandler implements the platform-operator endpoints: school
// provisioning and lifecycle, the global administrator list, and the
// superadmin's own profile.
type SuperAdminHandler struct {
	Cfg     config.Config
	Schools *repository.SchoolRepo
	Users   *repository.UserRepo
	Alloc   *identifier.Allocator
}

func NewSuperAdminHandler(cfg config.Config, s *repository.SchoolRepo, u *repository.UserRepo, a *identifier.Allocator) *SuperAdminHandler {
	if s == nil || u == nil || a == nil {
		panic("nil dependency passed to NewSuperAdminHandler")
	}
	return &SuperAdminHandler{Cfg: cfg, Schools: s, Users: u, Alloc: a}
}

type createSchoolReq struct {
	Name           string `json:"name"`
	Address        string `json:"address"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	MaxStudents    int    `json:"max_students"`
	MaxTeachers    int    `json:"max_teachers"`
	AdminEmail     string `json:"admin_email"`
	AdminPassword  string `json:"admin_password"`
	AdminFirstName string `json:"admin_first_name"`
	AdminLastName  string `json:"admin_last_name"`
}

// CreateSchool provisions a tenant: allocates a school number, creates the
// school together with its first administrator, and grants the configured
// validity window. A lost allocation race re-runs the allocator; the unique
// index on school_number stays the only real guarantee.
func (h *SuperAdminHandler) CreateSchool(c echo.Context) error {
	var req createSchoolReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.AdminEmail = strings.ToLower(strings.TrimSpace(req.AdminEmail))
	if req.Name == "" || req.AdminEmail == "" || req.AdminPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, admin_email and admin_password are required"})
	}
	if req.MaxStudents <= 0 {
		req.MaxStudents = 100
	}
	if req.MaxTeachers <= 0 {
		req.MaxTeachers = 10
	}

	hash, err := utils.HashPassword(req.AdminPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "school creation failed"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	validUntil := time.Now().UTC().AddDate(0, h.Cfg.ValidityMonths, 0)
	for attempt := 0; attempt < schoolCreateAttempts; attempt++ {
		number, err := h.Alloc.SchoolNumber(ctx)
		if err != nil {
			if errors.Is(err, identifier.ErrExhausted) {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "school number space exhausted"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "school creation failed"})
		}

		school := repository.School{
			SchoolNumber: number,
			Name:         req.Name,
			Address:      nullStr(req.Address),
			Phone:        nullStr(req.Phone),
			Email:        nullStr(req.Email),
			MaxStudents:  req.MaxStudents,
			MaxTeachers:  req.MaxTeachers,
			ValidUntil:   validUntil,
		}
		admin := repository.User{
			Email:        req.AdminEmail,
			PasswordHash: hash,
			FirstName:    req.AdminFirstName,
			LastName:     req.AdminLastName,
		}

		err = h.Schools.CreateWithAdmin(ctx, &school, &admin)
		if errors.Is(err, repository.ErrSchoolNumberExists) {
			continue // allocation race, try a fresh number
		}
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "admin email already exists"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "school creation failed"})
		}

		resp := toSchoolResponse(school)
		return c.JSON(http.StatusCreated, echo.Map{"school": resp, "admin": toUserResponse(admin)})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "school number space exhausted"})
}

// ListSchools returns every school with its user count.
func (h *SuperAdminHandler) ListSchools(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	schools, err := h.Schools.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch schools"})
	}
	out := make([]schoolResponse, 0, len(schools))
	for _, s := range schools {
		resp := toSchoolResponse(s.School)
		count := s.UserCount
		resp.UserCount = &count
		out = append(out, resp)
	}
	return c.JSON(http.StatusOK, out)
}

// ReactivateSchool extends a school's validity by the configured number of
// months counted from now.
func (h *SuperAdminHandler) ReactivateSchool(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid school id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	validUntil := time.Now().UTC().AddDate(0, h.Cfg.ValidityMonths, 0)
	school, err := h.Schools.Reactivate(ctx, id, validUntil)
	if err != nil {
		if errors.Is(err, repository.ErrSchoolNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "school not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reactivate school"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "school reactivated successfully",
		"school":  toSchoolResponse(school),
	})
}

// DeleteSchool removes a school; its member accounts cascade with it.
func (h *SuperAdminHandler) DeleteSchool(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid school id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Schools.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrSchoolNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "school not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete school"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "school deleted successfully"})
}

// ListAdmins returns every school administrator across all schools.
func (h *SuperAdminHandler) ListAdmins(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	admins, err := h.Users.ListAdmins(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch administrators"})
	}
	type adminResp struct {
		userResponse
		SchoolName   string `json:"school_name"`
		SchoolNumber string `json:"school_number"`
	}
	out := make([]adminResp, 0, len(admins))
	for _, a := range admins {
		out = append(out, adminResp{
			userResponse: toUserResponse(a.User),
			SchoolName:   a.SchoolName,
			SchoolNumber: a.SchoolNumber,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// GetProfile returns the superadmin's own account.
func (h *SuperAdminHandler) GetProfile(c echo.Context) error {
	claims := middleware.CurrentClaims(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch profile"})
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

type updateProfileReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// UpdateProfile lets the superadmin change their own name and email.
func (h *SuperAdminHandler) UpdateProfile(c echo.Context) error {
	claims := middleware.CurrentClaims(c)
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "first_name, last_name and email are required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, claims.UserID, req.FirstName, req.LastName, req.Email); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "profile updated successfully"})
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword verifies the current password before storing a new hash.
func (h *SuperAdminHandler) ChangePassword(c echo.Context) error {
	claims := middleware.CurrentClaims(c)
	var req changePasswordReq
	if err := c.Bind(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "current_password and new_password are required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, claims.UserID)
	if err != nil || !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "incorrect current password"})
	}
	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to change password"})
	}
	if err := h.Users.UpdatePassword(ctx, claims.UserID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to change password"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated successfully"})
}
