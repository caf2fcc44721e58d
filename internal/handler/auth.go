package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jesaworld/sms-backend/internal/config"
	"github.com/jesaworld/sms-backend/internal/middleware"
	"github.com/jesaworld/sms-backend/internal/queue"
	"github.com/jesaworld/sms-backend/internal/repository"
	mailer "github.com/jesaworld/sms-backend/internal/service"
	"github.com/jesaworld/sms-backend/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints: superadmin
// registration and email verification, the role-dispatched login, the 2FA
// step, and refresh-token rotation.
type AuthHandler struct {
	Cfg     config.Config
	Users   *repository.UserRepo
	Schools *repository.SchoolRepo
	Tokens  *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, s *repository.SchoolRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Schools: s, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
type codeReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
type loginReq struct {
	Role         string `json:"role"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	SchoolNumber string `json:"school_number"`
	StudentID    string `json:"student_id"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type sessionUser struct {
	ID         uint64  `json:"id"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Role       string  `json:"role"`
	SchoolName *string `json:"school_name,omitempty"`
	StudentID  *string `json:"student_id,omitempty"`
}
type authResp struct {
	User    sessionUser `json:"user"`
	Access  tokenPart   `json:"access"`
	Refresh tokenPart   `json:"refresh"`
}

// RegisterSuperAdmin creates an unverified superadmin account and queues a
// verification email. The account cannot log in until the emailed code has
// been presented to VerifyEmail.
func (h *AuthHandler) RegisterSuperAdmin(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, password and name are required"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
	}
	code, err := utils.SixDigitCode()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u := repository.User{
		Email:            req.Email,
		PasswordHash:     hash,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Role:             repository.RoleSuperAdmin,
		VerificationCode: nullStr(code),
	}
	if err := h.Users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
	}

	// Best effort: the code is already persisted, mail failure must not fail
	// the registration.
	_ = mailer.PublishEmail(ctx, queue.EmailEvent{
		To:      req.Email,
		Subject: "Verify your Super Admin Account",
		HTML:    fmt.Sprintf("<p>Your verification code is: <strong>%s</strong></p>", code),
		Kind:    "verification",
	})

	return c.JSON(http.StatusCreated, echo.Map{"message": "verification code sent to email", "email": req.Email})
}

// VerifyEmail consumes the one-time verification code and, on success,
// returns a full token pair so the new superadmin is logged in immediately.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req codeReq
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and code are required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ok, err := h.Users.VerifyEmail(ctx, req.Email, req.Code)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid verification code"})
	}

	u, err := h.Users.GetByEmailAndRole(ctx, req.Email, repository.RoleSuperAdmin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}
	return h.respondWithTokens(c, u, nil)
}

// Login dispatches on the requested role. Superadmins go through the 2FA
// sub-flow; school members authenticate directly but are rejected when
// their school's validity window has passed.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	switch strings.ToUpper(strings.TrimSpace(req.Role)) {
	case repository.RoleSuperAdmin:
		return h.loginSuperAdmin(c, req)

	case repository.RoleStudent:
		if strings.TrimSpace(req.StudentID) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "student ID is required"})
		}
		u, err := h.Users.GetByStudentID(ctx, req.StudentID)
		return h.loginSchoolMember(c, u, err, req.Password)

	case repository.RoleTeacher:
		if strings.TrimSpace(req.Email) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
		}
		u, err := h.Users.GetByEmailAndRole(ctx, req.Email, repository.RoleTeacher)
		return h.loginSchoolMember(c, u, err, req.Password)

	case repository.RoleAdmin:
		if strings.TrimSpace(req.SchoolNumber) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "school number is required"})
		}
		if strings.TrimSpace(req.Email) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
		}
		u, err := h.Users.GetAdminBySchoolNumber(ctx, req.Email, req.SchoolNumber)
		return h.loginSchoolMember(c, u, err, req.Password)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role specified"})
}

// loginSuperAdmin runs the first half of the superadmin login: credential
// check, verification gate, then a fresh 2FA code. The session is only
// issued by VerifyTwoFactor.
func (h *AuthHandler) loginSuperAdmin(c echo.Context, req loginReq) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmailAndRole(ctx, req.Email, repository.RoleSuperAdmin)
	if err != nil || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !u.IsEmailVerified {
		return c.JSON(http.StatusForbidden, echo.Map{
			"error":                "email not verified",
			"requiresVerification": true,
		})
	}

	code, err := utils.SixDigitCode()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	expires := time.Now().UTC().Add(h.Cfg.TwoFactorTTL)
	if err := h.Users.SetTwoFactor(ctx, u.ID, code, expires); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	_ = mailer.PublishEmail(ctx, queue.EmailEvent{
		To:      u.Email,
		Subject: "Your 2FA Login Code",
		HTML:    fmt.Sprintf("<p>Your login code is: <strong>%s</strong>. Use this to complete your login.</p>", code),
		Kind:    "two_factor",
	})

	return c.JSON(http.StatusOK, echo.Map{"requires2FA": true, "email": u.Email})
}

// loginSchoolMember finishes a student/teacher/admin login: credential and
// active checks, then the school validity gate, then token issuance.
func (h *AuthHandler) loginSchoolMember(c echo.Context, u repository.User, lookupErr error, password string) error {
	if lookupErr != nil {
		if errors.Is(lookupErr, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials or account inactive"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials or account inactive"})
	}
	if u.SchoolID == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "account has no school"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	school, err := h.Schools.GetByID(ctx, *u.SchoolID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	// Re-checked at every login, never from token claims.
	if schoolExpired(&school, time.Now().UTC()) {
		return c.JSON(http.StatusForbidden, echo.Map{
			"error":           "school license expired, please contact super admin",
			"isSchoolExpired": true,
			"validUntil":      school.ValidUntil,
		})
	}
	return h.respondWithTokens(c, u, &school)
}

// VerifyTwoFactor completes a superadmin login by consuming the one-time
// 2FA code. A wrong guess leaves the stored code and its expiry untouched.
func (h *AuthHandler) VerifyTwoFactor(c echo.Context) error {
	var req codeReq
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and code are required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmailAndRole(ctx, req.Email, repository.RoleSuperAdmin)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired 2FA code"})
	}
	if !twoFactorCodeValid(u.TwoFactorCode, u.TwoFactorExpires, req.Code, time.Now().UTC()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired 2FA code"})
	}
	if err := h.Users.ClearTwoFactor(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "2FA verification failed"})
	}
	return h.respondWithTokens(c, u, nil)
}

// twoFactorCodeValid reports whether the presented code matches the stored
// one-time code and the validity window has not passed. Both the code and
// its expiry must be present; a cleared code can never validate again.
func twoFactorCodeValid(stored sql.NullString, expires sql.NullTime, presented string, now time.Time) bool {
	if !stored.Valid || !expires.Valid || presented == "" {
		return false
	}
	if stored.String != presented {
		return false
	}
	return !now.After(expires.Time)
}

// schoolExpired reports whether a school's validity window has passed. A nil
// school means the account is not bound to one (superadmin) and never counts
// as expired. Both login and refresh run through this gate, so an expired
// tenant cannot keep a session alive by rotating refresh tokens.
func schoolExpired(school *repository.School, now time.Time) bool {
	return school != nil && now.After(school.ValidUntil)
}

// Refresh validates a refresh token by hash, revokes it and issues a new
// pair (rotation). The account and tenant gates from login apply here too:
// a deactivated account or an expired school cannot renew a session.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := reqCtx(c)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	var school *repository.School
	if u.SchoolID != nil {
		s, err := h.Schools.GetByID(ctx, *u.SchoolID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
		}
		school = &s
	}
	if schoolExpired(school, time.Now().UTC()) {
		return c.JSON(http.StatusForbidden, echo.Map{
			"error":           "school license expired, please contact super admin",
			"isSchoolExpired": true,
			"validUntil":      school.ValidUntil,
		})
	}
	return h.respondWithTokens(c, u, school)
}

// Logout revokes either the presented refresh token (single session) or,
// given only a valid bearer token, every session of the user.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}

	// No refresh token in the body: fall back to the bearer token and revoke
	// all sessions of the user.
	auth := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
		if err == nil && claims.UserID != 0 {
			if err := h.Tokens.RevokeAllForUser(ctx, claims.UserID); err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
			}
			return c.NoContent(http.StatusNoContent)
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

// Me returns the authenticated principal's claims (protected).
func (h *AuthHandler) Me(c echo.Context) error {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resp := echo.Map{
		"user_id": claims.UserID,
		"role":    claims.Role,
	}
	if claims.Email != "" {
		resp["email"] = claims.Email
	}
	if claims.SchoolID != 0 {
		resp["school_id"] = claims.SchoolID
		resp["school_number"] = claims.SchoolNumber
	}
	if claims.StudentID != "" {
		resp["student_id"] = claims.StudentID
	}
	return c.JSON(http.StatusOK, resp)
}

// respondWithTokens mints an access/refresh pair for the user and writes the
// session response. school may be nil for superadmins.
func (h *AuthHandler) respondWithTokens(c echo.Context, u repository.User, school *repository.School) error {
	claims := utils.Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
	}
	su := sessionUser{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Role: u.Role}
	if school != nil {
		claims.SchoolID = school.ID
		claims.SchoolNumber = school.SchoolNumber
		su.SchoolName = &school.Name
	}
	if u.StudentID.Valid {
		claims.StudentID = u.StudentID.String
		su.StudentID = strOrNil(u.StudentID)
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, claims, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:    su,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	})
}
