package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/jesaworld/sms-backend/internal/repository"
	"github.com/jesaworld/sms-backend/internal/utils"
)

func ctxWithClaims(claims *utils.Claims) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if claims != nil {
		c.Set("claims", claims)
	}
	return c
}

func TestMayTouchTenantScope(t *testing.T) {
	schoolA := uint64(1)
	schoolB := uint64(2)
	h := &AdminHandler{}

	cases := []struct {
		name   string
		claims *utils.Claims
		target repository.User
		want   bool
	}{
		{"admin own school", &utils.Claims{Role: repository.RoleAdmin, SchoolID: schoolA},
			repository.User{SchoolID: &schoolA}, true},
		{"admin other school", &utils.Claims{Role: repository.RoleAdmin, SchoolID: schoolA},
			repository.User{SchoolID: &schoolB}, false},
		{"admin vs schoolless target", &utils.Claims{Role: repository.RoleAdmin, SchoolID: schoolA},
			repository.User{}, false},
		{"superadmin any school", &utils.Claims{Role: repository.RoleSuperAdmin},
			repository.User{SchoolID: &schoolB}, true},
		{"no claims", nil, repository.User{SchoolID: &schoolA}, false},
	}
	for _, tc := range cases {
		if got := h.mayTouch(ctxWithClaims(tc.claims), tc.target); got != tc.want {
			t.Errorf("%s: mayTouch = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestTargetSchoolID(t *testing.T) {
	if got := targetSchoolID(ctxWithClaims(&utils.Claims{Role: repository.RoleAdmin, SchoolID: 5}), 9); got != 5 {
		t.Fatalf("admin must be locked to their own school, got %d", got)
	}
	if got := targetSchoolID(ctxWithClaims(&utils.Claims{Role: repository.RoleSuperAdmin}), 9); got != 9 {
		t.Fatalf("superadmin must use the explicit school, got %d", got)
	}
	if got := targetSchoolID(ctxWithClaims(&utils.Claims{Role: repository.RoleSuperAdmin}), 0); got != 0 {
		t.Fatalf("missing explicit school must yield 0, got %d", got)
	}
	if got := targetSchoolID(ctxWithClaims(nil), 9); got != 0 {
		t.Fatalf("missing claims must yield 0, got %d", got)
	}
}
