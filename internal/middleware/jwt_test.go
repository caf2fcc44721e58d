package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/jesaworld/sms-backend/internal/utils"
)

const testSecret = "middleware-test-secret"

func runProtected(t *testing.T, authHeader string, mw ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, *utils.Claims) {
	t.Helper()
	e := echo.New()
	var seen *utils.Claims
	h := func(c echo.Context) error {
		seen = CurrentClaims(c)
		return c.String(http.StatusOK, "ok")
	}
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler chain: %v", err)
	}
	return rec, seen
}

func TestJWTAuthValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, utils.Claims{UserID: 9, Role: "ADMIN", SchoolID: 3}, 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	rec, claims := runProtected(t, "Bearer "+tok.Token, JWTAuth(testSecret))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if claims == nil || claims.UserID != 9 || claims.Role != "ADMIN" || claims.SchoolID != 3 {
		t.Fatalf("claims not propagated: %+v", claims)
	}
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec, _ := runProtected(t, "", JWTAuth(testSecret))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthBadToken(t *testing.T) {
	rec, _ := runProtected(t, "Bearer not.a.jwt", JWTAuth(testSecret))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", utils.Claims{UserID: 9, Role: "ADMIN"}, 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	rec, _ := runProtected(t, "Bearer "+tok.Token, JWTAuth(testSecret))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name    string
		role    string
		allowed []string
		want    int
	}{
		{"exact match", "ADMIN", []string{"ADMIN"}, http.StatusOK},
		{"one of several", "SUPERADMIN", []string{"ADMIN", "SUPERADMIN"}, http.StatusOK},
		{"role not allowed", "STUDENT", []string{"ADMIN"}, http.StatusForbidden},
		{"case sensitive", "admin", []string{"ADMIN"}, http.StatusForbidden},
	}
	for _, tc := range cases {
		tok, err := utils.NewAccessToken(testSecret, utils.Claims{UserID: 1, Role: tc.role}, 15)
		if err != nil {
			t.Fatalf("%s: NewAccessToken: %v", tc.name, err)
		}
		rec, _ := runProtected(t, "Bearer "+tok.Token, JWTAuth(testSecret), RequireRole(tc.allowed...))
		if rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.want)
		}
	}
}

func TestRequireRoleWithoutJWTAuth(t *testing.T) {
	e := echo.New()
	h := RequireRole("ADMIN")(func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 when no role is set", rec.Code)
	}
}
