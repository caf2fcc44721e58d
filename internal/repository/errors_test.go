package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func dupErr(msg string) error {
	return &mysql.MySQLError{Number: 1062, Message: msg}
}

func TestIsDuplicate(t *testing.T) {
	cases := []struct {
		name string
		err  error
		key  string
		want bool
	}{
		{"nil error", nil, "", false},
		{"duplicate any key", dupErr("Duplicate entry 'a@b.c' for key 'users.email'"), "", true},
		{"duplicate named key", dupErr("Duplicate entry '1234561111' for key 'users.student_id'"), "student_id", true},
		{"duplicate on other key", dupErr("Duplicate entry 'a@b.c' for key 'users.email'"), "student_id", false},
		{"wrapped duplicate", fmt.Errorf("insert user: %w", dupErr("Duplicate entry 'a@b.c' for key 'users.email'")), "", true},
		{"other mysql error", &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}, "", false},
		{"unrelated error", errors.New("connection refused"), "", false},
	}
	for _, tc := range cases {
		if got := isDuplicate(tc.err, tc.key); got != tc.want {
			t.Errorf("%s: isDuplicate = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestValidMemberRole(t *testing.T) {
	for role, want := range map[string]bool{
		RoleAdmin:      true,
		RoleTeacher:    true,
		RoleStudent:    true,
		RoleSuperAdmin: false, // superadmins are created via registration, never by an admin
		"admin":        false,
		"":             false,
	} {
		if got := ValidMemberRole(role); got != want {
			t.Errorf("ValidMemberRole(%q) = %v, want %v", role, got, want)
		}
	}
}
