package repository

// Role is the closed set of principal kinds in the system. Values match the
// role column in the users table and the "role" claim in access tokens.
type Role = string

const (
	RoleSuperAdmin Role = "SUPERADMIN" // platform operator, not bound to a school
	RoleAdmin      Role = "ADMIN"      // school administrator
	RoleTeacher    Role = "TEACHER"    // teaching staff of a school
	RoleStudent    Role = "STUDENT"    // enrolled student, logs in by student ID
)

// memberRoles are the roles an admin may create inside their school.
var memberRoles = map[Role]bool{
	RoleAdmin:   true,
	RoleTeacher: true,
	RoleStudent: true,
}

// ValidMemberRole reports whether s names a role that belongs to a school.
func ValidMemberRole(s string) bool { return memberRoles[s] }
