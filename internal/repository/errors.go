// Package repository defines the raw-SQL data access layer along with the
// sentinel errors shared across repositories. The sentinels let handlers
// distinguish failure scenarios without inspecting driver errors: duplicate
// key violations become typed conflicts, missing rows become not-found
// values.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrEmailExists is returned when an insert violates the unique email index.
var ErrEmailExists = errors.New("email already exists")

// ErrStudentIDExists is returned when an insert violates the unique
// student_id index. Callers treat it as a lost allocation race and re-run
// the identifier allocator.
var ErrStudentIDExists = errors.New("student id already exists")

// ErrSchoolNumberExists is returned when a school insert violates the unique
// school_number index; the caller re-runs allocation.
var ErrSchoolNumberExists = errors.New("school number already exists")

// ErrSubjectExists is returned when a subject insert violates the unique
// name index.
var ErrSubjectExists = errors.New("subject already exists")

// ErrUserNotFound is returned when a user lookup matches no row.
var ErrUserNotFound = errors.New("user not found")

// ErrSchoolNotFound is returned when a school lookup matches no row.
var ErrSchoolNotFound = errors.New("school not found")

// ErrExamNotFound is returned when an exam schedule lookup matches no row.
var ErrExamNotFound = errors.New("exam schedule not found")

// ErrNoteNotFound is returned when a lesson note lookup matches no row.
var ErrNoteNotFound = errors.New("lesson note not found")

// isDuplicate reports whether err is a MySQL duplicate-entry error (1062),
// optionally on the named key. The error number identifies the violation
// regardless of server locale; only the key name has to be matched in the
// message text, since the driver does not break it out separately.
func isDuplicate(err error, key string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != 1062 {
		return false
	}
	return key == "" || strings.Contains(strings.ToLower(me.Message), key)
}
