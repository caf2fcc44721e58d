package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// User mirrors the 'users' table. Nullable columns use sql.Null* types;
// SchoolID is a pointer because superadmin rows carry no school.
type User struct {
	ID               uint64
	Email            string
	PasswordHash     string
	FirstName        string
	LastName         string
	Role             string
	SchoolID         *uint64
	StudentID        sql.NullString
	StudentClass     sql.NullString
	Subjects         sql.NullString
	Phone            sql.NullString
	Address          sql.NullString
	IsActive         bool
	IsEmailVerified  bool
	VerificationCode sql.NullString
	TwoFactorCode    sql.NullString
	TwoFactorExpires sql.NullTime
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// userColumns is the select list every user query scans; keep in sync with
// scanUser. userColumnsU is the same list qualified for joins.
const userColumns = `id, email, password_hash, first_name, last_name, role, school_id,
	student_id, student_class, subjects, phone, address, is_active, is_email_verified,
	verification_code, two_factor_code, two_factor_expires, created_at, updated_at`

const userColumnsU = `u.id, u.email, u.password_hash, u.first_name, u.last_name, u.role, u.school_id,
	u.student_id, u.student_class, u.subjects, u.phone, u.address, u.is_active, u.is_email_verified,
	u.verification_code, u.two_factor_code, u.two_factor_expires, u.created_at, u.updated_at`

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(row rowScanner, u *User) error {
	return row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role,
		&u.SchoolID, &u.StudentID, &u.StudentClass, &u.Subjects, &u.Phone, &u.Address,
		&u.IsActive, &u.IsEmailVerified, &u.VerificationCode, &u.TwoFactorCode,
		&u.TwoFactorExpires, &u.CreatedAt, &u.UpdatedAt)
}

// Create inserts a user and sets its ID. Duplicate email and duplicate
// student_id violations are mapped to their sentinels so callers can either
// report a conflict or re-run identifier allocation.
func (r *UserRepo) Create(ctx context.Context, u *User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name, role, school_id,
			student_id, student_class, subjects, phone, address, is_email_verified, verification_code)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, u.SchoolID,
		u.StudentID, u.StudentClass, u.Subjects, u.Phone, u.Address,
		u.IsEmailVerified, u.VerificationCode)
	if err != nil {
		if isDuplicate(err, "student_id") {
			return ErrStudentIDExists
		}
		if isDuplicate(err, "") {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
	var u User
	err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=? LIMIT 1`, id), &u)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

// GetByEmailAndRole fetches a user by normalized email restricted to one
// role; login flows use it so a teacher's email cannot open an admin session.
func (r *UserRepo) GetByEmailAndRole(ctx context.Context, email, role string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u User
	err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email=? AND role=? LIMIT 1`, email, role), &u)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

// GetByStudentID fetches a student account by its allocated student ID.
func (r *UserRepo) GetByStudentID(ctx context.Context, studentID string) (User, error) {
	var u User
	err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE student_id=? AND role=? LIMIT 1`,
		strings.TrimSpace(studentID), RoleStudent), &u)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

// GetAdminBySchoolNumber fetches an admin account by email within the school
// identified by its 6-digit number.
func (r *UserRepo) GetAdminBySchoolNumber(ctx context.Context, email, schoolNumber string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u User
	err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumnsU+`
		 FROM users u JOIN schools s ON s.id = u.school_id
		 WHERE u.email=? AND u.role=? AND s.school_number=? LIMIT 1`,
		email, RoleAdmin, schoolNumber), &u)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

// ExistsStudentID reports whether a student ID is already taken. Used as the
// allocator's advisory uniqueness probe.
func (r *UserRepo) ExistsStudentID(ctx context.Context, studentID string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE student_id=? LIMIT 1`, studentID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// VerifyEmail marks the account verified and clears the one-time code.
// It only matches when the stored code equals the presented one, so the
// affected-rows count doubles as the correctness check.
func (r *UserRepo) VerifyEmail(ctx context.Context, email, code string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET is_email_verified=1, verification_code=NULL
		 WHERE email=? AND role=? AND verification_code=?`,
		email, RoleSuperAdmin, code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetTwoFactor stores a fresh 2FA code and its expiry for the user.
func (r *UserRepo) SetTwoFactor(ctx context.Context, userID uint64, code string, expires time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET two_factor_code=?, two_factor_expires=? WHERE id=?`,
		code, expires, userID)
	return err
}

// ClearTwoFactor removes the one-time 2FA code after successful use.
func (r *UserRepo) ClearTwoFactor(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET two_factor_code=NULL, two_factor_expires=NULL WHERE id=?`, userID)
	return err
}

// UpdatePassword replaces the stored hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_hash=? WHERE id=?`, hash, userID)
	return err
}

// UpdateProfile updates the superadmin's own name and email.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID uint64, firstName, lastName, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET first_name=?, last_name=?, email=? WHERE id=?`,
		firstName, lastName, email, userID)
	if isDuplicate(err, "") {
		return ErrEmailExists
	}
	return err
}

// MemberUpdate carries the fields an admin may change on a school member.
// Nil pointers leave the column untouched.
type MemberUpdate struct {
	FirstName    *string
	LastName     *string
	Phone        *string
	Address      *string
	StudentClass *string
	Subjects     *string
}

// UpdateMember applies a partial update to a student/teacher/admin row.
func (r *UserRepo) UpdateMember(ctx context.Context, id uint64, upd MemberUpdate) error {
	sets := []string{}
	args := []any{}
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+"=?")
			args = append(args, *v)
		}
	}
	add("first_name", upd.FirstName)
	add("last_name", upd.LastName)
	add("phone", upd.Phone)
	add("address", upd.Address)
	add("student_class", upd.StudentClass)
	add("subjects", upd.Subjects)
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id=?`, args...)
	return err
}

// ListByRoleAndSchool returns the members of a school having the given role,
// newest first.
func (r *UserRepo) ListByRoleAndSchool(ctx context.Context, role string, schoolID uint64) ([]User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE school_id=? AND role=? ORDER BY created_at DESC`,
		schoolID, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ListStudentsWithoutID returns student rows missing an allocated student
// ID, oldest first. Used by the backfill command.
func (r *UserRepo) ListStudentsWithoutID(ctx context.Context) ([]User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE role=? AND student_id IS NULL ORDER BY created_at ASC`,
		RoleStudent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetStudentID assigns an allocated student ID to an existing student row.
func (r *UserRepo) SetStudentID(ctx context.Context, userID uint64, studentID string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET student_id=? WHERE id=?`, studentID, userID)
	if isDuplicate(err, "student_id") {
		return ErrStudentIDExists
	}
	return err
}

// AdminAccount pairs an admin user with its school for the superadmin's
// global administrator listing.
type AdminAccount struct {
	User
	SchoolName   string
	SchoolNumber string
}

// ListAdmins returns every school administrator with school name and number,
// newest first.
func (r *UserRepo) ListAdmins(ctx context.Context) ([]AdminAccount, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumnsU+`, s.name, s.school_number
		 FROM users u JOIN schools s ON s.id = u.school_id
		 WHERE u.role=? ORDER BY u.created_at DESC`, RoleAdmin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AdminAccount
	for rows.Next() {
		var a AdminAccount
		if err := rows.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.Role,
			&a.SchoolID, &a.StudentID, &a.StudentClass, &a.Subjects, &a.Phone, &a.Address,
			&a.IsActive, &a.IsEmailVerified, &a.VerificationCode, &a.TwoFactorCode,
			&a.TwoFactorExpires, &a.CreatedAt, &a.UpdatedAt, &a.SchoolName, &a.SchoolNumber); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountByRoleAndSchool counts school members with the given role; quota
// checks run against it before user creation.
func (r *UserRepo) CountByRoleAndSchool(ctx context.Context, role string, schoolID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE school_id=? AND role=?`, schoolID, role).Scan(&n)
	return n, err
}

// SetActive flips the soft-deactivation flag.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET is_active=? WHERE id=?`, active, id)
	return err
}

// Delete removes a user row permanently.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrUserNotFound
	}
	return err
}
