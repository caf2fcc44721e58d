package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// School represents a tenant: an independently administered school instance
// sharing this deployment. SchoolNumber is the allocator-assigned 6-digit
// identifier and never changes for the life of the row.
type School struct {
	ID                uint64
	SchoolNumber      string
	Name              string
	Address           sql.NullString
	Phone             sql.NullString
	Email             sql.NullString
	MaxStudents       int
	MaxTeachers       int
	ValidUntil        time.Time
	LastReactivatedAt sql.NullTime
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SchoolWithCount adds the total user count for the superadmin listing.
type SchoolWithCount struct {
	School
	UserCount int
}

const schoolColumns = `id, school_number, name, address, phone, email, max_students,
	max_teachers, valid_until, last_reactivated_at, created_at, updated_at`

type SchoolRepo struct{ DB *sql.DB }

func NewSchoolRepo(db *sql.DB) *SchoolRepo { return &SchoolRepo{DB: db} }

func scanSchool(row rowScanner, s *School) error {
	return row.Scan(&s.ID, &s.SchoolNumber, &s.Name, &s.Address, &s.Phone, &s.Email,
		&s.MaxStudents, &s.MaxTeachers, &s.ValidUntil, &s.LastReactivatedAt,
		&s.CreatedAt, &s.UpdatedAt)
}

// CreateWithAdmin inserts a school and its first administrator in one
// transaction, so a failed admin insert never leaves an orphaned school.
// A duplicate school_number maps to ErrSchoolNumberExists (allocation race,
// caller retries), a duplicate admin email to ErrEmailExists.
func (r *SchoolRepo) CreateWithAdmin(ctx context.Context, s *School, admin *User) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO schools (school_number, name, address, phone, email, max_students, max_teachers, valid_until)
		 VALUES (?,?,?,?,?,?,?,?)`,
		s.SchoolNumber, s.Name, s.Address, s.Phone, s.Email, s.MaxStudents, s.MaxTeachers, s.ValidUntil)
	if err != nil {
		if isDuplicate(err, "school_number") {
			return ErrSchoolNumberExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)

	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	admin.Role = RoleAdmin
	admin.SchoolID = &s.ID
	ares, err := tx.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name, role, school_id)
		 VALUES (?,?,?,?,?,?)`,
		admin.Email, admin.PasswordHash, admin.FirstName, admin.LastName, admin.Role, s.ID)
	if err != nil {
		if isDuplicate(err, "") {
			return ErrEmailExists
		}
		return err
	}
	aid, err := ares.LastInsertId()
	if err != nil {
		return err
	}
	admin.ID = uint64(aid)

	return tx.Commit()
}

// GetByID retrieves a school by primary key.
func (r *SchoolRepo) GetByID(ctx context.Context, id uint64) (School, error) {
	var s School
	err := scanSchool(r.DB.QueryRowContext(ctx,
		`SELECT `+schoolColumns+` FROM schools WHERE id=? LIMIT 1`, id), &s)
	if errors.Is(err, sql.ErrNoRows) {
		return School{}, ErrSchoolNotFound
	}
	return s, err
}

// GetByNumber retrieves a school by its 6-digit number.
func (r *SchoolRepo) GetByNumber(ctx context.Context, number string) (School, error) {
	var s School
	err := scanSchool(r.DB.QueryRowContext(ctx,
		`SELECT `+schoolColumns+` FROM schools WHERE school_number=? LIMIT 1`, number), &s)
	if errors.Is(err, sql.ErrNoRows) {
		return School{}, ErrSchoolNotFound
	}
	return s, err
}

// ExistsNumber reports whether a school number is taken; the allocator's
// advisory uniqueness probe.
func (r *SchoolRepo) ExistsNumber(ctx context.Context, number string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		`SELECT 1 FROM schools WHERE school_number=? LIMIT 1`, number).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// List returns all schools with their user counts, newest first.
func (r *SchoolRepo) List(ctx context.Context) ([]SchoolWithCount, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT s.id, s.school_number, s.name, s.address, s.phone, s.email, s.max_students,
			s.max_teachers, s.valid_until, s.last_reactivated_at, s.created_at, s.updated_at,
			COUNT(u.id)
		 FROM schools s LEFT JOIN users u ON u.school_id = s.id
		 GROUP BY s.id ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SchoolWithCount
	for rows.Next() {
		var s SchoolWithCount
		if err := rows.Scan(&s.ID, &s.SchoolNumber, &s.Name, &s.Address, &s.Phone, &s.Email,
			&s.MaxStudents, &s.MaxTeachers, &s.ValidUntil, &s.LastReactivatedAt,
			&s.CreatedAt, &s.UpdatedAt, &s.UserCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Reactivate extends a school's validity window and stamps the reactivation
// time. The new validUntil is computed by the caller from the configured
// validity period, counted from now rather than from the previous expiry.
func (r *SchoolRepo) Reactivate(ctx context.Context, id uint64, validUntil time.Time) (School, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE schools SET valid_until=?, last_reactivated_at=NOW() WHERE id=?`,
		validUntil, id)
	if err != nil {
		return School{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return School{}, ErrSchoolNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes a school; member accounts go with it via the FK cascade.
func (r *SchoolRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM schools WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrSchoolNotFound
	}
	return err
}
