package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ExamSchedule is a school-scoped exam slot. Subject and Class are plain
// strings rather than foreign keys, mirroring how schools describe their
// timetables.
type ExamSchedule struct {
	ID        uint64    `json:"id"`
	SchoolID  uint64    `json:"school_id"`
	Subject   string    `json:"subject"`
	Class     string    `json:"class"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Duration  string    `json:"duration"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ExamRepo struct{ DB *sql.DB }

func NewExamRepo(db *sql.DB) *ExamRepo { return &ExamRepo{DB: db} }

const examColumns = `id, school_id, subject, class, date, time, duration, type, created_at, updated_at`

func scanExam(row rowScanner, e *ExamSchedule) error {
	return row.Scan(&e.ID, &e.SchoolID, &e.Subject, &e.Class, &e.Date, &e.Time,
		&e.Duration, &e.Type, &e.CreatedAt, &e.UpdatedAt)
}

// ListBySchool returns a school's exam schedules ordered by date.
func (r *ExamRepo) ListBySchool(ctx context.Context, schoolID uint64) ([]ExamSchedule, error) {
	return r.list(ctx,
		`SELECT `+examColumns+` FROM exam_schedules WHERE school_id=? ORDER BY date ASC`, schoolID)
}

// ListBySchoolAndClass returns the schedules a student in the given class
// should see.
func (r *ExamRepo) ListBySchoolAndClass(ctx context.Context, schoolID uint64, class string) ([]ExamSchedule, error) {
	return r.list(ctx,
		`SELECT `+examColumns+` FROM exam_schedules WHERE school_id=? AND class=? ORDER BY date ASC`,
		schoolID, class)
}

func (r *ExamRepo) list(ctx context.Context, query string, args ...any) ([]ExamSchedule, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ExamSchedule
	for rows.Next() {
		var e ExamSchedule
		if err := scanExam(rows, &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetByID retrieves one exam schedule.
func (r *ExamRepo) GetByID(ctx context.Context, id uint64) (ExamSchedule, error) {
	var e ExamSchedule
	err := scanExam(r.DB.QueryRowContext(ctx,
		`SELECT `+examColumns+` FROM exam_schedules WHERE id=? LIMIT 1`, id), &e)
	if errors.Is(err, sql.ErrNoRows) {
		return ExamSchedule{}, ErrExamNotFound
	}
	return e, err
}

// Create inserts a schedule and sets its ID.
func (r *ExamRepo) Create(ctx context.Context, e *ExamSchedule) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO exam_schedules (school_id, subject, class, date, time, duration, type)
		 VALUES (?,?,?,?,?,?,?)`,
		e.SchoolID, e.Subject, e.Class, e.Date, e.Time, e.Duration, e.Type)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// Update rewrites the mutable fields of a schedule.
func (r *ExamRepo) Update(ctx context.Context, e *ExamSchedule) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE exam_schedules SET subject=?, class=?, date=?, time=?, duration=?, type=? WHERE id=?`,
		e.Subject, e.Class, e.Date, e.Time, e.Duration, e.Type, e.ID)
	return err
}

// Delete removes a schedule by id.
func (r *ExamRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM exam_schedules WHERE id=?`, id)
	return err
}
