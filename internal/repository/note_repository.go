package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// LessonNote is authored by a teacher for one class of their school.
// Students in that class read the notes; only the authoring teacher may
// edit or delete them.
type LessonNote struct {
	ID        uint64    `json:"id"`
	SchoolID  uint64    `json:"school_id"`
	TeacherID uint64    `json:"teacher_id"`
	Subject   string    `json:"subject"`
	Class     string    `json:"class"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type NoteRepo struct{ DB *sql.DB }

func NewNoteRepo(db *sql.DB) *NoteRepo { return &NoteRepo{DB: db} }

const noteColumns = `id, school_id, teacher_id, subject, class, title, content, created_at, updated_at`

func scanNote(row rowScanner, n *LessonNote) error {
	return row.Scan(&n.ID, &n.SchoolID, &n.TeacherID, &n.Subject, &n.Class,
		&n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt)
}

// ListByTeacher returns the notes a teacher authored, newest first.
func (r *NoteRepo) ListByTeacher(ctx context.Context, teacherID uint64) ([]LessonNote, error) {
	return r.list(ctx,
		`SELECT `+noteColumns+` FROM lesson_notes WHERE teacher_id=? ORDER BY created_at DESC`, teacherID)
}

// ListBySchoolAndClass returns the notes visible to a student of the class.
func (r *NoteRepo) ListBySchoolAndClass(ctx context.Context, schoolID uint64, class string) ([]LessonNote, error) {
	return r.list(ctx,
		`SELECT `+noteColumns+` FROM lesson_notes WHERE school_id=? AND class=? ORDER BY created_at DESC`,
		schoolID, class)
}

func (r *NoteRepo) list(ctx context.Context, query string, args ...any) ([]LessonNote, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LessonNote
	for rows.Next() {
		var n LessonNote
		if err := scanNote(rows, &n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// GetByID retrieves one note.
func (r *NoteRepo) GetByID(ctx context.Context, id uint64) (LessonNote, error) {
	var n LessonNote
	err := scanNote(r.DB.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM lesson_notes WHERE id=? LIMIT 1`, id), &n)
	if errors.Is(err, sql.ErrNoRows) {
		return LessonNote{}, ErrNoteNotFound
	}
	return n, err
}

// Create inserts a note and sets its ID.
func (r *NoteRepo) Create(ctx context.Context, n *LessonNote) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO lesson_notes (school_id, teacher_id, subject, class, title, content)
		 VALUES (?,?,?,?,?,?)`,
		n.SchoolID, n.TeacherID, n.Subject, n.Class, n.Title, n.Content)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// Update rewrites a note's content fields after the handler has checked
// authorship.
func (r *NoteRepo) Update(ctx context.Context, n *LessonNote) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE lesson_notes SET subject=?, class=?, title=?, content=? WHERE id=?`,
		n.Subject, n.Class, n.Title, n.Content, n.ID)
	return err
}

// Delete removes a note by id.
func (r *NoteRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM lesson_notes WHERE id=?`, id)
	return err
}
