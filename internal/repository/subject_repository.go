package repository

import (
	"context"
	"database/sql"
	"strings"
)

// Subject is a global reference-list entry (not school-scoped) describing a
// teachable subject grouped by section and category.
type Subject struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Section  string `json:"section"`
	Category string `json:"category"`
}

type SubjectRepo struct{ DB *sql.DB }

func NewSubjectRepo(db *sql.DB) *SubjectRepo { return &SubjectRepo{DB: db} }

// List returns all subjects ordered by section, category, then name.
func (r *SubjectRepo) List(ctx context.Context) ([]Subject, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, section, category FROM subjects ORDER BY section ASC, category ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Subject
	for rows.Next() {
		var s Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.Section, &s.Category); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create inserts a subject. Section is stored upper-cased and category
// defaults to "General", matching how the reference list is seeded.
func (r *SubjectRepo) Create(ctx context.Context, s *Subject) error {
	s.Section = strings.ToUpper(strings.TrimSpace(s.Section))
	if s.Category == "" {
		s.Category = "General"
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO subjects (name, section, category) VALUES (?,?,?)`,
		s.Name, s.Section, s.Category)
	if err != nil {
		if isDuplicate(err, "") {
			return ErrSubjectExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// Delete removes a subject by id.
func (r *SubjectRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM subjects WHERE id=?`, id)
	return err
}
