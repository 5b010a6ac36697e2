package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/educast/catalog/database"
	"github.com/jmoiron/sqlx"
)

func CreateSection(ctx context.Context, db sqlx.ExtContext, s Section) error {
	const q = `
	INSERT INTO sections (section_id, course_id, name, position, created_at)
	VALUES (:section_id, :course_id, :name, :position, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, s); err != nil {
		return fmt.Errorf("inserting section: %w", err)
	}

	return nil
}

func FetchSection(ctx context.Context, db sqlx.ExtContext, id string) (Section, error) {
	const q = `SELECT * FROM sections WHERE section_id = $1`

	var s Section
	if err := sqlx.GetContext(ctx, db, &s, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Section{}, database.ErrNotFound
		}
		return Section{}, fmt.Errorf("selecting section[%s]: %w", id, err)
	}

	return s, nil
}

// FetchSectionsByCourse returns the course's sections in course order.
// References whose record no longer exists simply do not appear: dangling
// children are skipped, never fatal.
func FetchSectionsByCourse(ctx context.Context, db sqlx.ExtContext, courseID string) ([]Section, error) {
	const q = `SELECT * FROM sections WHERE course_id = $1 ORDER BY position, section_id`

	ss := []Section{}
	if err := sqlx.SelectContext(ctx, db, &ss, q, courseID); err != nil {
		return nil, fmt.Errorf("selecting sections of course[%s]: %w", courseID, err)
	}

	return ss, nil
}

func UpdateSectionName(ctx context.Context, db sqlx.ExtContext, id string, name string) error {
	const q = `UPDATE sections SET name = $2 WHERE section_id = $1`

	if _, err := db.ExecContext(ctx, q, id, name); err != nil {
		return fmt.Errorf("updating section[%s]: %w", id, err)
	}

	return nil
}

// DeleteSection removes a single section record. Deleting an absent record is
// a no-op so cascade deletion can be rerun safely.
func DeleteSection(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM sections WHERE section_id = $1`

	if _, err := db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("deleting section[%s]: %w", id, err)
	}

	return nil
}

func NextSectionPosition(ctx context.Context, db sqlx.ExtContext, courseID string) (int, error) {
	const q = `SELECT COALESCE(MAX(position), -1) + 1 FROM sections WHERE course_id = $1`

	var pos int
	if err := sqlx.GetContext(ctx, db, &pos, q, courseID); err != nil {
		return 0, fmt.Errorf("selecting next section position: %w", err)
	}

	return pos, nil
}

func CreateSubSection(ctx context.Context, db sqlx.ExtContext, s SubSection) error {
	const q = `
	INSERT INTO subsections (subsection_id, section_id, title, description, video_url, duration, position, created_at)
	VALUES (:subsection_id, :section_id, :title, :description, :video_url, :duration, :position, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, s); err != nil {
		return fmt.Errorf("inserting subsection: %w", err)
	}

	return nil
}

func FetchSubSection(ctx context.Context, db sqlx.ExtContext, id string) (SubSection, error) {
	const q = `SELECT * FROM subsections WHERE subsection_id = $1`

	var s SubSection
	if err := sqlx.GetContext(ctx, db, &s, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SubSection{}, database.ErrNotFound
		}
		return SubSection{}, fmt.Errorf("selecting subsection[%s]: %w", id, err)
	}

	return s, nil
}

func FetchSubSectionsBySection(ctx context.Context, db sqlx.ExtContext, sectionID string) ([]SubSection, error) {
	const q = `SELECT * FROM subsections WHERE section_id = $1 ORDER BY position, subsection_id`

	ss := []SubSection{}
	if err := sqlx.SelectContext(ctx, db, &ss, q, sectionID); err != nil {
		return nil, fmt.Errorf("selecting subsections of section[%s]: %w", sectionID, err)
	}

	return ss, nil
}

func UpdateSubSection(ctx context.Context, db sqlx.ExtContext, s SubSection) error {
	const q = `
	UPDATE subsections SET
		title       = :title,
		description = :description,
		video_url   = :video_url,
		duration    = :duration
	WHERE subsection_id = :subsection_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, s); err != nil {
		return fmt.Errorf("updating subsection[%s]: %w", s.ID, err)
	}

	return nil
}

// DeleteSubSection is idempotent for the same reason DeleteSection is.
func DeleteSubSection(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM subsections WHERE subsection_id = $1`

	if _, err := db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("deleting subsection[%s]: %w", id, err)
	}

	return nil
}

func NextSubSectionPosition(ctx context.Context, db sqlx.ExtContext, sectionID string) (int, error) {
	const q = `SELECT COALESCE(MAX(position), -1) + 1 FROM subsections WHERE section_id = $1`

	var pos int
	if err := sqlx.GetContext(ctx, db, &pos, q, sectionID); err != nil {
		return 0, fmt.Errorf("selecting next subsection position: %w", err)
	}

	return pos, nil
}

// FetchCourseOwner reports the instructor owning the course a section hangs
// off. Kept here as a plain query to spare the authoring handlers a
// dependency on the course package.
func FetchCourseOwner(ctx context.Context, db sqlx.ExtContext, courseID string) (string, error) {
	const q = `SELECT instructor_id FROM courses WHERE course_id = $1`

	var owner string
	if err := sqlx.GetContext(ctx, db, &owner, q, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", database.ErrNotFound
		}
		return "", fmt.Errorf("selecting owner of course[%s]: %w", courseID, err)
	}

	return owner, nil
}
