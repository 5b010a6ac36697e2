package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/educast/catalog/database"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, c Course) error {
	const q = `
	INSERT INTO courses
		(course_id, name, description, outcomes, price, tags, thumbnail_url,
		 status, instructions, instructor_id, category_id, created_at, updated_at)
	VALUES
		(:course_id, :name, :description, :outcomes, :price, :tags, :thumbnail_url,
		 :status, :instructions, :instructor_id, :category_id, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("inserting course: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Course, error) {
	const q = `SELECT * FROM courses WHERE course_id = $1`

	var c Course
	if err := sqlx.GetContext(ctx, db, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, database.ErrNotFound
		}
		return Course{}, fmt.Errorf("selecting course[%s]: %w", id, err)
	}

	return c, nil
}

func FetchPublished(ctx context.Context, db sqlx.ExtContext) ([]Course, error) {
	const q = `SELECT * FROM courses WHERE status = $1 ORDER BY created_at DESC, course_id`

	cs := []Course{}
	if err := sqlx.SelectContext(ctx, db, &cs, q, StatusPublished); err != nil {
		return nil, fmt.Errorf("selecting published courses: %w", err)
	}

	return cs, nil
}

func FetchByInstructor(ctx context.Context, db sqlx.ExtContext, instructorID string) ([]Course, error) {
	const q = `SELECT * FROM courses WHERE instructor_id = $1 ORDER BY created_at DESC, course_id`

	cs := []Course{}
	if err := sqlx.SelectContext(ctx, db, &cs, q, instructorID); err != nil {
		return nil, fmt.Errorf("selecting courses of instructor[%s]: %w", instructorID, err)
	}

	return cs, nil
}

func FetchByCategory(ctx context.Context, db sqlx.ExtContext, categoryID string) ([]Course, error) {
	const q = `SELECT * FROM courses WHERE category_id = $1 ORDER BY created_at DESC, course_id`

	cs := []Course{}
	if err := sqlx.SelectContext(ctx, db, &cs, q, categoryID); err != nil {
		return nil, fmt.Errorf("selecting courses of category[%s]: %w", categoryID, err)
	}

	return cs, nil
}

// Update persists the whole mutable field set in one statement: the patch has
// already been folded into c by ApplyPatch, so this is the single save of the
// edit sequence.
func Update(ctx context.Context, db sqlx.ExtContext, c Course) error {
	const q = `
	UPDATE courses SET
		name          = :name,
		description   = :description,
		outcomes      = :outcomes,
		price         = :price,
		tags          = :tags,
		thumbnail_url = :thumbnail_url,
		status        = :status,
		instructions  = :instructions,
		category_id   = :category_id,
		updated_at    = :updated_at
	WHERE course_id = :course_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("updating course[%s]: %w", c.ID, err)
	}

	return nil
}

// Delete removes the course record. Deleting an absent record is a no-op so
// concurrent or rerun deletions stay safe.
func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM courses WHERE course_id = $1`

	if _, err := db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("deleting course[%s]: %w", id, err)
	}

	return nil
}
