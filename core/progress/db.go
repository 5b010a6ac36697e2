package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// MarkCompleted records a completion. The first mark for a (course, user)
// pair creates the logical progress record; re-marking the same subsection is
// a no-op.
func MarkCompleted(ctx context.Context, db sqlx.ExtContext, courseID, userID, subSectionID string) error {
	const q = `
	INSERT INTO progress (course_id, user_id, subsection_id, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT DO NOTHING`

	if _, err := db.ExecContext(ctx, q, courseID, userID, subSectionID, time.Now().UTC()); err != nil {
		return fmt.Errorf("marking subsection[%s] completed: %w", subSectionID, err)
	}

	return nil
}

// FetchCompleted returns the user's completed-subsection set for the course.
// Absence of any record is a normal state and yields an empty set, not an
// error. The identifiers are returned verbatim: reconciling them against the
// current content tree is the caller's concern.
func FetchCompleted(ctx context.Context, db sqlx.ExtContext, courseID, userID string) ([]string, error) {
	const q = `
	SELECT subsection_id FROM progress
	WHERE course_id = $1 AND user_id = $2
	ORDER BY created_at, subsection_id`

	ids := []string{}
	if err := sqlx.SelectContext(ctx, db, &ids, q, courseID, userID); err != nil {
		return nil, fmt.Errorf("selecting progress of user[%s] on course[%s]: %w", userID, courseID, err)
	}

	return ids, nil
}
