package course

import (
	"context"
	"fmt"

	"github.com/educast/catalog/core/content"
	"github.com/educast/catalog/core/user"
	"github.com/jmoiron/sqlx"
)

// DeletePhase names how far a cascade deletion got before failing.
type DeletePhase string

const (
	PhaseUnenroll DeletePhase = "unenroll"
	PhaseContent  DeletePhase = "content"
	PhaseCourse   DeletePhase = "course"
)

// PartialDeleteError reports a cascade deletion that failed after earlier
// destructive steps already succeeded. The graph is left partially deleted;
// because every step is idempotent, rerunning the deletion completes the
// remainder. No rollback is attempted.
type PartialDeleteError struct {
	CourseID string
	Phase    DeletePhase
	Err      error
}

func (e *PartialDeleteError) Error() string {
	return fmt.Sprintf("cascade deletion of course[%s] failed during %s phase: %v", e.CourseID, e.Phase, e.Err)
}

func (e *PartialDeleteError) Unwrap() error { return e.Err }

// CascadeDelete removes the course together with everything it exclusively
// owns, in order: enrollment retractions first, then each section's
// subsections and the section itself, finally the course record. The steps
// run outside any transaction; records already gone are tolerated so the
// sequence can be rerun after a partial failure. Instructor and category
// back-references are derived from the course row and need no retraction.
func CascadeDelete(ctx context.Context, db *sqlx.DB, courseID string) error {
	c, err := Fetch(ctx, db, courseID)
	if err != nil {
		return err
	}

	students, err := user.FetchEnrolledStudentIDs(ctx, db, c.ID)
	if err != nil {
		return fmt.Errorf("listing enrolled students: %w", err)
	}

	for _, sid := range students {
		if err := user.Unenroll(ctx, db, c.ID, sid); err != nil {
			return &PartialDeleteError{CourseID: c.ID, Phase: PhaseUnenroll, Err: err}
		}
	}

	secs, err := content.FetchSectionsByCourse(ctx, db, c.ID)
	if err != nil {
		return &PartialDeleteError{CourseID: c.ID, Phase: PhaseContent, Err: err}
	}

	for _, sec := range secs {
		subs, err := content.FetchSubSectionsBySection(ctx, db, sec.ID)
		if err != nil {
			return &PartialDeleteError{CourseID: c.ID, Phase: PhaseContent, Err: err}
		}

		for _, sub := range subs {
			if err := content.DeleteSubSection(ctx, db, sub.ID); err != nil {
				return &PartialDeleteError{CourseID: c.ID, Phase: PhaseContent, Err: err}
			}
		}

		if err := content.DeleteSection(ctx, db, sec.ID); err != nil {
			return &PartialDeleteError{CourseID: c.ID, Phase: PhaseContent, Err: err}
		}
	}

	if err := Delete(ctx, db, c.ID); err != nil {
		return &PartialDeleteError{CourseID: c.ID, Phase: PhaseCourse, Err: err}
	}

	return nil
}
