package course

import (
	"context"
	"errors"
	"fmt"

	"github.com/educast/catalog/core/category"
	"github.com/educast/catalog/core/content"
	"github.com/educast/catalog/core/user"
	"github.com/educast/catalog/database"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

// Assemble loads the course and resolves its references to the requested
// depth. Children are fetched concurrently but land in position order, so the
// same store state always yields the same view. A reference whose record no
// longer exists is skipped rather than failing the assembly.
func Assemble(ctx context.Context, db *sqlx.DB, courseID string, depth Depth) (View, error) {
	c, err := Fetch(ctx, db, courseID)
	if err != nil {
		return View{}, err
	}

	v := View{Course: c}

	if inst, err := user.Fetch(ctx, db, c.InstructorID); err == nil {
		inst.PasswordHash = ""
		v.Instructor = &inst
	} else if !errors.Is(err, database.ErrNotFound) {
		return View{}, fmt.Errorf("resolving instructor: %w", err)
	}

	if cat, err := category.Fetch(ctx, db, c.CategoryID); err == nil {
		v.Category = &cat
	} else if !errors.Is(err, database.ErrNotFound) {
		return View{}, fmt.Errorf("resolving category: %w", err)
	}

	if depth == Shallow {
		return v, nil
	}

	secs, err := content.FetchSectionsByCourse(ctx, db, c.ID)
	if err != nil {
		return View{}, fmt.Errorf("resolving sections: %w", err)
	}

	views := make([]SectionView, len(secs))
	g, gctx := errgroup.WithContext(ctx)
	for i, sec := range secs {
		i, sec := i, sec
		g.Go(func() error {
			subs, err := content.FetchSubSectionsBySection(gctx, db, sec.ID)
			if err != nil {
				return fmt.Errorf("resolving subsections of section[%s]: %w", sec.ID, err)
			}
			views[i] = SectionView{Section: sec, SubSections: subs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return View{}, err
	}
	v.Content = views

	students, err := user.FetchEnrolledStudentIDs(ctx, db, c.ID)
	if err != nil {
		return View{}, fmt.Errorf("resolving enrolled students: %w", err)
	}
	v.Students = students

	return v, nil
}
