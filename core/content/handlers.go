package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/educast/catalog/api/web"
	"github.com/educast/catalog/api/weberr"
	"github.com/educast/catalog/core/claims"
	"github.com/educast/catalog/database"
	"github.com/educast/catalog/validate"
	"github.com/jmoiron/sqlx"
)

func checkDuration(d string) error {
	n, err := strconv.Atoi(d)
	if err != nil || n < 0 {
		return errors.New("timeDuration must be a non-negative integer count of seconds")
	}
	return nil
}

func checkOwnership(ctx context.Context, db sqlx.ExtContext, courseID string) error {
	clm, err := claims.Get(ctx)
	if err != nil {
		return weberr.NotAuthorized(errors.New("user not authenticated"))
	}

	owner, err := FetchCourseOwner(ctx, db, courseID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return weberr.NotFound(err)
		}
		return fmt.Errorf("resolving course owner: %w", err)
	}

	if owner != clm.UserID {
		err := errors.New("course is owned by another instructor")
		return weberr.NewError(err, err.Error(), http.StatusForbidden)
	}

	return nil
}

func HandleCreateSection(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var sn SectionNew
		if err := web.Decode(w, r, &sn); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding section: %w", err))
		}

		if err := validate.Check(sn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if err := checkOwnership(ctx, db, sn.CourseID); err != nil {
			return err
		}

		pos, err := NextSectionPosition(ctx, db, sn.CourseID)
		if err != nil {
			return fmt.Errorf("allocating section position: %w", err)
		}

		s := Section{
			ID:        validate.GenerateID(),
			CourseID:  sn.CourseID,
			Name:      sn.Name,
			Position:  pos,
			CreatedAt: time.Now().UTC(),
		}

		if err := CreateSection(ctx, db, s); err != nil {
			return fmt.Errorf("creating section: %w", err)
		}

		return web.Respond(ctx, w, s, http.StatusCreated)
	}
}

func HandleUpdateSection(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var up SectionUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding section update: %w", err))
		}

		s, err := FetchSection(ctx, db, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching section: %w", err)
		}

		if err := checkOwnership(ctx, db, s.CourseID); err != nil {
			return err
		}

		if up.Name != nil {
			s.Name = *up.Name
			if err := UpdateSectionName(ctx, db, s.ID, s.Name); err != nil {
				return fmt.Errorf("updating section: %w", err)
			}
		}

		return web.Respond(ctx, w, s, http.StatusOK)
	}
}

// HandleDeleteSection removes one section and its subsections as an authoring
// edit. Whole-course removal goes through the course cascade instead.
func HandleDeleteSection(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		s, err := FetchSection(ctx, db, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching section: %w", err)
		}

		if err := checkOwnership(ctx, db, s.CourseID); err != nil {
			return err
		}

		subs, err := FetchSubSectionsBySection(ctx, db, s.ID)
		if err != nil {
			return fmt.Errorf("listing subsections: %w", err)
		}
		for _, sub := range subs {
			if err := DeleteSubSection(ctx, db, sub.ID); err != nil {
				return fmt.Errorf("deleting subsection: %w", err)
			}
		}

		if err := DeleteSection(ctx, db, s.ID); err != nil {
			return fmt.Errorf("deleting section: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleCreateSubSection(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var sn SubSectionNew
		if err := web.Decode(w, r, &sn); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding subsection: %w", err))
		}

		if err := validate.Check(sn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}
		if err := checkDuration(sn.Duration); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		sec, err := FetchSection(ctx, db, sn.SectionID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching section: %w", err)
		}

		if err := checkOwnership(ctx, db, sec.CourseID); err != nil {
			return err
		}

		pos, err := NextSubSectionPosition(ctx, db, sec.ID)
		if err != nil {
			return fmt.Errorf("allocating subsection position: %w", err)
		}

		s := SubSection{
			ID:          validate.GenerateID(),
			SectionID:   sec.ID,
			Title:       sn.Title,
			Description: sn.Description,
			VideoURL:    sn.VideoURL,
			Duration:    sn.Duration,
			Position:    pos,
			CreatedAt:   time.Now().UTC(),
		}

		if err := CreateSubSection(ctx, db, s); err != nil {
			return fmt.Errorf("creating subsection: %w", err)
		}

		return web.Respond(ctx, w, s, http.StatusCreated)
	}
}

func HandleUpdateSubSection(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var up SubSectionUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding subsection update: %w", err))
		}
		if err := validate.Check(up); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		s, err := FetchSubSection(ctx, db, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching subsection: %w", err)
		}

		sec, err := FetchSection(ctx, db, s.SectionID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				// Parent is gone, so ownership cannot be resolved: nobody edits
				// the orphan.
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching section: %w", err)
		}
		if err := checkOwnership(ctx, db, sec.CourseID); err != nil {
			return err
		}

		if up.Title != nil {
			s.Title = *up.Title
		}
		if up.Description != nil {
			s.Description = *up.Description
		}
		if up.VideoURL != nil {
			s.VideoURL = *up.VideoURL
		}
		if up.Duration != nil {
			if err := checkDuration(*up.Duration); err != nil {
				return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
			}
			s.Duration = *up.Duration
		}

		if err := UpdateSubSection(ctx, db, s); err != nil {
			return fmt.Errorf("updating subsection: %w", err)
		}

		return web.Respond(ctx, w, s, http.StatusOK)
	}
}

func HandleDeleteSubSection(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		s, err := FetchSubSection(ctx, db, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				// Already gone: tolerated, same outcome.
				return web.Respond(ctx, w, nil, http.StatusNoContent)
			}
			return fmt.Errorf("fetching subsection: %w", err)
		}

		sec, err := FetchSection(ctx, db, s.SectionID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching section: %w", err)
		}
		if err := checkOwnership(ctx, db, sec.CourseID); err != nil {
			return err
		}

		if err := DeleteSubSection(ctx, db, s.ID); err != nil {
			return fmt.Errorf("deleting subsection: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
