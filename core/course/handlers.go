package course

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/educast/catalog/api/web"
	"github.com/educast/catalog/api/weberr"
	"github.com/educast/catalog/cache"
	"github.com/educast/catalog/core/category"
	"github.com/educast/catalog/core/claims"
	"github.com/educast/catalog/core/progress"
	"github.com/educast/catalog/core/user"
	"github.com/educast/catalog/database"
	"github.com/educast/catalog/media"
	"github.com/educast/catalog/validate"
	"github.com/jmoiron/sqlx"
)

const keyPublished = "courses:published"

const maxUploadBytes = 32 << 20

var requiredCreateFields = []string{
	"courseName",
	"courseDescription",
	"whatYouWillLearn",
	"price",
	"tag",
	"category",
}

func missingField(name string) error {
	err := fmt.Errorf("missing required field %q", name)
	return weberr.NewCoded(err, "all fields are mandatory", CodeMissingField, http.StatusBadRequest)
}

func courseNotFound(err error) error {
	return weberr.NewCoded(err, "the course could not be found", CodeCourseNotFound, http.StatusNotFound)
}

// HandleCreate validates the request against the entity store before any
// write happens: required fields first, then the actor's instructor flag,
// then the category reference, then the thumbnail upload. Only after all of
// those succeed is the course row inserted.
func HandleCreate(db *sqlx.DB, up media.Uploader, cc *cache.Cache) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return weberr.BadRequest(fmt.Errorf("parsing multipart form: %w", err))
		}

		for _, f := range requiredCreateFields {
			if strings.TrimSpace(r.FormValue(f)) == "" {
				return missingField(f)
			}
		}

		file, hdr, err := r.FormFile("thumbnailImage")
		if err != nil {
			return missingField("thumbnailImage")
		}
		defer file.Close()

		price, err := strconv.Atoi(r.FormValue("price"))
		if err != nil || price < 0 {
			err := errors.New("price must be a non-negative integer")
			return weberr.NewCoded(err, err.Error(), CodeBadFieldEncoding, http.StatusBadRequest)
		}

		var tags []string
		if err := json.Unmarshal([]byte(r.FormValue("tag")), &tags); err != nil {
			err := fmt.Errorf("%w: tag", ErrBadFieldEncoding)
			return weberr.NewCoded(err, err.Error(), CodeBadFieldEncoding, http.StatusBadRequest)
		}

		instructions := []string{}
		if raw := r.FormValue("instructions"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &instructions); err != nil {
				err := fmt.Errorf("%w: instructions", ErrBadFieldEncoding)
				return weberr.NewCoded(err, err.Error(), CodeBadFieldEncoding, http.StatusBadRequest)
			}
		}

		status := Status(r.FormValue("status"))
		if status == "" {
			status = StatusDraft
		}
		if status != StatusDraft && status != StatusPublished {
			return weberr.BadRequest(fmt.Errorf("unknown status %q", status))
		}

		inst, err := user.FetchInstructor(ctx, db, clm.UserID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NewCoded(err, "instructor details not found", CodeNotInstructor, http.StatusNotFound)
			}
			return fmt.Errorf("resolving instructor: %w", err)
		}

		categoryID := r.FormValue("category")
		if err := validate.CheckID(categoryID); err != nil {
			return weberr.NewCoded(err, "category details not found", CodeCategoryNotFound, http.StatusNotFound)
		}

		cat, err := category.Fetch(ctx, db, categoryID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NewCoded(err, "category details not found", CodeCategoryNotFound, http.StatusNotFound)
			}
			return fmt.Errorf("resolving category: %w", err)
		}

		thumbURL, err := up.Upload(ctx, file, hdr.Filename)
		if err != nil {
			err := fmt.Errorf("uploading thumbnail: %w", err)
			return weberr.NewCoded(err, "thumbnail upload failed", CodeUploadFailed, http.StatusBadGateway)
		}

		now := time.Now().UTC()
		c := Course{
			ID:           validate.GenerateID(),
			Name:         r.FormValue("courseName"),
			Description:  r.FormValue("courseDescription"),
			Outcomes:     r.FormValue("whatYouWillLearn"),
			Price:        price,
			Tags:         tags,
			ThumbnailURL: thumbURL,
			Status:       status,
			Instructions: instructions,
			InstructorID: inst.ID,
			CategoryID:   cat.ID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := Create(ctx, db, c); err != nil {
			return fmt.Errorf("creating course: %w", err)
		}

		cc.Drop(ctx, keyPublished)

		return web.Respond(ctx, w, c, http.StatusCreated)
	}
}

// HandleUpdate applies a partial edit. A new thumbnail, when present, is
// uploaded and assigned before the field patch; everything is then persisted
// in one save and the response carries the fully assembled course.
func HandleUpdate(db *sqlx.DB, up media.Uploader, cc *cache.Cache) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID := web.Param(r, "id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(err)
		}

		var patch CourseUp
		var thumb multipart.File
		var thumbName string

		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
				return weberr.BadRequest(fmt.Errorf("parsing multipart form: %w", err))
			}

			var err error
			patch, err = PatchFromForm(url.Values(r.MultipartForm.Value))
			if err != nil {
				return weberr.BadRequest(err)
			}

			if f, hdr, err := r.FormFile("thumbnailImage"); err == nil {
				defer f.Close()
				thumb, thumbName = f, hdr.Filename
			}
		} else {
			if err := web.Decode(w, r, &patch); err != nil {
				return weberr.BadRequest(fmt.Errorf("decoding course update: %w", err))
			}
		}

		if err := validate.Check(patch); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		c, err := Fetch(ctx, db, courseID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return courseNotFound(err)
			}
			return fmt.Errorf("fetching course: %w", err)
		}

		if thumb != nil {
			thumbURL, err := up.Upload(ctx, thumb, thumbName)
			if err != nil {
				err := fmt.Errorf("uploading thumbnail: %w", err)
				return weberr.NewCoded(err, "thumbnail upload failed", CodeUploadFailed, http.StatusBadGateway)
			}
			c.ThumbnailURL = thumbURL
		}

		if err := c.ApplyPatch(patch); err != nil {
			if errors.Is(err, ErrBadFieldEncoding) {
				return weberr.NewCoded(err, err.Error(), CodeBadFieldEncoding, http.StatusBadRequest)
			}
			return fmt.Errorf("applying patch: %w", err)
		}
		c.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, c); err != nil {
			return fmt.Errorf("saving course: %w", err)
		}

		cc.Drop(ctx, keyPublished)

		v, err := Assemble(ctx, db, c.ID, Full)
		if err != nil {
			return fmt.Errorf("assembling updated course: %w", err)
		}

		return web.Respond(ctx, w, v, http.StatusOK)
	}
}

// HandleList serves the published catalog as shallow views, from the cache
// when warm.
func HandleList(db *sqlx.DB, cc *cache.Cache) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var views []View
		if cc.Get(ctx, keyPublished, &views) {
			return web.Respond(ctx, w, views, http.StatusOK)
		}

		cs, err := FetchPublished(ctx, db)
		if err != nil {
			return fmt.Errorf("listing published courses: %w", err)
		}

		views = make([]View, 0, len(cs))
		for _, c := range cs {
			v, err := Assemble(ctx, db, c.ID, Shallow)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					continue
				}
				return fmt.Errorf("assembling course[%s]: %w", c.ID, err)
			}
			views = append(views, v)
		}

		cc.Set(ctx, keyPublished, views)

		return web.Respond(ctx, w, views, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID := web.Param(r, "id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(err)
		}

		v, err := Assemble(ctx, db, courseID, Full)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return courseNotFound(err)
			}
			return fmt.Errorf("assembling course: %w", err)
		}

		return web.Respond(ctx, w, v, http.StatusOK)
	}
}

// HandleShowFull returns the assembled tree together with its total duration
// and the requesting user's completed-subsection set.
func HandleShowFull(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID := web.Param(r, "id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(err)
		}

		v, err := Assemble(ctx, db, courseID, Full)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return courseNotFound(err)
			}
			return fmt.Errorf("assembling course: %w", err)
		}

		completed, err := progress.FetchCompleted(ctx, db, courseID, clm.UserID)
		if err != nil {
			return fmt.Errorf("merging progress: %w", err)
		}

		fd := FullDetails{
			Course:          v,
			TotalDuration:   TotalDuration(v),
			CompletedVideos: completed,
		}

		return web.Respond(ctx, w, fd, http.StatusOK)
	}
}

func HandleListOwned(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		cs, err := FetchByInstructor(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("listing instructor courses: %w", err)
		}

		views := make([]View, 0, len(cs))
		for _, c := range cs {
			v, err := Assemble(ctx, db, c.ID, Full)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					continue
				}
				return fmt.Errorf("assembling course[%s]: %w", c.ID, err)
			}
			views = append(views, v)
		}

		return web.Respond(ctx, w, views, http.StatusOK)
	}
}

// HandleDelete runs the cascade. A partial failure is reported with its own
// code so callers can tell "partially applied" from "not applied".
func HandleDelete(db *sqlx.DB, cc *cache.Cache) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID := web.Param(r, "id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(err)
		}

		if err := CascadeDelete(ctx, db, courseID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return courseNotFound(err)
			}

			var pd *PartialDeleteError
			if errors.As(err, &pd) {
				return weberr.NewCoded(
					err,
					"course deletion was partially applied and can be retried",
					CodePartialDelete,
					http.StatusInternalServerError,
					weberr.WithFields(map[string]interface{}{
						"course_id": pd.CourseID,
						"phase":     string(pd.Phase),
					}),
				)
			}

			return fmt.Errorf("deleting course: %w", err)
		}

		cc.Drop(ctx, keyPublished)

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// HandleListByCategory is the category page: the category record plus its
// derived course list.
func HandleListByCategory(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		categoryID := web.Param(r, "id")
		if err := validate.CheckID(categoryID); err != nil {
			return weberr.BadRequest(err)
		}

		cat, err := category.Fetch(ctx, db, categoryID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NewCoded(err, "category details not found", CodeCategoryNotFound, http.StatusNotFound)
			}
			return fmt.Errorf("fetching category: %w", err)
		}

		cs, err := FetchByCategory(ctx, db, cat.ID)
		if err != nil {
			return fmt.Errorf("listing category courses: %w", err)
		}

		views := make([]View, 0, len(cs))
		for _, c := range cs {
			v, err := Assemble(ctx, db, c.ID, Shallow)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					continue
				}
				return fmt.Errorf("assembling course[%s]: %w", c.ID, err)
			}
			views = append(views, v)
		}

		page := struct {
			Category category.Category `json:"category"`
			Courses  []View            `json:"courses"`
		}{cat, views}

		return web.Respond(ctx, w, page, http.StatusOK)
	}
}

// HandleEnroll adds the current user to the course's enrolled-student set.
func HandleEnroll(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID := web.Param(r, "id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(err)
		}

		if _, err := Fetch(ctx, db, courseID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return courseNotFound(err)
			}
			return fmt.Errorf("fetching course: %w", err)
		}

		if err := user.Enroll(ctx, db, courseID, clm.UserID); err != nil {
			return fmt.Errorf("enrolling: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// HandleListEnrolled lists the current user's enrolled courses as shallow
// views, skipping enrollments whose course no longer resolves.
func HandleListEnrolled(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		ids, err := user.FetchEnrolledCourseIDs(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("listing enrollments: %w", err)
		}

		views := make([]View, 0, len(ids))
		for _, id := range ids {
			v, err := Assemble(ctx, db, id, Shallow)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					continue
				}
				return fmt.Errorf("assembling course[%s]: %w", id, err)
			}
			views = append(views, v)
		}

		return web.Respond(ctx, w, views, http.StatusOK)
	}
}
