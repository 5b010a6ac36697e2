package progress

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/educast/catalog/api/web"
	"github.com/educast/catalog/api/weberr"
	"github.com/educast/catalog/core/claims"
	"github.com/educast/catalog/validate"
	"github.com/jmoiron/sqlx"
)

func HandleMarkCompleted(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var m Mark
		if err := web.Decode(w, r, &m); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding completion mark: %w", err))
		}

		if err := validate.Check(m); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if err := MarkCompleted(ctx, db, m.CourseID, clm.UserID, m.SubSectionID); err != nil {
			return fmt.Errorf("marking completion: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
