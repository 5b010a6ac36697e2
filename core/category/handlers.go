package category

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/educast/catalog/api/web"
	"github.com/educast/catalog/api/weberr"
	"github.com/educast/catalog/validate"
	"github.com/jmoiron/sqlx"
)

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var cn CategoryNew
		if err := web.Decode(w, r, &cn); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding category: %w", err))
		}

		if err := validate.Check(cn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		c := Category{
			ID:          validate.GenerateID(),
			Name:        cn.Name,
			Description: cn.Description,
			CreatedAt:   time.Now().UTC(),
		}

		if err := Create(ctx, db, c); err != nil {
			return fmt.Errorf("creating category: %w", err)
		}

		return web.Respond(ctx, w, c, http.StatusCreated)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		cs, err := FetchAll(ctx, db)
		if err != nil {
			return fmt.Errorf("listing categories: %w", err)
		}

		return web.Respond(ctx, w, cs, http.StatusOK)
	}
}
