package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/educast/catalog/database"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, c Category) error {
	const q = `
	INSERT INTO categories (category_id, name, description, created_at)
	VALUES (:category_id, :name, :description, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("inserting category: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Category, error) {
	const q = `SELECT * FROM categories WHERE category_id = $1`

	var c Category
	if err := sqlx.GetContext(ctx, db, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Category{}, database.ErrNotFound
		}
		return Category{}, fmt.Errorf("selecting category[%s]: %w", id, err)
	}

	return c, nil
}

func FetchAll(ctx context.Context, db sqlx.ExtContext) ([]Category, error) {
	const q = `SELECT * FROM categories ORDER BY name`

	cs := []Category{}
	if err := sqlx.SelectContext(ctx, db, &cs, q); err != nil {
		return nil, fmt.Errorf("selecting categories: %w", err)
	}

	return cs, nil
}
