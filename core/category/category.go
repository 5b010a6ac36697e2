package category

import "time"

type Category struct {
	ID          string    `json:"id" db:"category_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

type CategoryNew struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}
