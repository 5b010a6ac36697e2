// Package progress tracks which subsections a user has completed per course.
// A record comes into existence lazily with the first completion mark; a user
// with no record simply has an empty completed set.
package progress

import "time"

type Completion struct {
	CourseID     string    `json:"courseId" db:"course_id"`
	UserID       string    `json:"userId" db:"user_id"`
	SubSectionID string    `json:"subSectionId" db:"subsection_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

type Mark struct {
	CourseID     string `json:"courseId" validate:"required,uuid4"`
	SubSectionID string `json:"subSectionId" validate:"required,uuid4"`
}
