// Package content holds the two lower levels of the course hierarchy:
// sections and the subsections they exclusively own. Records are created and
// edited through the authoring handlers; whole-course removal goes through
// the course package's cascade deletion instead.
package content

import "time"

type Section struct {
	ID        string    `json:"id" db:"section_id"`
	CourseID  string    `json:"courseId" db:"course_id"`
	Name      string    `json:"sectionName" db:"name"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type SectionNew struct {
	CourseID string `json:"courseId" validate:"required,uuid4"`
	Name     string `json:"sectionName" validate:"required"`
}

type SectionUp struct {
	Name *string `json:"sectionName"`
}

type SubSection struct {
	ID          string    `json:"id" db:"subsection_id"`
	SectionID   string    `json:"sectionId" db:"section_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	VideoURL    string    `json:"videoUrl" db:"video_url"`
	Duration    string    `json:"timeDuration" db:"duration"`
	Position    int       `json:"position" db:"position"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

type SubSectionNew struct {
	SectionID   string `json:"sectionId" validate:"required,uuid4"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	VideoURL    string `json:"videoUrl" validate:"omitempty,url"`
	Duration    string `json:"timeDuration" validate:"required"`
}

type SubSectionUp struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	VideoURL    *string `json:"videoUrl" validate:"omitempty,url"`
	Duration    *string `json:"timeDuration"`
}
