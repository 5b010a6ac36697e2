// Package course implements the top level of the content hierarchy and the
// operations that keep it consistent: validated creation, partial edits,
// view assembly with duration and progress, and cascade deletion.
package course

import (
	"time"

	"github.com/educast/catalog/core/category"
	"github.com/educast/catalog/core/content"
	"github.com/educast/catalog/core/user"
	"github.com/lib/pq"
)

type Status string

const (
	StatusDraft     Status = "Draft"
	StatusPublished Status = "Published"
)

// Stable error codes carried in the response envelope so clients can
// discriminate failure modes.
const (
	CodeMissingField     = "MISSING_FIELD"
	CodeNotInstructor    = "NOT_INSTRUCTOR"
	CodeCategoryNotFound = "CATEGORY_NOT_FOUND"
	CodeCourseNotFound   = "COURSE_NOT_FOUND"
	CodeBadFieldEncoding = "BAD_FIELD_ENCODING"
	CodeUploadFailed     = "UPLOAD_FAILED"
	CodePartialDelete    = "PARTIAL_DELETE"
)

type Course struct {
	ID           string         `json:"id" db:"course_id"`
	Name         string         `json:"courseName" db:"name"`
	Description  string         `json:"courseDescription" db:"description"`
	Outcomes     string         `json:"whatYouWillLearn" db:"outcomes"`
	Price        int            `json:"price" db:"price"`
	Tags         pq.StringArray `json:"tag" db:"tags"`
	ThumbnailURL string         `json:"thumbnail" db:"thumbnail_url"`
	Status       Status         `json:"status" db:"status"`
	Instructions pq.StringArray `json:"instructions" db:"instructions"`
	InstructorID string         `json:"instructorId" db:"instructor_id"`
	CategoryID   string         `json:"categoryId" db:"category_id"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt" db:"updated_at"`
}

// Depth selects how much of the reference graph Assemble resolves.
type Depth int

const (
	// Shallow resolves instructor and category only, for listing views.
	Shallow Depth = iota
	// Full additionally materializes every section with its subsections and
	// the enrolled-student set.
	Full
)

// SectionView is a section with its subsections resolved in section order.
type SectionView struct {
	content.Section
	SubSections []content.SubSection `json:"subSection"`
}

// View is the assembled, read-only composite of a course and its resolved
// references.
type View struct {
	Course
	Instructor *user.User         `json:"instructor,omitempty"`
	Category   *category.Category `json:"category,omitempty"`
	Content    []SectionView      `json:"courseContent,omitempty"`
	Students   []string           `json:"studentsEnrolled,omitempty"`
}

// FullDetails is the payload of the course page for a logged-in user.
type FullDetails struct {
	Course          View     `json:"courseDetails"`
	TotalDuration   string   `json:"totalDuration"`
	CompletedVideos []string `json:"completedVideos"`
}
