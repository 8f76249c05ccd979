package models

import "time"

// CourseStatus describes whether a course is open for enrollment.
type CourseStatus string

const (
	CourseStatusActive   CourseStatus = "active"
	CourseStatusDraft    CourseStatus = "draft"
	CourseStatusArchived CourseStatus = "archived"
)

// Course is a catalogue entry taught by one instructor.
type Course struct {
	ID           string       `db:"id" json:"id"`
	Code         string       `db:"code" json:"code"`
	Title        string       `db:"title" json:"title"`
	Description  *string      `db:"description" json:"description,omitempty"`
	Department   *string      `db:"department" json:"department,omitempty"`
	Semester     *string      `db:"semester" json:"semester,omitempty"`
	Year         *int         `db:"year" json:"year,omitempty"`
	Credits      *int         `db:"credits" json:"credits,omitempty"`
	MaxStudents  *int         `db:"max_students" json:"max_students,omitempty"`
	Status       CourseStatus `db:"status" json:"status"`
	InstructorID *string      `db:"instructor_id" json:"instructor_id,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// CourseFilter narrows course listings. Empty Status means active only.
type CourseFilter struct {
	Status       CourseStatus
	Department   string
	Semester     string
	Year         int
	InstructorID string
	Search       string
	Page         int
	PageSize     int
}

// CreateCourseRequest creates a course. Faculty callers become the instructor.
type CreateCourseRequest struct {
	Code         string       `json:"code" validate:"required,max=20"`
	Title        string       `json:"title" validate:"required,max=200"`
	Description  *string      `json:"description"`
	Department   *string      `json:"department" validate:"omitempty,max=120"`
	Semester     *string      `json:"semester" validate:"omitempty,max=40"`
	Year         *int         `json:"year" validate:"omitempty,min=2000,max=2100"`
	Credits      *int         `json:"credits" validate:"omitempty,min=0,max=30"`
	MaxStudents  *int         `json:"max_students" validate:"omitempty,min=1"`
	Status       CourseStatus `json:"status" validate:"omitempty,oneof=active draft archived"`
	InstructorID *string      `json:"instructor_id" validate:"omitempty,uuid"`
}

// UpdateCourseRequest replaces the editable fields of a course.
type UpdateCourseRequest struct {
	Title       string       `json:"title" validate:"required,max=200"`
	Description *string      `json:"description"`
	Department  *string      `json:"department" validate:"omitempty,max=120"`
	Semester    *string      `json:"semester" validate:"omitempty,max=40"`
	Year        *int         `json:"year" validate:"omitempty,min=2000,max=2100"`
	Credits     *int         `json:"credits" validate:"omitempty,min=0,max=30"`
	MaxStudents *int         `json:"max_students" validate:"omitempty,min=1"`
	Status      CourseStatus `json:"status" validate:"required,oneof=active draft archived"`
}

// CourseRosterSize is the number of active students in one course.
type CourseRosterSize struct {
	CourseID string `db:"course_id" json:"course_id"`
	Code     string `db:"code" json:"code"`
	Title    string `db:"title" json:"title"`
	Students int    `db:"students" json:"students"`
}
