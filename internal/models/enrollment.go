package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusDropped   EnrollmentStatus = "dropped"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
)

// Enrollment links a student to a course.
type Enrollment struct {
	ID         string           `db:"id" json:"id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	CourseID   string           `db:"course_id" json:"course_id"`
	Status     EnrollmentStatus `db:"status" json:"status"`
	Grade      *string          `db:"grade" json:"grade,omitempty"`
	EnrolledAt time.Time        `db:"enrolled_at" json:"enrolled_at"`
}

// EnrollmentDetail enriches an enrollment with its course.
type EnrollmentDetail struct {
	Enrollment
	CourseCode  string  `db:"course_code" json:"course_code"`
	CourseTitle string  `db:"course_title" json:"course_title"`
	Semester    *string `db:"course_semester" json:"semester,omitempty"`
	Credits     *int    `db:"course_credits" json:"credits,omitempty"`
}

// RosterEntry is one enrolled student as seen by the instructor.
type RosterEntry struct {
	EnrollmentID string           `db:"enrollment_id" json:"enrollment_id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	FullName     string           `db:"full_name" json:"full_name"`
	Email        string           `db:"email" json:"email"`
	Status       EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt   time.Time        `db:"enrolled_at" json:"enrolled_at"`
}

// CreateEnrollmentRequest enrolls the caller in a course.
type CreateEnrollmentRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
}
