package models

import (
	"time"

	"github.com/lib/pq"
)

// SubmissionStatus tracks whether a submission has been graded.
type SubmissionStatus string

const (
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	SubmissionStatusGraded    SubmissionStatus = "graded"
)

// Submission is a student's answer to an assignment.
type Submission struct {
	ID           string           `db:"id" json:"id"`
	AssignmentID string           `db:"assignment_id" json:"assignment_id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	Content      *string          `db:"content" json:"content,omitempty"`
	FileURLs     pq.StringArray   `db:"file_urls" json:"file_urls"`
	Status       SubmissionStatus `db:"status" json:"status"`
	Grade        *float64         `db:"grade" json:"grade,omitempty"`
	Feedback     *string          `db:"feedback" json:"feedback,omitempty"`
	GradedBy     *string          `db:"graded_by" json:"graded_by,omitempty"`
	GradedAt     *time.Time       `db:"graded_at" json:"graded_at,omitempty"`
	SubmittedAt  time.Time        `db:"submitted_at" json:"submitted_at"`
}

// SubmissionDetail adds the student's name for instructor listings.
type SubmissionDetail struct {
	Submission
	StudentName string `db:"student_name" json:"student_name"`
}

// SubmitRequest creates or replaces the caller's submission.
type SubmitRequest struct {
	Content  *string  `json:"content" validate:"required_without=FileURLs"`
	FileURLs []string `json:"file_urls" validate:"omitempty,dive,url"`
}

// GradeSubmissionRequest grades a submission.
type GradeSubmissionRequest struct {
	Grade    *float64 `json:"grade" validate:"required,min=0"`
	Feedback *string  `json:"feedback" validate:"omitempty,max=4000"`
}
