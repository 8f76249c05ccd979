package models

import "time"

// AssignmentStatus controls visibility of an assignment to students.
type AssignmentStatus string

const (
	AssignmentStatusDraft     AssignmentStatus = "draft"
	AssignmentStatusPublished AssignmentStatus = "published"
	AssignmentStatusClosed    AssignmentStatus = "closed"
)

// Assignment is coursework with an optional due date.
type Assignment struct {
	ID           string           `db:"id" json:"id"`
	CourseID     string           `db:"course_id" json:"course_id"`
	Title        string           `db:"title" json:"title"`
	Description  *string          `db:"description" json:"description,omitempty"`
	Instructions *string          `db:"instructions" json:"instructions,omitempty"`
	Type         string           `db:"type" json:"type"`
	Points       int              `db:"points" json:"points"`
	Status       AssignmentStatus `db:"status" json:"status"`
	DueDate      *time.Time       `db:"due_date" json:"due_date,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// PendingAssignment is a published, unsubmitted assignment in one of the student's courses.
type PendingAssignment struct {
	Assignment
	CourseCode  string `db:"course_code" json:"course_code"`
	CourseTitle string `db:"course_title" json:"course_title"`
}

// CreateAssignmentRequest adds an assignment to a course.
type CreateAssignmentRequest struct {
	Title        string           `json:"title" validate:"required,max=200"`
	Description  *string          `json:"description"`
	Instructions *string          `json:"instructions"`
	Type         string           `json:"type" validate:"omitempty,max=40"`
	Points       int              `json:"points" validate:"omitempty,min=1,max=1000"`
	Status       AssignmentStatus `json:"status" validate:"omitempty,oneof=draft published closed"`
	DueDate      *time.Time       `json:"due_date"`
}
