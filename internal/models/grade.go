package models

import "time"

// Grade is a recorded grade for a course, optionally tied to an assignment.
type Grade struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	CourseID       string    `db:"course_id" json:"course_id"`
	AssignmentID   *string   `db:"assignment_id" json:"assignment_id,omitempty"`
	GradeValue     float64   `db:"grade_value" json:"grade_value"`
	GradeLetter    *string   `db:"grade_letter" json:"grade_letter,omitempty"`
	PointsEarned   *float64  `db:"points_earned" json:"points_earned,omitempty"`
	PointsPossible *float64  `db:"points_possible" json:"points_possible,omitempty"`
	GradedAt       time.Time `db:"graded_at" json:"graded_at"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// GradeDetail joins the course and assignment a grade belongs to.
type GradeDetail struct {
	Grade
	CourseTitle     string  `db:"course_title" json:"course_title"`
	CourseCode      string  `db:"course_code" json:"course_code"`
	AssignmentTitle *string `db:"assignment_title" json:"assignment_title,omitempty"`
}

// CreateGradeRequest records a grade. GradeValue is a percentage.
type CreateGradeRequest struct {
	StudentID      string   `json:"student_id" validate:"required,uuid"`
	CourseID       string   `json:"course_id" validate:"required,uuid"`
	AssignmentID   *string  `json:"assignment_id" validate:"omitempty,uuid"`
	GradeValue     *float64 `json:"grade_value" validate:"required,min=0,max=100"`
	PointsEarned   *float64 `json:"points_earned" validate:"omitempty,min=0"`
	PointsPossible *float64 `json:"points_possible" validate:"omitempty,gt=0"`
}

// LetterFor maps a percentage to a letter grade.
func LetterFor(value float64) string {
	switch {
	case value >= 90:
		return "A"
	case value >= 80:
		return "B"
	case value >= 70:
		return "C"
	case value >= 60:
		return "D"
	default:
		return "F"
	}
}
