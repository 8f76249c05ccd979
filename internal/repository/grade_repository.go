package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-compass-api/internal/models"
)

// GradeRepository handles persistence of recorded grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// ListByStudent returns the student's grades joined with course and assignment, newest first.
// A positive limit caps the result.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.GradeDetail, error) {
	query := `SELECT g.id, g.student_id, g.course_id, g.assignment_id, g.grade_value, g.grade_letter, g.points_earned, g.points_possible,
g.graded_at, g.created_at, g.updated_at, c.title AS course_title, c.code AS course_code, a.title AS assignment_title
FROM grades g
JOIN courses c ON c.id = g.course_id
LEFT JOIN assignments a ON a.id = g.assignment_id
WHERE g.student_id = $1
ORDER BY g.graded_at DESC`
	args := []interface{}{studentID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	var rows []models.GradeDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	return rows, nil
}

// Create inserts a grade.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.GradedAt.IsZero() {
		grade.GradedAt = now
	}
	grade.CreatedAt = now
	grade.UpdatedAt = now
	const query = `INSERT INTO grades (id, student_id, course_id, assignment_id, grade_value, grade_letter, points_earned, points_possible, graded_at, created_at, updated_at)
VALUES (:id, :student_id, :course_id, :assignment_id, :grade_value, :grade_letter, :points_earned, :points_possible, :graded_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}
