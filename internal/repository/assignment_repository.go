package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-compass-api/internal/models"
)

const assignmentColumns = `a.id, a.course_id, a.title, a.description, a.instructions, a.type, a.points, a.status, a.due_date, a.created_at, a.updated_at`

// AssignmentRepository handles persistence of assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListByCourse returns a course's assignments by due date. Drafts are included only on request.
func (r *AssignmentRepository) ListByCourse(ctx context.Context, courseID string, includeDrafts bool) ([]models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments a WHERE a.course_id = $1`
	if !includeDrafts {
		query += ` AND a.status <> 'draft'`
	}
	query += ` ORDER BY a.due_date ASC NULLS LAST, a.title ASC`
	var rows []models.Assignment
	if err := r.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, fmt.Errorf("list course assignments: %w", err)
	}
	return rows, nil
}

// FindByID returns an assignment by id.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments a WHERE a.id = $1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &assignment, nil
}

// Create inserts an assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	const query = `INSERT INTO assignments (id, course_id, title, description, instructions, type, points, status, due_date, created_at, updated_at)
VALUES (:id, :course_id, :title, :description, :instructions, :type, :points, :status, :due_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Pending returns published assignments in the student's active courses that are
// due after now and have no submission from the student, soonest first.
func (r *AssignmentRepository) Pending(ctx context.Context, studentID string, now time.Time) ([]models.PendingAssignment, error) {
	query := `SELECT ` + assignmentColumns + `, c.code AS course_code, c.title AS course_title
FROM assignments a
JOIN courses c ON c.id = a.course_id
JOIN enrollments e ON e.course_id = a.course_id AND e.student_id = $1 AND e.status = 'active'
WHERE a.status = 'published' AND a.due_date > $2
AND NOT EXISTS (SELECT 1 FROM submissions s WHERE s.assignment_id = a.id AND s.student_id = $1)
ORDER BY a.due_date ASC`
	var rows []models.PendingAssignment
	if err := r.db.SelectContext(ctx, &rows, query, studentID, now); err != nil {
		return nil, fmt.Errorf("list pending assignments: %w", err)
	}
	return rows, nil
}
