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

const submissionColumns = `s.id, s.assignment_id, s.student_id, s.content, s.file_urls, s.status, s.grade, s.feedback, s.graded_by, s.graded_at, s.submitted_at`

// SubmissionRepository handles persistence of submissions and their grading.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// FindByID returns a submission by id.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions s WHERE s.id = $1`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return &submission, nil
}

// ListByAssignment returns every submission of an assignment with the student's name.
func (r *SubmissionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.SubmissionDetail, error) {
	query := `SELECT ` + submissionColumns + `, u.full_name AS student_name
FROM submissions s
JOIN users u ON u.id = s.student_id
WHERE s.assignment_id = $1
ORDER BY s.submitted_at ASC`
	var rows []models.SubmissionDetail
	if err := r.db.SelectContext(ctx, &rows, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return rows, nil
}

// Upsert stores the student's submission, replacing an earlier one that is not yet
// graded. sql.ErrNoRows means the existing submission was already graded.
func (r *SubmissionRepository) Upsert(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now().UTC()
	}
	submission.Status = models.SubmissionStatusSubmitted
	const query = `INSERT INTO submissions (id, assignment_id, student_id, content, file_urls, status, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (assignment_id, student_id) DO UPDATE
SET content = EXCLUDED.content, file_urls = EXCLUDED.file_urls, submitted_at = EXCLUDED.submitted_at
WHERE submissions.status = 'submitted'
RETURNING id`
	var id string
	err := r.db.GetContext(ctx, &id, query,
		submission.ID, submission.AssignmentID, submission.StudentID, submission.Content,
		submission.FileURLs, submission.Status, submission.SubmittedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("upsert submission: %w", err)
	}
	submission.ID = id
	return nil
}

// Grade marks the submission graded and upserts the matching grades row atomically.
func (r *SubmissionRepository) Grade(ctx context.Context, submission *models.Submission, grade *models.Grade) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin grade tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateSubmission = `UPDATE submissions SET status = 'graded', grade = $2, feedback = $3, graded_by = $4, graded_at = $5 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, updateSubmission,
		submission.ID, submission.Grade, submission.Feedback, submission.GradedBy, submission.GradedAt,
	); err != nil {
		return fmt.Errorf("grade submission: %w", err)
	}

	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	const upsertGrade = `INSERT INTO grades (id, student_id, course_id, assignment_id, grade_value, grade_letter, points_earned, points_possible, graded_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9, $9)
ON CONFLICT (student_id, assignment_id) WHERE assignment_id IS NOT NULL DO UPDATE
SET grade_value = EXCLUDED.grade_value, grade_letter = EXCLUDED.grade_letter, points_earned = EXCLUDED.points_earned,
points_possible = EXCLUDED.points_possible, graded_at = EXCLUDED.graded_at, updated_at = EXCLUDED.updated_at`
	if _, err = tx.ExecContext(ctx, upsertGrade,
		grade.ID, grade.StudentID, grade.CourseID, grade.AssignmentID, grade.GradeValue, grade.GradeLetter,
		grade.PointsEarned, grade.PointsPossible, grade.GradedAt,
	); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit grade tx: %w", err)
	}
	return nil
}
