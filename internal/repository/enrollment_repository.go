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

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListByStudent returns the student's enrollments with course info, newest first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.course_id, e.status, e.grade, e.enrolled_at,
c.code AS course_code, c.title AS course_title, c.semester AS course_semester, c.credits AS course_credits
FROM enrollments e
JOIN courses c ON c.id = e.course_id
WHERE e.student_id = $1
ORDER BY e.enrolled_at DESC`
	var rows []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return rows, nil
}

// ActiveCourseIDs returns the course ids of the student's active enrollments.
func (r *EnrollmentRepository) ActiveCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	const query = `SELECT course_id FROM enrollments WHERE student_id = $1 AND status = 'active'`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, studentID); err != nil {
		return nil, fmt.Errorf("list active course ids: %w", err)
	}
	return ids, nil
}

// FindByID returns an enrollment by id.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, status, grade, enrolled_at FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// IsActive reports whether the student is actively enrolled in the course.
func (r *EnrollmentRepository) IsActive(ctx context.Context, studentID, courseID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 AND status = 'active')`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return exists, nil
}

// CreateWithinCapacity inserts an active enrollment while holding a lock on the
// course row, so concurrent enrollments cannot exceed max_students. It reports
// false without inserting when the course is already full.
func (r *EnrollmentRepository) CreateWithinCapacity(ctx context.Context, enrollment *models.Enrollment) (created bool, err error) {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin enrollment transaction: %w", err)
	}
	defer func() {
		if err != nil || !created {
			_ = tx.Rollback()
		}
	}()

	var maxStudents sql.NullInt64
	const lockQuery = `SELECT max_students FROM courses WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &maxStudents, lockQuery, enrollment.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, err
		}
		return false, fmt.Errorf("lock course: %w", err)
	}

	if maxStudents.Valid {
		var active int64
		const countQuery = `SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND status = 'active'`
		if err = tx.GetContext(ctx, &active, countQuery, enrollment.CourseID); err != nil {
			return false, fmt.Errorf("count active enrollments: %w", err)
		}
		if active >= maxStudents.Int64 {
			return false, nil
		}
	}

	const insertQuery = `INSERT INTO enrollments (id, student_id, course_id, status, grade, enrolled_at) VALUES (:id, :student_id, :course_id, :status, :grade, :enrolled_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, enrollment); err != nil {
		return false, fmt.Errorf("create enrollment: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit enrollment: %w", err)
	}
	return true, nil
}

// UpdateStatus changes the status of an enrollment.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	const query = `UPDATE enrollments SET status = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return requireAffected(res, "update enrollment status")
}

// Roster lists the active students of a course ordered by name.
func (r *EnrollmentRepository) Roster(ctx context.Context, courseID string) ([]models.RosterEntry, error) {
	const query = `SELECT e.id AS enrollment_id, u.id AS student_id, u.full_name, u.email, e.status, e.enrolled_at
FROM enrollments e
JOIN users u ON u.id = e.student_id
WHERE e.course_id = $1 AND e.status = 'active'
ORDER BY u.full_name ASC`
	var rows []models.RosterEntry
	if err := r.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return rows, nil
}

// ActiveStudentIDs returns ids of students actively enrolled in a course.
func (r *EnrollmentRepository) ActiveStudentIDs(ctx context.Context, courseID string) ([]string, error) {
	const query = `SELECT student_id FROM enrollments WHERE course_id = $1 AND status = 'active'`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, courseID); err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	return ids, nil
}

// StudentsWithActiveEnrollments returns every student holding at least one active enrollment.
func (r *EnrollmentRepository) StudentsWithActiveEnrollments(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT e.student_id FROM enrollments e JOIN users u ON u.id = e.student_id WHERE e.status = 'active' AND u.active = TRUE`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("list enrolled students: %w", err)
	}
	return ids, nil
}
