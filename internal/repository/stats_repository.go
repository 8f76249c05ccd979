package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-compass-api/internal/models"
)

// StatsRepository runs the aggregate queries behind the role dashboards.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) count(ctx context.Context, op, query string, args ...interface{}) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

// CountActiveEnrollments counts the student's active enrollments.
func (r *StatsRepository) CountActiveEnrollments(ctx context.Context, studentID string) (int, error) {
	return r.count(ctx, "count student enrollments",
		`SELECT COUNT(*) FROM enrollments WHERE student_id = $1 AND status = 'active'`, studentID)
}

// CountSubmissions counts the student's submissions.
func (r *StatsRepository) CountSubmissions(ctx context.Context, studentID string) (int, error) {
	return r.count(ctx, "count student submissions",
		`SELECT COUNT(*) FROM submissions WHERE student_id = $1`, studentID)
}

// AverageGrade returns the mean grade value of the student, nil without grades.
func (r *StatsRepository) AverageGrade(ctx context.Context, studentID string) (*float64, error) {
	var avg sql.NullFloat64
	if err := r.db.GetContext(ctx, &avg, `SELECT AVG(grade_value) FROM grades WHERE student_id = $1`, studentID); err != nil {
		return nil, fmt.Errorf("average grade: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

// CountCoursesTaught counts courses with the given instructor.
func (r *StatsRepository) CountCoursesTaught(ctx context.Context, instructorID string) (int, error) {
	return r.count(ctx, "count courses taught",
		`SELECT COUNT(*) FROM courses WHERE instructor_id = $1 AND status <> 'archived'`, instructorID)
}

// CountDistinctStudents counts distinct students actively enrolled in the instructor's courses.
func (r *StatsRepository) CountDistinctStudents(ctx context.Context, instructorID string) (int, error) {
	return r.count(ctx, "count instructor students",
		`SELECT COUNT(DISTINCT e.student_id) FROM enrollments e JOIN courses c ON c.id = e.course_id WHERE c.instructor_id = $1 AND e.status = 'active'`,
		instructorID)
}

// CountAwaitingGrading counts ungraded submissions in the instructor's courses.
func (r *StatsRepository) CountAwaitingGrading(ctx context.Context, instructorID string) (int, error) {
	return r.count(ctx, "count submissions awaiting grading",
		`SELECT COUNT(*) FROM submissions s JOIN assignments a ON a.id = s.assignment_id JOIN courses c ON c.id = a.course_id WHERE c.instructor_id = $1 AND s.status = 'submitted'`,
		instructorID)
}

// RosterSizes returns the active student count of each course the instructor teaches.
func (r *StatsRepository) RosterSizes(ctx context.Context, instructorID string) ([]models.CourseRosterSize, error) {
	const query = `SELECT c.id AS course_id, c.code, c.title, COUNT(e.id) AS students
FROM courses c
LEFT JOIN enrollments e ON e.course_id = c.id AND e.status = 'active'
WHERE c.instructor_id = $1 AND c.status <> 'archived'
GROUP BY c.id, c.code, c.title
ORDER BY c.title ASC`
	var rows []models.CourseRosterSize
	if err := r.db.SelectContext(ctx, &rows, query, instructorID); err != nil {
		return nil, fmt.Errorf("roster sizes: %w", err)
	}
	return rows, nil
}

// UsersByRole counts active users per role.
func (r *StatsRepository) UsersByRole(ctx context.Context) ([]models.RoleCount, error) {
	const query = `SELECT role, COUNT(*) AS count FROM users WHERE active = TRUE GROUP BY role ORDER BY role ASC`
	var rows []models.RoleCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("users by role: %w", err)
	}
	return rows, nil
}

// CountActiveCourses counts courses open for enrollment.
func (r *StatsRepository) CountActiveCourses(ctx context.Context) (int, error) {
	return r.count(ctx, "count active courses", `SELECT COUNT(*) FROM courses WHERE status = 'active'`)
}

// CountEnrollments counts active enrollments across all courses.
func (r *StatsRepository) CountEnrollments(ctx context.Context) (int, error) {
	return r.count(ctx, "count enrollments", `SELECT COUNT(*) FROM enrollments WHERE status = 'active'`)
}

// RecentSignUps returns the newest accounts.
func (r *StatsRepository) RecentSignUps(ctx context.Context, limit int) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1`
	var rows []models.User
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("recent sign-ups: %w", err)
	}
	return rows, nil
}
