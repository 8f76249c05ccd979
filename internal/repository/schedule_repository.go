package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/course-compass-api/internal/models"
)

// Times are selected as text so they reach the mapper as "HH:MM:SS" strings.
const sessionSelect = `SELECT s.id, s.course_id, s.day_of_week, s.start_time::text AS start_time, s.end_time::text AS end_time,
s.location, s.semester, s.year, s.created_at, s.updated_at,
c.title AS course_title, c.code AS course_code, c.instructor_id AS course_instructor_id
FROM schedules s
JOIN courses c ON c.id = s.course_id`

const sessionOrder = ` ORDER BY s.day_of_week ASC, s.start_time ASC`

type sessionRow struct {
	ID                 string    `db:"id"`
	CourseID           string    `db:"course_id"`
	DayOfWeek          int       `db:"day_of_week"`
	StartTime          string    `db:"start_time"`
	EndTime            string    `db:"end_time"`
	Location           *string   `db:"location"`
	Semester           *string   `db:"semester"`
	Year               *int      `db:"year"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
	CourseTitle        string    `db:"course_title"`
	CourseCode         string    `db:"course_code"`
	CourseInstructorID *string   `db:"course_instructor_id"`
}

func (row sessionRow) toModel() models.ClassSession {
	return models.ClassSession{
		ID:        row.ID,
		CourseID:  row.CourseID,
		DayOfWeek: row.DayOfWeek,
		StartTime: row.StartTime,
		EndTime:   row.EndTime,
		Location:  row.Location,
		Semester:  row.Semester,
		Year:      row.Year,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		Course: &models.CourseRef{
			Title:        row.CourseTitle,
			Code:         row.CourseCode,
			InstructorID: row.CourseInstructorID,
		},
	}
}

func toSessions(rows []sessionRow) []models.ClassSession {
	out := make([]models.ClassSession, len(rows))
	for i, row := range rows {
		out[i] = row.toModel()
	}
	return out
}

// ScheduleRepository handles persistence of recurring class sessions.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListByCourseIDs returns sessions of the given courses ordered by weekday then start time.
func (r *ScheduleRepository) ListByCourseIDs(ctx context.Context, courseIDs []string) ([]models.ClassSession, error) {
	if len(courseIDs) == 0 {
		return []models.ClassSession{}, nil
	}
	query := sessionSelect + ` WHERE s.course_id = ANY($1)` + sessionOrder
	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(courseIDs)); err != nil {
		return nil, fmt.Errorf("list sessions by courses: %w", err)
	}
	return toSessions(rows), nil
}

// ListByCourse returns the sessions of one course.
func (r *ScheduleRepository) ListByCourse(ctx context.Context, courseID string) ([]models.ClassSession, error) {
	query := sessionSelect + ` WHERE s.course_id = $1` + sessionOrder
	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, fmt.Errorf("list course sessions: %w", err)
	}
	return toSessions(rows), nil
}

// ListByInstructor returns sessions of every course the instructor teaches.
func (r *ScheduleRepository) ListByInstructor(ctx context.Context, instructorID string) ([]models.ClassSession, error) {
	query := sessionSelect + ` WHERE c.instructor_id = $1` + sessionOrder
	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, query, instructorID); err != nil {
		return nil, fmt.Errorf("list instructor sessions: %w", err)
	}
	return toSessions(rows), nil
}

// FindByID returns a session by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	query := sessionSelect + ` WHERE s.id = $1`
	var row sessionRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	session := row.toModel()
	return &session, nil
}

// Create inserts a session.
func (r *ScheduleRepository) Create(ctx context.Context, session *models.ClassSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	const query = `INSERT INTO schedules (id, course_id, day_of_week, start_time, end_time, location, semester, year, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := r.db.ExecContext(ctx, query,
		session.ID, session.CourseID, session.DayOfWeek, session.StartTime, session.EndTime,
		session.Location, session.Semester, session.Year, session.CreatedAt, session.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Update replaces a session's slot and metadata.
func (r *ScheduleRepository) Update(ctx context.Context, session *models.ClassSession) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET course_id = $2, day_of_week = $3, start_time = $4, end_time = $5, location = $6, semester = $7, year = $8, updated_at = $9 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		session.ID, session.CourseID, session.DayOfWeek, session.StartTime, session.EndTime,
		session.Location, session.Semester, session.Year, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return requireAffected(res, "update session")
}

// Delete removes a session.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return requireAffected(res, "delete session")
}
