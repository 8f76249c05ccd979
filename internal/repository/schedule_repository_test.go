package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-compass-api/internal/models"
)

var sessionRowColumns = []string{"id", "course_id", "day_of_week", "start_time", "end_time", "location", "semester", "year", "created_at", "updated_at", "course_title", "course_code", "course_instructor_id"}

func TestScheduleListByCourseIDsEmptySkipsQuery(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	got, err := repo.ListByCourseIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleListByCourseIDsMapsCourseRef(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(sessionRowColumns).
		AddRow("s1", "c1", 1, "08:00:00", "09:00:00", "Room 4", nil, nil, now, now, "Systems", "CS-301", "f1").
		AddRow("s2", "c2", 1, "09:00:00", "10:30:00", nil, "Fall", 2025, now, now, "Algorithms", "CS-201", nil)
	mock.ExpectQuery("start_time::text AS start_time.*FROM schedules s JOIN courses c ON c.id = s.course_id WHERE s.course_id = ANY\\(\\$1\\) ORDER BY s.day_of_week ASC, s.start_time ASC").
		WillReturnRows(rows)

	got, err := repo.ListByCourseIDs(context.Background(), []string{"c1", "c2"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "08:00:00", got[0].StartTime)
	assert.Equal(t, models.CourseRef{Title: "Systems", Code: "CS-301", InstructorID: strPtr("f1")}, *got[0].Course)
	require.NotNil(t, got[0].Location)
	assert.Equal(t, "Room 4", *got[0].Location)
	require.NotNil(t, got[1].Year)
	assert.Equal(t, 2025, *got[1].Year)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleCreateUpdateDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("INSERT INTO schedules").
		WithArgs(sqlmock.AnyArg(), "c1", 2, "10:00", "11:00", nil, nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE schedules SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM schedules WHERE id = \\$1").WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 1))

	session := &models.ClassSession{CourseID: "c1", DayOfWeek: 2, StartTime: "10:00", EndTime: "11:00"}
	require.NoError(t, repo.Create(context.Background(), session))
	assert.NotEmpty(t, session.ID)
	assert.ErrorIs(t, repo.Update(context.Background(), session), sql.ErrNoRows)
	require.NoError(t, repo.Delete(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func strPtr(s string) *string {
	return &s
}
