package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-compass-api/internal/models"
)

var courseRowColumns = []string{"id", "code", "title", "description", "department", "semester", "year", "credits", "max_students", "status", "instructor_id", "created_at", "updated_at"}

func TestCourseListDefaultsToActiveOrderedByTitle(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(courseRowColumns).
		AddRow("c1", "CS-201", "Algorithms", nil, "CS", "Fall", 2025, 3, 30, "active", "f1", now, now).
		AddRow("c2", "CS-101", "Intro", nil, nil, nil, nil, nil, nil, "active", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + courseColumns + " FROM courses WHERE status = $1 AND department = $2 ORDER BY title ASC LIMIT 20 OFFSET 0")).
		WithArgs(models.CourseStatusActive, "CS").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses WHERE status = $1 AND department = $2")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{Department: "CS"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, courses, 2)
	assert.Equal(t, "Algorithms", courses[0].Title)
	require.NotNil(t, courses[0].MaxStudents)
	assert.Equal(t, 30, *courses[0].MaxStudents)
	assert.Nil(t, courses[1].InstructorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").WillReturnResult(sqlmock.NewResult(1, 1))

	course := &models.Course{Code: "CS-301", Title: "Systems", Status: models.CourseStatusActive}
	require.NoError(t, repo.Create(context.Background(), course))
	assert.NotEmpty(t, course.ID)
	assert.False(t, course.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
