package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-compass-api/internal/models"
	appErrors "github.com/noah-isme/course-compass-api/pkg/errors"
)

const testCourseID = "7b0c4c1e-3c5d-4c55-9a55-0d7a0d4f5a11"

type fakeCourseRepo struct {
	courses map[string]*models.Course
	created []*models.Course
}

func newFakeCourseRepo(courses ...*models.Course) *fakeCourseRepo {
	repo := &fakeCourseRepo{courses: map[string]*models.Course{}}
	for _, c := range courses {
		repo.courses[c.ID] = c
	}
	return repo
}

func (f *fakeCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	var out []models.Course
	for _, c := range f.courses {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (f *fakeCourseRepo) ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error) {
	var out []models.Course
	for _, c := range f.courses {
		if c.InstructorID != nil && *c.InstructorID == instructorID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (f *fakeCourseRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	for _, c := range f.courses {
		if c.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = "new-course"
	}
	f.courses[course.ID] = course
	f.created = append(f.created, course)
	return nil
}

func (f *fakeCourseRepo) Update(ctx context.Context, course *models.Course) error {
	if _, ok := f.courses[course.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *course
	f.courses[course.ID] = &clone
	return nil
}

func intPtr(v int) *int { return &v }

func TestCourseServiceCreateAssignsFacultyInstructor(t *testing.T) {
	repo := newFakeCourseRepo(&models.Course{ID: "c0", Code: "CS-101", Title: "Intro"})
	svc := NewCourseService(repo, nil, nil)
	faculty := models.Session{UserID: "f1", Role: models.RoleFaculty}
	other := "8a0c4c1e-3c5d-4c55-9a55-0d7a0d4f5a11"

	course, err := svc.Create(context.Background(), faculty, models.CreateCourseRequest{Code: " cs-201 ", Title: "Data Structures", InstructorID: &other})
	require.NoError(t, err)
	assert.Equal(t, "CS-201", course.Code)
	assert.Equal(t, models.CourseStatusActive, course.Status)
	require.NotNil(t, course.InstructorID)
	assert.Equal(t, "f1", *course.InstructorID)

	_, err = svc.Create(context.Background(), faculty, models.CreateCourseRequest{Code: "cs-101", Title: "Dup"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Create(context.Background(), faculty, models.CreateCourseRequest{Title: "No code"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCourseServiceAdminCanPickInstructor(t *testing.T) {
	repo := newFakeCourseRepo()
	svc := NewCourseService(repo, nil, nil)
	instructor := "8a0c4c1e-3c5d-4c55-9a55-0d7a0d4f5a11"

	course, err := svc.Create(context.Background(), models.Session{UserID: "a1", Role: models.RoleAdmin}, models.CreateCourseRequest{Code: "MA-1", Title: "Calc", InstructorID: &instructor})
	require.NoError(t, err)
	assert.Equal(t, instructor, *course.InstructorID)
}

func TestCourseServiceUpdateOwnership(t *testing.T) {
	owner := "f1"
	repo := newFakeCourseRepo(&models.Course{ID: "c1", Code: "CS-201", Title: "DS", InstructorID: &owner, Status: models.CourseStatusActive})
	svc := NewCourseService(repo, nil, nil)
	req := models.UpdateCourseRequest{Title: "Data Structures", Status: models.CourseStatusArchived, MaxStudents: intPtr(30)}

	_, err := svc.Update(context.Background(), models.Session{UserID: "f2", Role: models.RoleFaculty}, "c1", req)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	updated, err := svc.Update(context.Background(), models.Session{UserID: "f1", Role: models.RoleFaculty}, "c1", req)
	require.NoError(t, err)
	assert.Equal(t, "Data Structures", updated.Title)
	assert.Equal(t, models.CourseStatusArchived, repo.courses["c1"].Status)

	_, err = svc.Update(context.Background(), models.Session{UserID: "a1", Role: models.RoleAdmin}, "missing", req)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCourseServiceMine(t *testing.T) {
	owner := "f1"
	repo := newFakeCourseRepo(
		&models.Course{ID: "c1", Code: "CS-201", InstructorID: &owner},
		&models.Course{ID: "c2", Code: "CS-301"},
	)
	svc := NewCourseService(repo, nil, nil)

	courses, err := svc.Mine(context.Background(), models.Session{UserID: "f1", Role: models.RoleFaculty})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "c1", courses[0].ID)
}

func TestCourseServiceListPagination(t *testing.T) {
	svc := NewCourseService(newFakeCourseRepo(&models.Course{ID: testCourseID, Title: "Algorithms"}), nil, nil)

	courses, pagination, err := svc.List(context.Background(), models.CourseFilter{Page: 0, PageSize: 250})
	require.NoError(t, err)
	assert.Len(t, courses, 1)
	assert.Equal(t, &models.Pagination{Page: 1, PageSize: models.DefaultPageSize, TotalCount: 1}, pagination)
}
