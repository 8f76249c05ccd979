package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-compass-api/internal/models"
	appErrors "github.com/noah-isme/course-compass-api/pkg/errors"
)

type fakeGradeRepo struct {
	items   []models.GradeDetail
	created []*models.Grade
}

func (f *fakeGradeRepo) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.GradeDetail, error) {
	var out []models.GradeDetail
	for _, item := range f.items {
		if item.StudentID == studentID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeGradeRepo) Create(ctx context.Context, grade *models.Grade) error {
	grade.ID = "g-new"
	f.created = append(f.created, grade)
	return nil
}

func gradeDetail(studentID, code string, value float64) models.GradeDetail {
	letter := models.LetterFor(value)
	return models.GradeDetail{
		Grade: models.Grade{
			StudentID:   studentID,
			CourseID:    testCourseID,
			GradeValue:  value,
			GradeLetter: &letter,
			GradedAt:    time.Date(2025, time.January, 3, 10, 0, 0, 0, time.UTC),
		},
		CourseTitle: "Data Structures",
		CourseCode:  code,
	}
}

func newGradeFixture() (*GradeService, *fakeGradeRepo) {
	owner := "f1"
	repo := &fakeGradeRepo{items: []models.GradeDetail{
		gradeDetail("s1", "CS-201", 91),
		gradeDetail("s1", "CS-301", 78.5),
		gradeDetail("s2", "CS-201", 40),
	}}
	courses := newFakeCourseRepo(&models.Course{ID: testCourseID, Code: "CS-201", InstructorID: &owner})
	svc := NewGradeService(repo, courses, fakeEnrollmentChecker{"9a1f0c3e-8d2b-4f6a-9c1d-2e3f4a5b6c7d/" + testCourseID: true}, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestGradeServiceListMineAverages(t *testing.T) {
	svc, _ := newGradeFixture()

	list, err := svc.ListMine(context.Background(), models.Session{UserID: "s1", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
	require.NotNil(t, list.Average)
	assert.Equal(t, 84.75, *list.Average)

	empty, err := svc.ListMine(context.Background(), models.Session{UserID: "nobody", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
	assert.Nil(t, empty.Average)
}

func TestGradeServiceRecordDerivesLetter(t *testing.T) {
	svc, repo := newGradeFixture()
	studentID := "9a1f0c3e-8d2b-4f6a-9c1d-2e3f4a5b6c7d"
	value := 69.9

	grade, err := svc.Record(context.Background(), models.Session{UserID: "f1", Role: models.RoleFaculty},
		models.CreateGradeRequest{StudentID: studentID, CourseID: testCourseID, GradeValue: &value})
	require.NoError(t, err)
	assert.Equal(t, "D", *grade.GradeLetter)
	require.Len(t, repo.created, 1)
	assert.Equal(t, studentID, repo.created[0].StudentID)

	_, err = svc.Record(context.Background(), models.Session{UserID: "f2", Role: models.RoleFaculty},
		models.CreateGradeRequest{StudentID: studentID, CourseID: testCourseID, GradeValue: &value})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	tooHigh := 101.0
	_, err = svc.Record(context.Background(), models.Session{UserID: "f1", Role: models.RoleFaculty},
		models.CreateGradeRequest{StudentID: studentID, CourseID: testCourseID, GradeValue: &tooHigh})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Record(context.Background(), models.Session{UserID: "f1", Role: models.RoleFaculty},
		models.CreateGradeRequest{StudentID: "0b7e2f6c-1111-4a2b-8c3d-4e5f6a7b8c9d", CourseID: testCourseID, GradeValue: &value})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestGradeServiceExport(t *testing.T) {
	svc, _ := newGradeFixture()
	session := models.Session{UserID: "s1", Role: models.RoleStudent, FullName: "Ada Lovelace"}

	csvFile, err := svc.Export(context.Background(), session, models.ReportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "transcript-20250110.csv", csvFile.Filename)
	assert.Equal(t, "text/csv", csvFile.ContentType)
	lines := strings.Split(strings.TrimSpace(string(csvFile.Data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Course,Code,Assignment,Grade,Letter,Points,Graded At", lines[0])
	assert.Equal(t, "Data Structures,CS-201,,91.00,A,,2025-01-03", lines[1])

	pdfFile, err := svc.Export(context.Background(), session, "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdfFile.ContentType)
	assert.True(t, strings.HasPrefix(string(pdfFile.Data), "%PDF"))

	_, err = svc.Export(context.Background(), session, "xlsx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
