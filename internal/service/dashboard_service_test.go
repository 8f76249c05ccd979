package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-compass-api/internal/dto"
	"github.com/noah-isme/course-compass-api/internal/models"
	appErrors "github.com/noah-isme/course-compass-api/pkg/errors"
)

type countingProvider struct {
	student *dto.StudentDashboardData
	faculty *dto.FacultyDashboardData
	admin   *dto.AdminDashboardData
	err     error
	calls   int
}

func (p *countingProvider) Name() string { return "test" }

func (p *countingProvider) Student(ctx context.Context, studentID string) (*dto.StudentDashboardData, error) {
	p.calls++
	return p.student, p.err
}

func (p *countingProvider) Faculty(ctx context.Context, facultyID string) (*dto.FacultyDashboardData, error) {
	p.calls++
	return p.faculty, p.err
}

func (p *countingProvider) Admin(ctx context.Context) (*dto.AdminDashboardData, error) {
	p.calls++
	return p.admin, p.err
}

// 2025-01-06 is a Monday.
var dashboardNow = time.Date(2025, time.January, 6, 8, 0, 0, 0, time.UTC)

func newDashboardFixture(provider DashboardProvider) (*DashboardService, *stubCacheRepo) {
	cacheRepo := newStubCacheRepo()
	svc := NewDashboardService(provider, newTestCache(cacheRepo), nil, DashboardServiceConfig{})
	svc.now = func() time.Time { return dashboardNow }
	return svc, cacheRepo
}

func TestDashboardServiceCacheExpiresAtLocalMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*60*60)
	provider := &countingProvider{admin: &dto.AdminDashboardData{}}
	cacheRepo := newStubCacheRepo()
	svc := NewDashboardService(provider, newTestCache(cacheRepo), nil, DashboardServiceConfig{CacheTTL: 5 * time.Minute, Location: loc})
	session := models.Session{UserID: "a1", Role: models.RoleAdmin}
	key := DashboardKey(models.RoleAdmin, "a1")

	svc.now = func() time.Time { return time.Date(2025, time.January, 6, 23, 58, 0, 0, loc) }
	_, _, err := svc.ForSession(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cacheRepo.ttls[key])

	require.NoError(t, cacheRepo.Delete(context.Background(), key))
	svc.now = func() time.Time { return time.Date(2025, time.January, 6, 12, 0, 0, 0, loc) }
	_, _, err = svc.ForSession(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cacheRepo.ttls[key])
}

func TestDashboardServiceStudentUsesMapperAndCaches(t *testing.T) {
	avg := 88.0
	provider := &countingProvider{student: &dto.StudentDashboardData{
		EnrolledCourses: 3,
		AverageGrade:    &avg,
		Sessions: []models.ClassSession{
			classSession("1", "c2", "CS-201", 1, "13:00:00", "14:00:00", "f1"),
			classSession("2", "c3", "CS-301", 1, "09:00:00", "10:00:00", "f1"),
			classSession("3", "c4", "CS-401", 3, "08:00:00", "09:00:00", "f1"),
		},
		PendingAssignments: []models.PendingAssignment{{}, {}, {}, {}, {}, {}},
	}}
	svc, cacheRepo := newDashboardFixture(provider)
	session := models.Session{UserID: "s1", Role: models.RoleStudent}

	resp, hit, err := svc.ForSession(context.Background(), session)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NotNil(t, resp.Student)
	assert.Nil(t, resp.Faculty)
	assert.Equal(t, "test", resp.Source)
	assert.Equal(t, 6, resp.Student.PendingAssignments)
	assert.Len(t, resp.Student.UpcomingAssignments, 5)
	assert.NotNil(t, resp.Student.RecentGrades)

	today := resp.Student.Today
	assert.Equal(t, "Schedule for Monday, January 6", today.Title)
	assert.Equal(t, "2 classes scheduled", today.Summary)
	require.Len(t, today.Sessions, 2)
	assert.Equal(t, "CS-301", today.Sessions[0].Course.Code)
	assert.Equal(t, "9:00 AM", today.Sessions[0].StartDisplay)
	assert.Equal(t, "1:00 PM", today.Sessions[1].StartDisplay)
	assert.True(t, cacheRepo.has(DashboardKey(models.RoleStudent, "s1")))

	cached, hit, err := svc.ForSession(context.Background(), session)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, "Schedule for Monday, January 6", cached.Student.Today.Title)
}

func TestDashboardServiceRoutesByRole(t *testing.T) {
	provider := &countingProvider{
		faculty: &dto.FacultyDashboardData{CoursesTaught: 2},
		admin: &dto.AdminDashboardData{
			UsersByRole:   []models.RoleCount{{Role: models.RoleStudent, Count: 10}, {Role: models.RoleFaculty, Count: 2}},
			RecentSignUps: []models.User{{ID: "u1", FullName: "Grace Brewster Hopper", Role: models.RoleFaculty}},
		},
	}
	svc, _ := newDashboardFixture(provider)

	faculty, _, err := svc.ForSession(context.Background(), models.Session{UserID: "f1", Role: models.RoleFaculty})
	require.NoError(t, err)
	require.NotNil(t, faculty.Faculty)
	assert.Equal(t, models.RoleFaculty, faculty.Role)
	assert.Equal(t, "No classes scheduled", faculty.Faculty.Today.Summary)
	assert.NotNil(t, faculty.Faculty.Rosters)

	admin, _, err := svc.ForSession(context.Background(), models.Session{UserID: "a1", Role: models.RoleAdmin})
	require.NoError(t, err)
	require.NotNil(t, admin.Admin)
	assert.Equal(t, 12, admin.Admin.TotalUsers)
	require.Len(t, admin.Admin.RecentSignUps, 1)
	assert.Equal(t, "Grace", admin.Admin.RecentSignUps[0].FirstName)
	assert.Equal(t, "Brewster Hopper", admin.Admin.RecentSignUps[0].LastName)
}

func TestDashboardServiceErrors(t *testing.T) {
	svc, cacheRepo := newDashboardFixture(&countingProvider{err: errors.New("db down")})

	_, _, err := svc.ForSession(context.Background(), models.Session{})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, _, err = svc.ForSession(context.Background(), models.Session{UserID: "s1", Role: models.RoleStudent})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Zero(t, cacheRepo.sets)
}

func TestFixtureDashboardProviderLoadsShippedFile(t *testing.T) {
	provider, err := LoadFixtureDashboardProvider("../../fixtures/dashboard.yaml")
	require.NoError(t, err)
	provider.now = func() time.Time { return dashboardNow }
	ctx := context.Background()

	student, err := provider.Student(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, student.EnrolledCourses)
	assert.Len(t, student.Sessions, 4)
	require.Len(t, student.PendingAssignments, 2)
	assert.Equal(t, dashboardNow.AddDate(0, 0, 2), *student.PendingAssignments[0].DueDate)
	assert.Equal(t, "A", *student.RecentGrades[0].GradeLetter)

	faculty, err := provider.Faculty(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, 40, faculty.Rosters[0].Students)

	admin, err := provider.Admin(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.RoleCount{
		{Role: models.RoleAdmin, Count: 3},
		{Role: models.RoleFaculty, Count: 27},
		{Role: models.RoleStudent, Count: 412},
	}, admin.UsersByRole)
	assert.Equal(t, models.RoleFaculty, admin.RecentSignUps[1].Role)
}

func TestFixtureDashboardFeedsComposer(t *testing.T) {
	provider, err := LoadFixtureDashboardProvider("../../fixtures/dashboard.yaml")
	require.NoError(t, err)
	provider.now = func() time.Time { return dashboardNow }
	svc, _ := newDashboardFixture(provider)

	resp, _, err := svc.ForSession(context.Background(), models.Session{UserID: "s1", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, "fixtures", resp.Source)
	require.Len(t, resp.Student.Today.Sessions, 2)
	assert.Equal(t, "CS-301", resp.Student.Today.Sessions[0].Course.Code)
}

func TestParseFixtureDashboardProviderRejectsBadYAML(t *testing.T) {
	_, err := ParseFixtureDashboardProvider([]byte("student: [unterminated"))
	assert.Error(t, err)
}

type stubStats struct{}

func (stubStats) CountActiveEnrollments(ctx context.Context, studentID string) (int, error) {
	return 2, nil
}

func (stubStats) CountSubmissions(ctx context.Context, studentID string) (int, error) {
	return 5, nil
}

func (stubStats) AverageGrade(ctx context.Context, studentID string) (*float64, error) {
	return nil, nil
}

func (stubStats) CountCoursesTaught(ctx context.Context, instructorID string) (int, error) {
	return 1, nil
}

func (stubStats) CountDistinctStudents(ctx context.Context, instructorID string) (int, error) {
	return 30, nil
}

func (stubStats) CountAwaitingGrading(ctx context.Context, instructorID string) (int, error) {
	return 4, nil
}

func (stubStats) RosterSizes(ctx context.Context, instructorID string) ([]models.CourseRosterSize, error) {
	return []models.CourseRosterSize{{Code: "CS-201", Students: 30}}, nil
}

func (stubStats) UsersByRole(ctx context.Context) ([]models.RoleCount, error) {
	return nil, nil
}

func (stubStats) CountActiveCourses(ctx context.Context) (int, error) {
	return 0, nil
}

func (stubStats) CountEnrollments(ctx context.Context) (int, error) {
	return 0, nil
}

func (stubStats) RecentSignUps(ctx context.Context, limit int) ([]models.User, error) {
	return nil, nil
}

type stubDashboardSchedules struct {
	student, instructor []models.ClassSession
}

func (s stubDashboardSchedules) ListForStudent(ctx context.Context, studentID string) ([]models.ClassSession, error) {
	return s.student, nil
}

func (s stubDashboardSchedules) ListForInstructor(ctx context.Context, instructorID string) ([]models.ClassSession, error) {
	return s.instructor, nil
}

func TestLiveDashboardProvider(t *testing.T) {
	grades := &fakeGradeRepo{items: []models.GradeDetail{gradeDetail("s1", "CS-201", 90)}}
	assignments := newFakeAssignmentRepo()
	schedules := stubDashboardSchedules{
		student:    []models.ClassSession{classSession("1", "c2", "CS-201", 1, "13:00", "14:00", "f1")},
		instructor: []models.ClassSession{classSession("2", "c3", "CS-301", 2, "09:00", "10:00", "f1")},
	}
	provider := NewLiveDashboardProvider(stubStats{}, assignments, grades, schedules)
	provider.now = func() time.Time { return dashboardNow }

	student, err := provider.Student(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, student.EnrolledCourses)
	assert.Equal(t, 5, student.CompletedSubmissions)
	assert.Len(t, student.RecentGrades, 1)
	assert.Len(t, student.Sessions, 1)
	assert.Equal(t, dashboardNow, assignments.pendingAt)

	faculty, err := provider.Faculty(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, 30, faculty.Students)
	assert.Equal(t, 4, faculty.AwaitingGrading)
	assert.Equal(t, "CS-301", faculty.Sessions[0].Course.Code)
}
