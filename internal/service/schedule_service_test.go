package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-compass-api/internal/models"
	appErrors "github.com/noah-isme/course-compass-api/pkg/errors"
)

type fakeScheduleRepo struct {
	sessions     []models.ClassSession
	listCalls    int
	createdOrUpd []*models.ClassSession
	deleted      []string
}

func (f *fakeScheduleRepo) ListByCourseIDs(ctx context.Context, courseIDs []string) ([]models.ClassSession, error) {
	f.listCalls++
	wanted := map[string]bool{}
	for _, id := range courseIDs {
		wanted[id] = true
	}
	var out []models.ClassSession
	for _, s := range f.sessions {
		if wanted[s.CourseID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) ListByCourse(ctx context.Context, courseID string) ([]models.ClassSession, error) {
	return f.ListByCourseIDs(ctx, []string{courseID})
}

func (f *fakeScheduleRepo) ListByInstructor(ctx context.Context, instructorID string) ([]models.ClassSession, error) {
	var out []models.ClassSession
	for _, s := range f.sessions {
		if s.Course != nil && s.Course.InstructorID != nil && *s.Course.InstructorID == instructorID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	for _, s := range f.sessions {
		if s.ID == id {
			clone := s
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeScheduleRepo) Create(ctx context.Context, session *models.ClassSession) error {
	session.ID = "new-session"
	f.createdOrUpd = append(f.createdOrUpd, session)
	return nil
}

func (f *fakeScheduleRepo) Update(ctx context.Context, session *models.ClassSession) error {
	f.createdOrUpd = append(f.createdOrUpd, session)
	return nil
}

func (f *fakeScheduleRepo) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeActiveCourses struct {
	byStudent map[string][]string
	calls     int
}

func (f *fakeActiveCourses) ActiveCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	f.calls++
	return f.byStudent[studentID], nil
}

func strRef(v string) *string { return &v }

func classSession(id, courseID, code string, day int, start, end string, instructor string) models.ClassSession {
	return models.ClassSession{
		ID: id, CourseID: courseID, DayOfWeek: day, StartTime: start, EndTime: end,
		Location: strRef("Room " + code),
		Course:   &models.CourseRef{Code: code, Title: "Course " + code, InstructorID: strRef(instructor)},
	}
}

type scheduleFixture struct {
	svc       *ScheduleService
	repo      *fakeScheduleRepo
	active    *fakeActiveCourses
	cacheRepo *stubCacheRepo
}

func newScheduleFixture() scheduleFixture {
	repo := &fakeScheduleRepo{sessions: []models.ClassSession{
		classSession("s-201", testCourseID, "CS-201", 1, "13:00:00", "14:30:00", "f1"),
		classSession("s-301", "c-301", "CS-301", 1, "09:00:00", "10:15:00", "f2"),
		classSession("s-101", "c-101", "CS-101", 2, "10:00:00", "11:00:00", "f1"),
		classSession("s-301w", "c-301", "CS-301", 3, "09:00:00", "10:15:00", "f2"),
	}}
	active := &fakeActiveCourses{byStudent: map[string][]string{"stu": {testCourseID, "c-301"}}}
	owner := "f1"
	courses := newFakeCourseRepo(&models.Course{ID: testCourseID, Code: "CS-201", Title: "Data Structures", InstructorID: &owner})
	cacheRepo := newStubCacheRepo()
	svc := NewScheduleService(ScheduleServiceParams{
		Repo:        repo,
		Enrollments: active,
		Courses:     courses,
		Cache:       newTestCache(cacheRepo),
	})
	svc.now = func() time.Time { return time.Date(2025, time.January, 6, 8, 0, 0, 0, time.UTC) }
	return scheduleFixture{svc: svc, repo: repo, active: active, cacheRepo: cacheRepo}
}

var studentSession = models.Session{UserID: "stu", Role: models.RoleStudent, FullName: "Sam Student"}

func TestScheduleServiceListForStudentWithoutEnrollmentsSkipsSessionQuery(t *testing.T) {
	fx := newScheduleFixture()

	sessions, err := fx.svc.ListForStudent(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)
	assert.Equal(t, 0, fx.repo.listCalls)
}

func TestScheduleServiceListForStudentIsCached(t *testing.T) {
	fx := newScheduleFixture()
	ctx := context.Background()

	first, err := fx.svc.ListForStudent(ctx, "stu")
	require.NoError(t, err)
	assert.Len(t, first, 3)

	second, err := fx.svc.ListForStudent(ctx, "stu")
	require.NoError(t, err)
	assert.Len(t, second, 3)
	assert.Equal(t, 1, fx.active.calls)
	assert.Equal(t, 1, fx.repo.listCalls)
	assert.True(t, fx.cacheRepo.has(StudentScheduleKey("stu")))
}

func TestScheduleServiceDayViewMondayScenario(t *testing.T) {
	fx := newScheduleFixture()
	date, err := fx.svc.ParseDate("2025-01-06")
	require.NoError(t, err)

	view, err := fx.svc.DayView(context.Background(), studentSession, date)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-06", view.Date)
	assert.Equal(t, 1, view.Weekday)
	assert.Equal(t, "Monday", view.DayName)
	assert.Equal(t, "Schedule for Monday, January 6", view.Title)
	assert.Equal(t, "2 classes scheduled", view.Summary)
	require.Len(t, view.Sessions, 2)
	assert.Equal(t, "CS-301", view.Sessions[0].Course.Code)
	assert.Equal(t, "9:00 AM", view.Sessions[0].StartDisplay)
	assert.Equal(t, "10:15 AM", view.Sessions[0].EndDisplay)
	assert.Equal(t, "CS-201", view.Sessions[1].Course.Code)
	assert.Equal(t, "1:00 PM", view.Sessions[1].StartDisplay)

	sunday, err := fx.svc.DayView(context.Background(), studentSession, date.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Equal(t, "No classes scheduled", sunday.Summary)
	assert.NotNil(t, sunday.Sessions)
}

func TestScheduleServiceParseDateDefaultsToToday(t *testing.T) {
	fx := newScheduleFixture()

	today, err := fx.svc.ParseDate("")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-06", today.Format("2006-01-02"))

	_, err = fx.svc.ParseDate("06/01/2025")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestScheduleServiceFacultySeesTaughtSessions(t *testing.T) {
	fx := newScheduleFixture()
	faculty := models.Session{UserID: "f1", Role: models.RoleFaculty}

	view, err := fx.svc.DayView(context.Background(), faculty, time.Date(2025, time.January, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, view.Sessions, 1)
	assert.Equal(t, "s-101", view.Sessions[0].ID)

	admin, err := fx.svc.ListMine(context.Background(), models.Session{UserID: "a", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Empty(t, admin)
}

func TestScheduleServiceCalendar(t *testing.T) {
	fx := newScheduleFixture()

	cal, err := fx.svc.Calendar(context.Background(), studentSession, 2025, time.January)
	require.NoError(t, err)
	assert.Equal(t, "2025-01", cal.Month)
	assert.Equal(t, []int{1, 3}, cal.Weekdays)
	assert.Equal(t, []string{"Monday", "Wednesday"}, cal.WeekdayNames)
	assert.Equal(t, []string{
		"2025-01-01", "2025-01-06", "2025-01-08", "2025-01-13", "2025-01-15",
		"2025-01-20", "2025-01-22", "2025-01-27", "2025-01-29",
	}, cal.MarkedDates)

	year, month, err := fx.svc.ParseMonth("")
	require.NoError(t, err)
	assert.Equal(t, 2025, year)
	assert.Equal(t, time.January, month)
}

func TestScheduleServiceOccurrences(t *testing.T) {
	fx := newScheduleFixture()
	from := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)

	views, err := fx.svc.Occurrences(context.Background(), studentSession, from, from.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "CS-301", views[0].CourseCode)
	assert.Equal(t, time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC), views[0].Start)
	assert.Equal(t, "CS-201", views[1].CourseCode)
	assert.Equal(t, time.Date(2025, time.January, 8, 9, 0, 0, 0, time.UTC), views[2].Start)

	_, err = fx.svc.Occurrences(context.Background(), studentSession, from, from.AddDate(0, 4, 0))
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = fx.svc.Occurrences(context.Background(), studentSession, from, from.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestScheduleServiceExports(t *testing.T) {
	fx := newScheduleFixture()

	ics, err := fx.svc.ICS(context.Background(), studentSession)
	require.NoError(t, err)
	assert.Contains(t, ics, "BEGIN:VCALENDAR")
	assert.Equal(t, 3, strings.Count(ics, "BEGIN:VEVENT"))
	assert.Contains(t, ics, "FREQ=WEEKLY;BYDAY=MO")

	pdf, err := fx.svc.TimetablePDF(context.Background(), studentSession)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
}

func TestScheduleServiceCreateValidation(t *testing.T) {
	fx := newScheduleFixture()
	owner := models.Session{UserID: "f1", Role: models.RoleFaculty}
	day := 1
	badDay := 7
	ctx := context.Background()

	cases := []models.ScheduleRequest{
		{CourseID: testCourseID, DayOfWeek: &badDay, StartTime: "09:00", EndTime: "10:00"},
		{CourseID: testCourseID, StartTime: "09:00", EndTime: "10:00"},
		{CourseID: testCourseID, DayOfWeek: &day, StartTime: "nine", EndTime: "10:00"},
		{CourseID: testCourseID, DayOfWeek: &day, StartTime: "10:00", EndTime: "10:00"},
		{CourseID: testCourseID, DayOfWeek: &day, StartTime: "11:00", EndTime: "10:00"},
	}
	for _, req := range cases {
		_, err := fx.svc.Create(ctx, owner, req)
		assert.ErrorIs(t, err, appErrors.ErrValidation, "%+v", req)
	}
	assert.Empty(t, fx.repo.createdOrUpd)
}

func TestScheduleServiceCreateAndInvalidate(t *testing.T) {
	fx := newScheduleFixture()
	ctx := context.Background()
	_, err := fx.svc.ListForStudent(ctx, "stu")
	require.NoError(t, err)
	require.True(t, fx.cacheRepo.has(StudentScheduleKey("stu")))
	day := 5

	req := models.ScheduleRequest{CourseID: testCourseID, DayOfWeek: &day, StartTime: "9:00", EndTime: "10:30"}
	_, err = fx.svc.Create(ctx, models.Session{UserID: "f2", Role: models.RoleFaculty}, req)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	created, err := fx.svc.Create(ctx, models.Session{UserID: "f1", Role: models.RoleFaculty}, req)
	require.NoError(t, err)
	assert.Equal(t, "09:00:00", created.StartTime)
	assert.Equal(t, "10:30:00", created.EndTime)
	assert.Equal(t, "CS-201", created.Course.Code)
	assert.False(t, fx.cacheRepo.has(StudentScheduleKey("stu")))
}

func TestScheduleServiceDeleteRequiresOwnership(t *testing.T) {
	fx := newScheduleFixture()
	ctx := context.Background()

	err := fx.svc.Delete(ctx, models.Session{UserID: "f1", Role: models.RoleFaculty}, "s-301")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	require.NoError(t, fx.svc.Delete(ctx, models.Session{UserID: "f2", Role: models.RoleFaculty}, "s-301"))
	require.NoError(t, fx.svc.Delete(ctx, models.Session{UserID: "a1", Role: models.RoleAdmin}, "s-101"))
	assert.Equal(t, []string{"s-301", "s-101"}, fx.repo.deleted)

	assert.ErrorIs(t, fx.svc.Delete(ctx, models.Session{UserID: "a1", Role: models.RoleAdmin}, "missing"), appErrors.ErrNotFound)
}
