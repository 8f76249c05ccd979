package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-compass-api/internal/dto"
	"github.com/noah-isme/course-compass-api/internal/models"
	"github.com/noah-isme/course-compass-api/internal/schedule"
	appErrors "github.com/noah-isme/course-compass-api/pkg/errors"
	"github.com/noah-isme/course-compass-api/pkg/export"
)

const (
	maxOccurrenceRange = 92 * 24 * time.Hour
	icsHorizon         = 16 * 7 * 24 * time.Hour
	icsProductID       = "-//Course Compass//Class Schedule//EN"
)

type scheduleRepository interface {
	ListByCourseIDs(ctx context.Context, courseIDs []string) ([]models.ClassSession, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.ClassSession, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]models.ClassSession, error)
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
	Create(ctx context.Context, session *models.ClassSession) error
	Update(ctx context.Context, session *models.ClassSession) error
	Delete(ctx context.Context, id string) error
}

type activeCourseReader interface {
	ActiveCourseIDs(ctx context.Context, studentID string) ([]string, error)
}

type scheduleCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// ScheduleServiceConfig tunes schedule behaviour.
type ScheduleServiceConfig struct {
	Location *time.Location
	CacheTTL time.Duration
}

// ScheduleServiceParams groups constructor dependencies.
type ScheduleServiceParams struct {
	Repo        scheduleRepository
	Enrollments activeCourseReader
	Courses     scheduleCourseReader
	Cache       *CacheService
	PDF         *export.PDFExporter
	Validator   *validator.Validate
	Logger      *zap.Logger
	Config      ScheduleServiceConfig
}

// ScheduleService loads weekly class sessions and derives per-date views from them.
type ScheduleService struct {
	repo        scheduleRepository
	enrollments activeCourseReader
	courses     scheduleCourseReader
	cache       *CacheService
	pdf         *export.PDFExporter
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         ScheduleServiceConfig
	now         func() time.Time
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(params ScheduleServiceParams) *ScheduleService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	pdf := params.PDF
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	cfg := params.Config
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Minute
	}
	return &ScheduleService{
		repo:        params.Repo,
		enrollments: params.Enrollments,
		courses:     params.Courses,
		cache:       params.Cache,
		pdf:         pdf,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Location is the timezone used to resolve "today".
func (s *ScheduleService) Location() *time.Location {
	return s.cfg.Location
}

// Today returns the current instant in the schedule timezone.
func (s *ScheduleService) Today() time.Time {
	return s.now().In(s.cfg.Location)
}

// ParseDate reads a YYYY-MM-DD date in the schedule timezone. Empty input means today.
func (s *ScheduleService) ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		today := s.Today()
		return time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, s.cfg.Location), nil
	}
	date, err := time.ParseInLocation("2006-01-02", raw, s.cfg.Location)
	if err != nil {
		return time.Time{}, appErrors.Validation(err, "date must be formatted as YYYY-MM-DD")
	}
	return date, nil
}

// ListForStudent returns the sessions of every course the student is actively enrolled in.
func (s *ScheduleService) ListForStudent(ctx context.Context, studentID string) ([]models.ClassSession, error) {
	key := StudentScheduleKey(studentID)
	var cached []models.ClassSession
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	courseIDs, err := s.enrollments.ActiveCourseIDs(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load enrollments")
	}
	sessions := make([]models.ClassSession, 0)
	if len(courseIDs) > 0 {
		sessions, err = s.repo.ListByCourseIDs(ctx, courseIDs)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load schedules")
		}
		if sessions == nil {
			sessions = []models.ClassSession{}
		}
	}

	if err := s.cache.Set(ctx, key, sessions, s.cfg.CacheTTL); err != nil {
		s.logger.Debug("schedule cache write skipped", zap.String("student_id", studentID), zap.Error(err))
	}
	return sessions, nil
}

// ListForInstructor returns the sessions of every course the instructor teaches.
func (s *ScheduleService) ListForInstructor(ctx context.Context, instructorID string) ([]models.ClassSession, error) {
	sessions, err := s.repo.ListByInstructor(ctx, instructorID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load schedules")
	}
	if sessions == nil {
		sessions = []models.ClassSession{}
	}
	return sessions, nil
}

// ListMine returns the caller's own weekly sessions: enrolled courses for
// students, taught courses for faculty. Administrators have none.
func (s *ScheduleService) ListMine(ctx context.Context, session models.Session) ([]models.ClassSession, error) {
	switch session.Role {
	case models.RoleStudent:
		return s.ListForStudent(ctx, session.UserID)
	case models.RoleFaculty:
		return s.ListForInstructor(ctx, session.UserID)
	default:
		return []models.ClassSession{}, nil
	}
}

// ListForCourse returns the sessions of one course.
func (s *ScheduleService) ListForCourse(ctx context.Context, courseID string) ([]models.ClassSession, error) {
	if _, err := s.loadCourse(ctx, courseID); err != nil {
		return nil, err
	}
	sessions, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load schedules")
	}
	if sessions == nil {
		sessions = []models.ClassSession{}
	}
	return sessions, nil
}

// DayView returns the caller's sessions on date, ordered by start time.
func (s *ScheduleService) DayView(ctx context.Context, session models.Session, date time.Time) (*dto.DayView, error) {
	sessions, err := s.ListMine(ctx, session)
	if err != nil {
		return nil, err
	}
	view := composeDayView(sessions, date.In(s.cfg.Location))
	return &view, nil
}

// Calendar marks the dates of a month that have at least one of the caller's classes.
func (s *ScheduleService) Calendar(ctx context.Context, session models.Session, year int, month time.Month) (*dto.CalendarMonth, error) {
	sessions, err := s.ListMine(ctx, session)
	if err != nil {
		return nil, err
	}
	return composeCalendar(sessions, year, month, s.cfg.Location), nil
}

// ParseMonth reads YYYY-MM. Empty input means the current month.
func (s *ScheduleService) ParseMonth(raw string) (int, time.Month, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		today := s.Today()
		return today.Year(), today.Month(), nil
	}
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return 0, 0, appErrors.Validation(err, "month must be formatted as YYYY-MM")
	}
	return t.Year(), t.Month(), nil
}

// Occurrences lists the caller's concrete class meetings between two dates, inclusive.
func (s *ScheduleService) Occurrences(ctx context.Context, session models.Session, from, to time.Time) ([]dto.OccurrenceView, error) {
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	if to.Sub(from) > maxOccurrenceRange {
		return nil, appErrors.Clone(appErrors.ErrValidation, "range cannot exceed 92 days")
	}
	sessions, err := s.ListMine(ctx, session)
	if err != nil {
		return nil, err
	}
	end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	occurrences, err := schedule.Occurrences(sessions, from, end, s.cfg.Location)
	if err != nil {
		return nil, appErrors.Validation(err, "invalid range")
	}
	views := make([]dto.OccurrenceView, 0, len(occurrences))
	for _, occ := range occurrences {
		view := dto.OccurrenceView{
			SessionID:    occ.Session.ID,
			CourseID:     occ.Session.CourseID,
			Location:     occ.Session.Location,
			Start:        occ.Start,
			End:          occ.End,
			StartDisplay: schedule.FormatTimeOfDay(occ.Session.StartTime),
			EndDisplay:   schedule.FormatTimeOfDay(occ.Session.EndTime),
		}
		if occ.Session.Course != nil {
			view.CourseCode = occ.Session.Course.Code
			view.CourseTitle = occ.Session.Course.Title
		}
		views = append(views, view)
	}
	return views, nil
}

// ICS renders the caller's weekly sessions as an iCalendar feed starting today.
func (s *ScheduleService) ICS(ctx context.Context, session models.Session) (string, error) {
	sessions, err := s.ListMine(ctx, session)
	if err != nil {
		return "", err
	}
	from := s.Today()
	body, err := schedule.ICS(sessions, from, from.Add(icsHorizon), s.cfg.Location, icsProductID)
	if err != nil {
		return "", appErrors.Internal(err, "failed to render calendar")
	}
	return body, nil
}

// TimetablePDF renders the caller's week as a one-page grid.
func (s *ScheduleService) TimetablePDF(ctx context.Context, session models.Session) ([]byte, error) {
	sessions, err := s.ListMine(ctx, session)
	if err != nil {
		return nil, err
	}
	title := "Weekly timetable"
	if session.FullName != "" {
		title += " - " + session.FullName
	}
	body, err := s.pdf.RenderTimetable(composeTimetable(sessions, title, s.Today()))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render timetable")
	}
	return body, nil
}

// Create adds a weekly session to a course the caller manages.
func (s *ScheduleService) Create(ctx context.Context, session models.Session, req models.ScheduleRequest) (*models.ClassSession, error) {
	start, end, err := s.validateRequest(req)
	if err != nil {
		return nil, err
	}
	course, err := s.loadCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if !CanManageCourse(session, course) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the instructor can schedule this course")
	}

	item := &models.ClassSession{
		CourseID:  course.ID,
		DayOfWeek: *req.DayOfWeek,
		StartTime: start,
		EndTime:   end,
		Location:  req.Location,
		Semester:  req.Semester,
		Year:      req.Year,
		Course:    &models.CourseRef{Title: course.Title, Code: course.Code, InstructorID: course.InstructorID},
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Internal(err, "failed to create schedule")
	}
	s.invalidate(ctx)
	return item, nil
}

// Update replaces a weekly session. The caller must manage both the old and the new course.
func (s *ScheduleService) Update(ctx context.Context, session models.Session, id string, req models.ScheduleRequest) (*models.ClassSession, error) {
	start, end, err := s.validateRequest(req)
	if err != nil {
		return nil, err
	}
	existing, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canManageSession(session, existing) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the instructor can edit this schedule")
	}
	course, err := s.loadCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if !CanManageCourse(session, course) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the instructor can schedule this course")
	}

	existing.CourseID = course.ID
	existing.DayOfWeek = *req.DayOfWeek
	existing.StartTime = start
	existing.EndTime = end
	existing.Location = req.Location
	existing.Semester = req.Semester
	existing.Year = req.Year
	existing.Course = &models.CourseRef{Title: course.Title, Code: course.Code, InstructorID: course.InstructorID}

	if err := s.repo.Update(ctx, existing); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Internal(err, "failed to update schedule")
	}
	s.invalidate(ctx)
	return existing, nil
}

// Delete removes a weekly session.
func (s *ScheduleService) Delete(ctx context.Context, session models.Session, id string) error {
	existing, err := s.loadSession(ctx, id)
	if err != nil {
		return err
	}
	if !s.canManageSession(session, existing) {
		return appErrors.Clone(appErrors.ErrForbidden, "only the instructor can delete this schedule")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Internal(err, "failed to delete schedule")
	}
	s.invalidate(ctx)
	return nil
}

func (s *ScheduleService) validateRequest(req models.ScheduleRequest) (string, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", "", appErrors.Validation(err, "invalid schedule payload")
	}
	start, ok := schedule.CanonicalTimeOfDay(strings.TrimSpace(req.StartTime))
	if !ok {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "start_time must be HH:MM or HH:MM:SS")
	}
	end, ok := schedule.CanonicalTimeOfDay(strings.TrimSpace(req.EndTime))
	if !ok {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "end_time must be HH:MM or HH:MM:SS")
	}
	if end <= start {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}
	return start, end, nil
}

func (s *ScheduleService) canManageSession(session models.Session, item *models.ClassSession) bool {
	if session.IsAdmin() {
		return true
	}
	return session.IsFaculty() && item.Course != nil && item.Course.InstructorID != nil && *item.Course.InstructorID == session.UserID
}

func (s *ScheduleService) loadCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	return course, nil
}

func (s *ScheduleService) loadSession(ctx context.Context, id string) (*models.ClassSession, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Internal(err, "failed to load schedule")
	}
	return item, nil
}

// Any schedule write can change what every enrolled student and the instructor see today.
func (s *ScheduleService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, "schedule:student:*")
	_ = s.cache.Invalidate(ctx, "dashboard:*")
}

func composeDayView(sessions []models.ClassSession, date time.Time) dto.DayView {
	onDate := schedule.SessionsOnDate(sessions, date)
	views := make([]dto.SessionView, 0, len(onDate))
	for _, item := range onDate {
		views = append(views, sessionView(item))
	}
	return dto.DayView{
		Date:     date.Format("2006-01-02"),
		Weekday:  int(date.Weekday()),
		DayName:  date.Weekday().String(),
		Title:    schedule.DayTitle(date),
		Summary:  schedule.DaySummary(len(views)),
		Sessions: views,
	}
}

func sessionView(item models.ClassSession) dto.SessionView {
	return dto.SessionView{
		ClassSession: item,
		DayName:      schedule.DayName(item.DayOfWeek),
		StartDisplay: schedule.FormatTimeOfDay(item.StartTime),
		EndDisplay:   schedule.FormatTimeOfDay(item.EndTime),
	}
}

func composeCalendar(sessions []models.ClassSession, year int, month time.Month, loc *time.Location) *dto.CalendarMonth {
	weekdays := schedule.WeekdaysWithSessions(sessions).Sorted()
	names := make([]string, 0, len(weekdays))
	for _, day := range weekdays {
		names = append(names, schedule.DayName(day))
	}
	marked := schedule.MarkedDates(sessions, year, month, loc)
	dates := make([]string, 0, len(marked))
	for _, d := range marked {
		dates = append(dates, d.Format("2006-01-02"))
	}
	return &dto.CalendarMonth{
		Month:        fmt.Sprintf("%04d-%02d", year, int(month)),
		Weekdays:     weekdays,
		WeekdayNames: names,
		MarkedDates:  dates,
	}
}

func composeTimetable(sessions []models.ClassSession, title string, generated time.Time) export.Timetable {
	table := export.Timetable{
		Title:    title,
		Subtitle: "Generated " + generated.Format("Monday, January 2, 2006"),
		DayNames: schedule.DayNames(),
	}
	for day, items := range schedule.ByWeekday(sessions) {
		for _, item := range items {
			entry := export.TimetableEntry{
				Day:   day,
				Start: schedule.FormatTimeOfDay(item.StartTime),
				End:   schedule.FormatTimeOfDay(item.EndTime),
				Label: "Class",
			}
			if item.Course != nil {
				entry.Label = strings.TrimSpace(item.Course.Code + " " + item.Course.Title)
			}
			if item.Location != nil {
				entry.Location = *item.Location
			}
			table.Entries = append(table.Entries, entry)
		}
	}
	return table
}
