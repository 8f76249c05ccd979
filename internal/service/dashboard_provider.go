package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/course-compass-api/internal/dto"
	"github.com/noah-isme/course-compass-api/internal/models"
)

const recentListLimit = 5

// DashboardProvider supplies the raw data each role dashboard is composed from.
type DashboardProvider interface {
	Name() string
	Student(ctx context.Context, studentID string) (*dto.StudentDashboardData, error)
	Faculty(ctx context.Context, facultyID string) (*dto.FacultyDashboardData, error)
	Admin(ctx context.Context) (*dto.AdminDashboardData, error)
}

type dashboardStats interface {
	CountActiveEnrollments(ctx context.Context, studentID string) (int, error)
	CountSubmissions(ctx context.Context, studentID string) (int, error)
	AverageGrade(ctx context.Context, studentID string) (*float64, error)
	CountCoursesTaught(ctx context.Context, instructorID string) (int, error)
	CountDistinctStudents(ctx context.Context, instructorID string) (int, error)
	CountAwaitingGrading(ctx context.Context, instructorID string) (int, error)
	RosterSizes(ctx context.Context, instructorID string) ([]models.CourseRosterSize, error)
	UsersByRole(ctx context.Context) ([]models.RoleCount, error)
	CountActiveCourses(ctx context.Context) (int, error)
	CountEnrollments(ctx context.Context) (int, error)
	RecentSignUps(ctx context.Context, limit int) ([]models.User, error)
}

type pendingAssignmentLister interface {
	Pending(ctx context.Context, studentID string, now time.Time) ([]models.PendingAssignment, error)
}

type recentGradeLister interface {
	ListByStudent(ctx context.Context, studentID string, limit int) ([]models.GradeDetail, error)
}

type dashboardSchedules interface {
	ListForStudent(ctx context.Context, studentID string) ([]models.ClassSession, error)
	ListForInstructor(ctx context.Context, instructorID string) ([]models.ClassSession, error)
}

// LiveDashboardProvider reads dashboard data from the database.
type LiveDashboardProvider struct {
	stats       dashboardStats
	assignments pendingAssignmentLister
	grades      recentGradeLister
	schedules   dashboardSchedules
	now         func() time.Time
}

// NewLiveDashboardProvider constructs the repository-backed provider.
func NewLiveDashboardProvider(stats dashboardStats, assignments pendingAssignmentLister, grades recentGradeLister, schedules dashboardSchedules) *LiveDashboardProvider {
	return &LiveDashboardProvider{
		stats:       stats,
		assignments: assignments,
		grades:      grades,
		schedules:   schedules,
		now:         time.Now,
	}
}

// Name identifies the provider in responses.
func (p *LiveDashboardProvider) Name() string { return "live" }

// Student loads the student's counts, work, grades and weekly sessions.
func (p *LiveDashboardProvider) Student(ctx context.Context, studentID string) (*dto.StudentDashboardData, error) {
	var (
		data dto.StudentDashboardData
		err  error
	)
	if data.EnrolledCourses, err = p.stats.CountActiveEnrollments(ctx, studentID); err != nil {
		return nil, err
	}
	if data.CompletedSubmissions, err = p.stats.CountSubmissions(ctx, studentID); err != nil {
		return nil, err
	}
	if data.AverageGrade, err = p.stats.AverageGrade(ctx, studentID); err != nil {
		return nil, err
	}
	if data.PendingAssignments, err = p.assignments.Pending(ctx, studentID, p.now().UTC()); err != nil {
		return nil, err
	}
	if data.RecentGrades, err = p.grades.ListByStudent(ctx, studentID, recentListLimit); err != nil {
		return nil, err
	}
	if data.Sessions, err = p.schedules.ListForStudent(ctx, studentID); err != nil {
		return nil, err
	}
	return &data, nil
}

// Faculty loads the instructor's teaching load and weekly sessions.
func (p *LiveDashboardProvider) Faculty(ctx context.Context, facultyID string) (*dto.FacultyDashboardData, error) {
	var (
		data dto.FacultyDashboardData
		err  error
	)
	if data.CoursesTaught, err = p.stats.CountCoursesTaught(ctx, facultyID); err != nil {
		return nil, err
	}
	if data.Students, err = p.stats.CountDistinctStudents(ctx, facultyID); err != nil {
		return nil, err
	}
	if data.AwaitingGrading, err = p.stats.CountAwaitingGrading(ctx, facultyID); err != nil {
		return nil, err
	}
	if data.Rosters, err = p.stats.RosterSizes(ctx, facultyID); err != nil {
		return nil, err
	}
	if data.Sessions, err = p.schedules.ListForInstructor(ctx, facultyID); err != nil {
		return nil, err
	}
	return &data, nil
}

// Admin loads platform-wide counts.
func (p *LiveDashboardProvider) Admin(ctx context.Context) (*dto.AdminDashboardData, error) {
	var (
		data dto.AdminDashboardData
		err  error
	)
	if data.UsersByRole, err = p.stats.UsersByRole(ctx); err != nil {
		return nil, err
	}
	if data.ActiveCourses, err = p.stats.CountActiveCourses(ctx); err != nil {
		return nil, err
	}
	if data.TotalEnrollments, err = p.stats.CountEnrollments(ctx); err != nil {
		return nil, err
	}
	if data.RecentSignUps, err = p.stats.RecentSignUps(ctx, recentListLimit); err != nil {
		return nil, err
	}
	return &data, nil
}

// FixtureDashboardProvider serves the same data to every user from a YAML document.
// Relative dates in the file are resolved against the current day.
type FixtureDashboardProvider struct {
	doc fixtureDocument
	now func() time.Time
}

type fixtureDocument struct {
	Student struct {
		EnrolledCourses      int                 `yaml:"enrolled_courses"`
		CompletedSubmissions int                 `yaml:"completed_submissions"`
		AverageGrade         *float64            `yaml:"average_grade"`
		Sessions             []fixtureSession    `yaml:"sessions"`
		PendingAssignments   []fixtureAssignment `yaml:"pending_assignments"`
		RecentGrades         []fixtureGrade      `yaml:"recent_grades"`
	} `yaml:"student"`
	Faculty struct {
		CoursesTaught   int              `yaml:"courses_taught"`
		Students        int              `yaml:"students"`
		AwaitingGrading int              `yaml:"awaiting_grading"`
		Sessions        []fixtureSession `yaml:"sessions"`
		Rosters         []fixtureRoster  `yaml:"rosters"`
	} `yaml:"faculty"`
	Admin struct {
		UsersByRole      map[string]int `yaml:"users_by_role"`
		ActiveCourses    int            `yaml:"active_courses"`
		TotalEnrollments int            `yaml:"total_enrollments"`
		RecentSignUps    []fixtureUser  `yaml:"recent_sign_ups"`
	} `yaml:"admin"`
}

type fixtureSession struct {
	ID          string  `yaml:"id"`
	CourseID    string  `yaml:"course_id"`
	CourseCode  string  `yaml:"course_code"`
	CourseTitle string  `yaml:"course_title"`
	DayOfWeek   int     `yaml:"day_of_week"`
	StartTime   string  `yaml:"start_time"`
	EndTime     string  `yaml:"end_time"`
	Location    *string `yaml:"location"`
}

type fixtureAssignment struct {
	ID          string `yaml:"id"`
	CourseID    string `yaml:"course_id"`
	CourseCode  string `yaml:"course_code"`
	CourseTitle string `yaml:"course_title"`
	Title       string `yaml:"title"`
	Type        string `yaml:"type"`
	Points      int    `yaml:"points"`
	DueInDays   int    `yaml:"due_in_days"`
}

type fixtureGrade struct {
	CourseCode      string  `yaml:"course_code"`
	CourseTitle     string  `yaml:"course_title"`
	AssignmentTitle *string `yaml:"assignment_title"`
	GradeValue      float64 `yaml:"grade_value"`
	DaysAgo         int     `yaml:"days_ago"`
}

type fixtureRoster struct {
	CourseID string `yaml:"course_id"`
	Code     string `yaml:"code"`
	Title    string `yaml:"title"`
	Students int    `yaml:"students"`
}

type fixtureUser struct {
	Email    string `yaml:"email"`
	FullName string `yaml:"full_name"`
	Role     string `yaml:"role"`
	DaysAgo  int    `yaml:"days_ago"`
}

// LoadFixtureDashboardProvider reads fixtures from a YAML file.
func LoadFixtureDashboardProvider(path string) (*FixtureDashboardProvider, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dashboard fixtures: %w", err)
	}
	return ParseFixtureDashboardProvider(raw)
}

// ParseFixtureDashboardProvider decodes fixtures from YAML bytes.
func ParseFixtureDashboardProvider(raw []byte) (*FixtureDashboardProvider, error) {
	var doc fixtureDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode dashboard fixtures: %w", err)
	}
	return &FixtureDashboardProvider{doc: doc, now: time.Now}, nil
}

// Name identifies the provider in responses.
func (p *FixtureDashboardProvider) Name() string { return "fixtures" }

// Student returns the fixture student data.
func (p *FixtureDashboardProvider) Student(ctx context.Context, studentID string) (*dto.StudentDashboardData, error) {
	src := p.doc.Student
	now := p.now().UTC()
	data := &dto.StudentDashboardData{
		EnrolledCourses:      src.EnrolledCourses,
		CompletedSubmissions: src.CompletedSubmissions,
		AverageGrade:         src.AverageGrade,
		Sessions:             fixtureSessions(src.Sessions),
		PendingAssignments:   make([]models.PendingAssignment, 0, len(src.PendingAssignments)),
		RecentGrades:         make([]models.GradeDetail, 0, len(src.RecentGrades)),
	}
	for _, a := range src.PendingAssignments {
		due := now.AddDate(0, 0, a.DueInDays)
		data.PendingAssignments = append(data.PendingAssignments, models.PendingAssignment{
			Assignment: models.Assignment{
				ID:       a.ID,
				CourseID: a.CourseID,
				Title:    a.Title,
				Type:     a.Type,
				Points:   a.Points,
				Status:   models.AssignmentStatusPublished,
				DueDate:  &due,
			},
			CourseCode:  a.CourseCode,
			CourseTitle: a.CourseTitle,
		})
	}
	for _, g := range src.RecentGrades {
		letter := models.LetterFor(g.GradeValue)
		data.RecentGrades = append(data.RecentGrades, models.GradeDetail{
			Grade: models.Grade{
				StudentID:   studentID,
				GradeValue:  g.GradeValue,
				GradeLetter: &letter,
				GradedAt:    now.AddDate(0, 0, -g.DaysAgo),
			},
			CourseCode:      g.CourseCode,
			CourseTitle:     g.CourseTitle,
			AssignmentTitle: g.AssignmentTitle,
		})
	}
	return data, nil
}

// Faculty returns the fixture faculty data.
func (p *FixtureDashboardProvider) Faculty(ctx context.Context, facultyID string) (*dto.FacultyDashboardData, error) {
	src := p.doc.Faculty
	rosters := make([]models.CourseRosterSize, 0, len(src.Rosters))
	for _, r := range src.Rosters {
		rosters = append(rosters, models.CourseRosterSize{CourseID: r.CourseID, Code: r.Code, Title: r.Title, Students: r.Students})
	}
	return &dto.FacultyDashboardData{
		CoursesTaught:   src.CoursesTaught,
		Students:        src.Students,
		AwaitingGrading: src.AwaitingGrading,
		Sessions:        fixtureSessions(src.Sessions),
		Rosters:         rosters,
	}, nil
}

// Admin returns the fixture admin data. Roles are listed in a fixed order.
func (p *FixtureDashboardProvider) Admin(ctx context.Context) (*dto.AdminDashboardData, error) {
	src := p.doc.Admin
	now := p.now().UTC()
	data := &dto.AdminDashboardData{
		ActiveCourses:    src.ActiveCourses,
		TotalEnrollments: src.TotalEnrollments,
		UsersByRole:      make([]models.RoleCount, 0, len(src.UsersByRole)),
		RecentSignUps:    make([]models.User, 0, len(src.RecentSignUps)),
	}
	for _, role := range []models.UserRole{models.RoleAdmin, models.RoleFaculty, models.RoleStudent} {
		if count, ok := src.UsersByRole[string(role)]; ok {
			data.UsersByRole = append(data.UsersByRole, models.RoleCount{Role: role, Count: count})
		}
	}
	for i, u := range src.RecentSignUps {
		created := now.AddDate(0, 0, -u.DaysAgo)
		data.RecentSignUps = append(data.RecentSignUps, models.User{
			ID:        fmt.Sprintf("fixture-user-%d", i+1),
			Email:     u.Email,
			FullName:  u.FullName,
			Role:      models.NormalizeRole(u.Role),
			Active:    true,
			CreatedAt: created,
			UpdatedAt: created,
		})
	}
	return data, nil
}

func fixtureSessions(src []fixtureSession) []models.ClassSession {
	out := make([]models.ClassSession, 0, len(src))
	for _, s := range src {
		out = append(out, models.ClassSession{
			ID:        s.ID,
			CourseID:  s.CourseID,
			DayOfWeek: s.DayOfWeek,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			Location:  s.Location,
			Course:    &models.CourseRef{Code: s.CourseCode, Title: s.CourseTitle},
		})
	}
	return out
}
