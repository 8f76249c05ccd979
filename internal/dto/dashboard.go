package dto

import (
	"time"

	"github.com/noah-isme/course-compass-api/internal/models"
)

// StudentDashboardData is the raw input of the student dashboard.
type StudentDashboardData struct {
	EnrolledCourses      int
	CompletedSubmissions int
	AverageGrade         *float64
	Sessions             []models.ClassSession
	PendingAssignments   []models.PendingAssignment
	RecentGrades         []models.GradeDetail
}

// FacultyDashboardData is the raw input of the faculty dashboard.
type FacultyDashboardData struct {
	CoursesTaught   int
	Students        int
	AwaitingGrading int
	Sessions        []models.ClassSession
	Rosters         []models.CourseRosterSize
}

// AdminDashboardData is the raw input of the admin dashboard.
type AdminDashboardData struct {
	UsersByRole      []models.RoleCount
	ActiveCourses    int
	TotalEnrollments int
	RecentSignUps    []models.User
}

// StudentDashboard summarises a student's courses, work and day.
type StudentDashboard struct {
	EnrolledCourses      int                        `json:"enrolled_courses"`
	PendingAssignments   int                        `json:"pending_assignments"`
	CompletedSubmissions int                        `json:"completed_submissions"`
	AverageGrade         *float64                   `json:"average_grade,omitempty"`
	Today                DayView                    `json:"today"`
	UpcomingAssignments  []models.PendingAssignment `json:"upcoming_assignments"`
	RecentGrades         []models.GradeDetail       `json:"recent_grades"`
}

// FacultyDashboard summarises an instructor's teaching load and day.
type FacultyDashboard struct {
	CoursesTaught   int                       `json:"courses_taught"`
	Students        int                       `json:"students"`
	AwaitingGrading int                       `json:"awaiting_grading"`
	Today           DayView                   `json:"today"`
	Rosters         []models.CourseRosterSize `json:"rosters"`
}

// AdminDashboard summarises platform usage.
type AdminDashboard struct {
	TotalUsers       int                `json:"total_users"`
	UsersByRole      []models.RoleCount `json:"users_by_role"`
	ActiveCourses    int                `json:"active_courses"`
	TotalEnrollments int                `json:"total_enrollments"`
	RecentSignUps    []models.Profile   `json:"recent_sign_ups"`
}

// DashboardResponse is the role-selected dashboard. Exactly one section is set.
type DashboardResponse struct {
	Role        models.UserRole   `json:"role"`
	Source      string            `json:"source"`
	GeneratedAt time.Time         `json:"generated_at"`
	Student     *StudentDashboard `json:"student,omitempty"`
	Faculty     *FacultyDashboard `json:"faculty,omitempty"`
	Admin       *AdminDashboard   `json:"admin,omitempty"`
}
