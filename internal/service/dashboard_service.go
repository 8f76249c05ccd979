package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-compass-api/internal/dto"
	"github.com/noah-isme/course-compass-api/internal/models"
	appErrors "github.com/noah-isme/course-compass-api/pkg/errors"
)

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
	Location *time.Location
	Metrics  *MetricsService
}

// DashboardService routes the caller to their role's dashboard and caches the result.
type DashboardService struct {
	provider DashboardProvider
	cache    *CacheService
	logger   *zap.Logger
	cfg      DashboardServiceConfig
	now      func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(provider DashboardProvider, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &DashboardService{
		provider: provider,
		cache:    cache,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// ForSession returns the dashboard matching the session role and whether it came from cache.
func (s *DashboardService) ForSession(ctx context.Context, session models.Session) (*dto.DashboardResponse, bool, error) {
	if !session.Authenticated() {
		return nil, false, appErrors.ErrUnauthorized
	}
	role := models.NormalizeRole(string(session.Role))
	key := DashboardKey(role, session.UserID)

	var cached dto.DashboardResponse
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		return &cached, true, nil
	}

	now := s.now()
	start := time.Now()
	resp, err := s.compose(ctx, role, session.UserID, now)
	if err != nil {
		return nil, false, err
	}
	s.cfg.Metrics.ObserveDBQuery("dashboard_"+string(role), time.Since(start))
	_ = s.cache.Set(ctx, key, resp, s.cacheTTL(now))
	return resp, false, nil
}

// cacheTTL keeps a cached dashboard from outliving the local day its
// "today" sessions were computed for.
func (s *DashboardService) cacheTTL(now time.Time) time.Duration {
	local := now.In(s.cfg.Location)
	midnight := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, s.cfg.Location)
	if left := midnight.Sub(local); left < s.cfg.CacheTTL {
		return left
	}
	return s.cfg.CacheTTL
}

func (s *DashboardService) compose(ctx context.Context, role models.UserRole, userID string, now time.Time) (*dto.DashboardResponse, error) {
	resp := &dto.DashboardResponse{Role: role, Source: s.provider.Name(), GeneratedAt: now.UTC()}
	today := now.In(s.cfg.Location)

	switch role {
	case models.RoleAdmin:
		data, err := s.provider.Admin(ctx)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load admin dashboard")
		}
		resp.Admin = composeAdminDashboard(data)
	case models.RoleFaculty:
		data, err := s.provider.Faculty(ctx, userID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load faculty dashboard")
		}
		resp.Faculty = composeFacultyDashboard(data, today)
	default:
		data, err := s.provider.Student(ctx, userID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load student dashboard")
		}
		resp.Student = composeStudentDashboard(data, today)
	}
	return resp, nil
}

func composeStudentDashboard(data *dto.StudentDashboardData, today time.Time) *dto.StudentDashboard {
	upcoming := data.PendingAssignments
	if len(upcoming) > recentListLimit {
		upcoming = upcoming[:recentListLimit]
	}
	if upcoming == nil {
		upcoming = []models.PendingAssignment{}
	}
	grades := data.RecentGrades
	if grades == nil {
		grades = []models.GradeDetail{}
	}
	return &dto.StudentDashboard{
		EnrolledCourses:      data.EnrolledCourses,
		PendingAssignments:   len(data.PendingAssignments),
		CompletedSubmissions: data.CompletedSubmissions,
		AverageGrade:         data.AverageGrade,
		Today:                composeDayView(data.Sessions, today),
		UpcomingAssignments:  upcoming,
		RecentGrades:         grades,
	}
}

func composeFacultyDashboard(data *dto.FacultyDashboardData, today time.Time) *dto.FacultyDashboard {
	rosters := data.Rosters
	if rosters == nil {
		rosters = []models.CourseRosterSize{}
	}
	return &dto.FacultyDashboard{
		CoursesTaught:   data.CoursesTaught,
		Students:        data.Students,
		AwaitingGrading: data.AwaitingGrading,
		Today:           composeDayView(data.Sessions, today),
		Rosters:         rosters,
	}
}

func composeAdminDashboard(data *dto.AdminDashboardData) *dto.AdminDashboard {
	total := 0
	for _, rc := range data.UsersByRole {
		total += rc.Count
	}
	byRole := data.UsersByRole
	if byRole == nil {
		byRole = []models.RoleCount{}
	}
	signUps := make([]models.Profile, 0, len(data.RecentSignUps))
	for _, u := range data.RecentSignUps {
		signUps = append(signUps, models.ProfileFromUser(u))
	}
	return &dto.AdminDashboard{
		TotalUsers:       total,
		UsersByRole:      byRole,
		ActiveCourses:    data.ActiveCourses,
		TotalEnrollments: data.TotalEnrollments,
		RecentSignUps:    signUps,
	}
}
