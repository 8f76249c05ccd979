package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-compass-api/internal/models"
	appErrors "github.com/noah-isme/course-compass-api/pkg/errors"
)

type enrollmentRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	IsActive(ctx context.Context, studentID, courseID string) (bool, error)
	CreateWithinCapacity(ctx context.Context, enrollment *models.Enrollment) (bool, error)
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
	Roster(ctx context.Context, courseID string) ([]models.RosterEntry, error)
}

type enrollmentCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// EnrollmentService handles students joining and leaving courses.
type EnrollmentService struct {
	repo      enrollmentRepository
	courses   enrollmentCourseReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, courses enrollmentCourseReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EnrollmentService{repo: repo, courses: courses, cache: cache, validator: validate, logger: logger}
}

// ListMine returns the session student's enrollments, newest first.
func (s *EnrollmentService) ListMine(ctx context.Context, session models.Session) ([]models.EnrollmentDetail, error) {
	items, err := s.repo.ListByStudent(ctx, session.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list enrollments")
	}
	if items == nil {
		items = []models.EnrollmentDetail{}
	}
	return items, nil
}

// Enroll enrolls the session student in an active course with free capacity.
func (s *EnrollmentService) Enroll(ctx context.Context, session models.Session, req models.CreateEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid enrollment payload")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	if course.Status != models.CourseStatusActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course is not open for enrollment")
	}

	active, err := s.repo.IsActive(ctx, session.UserID, course.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check enrollment")
	}
	if active {
		return nil, appErrors.ErrAlreadyEnrolled
	}

	enrollment := &models.Enrollment{StudentID: session.UserID, CourseID: course.ID, Status: models.EnrollmentStatusActive}
	created, err := s.repo.CreateWithinCapacity(ctx, enrollment)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, appErrors.ErrAlreadyEnrolled
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to create enrollment")
	}
	if !created {
		return nil, appErrors.ErrCourseFull
	}

	s.invalidateStudent(ctx, session.UserID)
	s.logger.Info("student enrolled", zap.String("student_id", session.UserID), zap.String("course_id", course.ID))
	return enrollment, nil
}

// Drop marks an enrollment dropped. Students may drop their own; admins any.
func (s *EnrollmentService) Drop(ctx context.Context, session models.Session, enrollmentID string) error {
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Internal(err, "failed to load enrollment")
	}
	if !session.IsAdmin() && enrollment.StudentID != session.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot drop another student's enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusActive {
		return appErrors.Clone(appErrors.ErrConflict, "enrollment is not active")
	}
	if err := s.repo.UpdateStatus(ctx, enrollment.ID, models.EnrollmentStatusDropped); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Internal(err, "failed to drop enrollment")
	}
	s.invalidateStudent(ctx, enrollment.StudentID)
	return nil
}

// Roster lists the active students of a course for its instructor or an admin.
func (s *EnrollmentService) Roster(ctx context.Context, session models.Session, courseID string) ([]models.RosterEntry, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	if !CanManageCourse(session, course) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the instructor can view the roster")
	}
	roster, err := s.repo.Roster(ctx, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load roster")
	}
	if roster == nil {
		roster = []models.RosterEntry{}
	}
	return roster, nil
}

func (s *EnrollmentService) invalidateStudent(ctx context.Context, studentID string) {
	s.cache.Delete(ctx, StudentScheduleKey(studentID), DashboardKey(models.RoleStudent, studentID))
}
