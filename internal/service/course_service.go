package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-compass-api/internal/models"
	appErrors "github.com/noah-isme/course-compass-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
}

// CourseService manages the course catalogue.
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// List returns the filtered catalogue ordered by title.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list courses")
	}
	return courses, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Mine returns the courses taught by the session user.
func (s *CourseService) Mine(ctx context.Context, session models.Session) ([]models.Course, error) {
	courses, err := s.repo.ListByInstructor(ctx, session.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list courses")
	}
	return courses, nil
}

// Get returns a single course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	return course, nil
}

// Create adds a course. Faculty callers always become its instructor.
func (s *CourseService) Create(ctx context.Context, session models.Session, req models.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid course payload")
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	exists, err := s.repo.ExistsByCode(ctx, code)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists")
	}

	status := req.Status
	if status == "" {
		status = models.CourseStatusActive
	}
	instructorID := req.InstructorID
	if session.IsFaculty() || instructorID == nil {
		id := session.UserID
		instructorID = &id
	}

	course := &models.Course{
		Code:         code,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Department:   req.Department,
		Semester:     req.Semester,
		Year:         req.Year,
		Credits:      req.Credits,
		MaxStudents:  req.MaxStudents,
		Status:       status,
		InstructorID: instructorID,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists")
		}
		return nil, appErrors.Internal(err, "failed to create course")
	}
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("code", course.Code))
	return course, nil
}

// Update edits a course owned by the caller, or any course for admins.
func (s *CourseService) Update(ctx context.Context, session models.Session, id string, req models.UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid course payload")
	}
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanManageCourse(session, course) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the instructor can edit this course")
	}

	course.Title = strings.TrimSpace(req.Title)
	course.Description = req.Description
	course.Department = req.Department
	course.Semester = req.Semester
	course.Year = req.Year
	course.Credits = req.Credits
	course.MaxStudents = req.MaxStudents
	course.Status = req.Status

	if err := s.repo.Update(ctx, course); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to update course")
	}
	return course, nil
}

// CanManageCourse reports whether the session may change the course or view its roster.
func CanManageCourse(session models.Session, course *models.Course) bool {
	if session.IsAdmin() {
		return true
	}
	return session.IsFaculty() && course != nil && course.InstructorID != nil && *course.InstructorID == session.UserID
}
