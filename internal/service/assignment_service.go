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

	"github.com/noah-isme/course-compass-api/internal/models"
	appErrors "github.com/noah-isme/course-compass-api/pkg/errors"
)

type assignmentRepository interface {
	ListByCourse(ctx context.Context, courseID string, includeDrafts bool) ([]models.Assignment, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Pending(ctx context.Context, studentID string, now time.Time) ([]models.PendingAssignment, error)
}

type courseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type enrollmentChecker interface {
	IsActive(ctx context.Context, studentID, courseID string) (bool, error)
}

type notificationPublisher interface {
	Publish(ctx context.Context, fanOut NotificationFanOut) error
}

// AssignmentService manages course assignments.
type AssignmentService struct {
	repo        assignmentRepository
	courses     courseFinder
	enrollments enrollmentChecker
	notifier    notificationPublisher
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(repo assignmentRepository, courses courseFinder, enrollments enrollmentChecker, notifier notificationPublisher, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AssignmentService{
		repo:        repo,
		courses:     courses,
		enrollments: enrollments,
		notifier:    notifier,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// ListForCourse returns a course's assignments. Drafts are visible to the instructor and admins only.
func (s *AssignmentService) ListForCourse(ctx context.Context, session models.Session, courseID string) ([]models.Assignment, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	manager := CanManageCourse(session, course)
	if session.IsStudent() {
		enrolled, err := s.enrollments.IsActive(ctx, session.UserID, courseID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to check enrollment")
		}
		if !enrolled {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not enrolled in this course")
		}
	}
	items, err := s.repo.ListByCourse(ctx, courseID, manager)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list assignments")
	}
	if items == nil {
		items = []models.Assignment{}
	}
	return items, nil
}

// Create adds an assignment. Published assignments notify every active student.
func (s *AssignmentService) Create(ctx context.Context, session models.Session, courseID string, req models.CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid assignment payload")
	}
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !CanManageCourse(session, course) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the instructor can add assignments")
	}

	assignment := &models.Assignment{
		CourseID:     course.ID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Instructions: req.Instructions,
		Type:         req.Type,
		Points:       req.Points,
		Status:       req.Status,
		DueDate:      req.DueDate,
	}
	if assignment.Type == "" {
		assignment.Type = "homework"
	}
	if assignment.Points == 0 {
		assignment.Points = 100
	}
	if assignment.Status == "" {
		assignment.Status = models.AssignmentStatusPublished
	}

	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Internal(err, "failed to create assignment")
	}

	if assignment.Status == models.AssignmentStatusPublished {
		s.announce(ctx, course, assignment)
	}
	return assignment, nil
}

// Pending returns the session student's open work, soonest due first.
func (s *AssignmentService) Pending(ctx context.Context, session models.Session) ([]models.PendingAssignment, error) {
	items, err := s.repo.Pending(ctx, session.UserID, s.now().UTC())
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load pending assignments")
	}
	if items == nil {
		items = []models.PendingAssignment{}
	}
	return items, nil
}

// Get returns one assignment.
func (s *AssignmentService) Get(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Internal(err, "failed to load assignment")
	}
	return assignment, nil
}

func (s *AssignmentService) announce(ctx context.Context, course *models.Course, assignment *models.Assignment) {
	if s.notifier == nil {
		return
	}
	message := fmt.Sprintf("%s: %s", course.Code, assignment.Title)
	if assignment.DueDate != nil {
		message += " is due " + assignment.DueDate.UTC().Format("Jan 2, 2006 15:04 MST")
	}
	actionURL := "/assignments/" + assignment.ID
	err := s.notifier.Publish(ctx, NotificationFanOut{
		CourseID:  course.ID,
		Title:     "New assignment posted",
		Message:   message,
		Type:      models.NotificationTypeAssignment,
		ActionURL: &actionURL,
	})
	if err != nil {
		s.logger.Warn("failed to announce assignment", zap.String("assignment_id", assignment.ID), zap.Error(err))
	}
}

func (s *AssignmentService) loadCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	return course, nil
}
