package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-compass-api/internal/models"
	appErrors "github.com/noah-isme/course-compass-api/pkg/errors"
)

type submissionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.SubmissionDetail, error)
	Upsert(ctx context.Context, submission *models.Submission) error
	Grade(ctx context.Context, submission *models.Submission, grade *models.Grade) error
}

type assignmentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
}

type userNotifier interface {
	Notify(ctx context.Context, userIDs []string, kind, title, message string, actionURL *string) error
}

// SubmissionServiceParams groups constructor dependencies.
type SubmissionServiceParams struct {
	Repo        submissionRepository
	Assignments assignmentFinder
	Courses     courseFinder
	Enrollments enrollmentChecker
	Notifier    userNotifier
	Cache       *CacheService
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// SubmissionService handles student submissions and grading.
type SubmissionService struct {
	repo        submissionRepository
	assignments assignmentFinder
	courses     courseFinder
	enrollments enrollmentChecker
	notifier    userNotifier
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(params SubmissionServiceParams) *SubmissionService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	return &SubmissionService{
		repo:        params.Repo,
		assignments: params.Assignments,
		courses:     params.Courses,
		enrollments: params.Enrollments,
		notifier:    params.Notifier,
		cache:       params.Cache,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Submit stores the session student's answer. Re-submitting before grading replaces it.
func (s *SubmissionService) Submit(ctx context.Context, session models.Session, assignmentID string, req models.SubmitRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid submission payload")
	}
	assignment, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.Status != models.AssignmentStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assignment is not accepting submissions")
	}
	enrolled, err := s.enrollments.IsActive(ctx, session.UserID, assignment.CourseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not enrolled in this course")
	}

	fileURLs := req.FileURLs
	if fileURLs == nil {
		fileURLs = []string{}
	}
	submission := &models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    session.UserID,
		Content:      req.Content,
		FileURLs:     fileURLs,
		SubmittedAt:  s.now().UTC(),
	}
	if err := s.repo.Upsert(ctx, submission); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAlreadyGraded
		}
		return nil, appErrors.Internal(err, "failed to store submission")
	}
	s.cache.Delete(ctx, DashboardKey(models.RoleStudent, session.UserID))
	return submission, nil
}

// ListForAssignment returns every submission of an assignment for its instructor or an admin.
func (s *SubmissionService) ListForAssignment(ctx context.Context, session models.Session, assignmentID string) ([]models.SubmissionDetail, error) {
	assignment, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(ctx, session, assignment.CourseID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list submissions")
	}
	if items == nil {
		items = []models.SubmissionDetail{}
	}
	return items, nil
}

// Grade scores a submission, records the matching grade row and notifies the student.
func (s *SubmissionService) Grade(ctx context.Context, session models.Session, submissionID string, req models.GradeSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid grade payload")
	}
	submission, err := s.repo.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Internal(err, "failed to load submission")
	}
	assignment, err := s.loadAssignment(ctx, submission.AssignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(ctx, session, assignment.CourseID); err != nil {
		return nil, err
	}

	score := *req.Grade
	if score > float64(assignment.Points) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("grade cannot exceed %d points", assignment.Points))
	}

	gradedAt := s.now().UTC()
	grader := session.UserID
	submission.Status = models.SubmissionStatusGraded
	submission.Grade = &score
	submission.Feedback = req.Feedback
	submission.GradedBy = &grader
	submission.GradedAt = &gradedAt

	percentage := 0.0
	if assignment.Points > 0 {
		percentage = math.Round(score/float64(assignment.Points)*10000) / 100
	}
	letter := models.LetterFor(percentage)
	possible := float64(assignment.Points)
	grade := &models.Grade{
		StudentID:      submission.StudentID,
		CourseID:       assignment.CourseID,
		AssignmentID:   &assignment.ID,
		GradeValue:     percentage,
		GradeLetter:    &letter,
		PointsEarned:   &score,
		PointsPossible: &possible,
		GradedAt:       gradedAt,
	}
	if err := s.repo.Grade(ctx, submission, grade); err != nil {
		return nil, appErrors.Internal(err, "failed to record grade")
	}

	s.cache.Delete(ctx, DashboardKey(models.RoleStudent, submission.StudentID))
	if s.notifier != nil {
		actionURL := "/grades"
		message := fmt.Sprintf("%s: %g/%d (%s)", assignment.Title, score, assignment.Points, letter)
		if err := s.notifier.Notify(ctx, []string{submission.StudentID}, models.NotificationTypeGrade, "Assignment graded", message, &actionURL); err != nil {
			s.logger.Warn("failed to notify student of grade", zap.String("submission_id", submission.ID), zap.Error(err))
		}
	}
	return submission, nil
}

func (s *SubmissionService) requireManager(ctx context.Context, session models.Session, courseID string) error {
	if session.IsAdmin() {
		return nil
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Internal(err, "failed to load course")
	}
	if !CanManageCourse(session, course) {
		return appErrors.Clone(appErrors.ErrForbidden, "only the instructor can manage submissions")
	}
	return nil
}

func (s *SubmissionService) loadAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Internal(err, "failed to load assignment")
	}
	return assignment, nil
}
