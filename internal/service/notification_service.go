package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/course-compass-api/internal/models"
	appErrors "github.com/noah-isme/course-compass-api/pkg/errors"
	"github.com/noah-isme/course-compass-api/pkg/jobs"
)

// JobTypeNotificationFanOut delivers one notification to many users.
const JobTypeNotificationFanOut = "notification.fanout"

type notificationRepository interface {
	List(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, int, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	CreateBatch(ctx context.Context, notifications []models.Notification) error
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type courseStudentLister interface {
	ActiveStudentIDs(ctx context.Context, courseID string) ([]string, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// NotificationFanOut addresses a notification to explicit users, or to every
// active student of CourseID when UserIDs is empty.
type NotificationFanOut struct {
	CourseID  string
	UserIDs   []string
	Title     string
	Message   string
	Type      string
	ActionURL *string
}

// NotificationList is one page of a user's notifications.
type NotificationList struct {
	Items       []models.Notification
	Pagination  *models.Pagination
	UnreadCount int
}

// NotificationService stores in-app notifications and delivers fan-outs through the job queue.
type NotificationService struct {
	repo     notificationRepository
	students courseStudentLister
	queue    jobEnqueuer
	logger   *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(repo notificationRepository, students courseStudentLister, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, students: students, logger: logger}
}

// UseQueue routes Publish through q. Without a queue Publish delivers inline.
func (s *NotificationService) UseQueue(q jobEnqueuer) {
	s.queue = q
}

// List returns the session user's notifications, unread first then newest first.
func (s *NotificationService) List(ctx context.Context, session models.Session, filter models.NotificationFilter) (*NotificationList, error) {
	items, total, err := s.repo.List(ctx, session.UserID, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list notifications")
	}
	if items == nil {
		items = []models.Notification{}
	}
	unread, err := s.repo.CountUnread(ctx, session.UserID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count notifications")
	}
	return &NotificationList{
		Items:       items,
		Pagination:  models.NewPagination(filter.Page, filter.PageSize, total),
		UnreadCount: unread,
	}, nil
}

// MarkRead marks one of the session user's notifications read.
func (s *NotificationService) MarkRead(ctx context.Context, session models.Session, id string) error {
	if err := s.repo.MarkRead(ctx, id, session.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Internal(err, "failed to update notification")
	}
	return nil
}

// MarkAllRead marks every notification of the session user read.
func (s *NotificationService) MarkAllRead(ctx context.Context, session models.Session) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, session.UserID)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to update notifications")
	}
	return n, nil
}

// Publish schedules a fan-out on the queue, or delivers it inline when no queue is attached.
func (s *NotificationService) Publish(ctx context.Context, fanOut NotificationFanOut) error {
	if s.queue == nil {
		return s.deliver(ctx, fanOut)
	}
	job := jobs.Job{ID: uuid.NewString(), Type: JobTypeNotificationFanOut, Payload: fanOut}
	if err := s.queue.Enqueue(job); err != nil {
		return appErrors.Internal(err, "failed to enqueue notification")
	}
	return nil
}

// Notify writes one notification for each user immediately.
func (s *NotificationService) Notify(ctx context.Context, userIDs []string, kind, title, message string, actionURL *string) error {
	return s.deliver(ctx, NotificationFanOut{UserIDs: userIDs, Type: kind, Title: title, Message: message, ActionURL: actionURL})
}

// HandleJob is the queue handler for notification fan-outs.
func (s *NotificationService) HandleJob(ctx context.Context, job jobs.Job) error {
	if job.Type != JobTypeNotificationFanOut {
		return fmt.Errorf("unsupported job type %q", job.Type)
	}
	fanOut, ok := job.Payload.(NotificationFanOut)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	return s.deliver(ctx, fanOut)
}

func (s *NotificationService) deliver(ctx context.Context, fanOut NotificationFanOut) error {
	recipients := fanOut.UserIDs
	if len(recipients) == 0 && fanOut.CourseID != "" {
		ids, err := s.students.ActiveStudentIDs(ctx, fanOut.CourseID)
		if err != nil {
			return fmt.Errorf("resolve course students: %w", err)
		}
		recipients = ids
	}
	if len(recipients) == 0 {
		return nil
	}
	kind := strings.TrimSpace(fanOut.Type)
	if kind == "" {
		kind = models.NotificationTypeInfo
	}

	seen := make(map[string]struct{}, len(recipients))
	batch := make([]models.Notification, 0, len(recipients))
	for _, userID := range recipients {
		if _, dup := seen[userID]; dup || userID == "" {
			continue
		}
		seen[userID] = struct{}{}
		batch = append(batch, models.Notification{
			UserID:    userID,
			Title:     fanOut.Title,
			Message:   fanOut.Message,
			Type:      kind,
			ActionURL: fanOut.ActionURL,
		})
	}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return fmt.Errorf("store notifications: %w", err)
	}
	s.logger.Debug("notifications delivered", zap.String("type", kind), zap.Int("recipients", len(batch)))
	return nil
}
