package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-compass-api/internal/models"
	"github.com/noah-isme/course-compass-api/internal/schedule"
)

// CronTaskClassReminder is the metrics label of the daily reminder run.
const CronTaskClassReminder = "class_reminder"

type enrolledStudentLister interface {
	StudentsWithActiveEnrollments(ctx context.Context) ([]string, error)
}

type studentScheduleLoader interface {
	ListForStudent(ctx context.Context, studentID string) ([]models.ClassSession, error)
}

// ReminderService tells each student which classes meet today.
type ReminderService struct {
	students  enrolledStudentLister
	schedules studentScheduleLoader
	notifier  userNotifier
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewReminderService constructs a ReminderService. "Today" is resolved in loc.
func NewReminderService(students enrolledStudentLister, schedules studentScheduleLoader, notifier userNotifier, loc *time.Location, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderService{
		students:  students,
		schedules: schedules,
		notifier:  notifier,
		location:  loc,
		logger:    logger,
		now:       time.Now,
	}
}

// Run sends one reminder per student with classes today and returns how many were sent.
// A failure for one student is logged and does not stop the others.
func (s *ReminderService) Run(ctx context.Context) (int, error) {
	studentIDs, err := s.students.StudentsWithActiveEnrollments(ctx)
	if err != nil {
		return 0, fmt.Errorf("list enrolled students: %w", err)
	}
	today := s.now().In(s.location)
	actionURL := "/schedules/me/day?date=" + today.Format("2006-01-02")

	sent := 0
	for _, studentID := range studentIDs {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		sessions, err := s.schedules.ListForStudent(ctx, studentID)
		if err != nil {
			s.logger.Warn("failed to load schedule for reminder", zap.String("student_id", studentID), zap.Error(err))
			continue
		}
		todays := schedule.SessionsOnDate(sessions, today)
		if len(todays) == 0 {
			continue
		}
		title, message := ReminderText(todays)
		if err := s.notifier.Notify(ctx, []string{studentID}, models.NotificationTypeReminder, title, message, &actionURL); err != nil {
			s.logger.Warn("failed to send class reminder", zap.String("student_id", studentID), zap.Error(err))
			continue
		}
		sent++
	}
	s.logger.Info("class reminders sent", zap.Int("students", len(studentIDs)), zap.Int("sent", sent))
	return sent, nil
}

// Task adapts Run for the cron scheduler.
func (s *ReminderService) Task() CronTask {
	return func(ctx context.Context) error {
		_, err := s.Run(ctx)
		return err
	}
}

// ReminderText renders the reminder for a day's sessions, already in start order.
func ReminderText(sessions []models.ClassSession) (string, string) {
	noun := "classes"
	if len(sessions) == 1 {
		noun = "class"
	}
	title := fmt.Sprintf("You have %d %s today", len(sessions), noun)
	entries := make([]string, 0, len(sessions))
	for _, session := range sessions {
		label := session.CourseID
		if session.Course != nil && session.Course.Code != "" {
			label = session.Course.Code
		}
		entries = append(entries, label+" "+schedule.FormatTimeOfDay(session.StartTime))
	}
	return title, strings.Join(entries, ", ")
}
