package models

import "time"

// Notification types.
const (
	NotificationTypeInfo       = "info"
	NotificationTypeAssignment = "assignment"
	NotificationTypeGrade      = "grade"
	NotificationTypeReminder   = "reminder"
)

// Notification is an in-app message for one user.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Type      string    `db:"type" json:"type"`
	ActionURL *string   `db:"action_url" json:"action_url,omitempty"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NotificationFilter narrows a user's notification list.
type NotificationFilter struct {
	UnreadOnly bool
	Page       int
	PageSize   int
}
