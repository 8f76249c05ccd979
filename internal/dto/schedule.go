package dto

import (
	"time"

	"github.com/noah-isme/course-compass-api/internal/models"
)

// SessionView is a class session decorated for display.
type SessionView struct {
	models.ClassSession
	DayName      string `json:"day_name"`
	StartDisplay string `json:"start_display"`
	EndDisplay   string `json:"end_display"`
}

// DayView is the schedule of one selected date.
type DayView struct {
	Date     string        `json:"date"`
	Weekday  int           `json:"weekday"`
	DayName  string        `json:"day_name"`
	Title    string        `json:"title"`
	Summary  string        `json:"summary"`
	Sessions []SessionView `json:"sessions"`
}

// CalendarMonth highlights the dates of a month that have classes.
type CalendarMonth struct {
	Month        string   `json:"month"`
	Weekdays     []int    `json:"weekdays"`
	WeekdayNames []string `json:"weekday_names"`
	MarkedDates  []string `json:"marked_dates"`
}

// OccurrenceView is one concrete class meeting.
type OccurrenceView struct {
	SessionID    string    `json:"session_id"`
	CourseID     string    `json:"course_id"`
	CourseCode   string    `json:"course_code,omitempty"`
	CourseTitle  string    `json:"course_title,omitempty"`
	Location     *string   `json:"location,omitempty"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	StartDisplay string    `json:"start_display"`
	EndDisplay   string    `json:"end_display"`
}
