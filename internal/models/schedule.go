package models

import "time"

// CourseRef is the slice of course data shown next to a session.
type CourseRef struct {
	Title        string  `json:"title"`
	Code         string  `json:"code"`
	InstructorID *string `json:"instructor_id,omitempty"`
}

// ClassSession is one recurring weekly meeting slot of a course.
// DayOfWeek is 0 (Sunday) through 6 (Saturday); times are "HH:MM[:SS]" strings.
type ClassSession struct {
	ID        string     `json:"id"`
	CourseID  string     `json:"course_id"`
	DayOfWeek int        `json:"day_of_week"`
	StartTime string     `json:"start_time"`
	EndTime   string     `json:"end_time"`
	Location  *string    `json:"location,omitempty"`
	Semester  *string    `json:"semester,omitempty"`
	Year      *int       `json:"year,omitempty"`
	Course    *CourseRef `json:"course,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ScheduleRequest creates or replaces a class session.
type ScheduleRequest struct {
	CourseID  string  `json:"course_id" validate:"required,uuid"`
	DayOfWeek *int    `json:"day_of_week" validate:"required,min=0,max=6"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time" validate:"required"`
	Location  *string `json:"location" validate:"omitempty,max=120"`
	Semester  *string `json:"semester" validate:"omitempty,max=40"`
	Year      *int    `json:"year" validate:"omitempty,min=2000,max=2100"`
}
