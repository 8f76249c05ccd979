// Package schedule derives per-date views from recurring weekly class sessions.
// Everything here is pure: no I/O, no clock reads, inputs are never mutated.
package schedule

import (
	"sort"
	"time"

	"github.com/noah-isme/course-compass-api/internal/models"
)

// SessionsOnDate returns the sessions meeting on the weekday of date, ordered
// by start time. The weekday is taken in date's own location. Ties keep input order.
func SessionsOnDate(sessions []models.ClassSession, date time.Time) []models.ClassSession {
	weekday := int(date.Weekday())
	out := make([]models.ClassSession, 0)
	for _, session := range sessions {
		if session.DayOfWeek == weekday {
			out = append(out, session)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return sortKey(out[i].StartTime) < sortKey(out[j].StartTime)
	})
	return out
}

// WeekdaySet is the set of weekdays (0..6) that have at least one session.
type WeekdaySet map[int]struct{}

// Has reports whether day is in the set.
func (s WeekdaySet) Has(day int) bool {
	_, ok := s[day]
	return ok
}

// Len returns the number of distinct weekdays.
func (s WeekdaySet) Len() int {
	return len(s)
}

// Sorted returns the weekdays in ascending order.
func (s WeekdaySet) Sorted() []int {
	days := make([]int, 0, len(s))
	for day := range s {
		days = append(days, day)
	}
	sort.Ints(days)
	return days
}

// WeekdaysWithSessions collects the distinct day_of_week values of sessions.
func WeekdaysWithSessions(sessions []models.ClassSession) WeekdaySet {
	set := make(WeekdaySet, 7)
	for _, session := range sessions {
		set[session.DayOfWeek] = struct{}{}
	}
	return set
}

// MarkedDates lists every date of the month whose weekday has a session.
func MarkedDates(sessions []models.ClassSession, year int, month time.Month, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.UTC
	}
	days := WeekdaysWithSessions(sessions)
	out := make([]time.Time, 0)
	if days.Len() == 0 {
		return out
	}
	for d := time.Date(year, month, 1, 0, 0, 0, 0, loc); d.Month() == month; d = d.AddDate(0, 0, 1) {
		if days.Has(int(d.Weekday())) {
			out = append(out, d)
		}
	}
	return out
}

// ByWeekday groups sessions by day_of_week, each day ordered like SessionsOnDate.
// Sessions with a day outside 0..6 are dropped.
func ByWeekday(sessions []models.ClassSession) [7][]models.ClassSession {
	var week [7][]models.ClassSession
	for day := range week {
		week[day] = make([]models.ClassSession, 0)
	}
	for _, session := range sessions {
		if session.DayOfWeek < 0 || session.DayOfWeek > 6 {
			continue
		}
		week[session.DayOfWeek] = append(week[session.DayOfWeek], session)
	}
	for day := range week {
		list := week[day]
		sort.SliceStable(list, func(i, j int) bool {
			return sortKey(list[i].StartTime) < sortKey(list[j].StartTime)
		})
	}
	return week
}
