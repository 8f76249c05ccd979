package schedule

import (
	"fmt"
	"time"
)

var timeLayouts = []string{"15:04:05", "15:04"}

var dayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// ParseTimeOfDay parses "HH:MM", "HH:MM:SS" or "HH:MM:SS.ffffff" into an offset from midnight.
func ParseTimeOfDay(s string) (time.Duration, bool) {
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		offset := time.Duration(t.Hour())*time.Hour +
			time.Duration(t.Minute())*time.Minute +
			time.Duration(t.Second())*time.Second +
			time.Duration(t.Nanosecond())
		return offset, true
	}
	return 0, false
}

// FormatTimeOfDay renders a wall-clock time string as "h:mm AM/PM".
// Input that does not parse is returned unchanged.
func FormatTimeOfDay(s string) string {
	offset, ok := ParseTimeOfDay(s)
	if !ok {
		return s
	}
	return time.Time{}.Add(offset).Format("3:04 PM")
}

// CanonicalTimeOfDay rewrites a parseable time as zero-padded "HH:MM:SS".
func CanonicalTimeOfDay(s string) (string, bool) {
	offset, ok := ParseTimeOfDay(s)
	if !ok {
		return "", false
	}
	return time.Time{}.Add(offset).Format("15:04:05"), true
}

// sortKey normalises a time string so that "9:00" and "09:00:00" order alike.
func sortKey(s string) string {
	offset, ok := ParseTimeOfDay(s)
	if !ok {
		return s
	}
	h := offset / time.Hour
	m := (offset % time.Hour) / time.Minute
	sec := (offset % time.Minute) / time.Second
	ns := offset % time.Second
	return fmt.Sprintf("%02d:%02d:%02d.%09d", h, m, sec, ns)
}

// DayName returns the English weekday name for 0 (Sunday) through 6 (Saturday).
func DayName(day int) string {
	if day < 0 || day > 6 {
		return "Unknown"
	}
	return dayNames[day]
}

// DayNames returns all weekday names indexed by day_of_week.
func DayNames() [7]string {
	return dayNames
}

// DaySummary describes how many classes fall on a day.
func DaySummary(n int) string {
	switch {
	case n <= 0:
		return "No classes scheduled"
	case n == 1:
		return "1 class scheduled"
	default:
		return fmt.Sprintf("%d classes scheduled", n)
	}
}

// DayTitle is the heading of a day view, e.g. "Schedule for Monday, January 5".
func DayTitle(date time.Time) string {
	return "Schedule for " + date.Format("Monday, January 2")
}
