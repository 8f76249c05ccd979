package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/noah-isme/course-compass-api/internal/models"
)

var rruleWeekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Occurrence is one concrete meeting of a weekly session.
type Occurrence struct {
	Session models.ClassSession `json:"session"`
	Start   time.Time           `json:"start"`
	End     time.Time           `json:"end"`
}

// Occurrences expands weekly sessions into the meetings starting within [from, to],
// evaluated as wall-clock times in loc. Sessions with an invalid weekday or times are skipped.
func Occurrences(sessions []models.ClassSession, from, to time.Time, loc *time.Location) ([]Occurrence, error) {
	if loc == nil {
		loc = time.UTC
	}
	if to.Before(from) {
		return nil, fmt.Errorf("range end %s before start %s", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	from, to = from.In(loc), to.In(loc)
	anchor := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)

	out := make([]Occurrence, 0)
	for _, session := range sessions {
		rule, end, ok := weeklyRule(session, anchor, to)
		if !ok {
			continue
		}
		for _, start := range rule.Between(from, to, true) {
			out = append(out, Occurrence{Session: session, Start: start, End: atWallClock(start, end)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

// weeklyRule returns the recurrence of session anchored on the anchor day and
// the end time-of-day offset.
func weeklyRule(session models.ClassSession, anchor, until time.Time) (*rrule.RRule, time.Duration, bool) {
	if session.DayOfWeek < 0 || session.DayOfWeek > 6 {
		return nil, 0, false
	}
	start, ok := ParseTimeOfDay(session.StartTime)
	if !ok {
		return nil, 0, false
	}
	end, ok := ParseTimeOfDay(session.EndTime)
	if !ok || end <= start {
		return nil, 0, false
	}
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   atWallClock(anchor, start),
		Byweekday: []rrule.Weekday{rruleWeekdays[session.DayOfWeek]},
		Until:     until,
	})
	if err != nil {
		return nil, 0, false
	}
	return rule, end, true
}

// atWallClock returns the instant on day's calendar date whose local clock reads offset.
// Adding offset to midnight drifts by an hour on DST changeover days.
func atWallClock(day time.Time, offset time.Duration) time.Time {
	h := int(offset / time.Hour)
	m := int(offset % time.Hour / time.Minute)
	s := int(offset % time.Minute / time.Second)
	ns := int(offset % time.Second)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, s, ns, day.Location())
}
