package schedule

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/noah-isme/course-compass-api/internal/models"
)

const icsFloatingLayout = "20060102T150405"

// ICS renders sessions as an iCalendar document with one weekly recurring
// event per session, starting at the first meeting on or after from and
// repeating until the end of the until day. Times are floating wall-clock
// times; the calendar advertises loc through X-WR-TIMEZONE.
func ICS(sessions []models.ClassSession, from, until time.Time, loc *time.Location, prodID string) (string, error) {
	if loc == nil {
		loc = time.UTC
	}
	if until.Before(from) {
		return "", fmt.Errorf("calendar end %s before start %s", until.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	from, until = from.In(loc), until.In(loc)
	stamp := time.Now().UTC()
	lastDay := time.Date(until.Year(), until.Month(), until.Day(), 23, 59, 59, 0, loc)

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)
	cal.SetXWRCalName("Class schedule")
	cal.SetXWRTimezone(loc.String())

	for _, session := range sessions {
		occurrences, err := Occurrences([]models.ClassSession{session}, from, lastDay, loc)
		if err != nil {
			return "", err
		}
		if len(occurrences) == 0 {
			continue
		}
		first := occurrences[0]

		event := cal.AddEvent(session.ID + "@course-compass")
		event.SetDtStampTime(stamp)
		event.SetProperty(ical.ComponentPropertyDtStart, first.Start.Format(icsFloatingLayout))
		event.SetProperty(ical.ComponentPropertyDtEnd, first.End.Format(icsFloatingLayout))
		event.AddRrule(fmt.Sprintf("FREQ=WEEKLY;BYDAY=%s;UNTIL=%s",
			icsDay(session.DayOfWeek), lastDay.Format(icsFloatingLayout)))
		event.SetSummary(sessionSummary(session))
		if session.Location != nil && *session.Location != "" {
			event.SetLocation(*session.Location)
		}
	}
	return cal.Serialize(), nil
}

func icsDay(day int) string {
	return strings.ToUpper(DayName(day)[:2])
}

func sessionSummary(session models.ClassSession) string {
	if session.Course == nil {
		return "Class"
	}
	if session.Course.Code == "" {
		return session.Course.Title
	}
	return session.Course.Code + " " + session.Course.Title
}
