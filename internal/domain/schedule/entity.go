package schedule

import (
	"strings"
	"time"
)

// Shift is a daily working window. Start and end are minutes after midnight.
type Shift struct {
	ID              string
	CompanyID       string
	Name            string
	StartMinute     int
	EndMinute       int
	CrossesMidnight bool
	CreatedAt       time.Time
}

// ShiftSchedule expands a shift over calendar days using an RRULE-style recurrence
// such as "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR".
type ShiftSchedule struct {
	ID                string
	CompanyID         string
	ShiftID           string
	RecurrencePattern string
	StartDate         time.Time
	EndDate           *time.Time
	AssignedToAll     bool
	AssignedUserID    *string
	CreatedAt         time.Time
}

// UserShift is one concrete shift assignment for one user on one day.
type UserShift struct {
	ID           string
	UserID       string
	ShiftID      string
	AssignedDate time.Time
	CreatedAt    time.Time
}

// UserShiftDetail joins a user shift with its shift window and clock-in state.
type UserShiftDetail struct {
	UserShift
	CompanyID    string
	StartMinute  int
	EndMinute    int
	HasActiveLog bool
}

var byDayCodes = map[string]time.Weekday{
	"SU": time.Sunday,
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
}

// Weekdays parses the BYDAY part of the recurrence pattern. Unknown codes are ignored.
func (s ShiftSchedule) Weekdays() map[time.Weekday]bool {
	days := make(map[time.Weekday]bool)
	for _, part := range strings.Split(s.RecurrencePattern, ";") {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(part, "BYDAY=") {
			continue
		}
		for _, code := range strings.Split(strings.TrimPrefix(part, "BYDAY="), ",") {
			if d, ok := byDayCodes[strings.ToUpper(strings.TrimSpace(code))]; ok {
				days[d] = true
			}
		}
	}
	return days
}

// Occurrences returns the days in [from, to] on which the schedule fires, clipped to
// the schedule's own start and end dates. An end date not after the start date is ignored.
func (s ShiftSchedule) Occurrences(from, to time.Time) []time.Time {
	start := truncateDay(s.StartDate)
	windowStart := truncateDay(from)
	if start.After(windowStart) {
		windowStart = start
	}
	windowEnd := truncateDay(to)
	if s.EndDate != nil {
		end := truncateDay(*s.EndDate)
		if end.After(start) && end.Before(windowEnd) {
			windowEnd = end
		}
	}

	days := s.Weekdays()
	var out []time.Time
	for d := windowStart; !d.After(windowEnd); d = d.AddDate(0, 0, 1) {
		if days[d.Weekday()] {
			out = append(out, d)
		}
	}
	return out
}

// At returns the instant on day that is minute minutes after midnight.
func At(day time.Time, minute int) time.Time {
	return truncateDay(day).Add(time.Duration(minute) * time.Minute)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
