package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

var millisPerHour = decimal.NewFromInt(int64(time.Hour / time.Millisecond))

// ClampPeriod widens [start, end] to whole UTC days: start 00:00:00 through end 23:59:59.
func ClampPeriod(start, end time.Time) (time.Time, time.Time, error) {
	s := startOfDay(start)
	e := startOfDay(end).Add(24*time.Hour - time.Second)
	if s.After(e) {
		return time.Time{}, time.Time{}, errInvalidPeriod(start, end)
	}
	return s, e, nil
}

// WorkedHours sums the hours of every active log after clipping it to [start, end]
// and removing its breaks. An open log runs until end. A log that nets out negative
// contributes zero.
func WorkedHours(logs []attendance.TimeLog, start, end time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, log := range logs {
		if log.Status != attendance.TimeLogStatusActive {
			continue
		}
		total = total.Add(logHours(log, start, end))
	}
	return total
}

func logHours(log attendance.TimeLog, start, end time.Time) decimal.Decimal {
	from := log.TimeIn
	if from.Before(start) {
		from = start
	}
	to := end
	if log.TimeOut != nil && log.TimeOut.Before(end) {
		to = *log.TimeOut
	}
	if !to.After(from) {
		return decimal.Zero
	}

	worked := to.Sub(from)
	if log.LunchBreak != nil {
		worked -= breakDuration(*log.LunchBreak, to)
	}
	for _, b := range log.CoffeeBreaks {
		worked -= breakDuration(b, to)
	}
	if worked <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(worked.Milliseconds()).Div(millisPerHour)
}

// breakDuration is end − start; a running break lasts until logEnd.
func breakDuration(b attendance.Break, logEnd time.Time) time.Duration {
	end := logEnd
	if b.End != nil {
		end = *b.End
	}
	if !end.After(b.Start) {
		return 0
	}
	return end.Sub(b.Start)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
