package schedule

import (
	"context"
	"time"
)

type ShiftRepository interface {
	// ListSchedulesActiveBetween returns schedules with start_date <= to and (end_date IS NULL OR end_date >= from)
	ListSchedulesActiveBetween(ctx context.Context, from, to time.Time) ([]ShiftSchedule, error)

	// CreateUserShift inserts the assignment unless (user, shift, day) already exists
	CreateUserShift(ctx context.Context, us UserShift) (created bool, err error)

	// ListUserShiftsOn returns assignments for the calendar day, with shift window and open-log flag
	ListUserShiftsOn(ctx context.Context, day time.Time) ([]UserShiftDetail, error)
}
