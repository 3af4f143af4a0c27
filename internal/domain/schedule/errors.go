package schedule

import "errors"

var (
	ErrShiftNotFound         = errors.New("shift not found")
	ErrShiftScheduleNotFound = errors.New("shift schedule not found")
)
