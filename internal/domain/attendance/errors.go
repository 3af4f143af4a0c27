package attendance

import "errors"

// Attendance domain errors
var (
	ErrTimeLogNotFound  = errors.New("time log not found")
	ErrOvertimeNotFound = errors.New("overtime request not found")
	ErrInvalidRange     = errors.New("range start must not be after range end")
)
