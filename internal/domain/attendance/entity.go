package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type TimeLogStatus string

const (
	TimeLogStatusActive TimeLogStatus = "active"
	TimeLogStatusVoided TimeLogStatus = "voided"
)

// TimeLog is one clock-in/clock-out punch pair. TimeOut is nil while the log is open.
type TimeLog struct {
	ID           string
	UserID       string
	TimeIn       time.Time
	TimeOut      *time.Time
	Status       TimeLogStatus
	LunchBreak   *Break
	CoffeeBreaks []Break
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Break is a paused interval inside a time log. End is nil while the break is running.
type Break struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

// IsOpen reports whether the log has no clock-out yet
func (t TimeLog) IsOpen() bool {
	return t.TimeOut == nil
}

// OpenTimeLog is an open time log joined with the shift assigned to its user on the clock-in day.
type OpenTimeLog struct {
	TimeLog
	CompanyID        string
	UserShiftID      *string
	ShiftDate        *time.Time
	ShiftStartMinute *int
	ShiftEndMinute   *int
	CrossesMidnight  bool
}

type OvertimeStatus string

const (
	OvertimeStatusPending  OvertimeStatus = "pending"
	OvertimeStatusApproved OvertimeStatus = "approved"
	OvertimeStatusRejected OvertimeStatus = "rejected"
)

type Overtime struct {
	ID              string
	CompanyID       string
	TimeLogID       *string
	RequesterID     string
	ApproverID      *string
	RequestedHours  decimal.Decimal
	LateHours       *decimal.Decimal
	Status          OvertimeStatus
	RequesterReason *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
