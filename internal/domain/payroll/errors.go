package payroll

import "errors"

var (
	ErrRunNotFound        = errors.New("payroll run not found")
	ErrEntryNotFound      = errors.New("payroll entry not found")
	ErrScheduleNotFound   = errors.New("pay schedule not found")
	ErrRateNotFound       = errors.New("hourly rate not found")
	ErrRunFinalized       = errors.New("payroll run already finalized, cannot recompute")
	ErrInvalidPeriod      = errors.New("invalid payroll period")
	ErrPayslipForbidden   = errors.New("not allowed to view this payslip")
	ErrEmployeeNotFound   = errors.New("employee not found in company")
	ErrActiveScheduleRace = errors.New("another active pay schedule was created concurrently")
)

// SkipReasonNoRate is reported for users without any hourly rate row.
const SkipReasonNoRate = "No hourly rate set"
