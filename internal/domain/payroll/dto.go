package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Fixed renders a decimal as a JSON number with exactly two decimals.
type Fixed struct {
	decimal.Decimal
}

func NewFixed(d decimal.Decimal) Fixed {
	return Fixed{Decimal: d}
}

func (f Fixed) MarshalJSON() ([]byte, error) {
	return []byte(f.Decimal.StringFixed(2)), nil
}

func (f *Fixed) UnmarshalJSON(b []byte) error {
	return f.Decimal.UnmarshalJSON(b)
}

// ========== RATE DTOs ==========

type CreateRateRequest struct {
	HourlyRate *decimal.Decimal `json:"hourly_rate"`
}

func (r *CreateRateRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.HourlyRate == nil {
		errs = append(errs, validator.ValidationError{Field: "hourly_rate", Message: "is required"})
	} else if !r.HourlyRate.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "hourly_rate", Message: "must be greater than zero"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RateResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	HourlyRate Fixed     `json:"hourly_rate"`
	CreatedAt  time.Time `json:"created_at"`
}

// ========== SCHEDULE DTOs ==========

type UpdateScheduleRequest struct {
	Frequency        string        `json:"frequency"`
	CutoffConfig     *CutoffConfig `json:"cutoff_config,omitempty"`
	PaydayOffsetDays *int          `json:"payday_offset_days,omitempty"`
	Timezone         *string       `json:"timezone,omitempty"`
}

func (r *UpdateScheduleRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsInSlice(r.Frequency, FrequencyValues) {
		errs = append(errs, validator.ValidationError{Field: "frequency", Message: "must be one of weekly, bi-weekly, semimonthly, monthly"})
	}
	if r.CutoffConfig != nil {
		for _, d := range r.CutoffConfig.Days {
			if d < 1 || d > 31 {
				errs = append(errs, validator.ValidationError{Field: "cutoff_config.days", Message: "must be between 1 and 31"})
				break
			}
		}
		if w := r.CutoffConfig.Weekday; w != nil && (*w < 0 || *w > 6) {
			errs = append(errs, validator.ValidationError{Field: "cutoff_config.weekday", Message: "must be between 0 and 6"})
		}
	}
	if r.PaydayOffsetDays != nil && (*r.PaydayOffsetDays < 0 || *r.PaydayOffsetDays > 31) {
		errs = append(errs, validator.ValidationError{Field: "payday_offset_days", Message: "must be between 0 and 31"})
	}
	if r.Timezone != nil && !validator.IsValidTimezone(*r.Timezone) {
		errs = append(errs, validator.ValidationError{Field: "timezone", Message: "must be a valid IANA timezone"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PayScheduleResponse struct {
	ID               string       `json:"id"`
	CompanyID        string       `json:"company_id"`
	Frequency        Frequency    `json:"frequency"`
	CutoffConfig     CutoffConfig `json:"cutoff_config"`
	PaydayOffsetDays int          `json:"payday_offset_days"`
	Timezone         string       `json:"timezone"`
	IsActive         bool         `json:"is_active"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// ========== RUN DTOs ==========

type CreateRunRequest struct {
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

func (r *CreateRunRequest) Validate() error {
	errs := validatePeriod(r.PeriodStart, r.PeriodEnd)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Period returns the parsed bounds. Call after Validate.
func (r *CreateRunRequest) Period() (time.Time, time.Time) {
	start, _ := time.Parse(dateLayout, r.PeriodStart)
	end, _ := time.Parse(dateLayout, r.PeriodEnd)
	return start, end
}

type CalculateRequest struct {
	UserID      *string `json:"user_id,omitempty"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	Finalize    bool    `json:"finalize"`
}

func (r *CalculateRequest) Validate() error {
	errs := validatePeriod(r.PeriodStart, r.PeriodEnd)
	if r.UserID != nil && !validator.IsValidUUID(*r.UserID) {
		errs = append(errs, validator.ValidationError{Field: "user_id", Message: "must be a valid UUID"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Period returns the parsed bounds. Call after Validate.
func (r *CalculateRequest) Period() (time.Time, time.Time) {
	start, _ := time.Parse(dateLayout, r.PeriodStart)
	end, _ := time.Parse(dateLayout, r.PeriodEnd)
	return start, end
}

func validatePeriod(startStr, endStr string) validator.ValidationErrors {
	var errs validator.ValidationErrors

	start, startOK := validator.IsValidDate(startStr)
	if !startOK {
		errs = append(errs, validator.ValidationError{Field: "period_start", Message: "must be a date in YYYY-MM-DD format"})
	}
	end, endOK := validator.IsValidDate(endStr)
	if !endOK {
		errs = append(errs, validator.ValidationError{Field: "period_end", Message: "must be a date in YYYY-MM-DD format"})
	}
	if startOK && endOK && start.After(end) {
		errs = append(errs, validator.ValidationError{Field: "period_end", Message: "must not be before period_start"})
	}
	return errs
}

type RunFilter struct {
	Status *RunStatus
	Year   *int
}

type RunResponse struct {
	ID          string          `json:"id"`
	CompanyID   string          `json:"company_id"`
	ScheduleID  *string         `json:"schedule_id"`
	PeriodStart string          `json:"period_start"`
	PeriodEnd   string          `json:"period_end"`
	Status      RunStatus       `json:"status"`
	TotalGross  Fixed           `json:"total_gross"`
	TotalNet    Fixed           `json:"total_net"`
	FinalizedAt *time.Time      `json:"finalized_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Entries     []EntryResponse `json:"entries,omitempty"`
}

type EntryResponse struct {
	ID             string  `json:"id"`
	RunID          string  `json:"run_id"`
	UserID         string  `json:"user_id"`
	UserName       *string `json:"user_name,omitempty"`
	UserEmail      *string `json:"user_email,omitempty"`
	Jurisdiction   string  `json:"jurisdiction"`
	HourlyRate     Fixed   `json:"hourly_rate"`
	TotalWorkHours Fixed   `json:"total_work_hours"`
	RegularHours   Fixed   `json:"regular_hours"`
	OvertimeHours  Fixed   `json:"overtime_hours"`
	LeaveHours     Fixed   `json:"leave_hours"`

	BasicPay      Fixed `json:"basic_pay"`
	OvertimePay   Fixed `json:"overtime_pay"`
	NightDiffPay  Fixed `json:"night_diff_pay"`
	HolidayPay    Fixed `json:"holiday_pay"`
	LeavePay      Fixed `json:"leave_pay"`
	Allowances    Fixed `json:"allowances"`
	OtherEarnings Fixed `json:"other_earnings"`

	LateUndertime   Fixed `json:"late_undertime"`
	Absences        Fixed `json:"absences"`
	OtherDeductions Fixed `json:"other_deductions"`

	SSSEmployee        Fixed `json:"sss_employee"`
	PhilHealthEmployee Fixed `json:"philhealth_employee"`
	PagIBIGEmployee    Fixed `json:"pagibig_employee"`
	FICASocialSecurity Fixed `json:"fica_social_security"`
	FICAMedicare       Fixed `json:"fica_medicare"`
	CASDI              Fixed `json:"ca_sdi"`

	WithholdingTax Fixed          `json:"withholding_tax"`
	GrossPay       Fixed          `json:"gross_pay"`
	NetPay         Fixed          `json:"net_pay"`
	PayslipNumber  *string        `json:"payslip_number"`
	Lines          []LineResponse `json:"lines,omitempty"`
	Run            *RunResponse   `json:"run,omitempty"`
}

type LineResponse struct {
	Type   LineType `json:"type"`
	Code   string   `json:"code"`
	Label  string   `json:"label"`
	Amount Fixed    `json:"amount"`
}

// SkippedUser reports a user left out of a batch without an error.
type SkippedUser struct {
	UserID string `json:"user_id"`
	Skip   bool   `json:"skip"`
	Reason string `json:"reason"`
}

// FailedUser reports a user whose computation failed; the batch continued.
type FailedUser struct {
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

type CalculateResponse struct {
	Run      RunResponse   `json:"run"`
	Computed int           `json:"computed"`
	Skipped  []SkippedUser `json:"skipped"`
	Failed   []FailedUser  `json:"failed"`
}

// ========== MAPPERS ==========

func ToRateResponse(r UserRate) RateResponse {
	return RateResponse{
		ID:         r.ID,
		UserID:     r.UserID,
		HourlyRate: NewFixed(r.HourlyRate),
		CreatedAt:  r.CreatedAt,
	}
}

func ToScheduleResponse(s PaySchedule) PayScheduleResponse {
	return PayScheduleResponse{
		ID:               s.ID,
		CompanyID:        s.CompanyID,
		Frequency:        s.Frequency,
		CutoffConfig:     s.CutoffConfig,
		PaydayOffsetDays: s.PaydayOffsetDays,
		Timezone:         s.Timezone,
		IsActive:         s.IsActive,
		UpdatedAt:        s.UpdatedAt,
	}
}

func ToRunResponse(r PayrollRun) RunResponse {
	resp := RunResponse{
		ID:          r.ID,
		CompanyID:   r.CompanyID,
		ScheduleID:  r.ScheduleID,
		PeriodStart: r.PeriodStart.Format(dateLayout),
		PeriodEnd:   r.PeriodEnd.Format(dateLayout),
		Status:      r.Status,
		TotalGross:  NewFixed(r.TotalGross),
		TotalNet:    NewFixed(r.TotalNet),
		FinalizedAt: r.FinalizedAt,
		CreatedAt:   r.CreatedAt,
	}
	for _, e := range r.Entries {
		resp.Entries = append(resp.Entries, ToEntryResponse(e))
	}
	return resp
}

func ToEntryResponse(e PayrollEntry) EntryResponse {
	resp := EntryResponse{
		ID:                 e.ID,
		RunID:              e.RunID,
		UserID:             e.UserID,
		UserName:           e.UserName,
		UserEmail:          e.UserEmail,
		Jurisdiction:       e.Jurisdiction,
		HourlyRate:         NewFixed(e.HourlyRate),
		TotalWorkHours:     NewFixed(e.TotalWorkHours),
		RegularHours:       NewFixed(e.RegularHours),
		OvertimeHours:      NewFixed(e.OvertimeHours),
		LeaveHours:         NewFixed(e.LeaveHours),
		BasicPay:           NewFixed(e.BasicPay),
		OvertimePay:        NewFixed(e.OvertimePay),
		NightDiffPay:       NewFixed(e.NightDiffPay),
		HolidayPay:         NewFixed(e.HolidayPay),
		LeavePay:           NewFixed(e.LeavePay),
		Allowances:         NewFixed(e.Allowances),
		OtherEarnings:      NewFixed(e.OtherEarnings),
		LateUndertime:      NewFixed(e.LateUndertime),
		Absences:           NewFixed(e.Absences),
		OtherDeductions:    NewFixed(e.OtherDeductions),
		SSSEmployee:        NewFixed(e.SSSEmployee),
		PhilHealthEmployee: NewFixed(e.PhilHealthEmployee),
		PagIBIGEmployee:    NewFixed(e.PagIBIGEmployee),
		FICASocialSecurity: NewFixed(e.FICASocialSecurity),
		FICAMedicare:       NewFixed(e.FICAMedicare),
		CASDI:              NewFixed(e.CASDI),
		WithholdingTax:     NewFixed(e.WithholdingTax),
		GrossPay:           NewFixed(e.GrossPay),
		NetPay:             NewFixed(e.NetPay),
		PayslipNumber:      e.PayslipNumber,
	}
	for _, l := range e.Lines {
		resp.Lines = append(resp.Lines, LineResponse{
			Type:   l.Type,
			Code:   l.Code,
			Label:  l.Label,
			Amount: NewFixed(l.Amount),
		})
	}
	if e.Run != nil {
		run := ToRunResponse(*e.Run)
		run.Entries = nil
		resp.Run = &run
	}
	return resp
}
