package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency enum
type Frequency string

const (
	FrequencyWeekly      Frequency = "weekly"
	FrequencyBiWeekly    Frequency = "bi-weekly"
	FrequencySemiMonthly Frequency = "semimonthly"
	FrequencyMonthly     Frequency = "monthly"
)

var FrequencyValues = []string{
	string(FrequencyWeekly),
	string(FrequencyBiWeekly),
	string(FrequencySemiMonthly),
	string(FrequencyMonthly),
}

// CutoffConfig is stored as JSONB. Days are days of month (semimonthly/monthly),
// Weekday is 0=Sunday..6=Saturday (weekly/bi-weekly).
type CutoffConfig struct {
	Days    []int `json:"days,omitempty"`
	Weekday *int  `json:"weekday,omitempty"`
}

// PaySchedule - Company pay cycle. At most one is active per company.
type PaySchedule struct {
	ID               string
	CompanyID        string
	Frequency        Frequency
	CutoffConfig     CutoffConfig
	PaydayOffsetDays int
	Timezone         string
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UserRate - Append-only hourly rate history. The latest row by CreatedAt is current.
type UserRate struct {
	ID         string
	UserID     string
	HourlyRate decimal.Decimal
	CreatedAt  time.Time
}

// RunStatus enum
type RunStatus string

const (
	RunStatusDraft     RunStatus = "draft"
	RunStatusFinalized RunStatus = "finalized"
)

// PayrollRun - One computation batch for a company period. Unique on (CompanyID, PeriodStart, PeriodEnd).
type PayrollRun struct {
	ID          string
	CompanyID   string
	ScheduleID  *string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Status      RunStatus
	TotalGross  decimal.Decimal
	TotalNet    decimal.Decimal
	FinalizedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined fields
	Entries []PayrollEntry
}

func (r PayrollRun) IsFinalized() bool {
	return r.Status == RunStatusFinalized
}

// PayrollEntry - One user's result within a run. Unique on (RunID, UserID).
type PayrollEntry struct {
	ID           string
	RunID        string
	UserID       string
	Jurisdiction string

	HourlyRate     decimal.Decimal
	TotalWorkHours decimal.Decimal
	RegularHours   decimal.Decimal
	OvertimeHours  decimal.Decimal
	LeaveHours     decimal.Decimal

	// Earnings
	BasicPay      decimal.Decimal
	OvertimePay   decimal.Decimal
	NightDiffPay  decimal.Decimal
	HolidayPay    decimal.Decimal
	LeavePay      decimal.Decimal
	Allowances    decimal.Decimal
	OtherEarnings decimal.Decimal

	// Deductions
	LateUndertime   decimal.Decimal
	Absences        decimal.Decimal
	OtherDeductions decimal.Decimal

	// Employee-side statutory contributions
	SSSEmployee        decimal.Decimal
	PhilHealthEmployee decimal.Decimal
	PagIBIGEmployee    decimal.Decimal
	FICASocialSecurity decimal.Decimal
	FICAMedicare       decimal.Decimal
	CASDI              decimal.Decimal

	WithholdingTax decimal.Decimal
	GrossPay       decimal.Decimal
	NetPay         decimal.Decimal
	PayslipNumber  *string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Joined fields
	Lines     []PayrollLine
	Run       *PayrollRun
	UserName  *string
	UserEmail *string
}

// TotalContributions sums the employee-side statutory contributions.
func (e PayrollEntry) TotalContributions() decimal.Decimal {
	return decimal.Sum(e.SSSEmployee, e.PhilHealthEmployee, e.PagIBIGEmployee,
		e.FICASocialSecurity, e.FICAMedicare, e.CASDI)
}

// TotalEarnings sums every earning component.
func (e PayrollEntry) TotalEarnings() decimal.Decimal {
	return decimal.Sum(e.BasicPay, e.OvertimePay, e.NightDiffPay, e.HolidayPay,
		e.LeavePay, e.Allowances, e.OtherEarnings)
}

// LineType enum
type LineType string

const (
	LineTypeEarning      LineType = "earning"
	LineTypeDeduction    LineType = "deduction"
	LineTypeContribution LineType = "contribution"
	LineTypeTax          LineType = "tax"
)

// PayrollLine - Itemized breakdown row. Regenerated as a whole on every recompute.
type PayrollLine struct {
	ID        string
	EntryID   string
	Type      LineType
	Code      string
	Label     string
	Amount    decimal.Decimal
	SortOrder int
}

// Contribution agencies
const (
	AgencySSS            = "SSS"
	AgencyPhilHealth     = "PHILHEALTH"
	AgencyPagIBIG        = "PAGIBIG"
	AgencySocialSecurity = "FICA_SS"
	AgencyMedicare       = "FICA_MEDICARE"
	AgencyCASDI          = "CA_SDI"
)

// Withholding authorities. FEDERAL is the national authority for every country.
const (
	AuthorityFederal = "FEDERAL"
	AuthorityState   = "STATE"
)

// ContributionBracket - Effective-dated statutory contribution rule.
type ContributionBracket struct {
	ID            string
	Country       string
	Agency        string
	Frequency     string
	StateCode     string
	MinSalaryBase decimal.Decimal
	MaxSalaryBase *decimal.Decimal
	EmployeeRate  *decimal.Decimal
	EmployeeFixed *decimal.Decimal
	EmployerRate  *decimal.Decimal
	EmployerFixed *decimal.Decimal
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
}

// WithholdingTaxBracket - Effective-dated progressive tax rule.
type WithholdingTaxBracket struct {
	ID            string
	Country       string
	Authority     string
	Frequency     string
	StateCode     string
	MinBase       decimal.Decimal
	MaxBase       *decimal.Decimal
	BaseTax       decimal.Decimal
	ExcessRate    decimal.Decimal
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
}

// ContributionKey selects contribution brackets.
type ContributionKey struct {
	Country   string
	Agency    string
	Frequency string
	StateCode string
}

// WithholdingKey selects withholding brackets.
type WithholdingKey struct {
	Country   string
	Authority string
	Frequency string
	StateCode string
}

// Jurisdiction is the (country, state) pair used as the bracket lookup key.
type Jurisdiction struct {
	Country string
	State   string
}

const (
	JurisdictionPH      = "PH"
	JurisdictionUSCA    = "US-CA"
	JurisdictionUSOther = "US-OTHER"
	JurisdictionOther   = "OTHER"
)

// Code renders the jurisdiction as PH, US-CA, US-OTHER or OTHER.
func (j Jurisdiction) Code() string {
	switch j.Country {
	case "PH":
		return JurisdictionPH
	case "US":
		if j.State == "CA" {
			return JurisdictionUSCA
		}
		return JurisdictionUSOther
	default:
		return JurisdictionOther
	}
}
