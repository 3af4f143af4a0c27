package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/company"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/master/holiday"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/shopspring/decimal"
)

// Policy holds the pay constants applied by the calculator.
type Policy struct {
	OvertimeMultiplier  decimal.Decimal
	Holidays            HolidayMultipliers
	WorkingDaysPerMonth int
	DefaultShiftHours   decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		OvertimeMultiplier:  decimal.RequireFromString("1.25"),
		Holidays:            DefaultHolidayMultipliers(),
		WorkingDaysPerMonth: 22,
		DefaultShiftHours:   decimal.NewFromInt(8),
	}
}

func PolicyFromConfig(cfg config.PayrollConfig) Policy {
	return Policy{
		OvertimeMultiplier: cfg.OvertimeMultiplier,
		Holidays: HolidayMultipliers{
			Regular: cfg.HolidayRegularMultiplier,
			Double:  cfg.HolidayDoubleMultiplier,
			Special: cfg.HolidaySpecialMultiplier,
		},
		WorkingDaysPerMonth: cfg.WorkingDaysPerMonth,
		DefaultShiftHours:   cfg.DefaultShiftHours,
	}
}

// Repositories groups the data sources the calculator reads from and writes to.
type Repositories struct {
	Companies company.CompanyRepository
	Users     user.UserRepository
	Rates     payroll.RateRepository
	Schedules payroll.ScheduleRepository
	Runs      payroll.RunRepository
	Entries   payroll.EntryRepository
	Brackets  payroll.BracketRepository
	TimeLogs  attendance.TimeLogRepository
	Overtimes attendance.OvertimeRepository
	Leaves    leave.RequestRepository
	Holidays  holiday.HolidayRepository
}

// Batch is the run-wide input shared by every user computed in one request.
type Batch struct {
	Run       payroll.PayrollRun
	Company   company.Company
	Frequency payroll.Frequency
}

// EntryResult is either a stored entry or a skip with its reason.
type EntryResult struct {
	Entry   *payroll.PayrollEntry
	Skipped bool
	Reason  string
}

type Calculator struct {
	repos    Repositories
	brackets *BracketEngine
	tx       payroll.Transactor
	policy   Policy
}

func NewCalculator(repos Repositories, brackets *BracketEngine, tx payroll.Transactor, policy Policy) *Calculator {
	return &Calculator{
		repos:    repos,
		brackets: brackets,
		tx:       tx,
		policy:   policy,
	}
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func errInvalidPeriod(start, end time.Time) error {
	return fmt.Errorf("%w: start %s is after end %s", payroll.ErrInvalidPeriod,
		start.Format(time.DateOnly), end.Format(time.DateOnly))
}

// ComputeEntryForUser computes and stores one user's entry for the batch run.
// Users without an hourly rate are skipped rather than failed.
func (c *Calculator) ComputeEntryForUser(ctx context.Context, batch Batch, userID string) (EntryResult, error) {
	rate, err := c.repos.Rates.GetLatest(ctx, userID)
	if err != nil {
		if errors.Is(err, payroll.ErrRateNotFound) {
			return EntryResult{Skipped: true, Reason: payroll.SkipReasonNoRate}, nil
		}
		return EntryResult{}, err
	}

	dailyHours := batch.Company.ShiftHours(c.policy.DefaultShiftHours)

	var detail *user.EmploymentDetail
	d, err := c.repos.Users.GetEmploymentDetail(ctx, userID)
	switch {
	case err == nil:
		detail = &d
	case !errors.Is(err, user.ErrEmploymentDetailNotFound):
		return EntryResult{}, err
	}
	jurisdiction := ResolveJurisdiction(batch.Company, detail)

	start, end, err := ClampPeriod(batch.Run.PeriodStart, batch.Run.PeriodEnd)
	if err != nil {
		return EntryResult{}, err
	}

	logs, err := c.repos.TimeLogs.ListOverlapping(ctx, userID, start, end)
	if err != nil {
		return EntryResult{}, err
	}
	overtimes, err := c.repos.Overtimes.ListByRequester(ctx, userID, attendance.OvertimeStatusApproved, start, end)
	if err != nil {
		return EntryResult{}, err
	}
	leaves, err := c.repos.Leaves.ListOverlapping(ctx, userID, leave.RequestStatusApproved, start, end)
	if err != nil {
		return EntryResult{}, err
	}
	holidays, err := c.repos.Holidays.ListBetween(ctx, batch.Company.ID, start, end)
	if err != nil {
		return EntryResult{}, err
	}

	hourly := rate.HourlyRate
	entry := payroll.PayrollEntry{
		RunID:           batch.Run.ID,
		UserID:          userID,
		Jurisdiction:    jurisdiction.Code(),
		HourlyRate:      round2(hourly),
		TotalWorkHours:  round2(WorkedHours(logs, start, end)),
		OvertimeHours:   round2(OvertimeHours(overtimes)),
		LeaveHours:      round2(LeavePaidHours(leaves, start, end, dailyHours)),
		NightDiffPay:    decimal.Zero,
		Allowances:      decimal.Zero,
		OtherEarnings:   decimal.Zero,
		LateUndertime:   decimal.Zero,
		Absences:        decimal.Zero,
		OtherDeductions: decimal.Zero,
	}
	entry.RegularHours = decimal.Max(decimal.Zero, entry.TotalWorkHours.Sub(entry.OvertimeHours))
	entry.BasicPay = round2(hourly.Mul(entry.RegularHours))
	entry.OvertimePay = round2(hourly.Mul(entry.OvertimeHours).Mul(c.policy.OvertimeMultiplier))
	entry.LeavePay = round2(hourly.Mul(entry.LeaveHours))
	entry.HolidayPay = round2(HolidayPay(holidays, hourly, dailyHours, c.policy.Holidays))
	entry.GrossPay = entry.TotalEarnings()

	monthlyBase := hourly.Mul(dailyHours).Mul(decimal.NewFromInt(int64(c.policy.WorkingDaysPerMonth)))
	if err := c.applyContributions(ctx, &entry, jurisdiction, monthlyBase); err != nil {
		return EntryResult{}, err
	}

	taxable := decimal.Max(decimal.Zero, entry.GrossPay.Sub(entry.TotalContributions()))
	federal, state, err := c.withholding(ctx, jurisdiction, batch.Frequency, taxable)
	if err != nil {
		return EntryResult{}, err
	}
	entry.WithholdingTax = federal.Add(state)

	entry.NetPay = entry.GrossPay.
		Sub(entry.LateUndertime).
		Sub(entry.Absences).
		Sub(entry.TotalContributions()).
		Sub(entry.WithholdingTax).
		Sub(entry.OtherDeductions)

	var stored payroll.PayrollEntry
	err = c.tx.WithinTx(ctx, func(ctx context.Context) error {
		saved, err := c.repos.Entries.Upsert(ctx, entry)
		if err != nil {
			return err
		}
		lines := BuildLines(saved, jurisdiction, federal, state)
		if err := c.repos.Entries.ReplaceLines(ctx, saved.ID, lines); err != nil {
			return err
		}
		saved.Lines = lines
		stored = saved
		return nil
	})
	if err != nil {
		return EntryResult{}, err
	}
	return EntryResult{Entry: &stored}, nil
}

// applyContributions fills the employee-side statutory contributions of the jurisdiction.
// Brackets are defined in monthly terms, so lookups always use the monthly frequency.
func (c *Calculator) applyContributions(ctx context.Context, entry *payroll.PayrollEntry, j payroll.Jurisdiction, base decimal.Decimal) error {
	lookup := func(agency, state string) (decimal.Decimal, error) {
		amount, err := c.brackets.Contribution(ctx, payroll.ContributionKey{
			Country:   j.Country,
			Agency:    agency,
			Frequency: string(payroll.FrequencyMonthly),
			StateCode: state,
		}, base)
		return round2(amount), err
	}

	var err error
	switch j.Code() {
	case payroll.JurisdictionPH:
		if entry.SSSEmployee, err = lookup(payroll.AgencySSS, ""); err != nil {
			return err
		}
		if entry.PhilHealthEmployee, err = lookup(payroll.AgencyPhilHealth, ""); err != nil {
			return err
		}
		if entry.PagIBIGEmployee, err = lookup(payroll.AgencyPagIBIG, ""); err != nil {
			return err
		}
	case payroll.JurisdictionUSCA, payroll.JurisdictionUSOther:
		if entry.FICASocialSecurity, err = lookup(payroll.AgencySocialSecurity, ""); err != nil {
			return err
		}
		if entry.FICAMedicare, err = lookup(payroll.AgencyMedicare, ""); err != nil {
			return err
		}
		if j.Code() == payroll.JurisdictionUSCA {
			if entry.CASDI, err = lookup(payroll.AgencyCASDI, j.State); err != nil {
				return err
			}
		}
	}
	return nil
}

// withholding returns the rounded federal and state taxes. State tax applies to California only.
func (c *Calculator) withholding(ctx context.Context, j payroll.Jurisdiction, freq payroll.Frequency, taxable decimal.Decimal) (federal, state decimal.Decimal, err error) {
	if freq == "" {
		freq = payroll.FrequencyMonthly
	}

	federal, err = c.brackets.Withholding(ctx, payroll.WithholdingKey{
		Country:   j.Country,
		Authority: payroll.AuthorityFederal,
		Frequency: string(freq),
	}, taxable)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	state = decimal.Zero
	if j.Code() == payroll.JurisdictionUSCA {
		state, err = c.brackets.Withholding(ctx, payroll.WithholdingKey{
			Country:   j.Country,
			Authority: payroll.AuthorityState,
			Frequency: string(freq),
			StateCode: j.State,
		}, taxable)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
	}
	return round2(federal), round2(state), nil
}
