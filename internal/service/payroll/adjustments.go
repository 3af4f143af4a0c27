package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/master/holiday"
	"github.com/shopspring/decimal"
)

// HolidayMultipliers scale a day's pay by holiday type.
type HolidayMultipliers struct {
	Regular decimal.Decimal
	Double  decimal.Decimal
	Special decimal.Decimal
}

func DefaultHolidayMultipliers() HolidayMultipliers {
	return HolidayMultipliers{
		Regular: decimal.NewFromInt(1),
		Double:  decimal.NewFromInt(2),
		Special: decimal.RequireFromString("0.3"),
	}
}

// For returns the multiplier of t. Unknown types are paid as regular holidays.
func (m HolidayMultipliers) For(t holiday.Type) decimal.Decimal {
	switch t {
	case holiday.TypeDouble:
		return m.Double
	case holiday.TypeSpecial:
		return m.Special
	default:
		return m.Regular
	}
}

// OvertimeHours sums the requested hours of approved overtime.
func OvertimeHours(overtimes []attendance.Overtime) decimal.Decimal {
	total := decimal.Zero
	for _, o := range overtimes {
		if o.Status != attendance.OvertimeStatusApproved {
			continue
		}
		total = total.Add(o.RequestedHours)
	}
	return total
}

// LeavePaidHours clips each approved leave to [start, end] and pays
// floor(span/24h)+1 days of dailyHours for it.
func LeavePaidHours(leaves []leave.Request, start, end time.Time, dailyHours decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, l := range leaves {
		if l.Status != leave.RequestStatusApproved {
			continue
		}
		from := l.StartDate
		if from.Before(start) {
			from = start
		}
		to := l.EndDate
		if to.After(end) {
			to = end
		}
		if to.Before(from) {
			continue
		}
		days := int64(to.Sub(from)/(24*time.Hour)) + 1
		total = total.Add(dailyHours.Mul(decimal.NewFromInt(days)))
	}
	return total
}

// HolidayPay pays rate × dailyHours × multiplier for each holiday.
func HolidayPay(holidays []holiday.Holiday, rate, dailyHours decimal.Decimal, multipliers HolidayMultipliers) decimal.Decimal {
	total := decimal.Zero
	for _, h := range holidays {
		total = total.Add(rate.Mul(dailyHours).Mul(multipliers.For(h.Type)))
	}
	return total
}
