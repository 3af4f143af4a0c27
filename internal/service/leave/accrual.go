package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/shopspring/decimal"
)

var monthsPerYear = decimal.NewFromInt(12)

// MonthlyIncrement is the number of hours one monthly accrual adds to a balance.
func MonthlyIncrement(p leave.Policy, dailyHours decimal.Decimal) decimal.Decimal {
	annual := p.AnnualAllocation
	if p.AccrualUnit == leave.AccrualUnitDays {
		annual = annual.Mul(dailyHours)
	}
	return annual.Div(monthsPerYear).Round(2)
}

// RunMonthlyAccrual credits every monthly policy to the active users of its company. It only
// acts on the first day of a month. Each balance is credited at most once per month, and a
// policy whose credits failed is released so the next run retries the missing users.
func (l *LeaveServiceImpl) RunMonthlyAccrual(ctx context.Context, now time.Time) (leave.AccrualSummary, error) {
	now = now.UTC()
	summary := leave.AccrualSummary{Month: now.Format("2006-01")}
	if now.Day() != 1 {
		return summary, nil
	}

	policies, err := l.policies.ListByFrequency(ctx, leave.AccrualMonthly)
	if err != nil {
		return summary, fmt.Errorf("failed to list monthly leave policies: %w", err)
	}
	summary.Policies = len(policies)
	periodStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var errs []error
	for _, p := range policies {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		credited, acquired, err := l.accruePolicy(ctx, p, summary.Month, periodStart, now)
		switch {
		case err != nil:
			slog.Error("leave accrual failed", "policy_id", p.ID, "company_id", p.CompanyID, "error", err)
			errs = append(errs, fmt.Errorf("policy %s: %w", p.ID, err))
		case !acquired:
			summary.Skipped++
		}
		summary.Credited += credited
	}

	slog.Info("leave accrual finished",
		"month", summary.Month,
		"policies", summary.Policies,
		"credited", summary.Credited,
		"skipped", summary.Skipped,
	)
	return summary, errors.Join(errs...)
}

func (l *LeaveServiceImpl) accruePolicy(ctx context.Context, p leave.Policy, month string, periodStart, now time.Time) (credited int, acquired bool, err error) {
	key := fmt.Sprintf("accrual:%s:%s", p.ID, month)
	acquired, err = l.markers.Acquire(ctx, key, accrualMarkerTTL)
	if err != nil || !acquired {
		return 0, acquired, err
	}

	credited, err = l.creditPolicy(ctx, p, periodStart, now)
	if err != nil {
		if relErr := l.markers.Release(ctx, key); relErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to release accrual marker: %w", relErr))
		}
	}
	return credited, true, err
}

func (l *LeaveServiceImpl) creditPolicy(ctx context.Context, p leave.Policy, periodStart, now time.Time) (int, error) {
	comp, err := l.companies.GetByID(ctx, p.CompanyID)
	if err != nil {
		return 0, err
	}
	increment := MonthlyIncrement(p, comp.ShiftHours(l.defaultShiftHours))
	if !increment.IsPositive() {
		return 0, nil
	}

	users, err := l.users.ListActiveByCompany(ctx, p.CompanyID)
	if err != nil {
		return 0, err
	}

	credited := 0
	var errs []error
	for _, u := range users {
		_, ok, err := l.balances.Accrue(ctx, u.ID, p.ID, increment, periodStart, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", u.ID, err))
			continue
		}
		if ok {
			credited++
		}
	}
	return credited, errors.Join(errs...)
}
