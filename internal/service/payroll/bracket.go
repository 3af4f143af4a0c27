package payroll

import (
	"context"
	"fmt"
	"sort"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/clock"
	"github.com/shopspring/decimal"
)

// PickContribution returns the employee share from the first bracket, by ascending
// minimum, whose range [min, max] holds base. A fixed amount wins over the rate.
// ok is false when no bracket matches.
func PickContribution(brackets []payroll.ContributionBracket, base decimal.Decimal) (amount decimal.Decimal, ok bool) {
	sorted := make([]payroll.ContributionBracket, len(brackets))
	copy(sorted, brackets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinSalaryBase.LessThan(sorted[j].MinSalaryBase)
	})

	for _, b := range sorted {
		if base.LessThan(b.MinSalaryBase) {
			continue
		}
		if b.MaxSalaryBase != nil && base.GreaterThan(*b.MaxSalaryBase) {
			continue
		}
		switch {
		case b.EmployeeFixed != nil:
			return *b.EmployeeFixed, true
		case b.EmployeeRate != nil:
			return base.Mul(*b.EmployeeRate), true
		default:
			return decimal.Zero, true
		}
	}
	return decimal.Zero, false
}

// ComputeWithholding walks brackets by ascending minimum and stops at the first one
// with min <= taxable < max (open max matches everything above min). The tax is
// baseTax plus excessRate on the part above min.
func ComputeWithholding(brackets []payroll.WithholdingTaxBracket, taxable decimal.Decimal) decimal.Decimal {
	sorted := make([]payroll.WithholdingTaxBracket, len(brackets))
	copy(sorted, brackets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinBase.LessThan(sorted[j].MinBase)
	})

	for _, b := range sorted {
		if taxable.LessThan(b.MinBase) {
			continue
		}
		if b.MaxBase != nil && !taxable.LessThan(*b.MaxBase) {
			continue
		}
		excess := decimal.Max(decimal.Zero, taxable.Sub(b.MinBase))
		return b.BaseTax.Add(excess.Mul(b.ExcessRate))
	}
	return decimal.Zero
}

// BracketEngine loads the brackets effective today and evaluates them.
type BracketEngine struct {
	repo  payroll.BracketRepository
	clock clock.Clock
}

func NewBracketEngine(repo payroll.BracketRepository, clk clock.Clock) *BracketEngine {
	if clk == nil {
		clk = clock.New()
	}
	return &BracketEngine{repo: repo, clock: clk}
}

// Contribution returns the unrounded employee contribution for key, zero when no bracket matches.
func (e *BracketEngine) Contribution(ctx context.Context, key payroll.ContributionKey, base decimal.Decimal) (decimal.Decimal, error) {
	brackets, err := e.repo.ListContribution(ctx, key, e.clock.Now())
	if err != nil {
		return decimal.Zero, fmt.Errorf("contribution brackets %s/%s: %w", key.Country, key.Agency, err)
	}
	amount, _ := PickContribution(brackets, base)
	return amount, nil
}

// Withholding returns the unrounded tax for key, zero when no bracket matches.
func (e *BracketEngine) Withholding(ctx context.Context, key payroll.WithholdingKey, taxable decimal.Decimal) (decimal.Decimal, error) {
	brackets, err := e.repo.ListWithholding(ctx, key, e.clock.Now())
	if err != nil {
		return decimal.Zero, fmt.Errorf("withholding brackets %s/%s: %w", key.Country, key.Authority, err)
	}
	return ComputeWithholding(brackets, taxable), nil
}
