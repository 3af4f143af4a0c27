package leave

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type LeaveService interface {
	// DebitBalance is the contract the approval workflow uses to consume paid leave
	DebitBalance(ctx context.Context, userID, policyID string, hours decimal.Decimal) (Balance, error)
	// RunMonthlyAccrual credits every monthly policy once per calendar month
	RunMonthlyAccrual(ctx context.Context, now time.Time) (AccrualSummary, error)
}

// AccrualSummary reports what one accrual pass did.
type AccrualSummary struct {
	Month    string `json:"month"`
	Policies int    `json:"policies"`
	Credited int    `json:"credited"`
	Skipped  int    `json:"skipped"`
}
