package leave

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RequestRepository - interface for leaves table
type RequestRepository interface {
	// ListOverlapping returns requests with the given status where start_date <= end and end_date >= start
	ListOverlapping(ctx context.Context, userID string, status RequestStatus, start, end time.Time) ([]Request, error)
}

// PolicyRepository - interface for leave_policies table
type PolicyRepository interface {
	GetByID(ctx context.Context, id string) (Policy, error)
	ListByFrequency(ctx context.Context, frequency AccrualFrequency) ([]Policy, error)
}

// BalanceRepository - interface for leave_balances table
type BalanceRepository interface {
	Get(ctx context.Context, userID, policyID string) (Balance, error)
	// Accrue adds hours to the balance, creating the row when missing. A balance whose
	// last_accrual_at is already at or after periodStart is left untouched and credited is false.
	Accrue(ctx context.Context, userID, policyID string, hours decimal.Decimal, periodStart, at time.Time) (b Balance, credited bool, err error)
	// Debit subtracts hours atomically; returns ErrInsufficientBalance when the balance would go negative
	Debit(ctx context.Context, userID, policyID string, hours decimal.Decimal) (Balance, error)
}
