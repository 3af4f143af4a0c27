package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.RequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

// ListOverlapping implements leave.RequestRepository.
func (r *leaveRequestRepositoryImpl) ListOverlapping(ctx context.Context, userID string, status leave.RequestStatus, start, end time.Time) ([]leave.Request, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, user_id, policy_id, leave_type, start_date, end_date, status, created_at, updated_at
		FROM leaves
		WHERE user_id = $1
			AND status = $2
			AND start_date <= $4
			AND end_date >= $3
		ORDER BY start_date
	`
	rows, err := q.Query(ctx, query, userID, status, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (leave.Request, error) {
		var l leave.Request
		err := row.Scan(
			&l.ID, &l.CompanyID, &l.UserID, &l.PolicyID, &l.LeaveType,
			&l.StartDate, &l.EndDate, &l.Status, &l.CreatedAt, &l.UpdatedAt,
		)
		if err != nil {
			return leave.Request{}, fmt.Errorf("failed to scan leave request: %w", err)
		}
		return l, nil
	})
}

type leavePolicyRepositoryImpl struct {
	db *database.DB
}

func NewLeavePolicyRepository(db *database.DB) leave.PolicyRepository {
	return &leavePolicyRepositoryImpl{db: db}
}

const leavePolicyColumns = `id, company_id, leave_type, annual_allocation, accrual_unit, accrual_frequency, created_at`

func scanLeavePolicy(row pgx.Row) (leave.Policy, error) {
	var p leave.Policy
	err := row.Scan(&p.ID, &p.CompanyID, &p.LeaveType, &p.AnnualAllocation, &p.AccrualUnit, &p.AccrualFrequency, &p.CreatedAt)
	return p, err
}

// GetByID implements leave.PolicyRepository.
func (r *leavePolicyRepositoryImpl) GetByID(ctx context.Context, id string) (leave.Policy, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanLeavePolicy(q.QueryRow(ctx, `SELECT `+leavePolicyColumns+` FROM leave_policies WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Policy{}, leave.ErrPolicyNotFound
		}
		return leave.Policy{}, fmt.Errorf("failed to get leave policy: %w", err)
	}
	return p, nil
}

// ListByFrequency implements leave.PolicyRepository.
func (r *leavePolicyRepositoryImpl) ListByFrequency(ctx context.Context, frequency leave.AccrualFrequency) ([]leave.Policy, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leavePolicyColumns + ` FROM leave_policies WHERE accrual_frequency = $1 ORDER BY company_id, leave_type`
	rows, err := q.Query(ctx, query, frequency)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave policies: %w", err)
	}
	defer rows.Close()

	var policies []leave.Policy
	for rows.Next() {
		p, err := scanLeavePolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave policy: %w", err)
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

type leaveBalanceRepositoryImpl struct {
	db *database.DB
}

func NewLeaveBalanceRepository(db *database.DB) leave.BalanceRepository {
	return &leaveBalanceRepositoryImpl{db: db}
}

const leaveBalanceReturning = `RETURNING user_id, policy_id, balance_hours, last_accrual_at, updated_at`

func scanLeaveBalance(row pgx.Row) (leave.Balance, error) {
	var b leave.Balance
	err := row.Scan(&b.UserID, &b.PolicyID, &b.BalanceHours, &b.LastAccrualAt, &b.UpdatedAt)
	return b, err
}

// Get implements leave.BalanceRepository.
func (r *leaveBalanceRepositoryImpl) Get(ctx context.Context, userID, policyID string) (leave.Balance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT user_id, policy_id, balance_hours, last_accrual_at, updated_at
		FROM leave_balances
		WHERE user_id = $1 AND policy_id = $2
	`
	b, err := scanLeaveBalance(q.QueryRow(ctx, query, userID, policyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Balance{}, leave.ErrBalanceNotFound
		}
		return leave.Balance{}, fmt.Errorf("failed to get leave balance: %w", err)
	}
	return b, nil
}

// Accrue implements leave.BalanceRepository. The conflict guard makes a repeated
// credit for the same period a no-op.
func (r *leaveBalanceRepositoryImpl) Accrue(ctx context.Context, userID, policyID string, hours decimal.Decimal, periodStart, at time.Time) (leave.Balance, bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_balances (user_id, policy_id, balance_hours, last_accrual_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, policy_id) DO UPDATE
		SET balance_hours = leave_balances.balance_hours + EXCLUDED.balance_hours,
			last_accrual_at = EXCLUDED.last_accrual_at,
			updated_at = NOW()
		WHERE leave_balances.last_accrual_at IS NULL OR leave_balances.last_accrual_at < $5
		` + leaveBalanceReturning
	b, err := scanLeaveBalance(q.QueryRow(ctx, query, userID, policyID, hours, at, periodStart))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Balance{}, false, nil
		}
		return leave.Balance{}, false, fmt.Errorf("failed to accrue leave balance: %w", err)
	}
	return b, true, nil
}

// Debit implements leave.BalanceRepository. The guard in the WHERE clause makes the
// check-and-subtract a single statement, so concurrent debits cannot overdraw.
func (r *leaveBalanceRepositoryImpl) Debit(ctx context.Context, userID, policyID string, hours decimal.Decimal) (leave.Balance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_balances
		SET balance_hours = balance_hours - $3, updated_at = NOW()
		WHERE user_id = $1 AND policy_id = $2 AND balance_hours >= $3
		` + leaveBalanceReturning
	b, err := scanLeaveBalance(q.QueryRow(ctx, query, userID, policyID, hours))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return leave.Balance{}, fmt.Errorf("failed to debit leave balance: %w", err)
	}

	// Nothing updated: either the row is missing or the balance is too low.
	if _, getErr := r.Get(ctx, userID, policyID); getErr != nil {
		return leave.Balance{}, getErr
	}
	return leave.Balance{}, leave.ErrInsufficientBalance
}
