package leave

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/company"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/shopspring/decimal"
)

// accrualMarkerTTL keeps a monthly accrual marker alive past the end of its month.
const accrualMarkerTTL = 35 * 24 * time.Hour

type LeaveServiceImpl struct {
	policies          leave.PolicyRepository
	balances          leave.BalanceRepository
	users             user.UserRepository
	companies         company.CompanyRepository
	markers           notification.MarkerStore
	defaultShiftHours decimal.Decimal
}

func NewLeaveService(
	policies leave.PolicyRepository,
	balances leave.BalanceRepository,
	users user.UserRepository,
	companies company.CompanyRepository,
	markers notification.MarkerStore,
	defaultShiftHours decimal.Decimal,
) *LeaveServiceImpl {
	return &LeaveServiceImpl{
		policies:          policies,
		balances:          balances,
		users:             users,
		companies:         companies,
		markers:           markers,
		defaultShiftHours: defaultShiftHours,
	}
}

var _ leave.LeaveService = (*LeaveServiceImpl)(nil)

// DebitBalance consumes paid leave hours once a request is approved.
func (l *LeaveServiceImpl) DebitBalance(ctx context.Context, userID, policyID string, hours decimal.Decimal) (leave.Balance, error) {
	if !hours.IsPositive() {
		return leave.Balance{}, leave.ErrInvalidHours
	}
	return l.balances.Debit(ctx, userID, policyID, hours.Round(2))
}
