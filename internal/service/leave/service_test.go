package leave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/company"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePolicies struct {
	policies []leave.Policy
}

func (f *fakePolicies) GetByID(_ context.Context, id string) (leave.Policy, error) {
	for _, p := range f.policies {
		if p.ID == id {
			return p, nil
		}
	}
	return leave.Policy{}, leave.ErrPolicyNotFound
}

func (f *fakePolicies) ListByFrequency(_ context.Context, frequency leave.AccrualFrequency) ([]leave.Policy, error) {
	var out []leave.Policy
	for _, p := range f.policies {
		if p.AccrualFrequency == frequency {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeBalances struct {
	mu       sync.Mutex
	balances map[string]leave.Balance
}

func newFakeBalances() *fakeBalances {
	return &fakeBalances{balances: map[string]leave.Balance{}}
}

func (f *fakeBalances) Get(_ context.Context, userID, policyID string) (leave.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.balances[userID+"/"+policyID]
	if !ok {
		return leave.Balance{}, leave.ErrBalanceNotFound
	}
	return b, nil
}

func (f *fakeBalances) Accrue(_ context.Context, userID, policyID string, hours decimal.Decimal, periodStart, at time.Time) (leave.Balance, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := userID + "/" + policyID
	b := f.balances[key]
	if b.LastAccrualAt != nil && !b.LastAccrualAt.Before(periodStart) {
		return leave.Balance{}, false, nil
	}
	b.UserID, b.PolicyID = userID, policyID
	b.BalanceHours = b.BalanceHours.Add(hours)
	b.LastAccrualAt = &at
	f.balances[key] = b
	return b, true, nil
}

// flakyBalances fails the first Accrue for each user listed in failOnce.
type flakyBalances struct {
	*fakeBalances
	failOnce map[string]bool
}

func (f *flakyBalances) Accrue(ctx context.Context, userID, policyID string, hours decimal.Decimal, periodStart, at time.Time) (leave.Balance, bool, error) {
	if f.failOnce[userID] {
		delete(f.failOnce, userID)
		return leave.Balance{}, false, errors.New("connection reset")
	}
	return f.fakeBalances.Accrue(ctx, userID, policyID, hours, periodStart, at)
}

func (f *fakeBalances) Debit(_ context.Context, userID, policyID string, hours decimal.Decimal) (leave.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := userID + "/" + policyID
	b, ok := f.balances[key]
	if !ok {
		return leave.Balance{}, leave.ErrBalanceNotFound
	}
	if b.BalanceHours.LessThan(hours) {
		return leave.Balance{}, leave.ErrInsufficientBalance
	}
	b.BalanceHours = b.BalanceHours.Sub(hours)
	f.balances[key] = b
	return b, nil
}

func (f *fakeBalances) hours(userID, policyID string) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID+"/"+policyID].BalanceHours
}

type fakeUsers struct {
	users []user.User
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (user.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (f *fakeUsers) GetByIDInCompany(ctx context.Context, id, companyID string) (user.User, error) {
	u, err := f.GetByID(ctx, id)
	if err != nil || u.CompanyID != companyID {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) ListActiveByCompany(_ context.Context, companyID string) ([]user.User, error) {
	var out []user.User
	for _, u := range f.users {
		if u.CompanyID == companyID && u.IsActive() {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) GetEmploymentDetail(_ context.Context, _ string) (user.EmploymentDetail, error) {
	return user.EmploymentDetail{}, user.ErrEmploymentDetailNotFound
}

type fakeCompanies struct {
	companies map[string]company.Company
}

func (f *fakeCompanies) GetByID(_ context.Context, id string) (company.Company, error) {
	c, ok := f.companies[id]
	if !ok {
		return company.Company{}, company.ErrCompanyNotFound
	}
	return c, nil
}

func (f *fakeCompanies) List(_ context.Context) ([]company.Company, error) {
	var out []company.Company
	for _, c := range f.companies {
		out = append(out, c)
	}
	return out, nil
}

type memMarkers struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (m *memMarkers) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memMarkers) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

// failingMarkers cannot reach its backing store.
type failingMarkers struct{}

func (failingMarkers) Acquire(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("marker store unavailable")
}

func (failingMarkers) Release(context.Context, string) error { return nil }

type leaveFixture struct {
	svc      *LeaveServiceImpl
	balances *fakeBalances
	markers  *memMarkers
}

func newLeaveFixture(shiftHours *decimal.Decimal) *leaveFixture {
	policies := &fakePolicies{policies: []leave.Policy{
		{ID: "vacation", CompanyID: "co-1", AnnualAllocation: decimal.NewFromInt(15), AccrualUnit: leave.AccrualUnitDays, AccrualFrequency: leave.AccrualMonthly},
		{ID: "sick", CompanyID: "co-1", AnnualAllocation: decimal.NewFromInt(12), AccrualUnit: leave.AccrualUnitHours, AccrualFrequency: leave.AccrualMonthly},
		{ID: "bereavement", CompanyID: "co-1", AnnualAllocation: decimal.NewFromInt(5), AccrualUnit: leave.AccrualUnitDays, AccrualFrequency: leave.AccrualYearly},
	}}
	users := &fakeUsers{users: []user.User{
		{ID: "u-1", CompanyID: "co-1", Status: user.StatusActive},
		{ID: "u-2", CompanyID: "co-1", Status: user.StatusActive},
		{ID: "u-3", CompanyID: "co-1", Status: user.StatusInactive},
		{ID: "u-4", CompanyID: "co-2", Status: user.StatusActive},
	}}
	companies := &fakeCompanies{companies: map[string]company.Company{
		"co-1": {ID: "co-1", DefaultShiftHours: shiftHours},
	}}
	balances := newFakeBalances()
	markers := &memMarkers{keys: map[string]bool{}}

	svc := NewLeaveService(policies, balances, users, companies, markers, decimal.NewFromInt(8))
	return &leaveFixture{svc: svc, balances: balances, markers: markers}
}

// withBalances swaps the balance repository the service writes to.
func (f *leaveFixture) withBalances(balances leave.BalanceRepository) {
	f.svc.balances = balances
}

func TestMonthlyIncrement(t *testing.T) {
	tests := []struct {
		name   string
		policy leave.Policy
		daily  string
		want   string
	}{
		{"days use daily hours", leave.Policy{AnnualAllocation: decimal.NewFromInt(15), AccrualUnit: leave.AccrualUnitDays}, "8", "10"},
		{"hours are taken as is", leave.Policy{AnnualAllocation: decimal.NewFromInt(40), AccrualUnit: leave.AccrualUnitHours}, "8", "3.33"},
		{"rounded to cents", leave.Policy{AnnualAllocation: decimal.NewFromInt(15), AccrualUnit: leave.AccrualUnitDays}, "7.5", "9.38"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyIncrement(tt.policy, decimal.RequireFromString(tt.daily))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestLeaveService_RunMonthlyAccrual_FirstOfMonth(t *testing.T) {
	f := newLeaveFixture(nil)
	now := time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC)

	// Act
	summary, err := f.svc.RunMonthlyAccrual(context.Background(), now)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "2024-03", summary.Month)
	assert.Equal(t, 2, summary.Policies)
	assert.Equal(t, 4, summary.Credited)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, "10", f.balances.hours("u-1", "vacation").String())
	assert.Equal(t, "1", f.balances.hours("u-2", "sick").String())
	assert.True(t, f.balances.hours("u-3", "vacation").IsZero())
	assert.True(t, f.balances.hours("u-4", "vacation").IsZero())
	assert.True(t, f.balances.hours("u-1", "bereavement").IsZero())
	assert.True(t, f.markers.keys["accrual:vacation:2024-03"])
}

func TestLeaveService_RunMonthlyAccrual_OncePerMonth(t *testing.T) {
	f := newLeaveFixture(nil)
	now := time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC)

	_, err := f.svc.RunMonthlyAccrual(context.Background(), now)
	require.NoError(t, err)
	summary, err := f.svc.RunMonthlyAccrual(context.Background(), now.Add(time.Hour))

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Credited)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, "10", f.balances.hours("u-1", "vacation").String())

	_, err = f.svc.RunMonthlyAccrual(context.Background(), time.Date(2024, 4, 1, 2, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "20", f.balances.hours("u-1", "vacation").String())
}

func TestLeaveService_RunMonthlyAccrual_RetriesAfterFailedCredit(t *testing.T) {
	f := newLeaveFixture(nil)
	f.withBalances(&flakyBalances{fakeBalances: f.balances, failOnce: map[string]bool{"u-1": true}})
	now := time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC)

	// Act
	first, err := f.svc.RunMonthlyAccrual(context.Background(), now)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "u-1")
	assert.Equal(t, 3, first.Credited)
	assert.Equal(t, 0, first.Skipped)
	assert.True(t, f.balances.hours("u-1", "vacation").IsZero())
	assert.Equal(t, "10", f.balances.hours("u-2", "vacation").String())
	assert.Equal(t, "1", f.balances.hours("u-1", "sick").String())
	assert.False(t, f.markers.keys["accrual:vacation:2024-03"])
	assert.True(t, f.markers.keys["accrual:sick:2024-03"])

	second, err := f.svc.RunMonthlyAccrual(context.Background(), now.Add(time.Hour))

	require.NoError(t, err)
	assert.Equal(t, 1, second.Credited)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, "10", f.balances.hours("u-1", "vacation").String())
	assert.Equal(t, "10", f.balances.hours("u-2", "vacation").String())
	assert.Equal(t, "1", f.balances.hours("u-1", "sick").String())
	assert.True(t, f.markers.keys["accrual:vacation:2024-03"])
}

func TestLeaveService_RunMonthlyAccrual_MarkerErrorIsNotSkipped(t *testing.T) {
	f := newLeaveFixture(nil)
	f.svc.markers = failingMarkers{}

	summary, err := f.svc.RunMonthlyAccrual(context.Background(), time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC))

	require.Error(t, err)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Credited)
	assert.True(t, f.balances.hours("u-1", "vacation").IsZero())
}

func TestLeaveService_RunMonthlyAccrual_NotFirstOfMonth(t *testing.T) {
	f := newLeaveFixture(nil)

	summary, err := f.svc.RunMonthlyAccrual(context.Background(), time.Date(2024, 3, 2, 2, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Policies)
	assert.Empty(t, f.markers.keys)
}

func TestLeaveService_RunMonthlyAccrual_UsesCompanyShiftHours(t *testing.T) {
	shift := decimal.RequireFromString("7.5")
	f := newLeaveFixture(&shift)

	_, err := f.svc.RunMonthlyAccrual(context.Background(), time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Equal(t, "9.38", f.balances.hours("u-1", "vacation").String())
}

func TestLeaveService_DebitBalance(t *testing.T) {
	f := newLeaveFixture(nil)
	ctx := context.Background()
	_, _, err := f.balances.Accrue(ctx, "u-1", "vacation", decimal.NewFromInt(16), time.Time{}, time.Now())
	require.NoError(t, err)

	b, err := f.svc.DebitBalance(ctx, "u-1", "vacation", decimal.NewFromInt(8))
	require.NoError(t, err)
	assert.Equal(t, "8", b.BalanceHours.String())

	_, err = f.svc.DebitBalance(ctx, "u-1", "vacation", decimal.NewFromInt(9))
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
	assert.Equal(t, "8", f.balances.hours("u-1", "vacation").String())

	_, err = f.svc.DebitBalance(ctx, "u-1", "vacation", decimal.Zero)
	assert.ErrorIs(t, err, leave.ErrInvalidHours)

	_, err = f.svc.DebitBalance(ctx, "u-9", "vacation", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, leave.ErrBalanceNotFound)
}
