package payroll

import (
	"context"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
)

// Requester is the authenticated caller as supplied by the auth layer.
type Requester struct {
	UserID    string
	CompanyID string
	Role      user.Role
}

type PayrollService interface {
	// Self service
	GetMyEntries(ctx context.Context, requester Requester) ([]EntryResponse, error)
	GetPayslip(ctx context.Context, requester Requester, entryID string) (EntryResponse, error)

	// Rates
	AddRate(ctx context.Context, companyID, employeeID string, req CreateRateRequest) (RateResponse, error)
	ListRates(ctx context.Context, companyID, employeeID string) ([]RateResponse, error)

	// Schedule
	GetSchedule(ctx context.Context, companyID string) (PayScheduleResponse, error)
	UpdateSchedule(ctx context.Context, companyID string, req UpdateScheduleRequest) (PayScheduleResponse, error)

	// Runs
	ListCompanyPayroll(ctx context.Context, companyID string) ([]RunResponse, error)
	CreateRun(ctx context.Context, companyID string, req CreateRunRequest) (RunResponse, error)
	Calculate(ctx context.Context, companyID string, req CalculateRequest) (CalculateResponse, error)
	Finalize(ctx context.Context, companyID, runID string) (RunResponse, error)
	ListRuns(ctx context.Context, companyID string, filter RunFilter) ([]RunResponse, error)
	GetRun(ctx context.Context, companyID, runID string) (RunResponse, error)
}
