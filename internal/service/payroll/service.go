package payroll

import (
	"context"
	"errors"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/metrics"
)

// Notifier queues the notifications sent when a run is finalized.
type Notifier interface {
	QueueBulkNotification(ctx context.Context, reqs []notification.CreateNotificationRequest) error
}

type PayrollServiceImpl struct {
	repos      Repositories
	tx         payroll.Transactor
	calculator *Calculator
	notifier   Notifier
	metrics    *metrics.Metrics
	clock      clock.Clock
}

func NewPayrollService(
	repos Repositories,
	tx payroll.Transactor,
	notifier Notifier,
	m *metrics.Metrics,
	clk clock.Clock,
	policy Policy,
) *PayrollServiceImpl {
	if clk == nil {
		clk = clock.New()
	}
	return &PayrollServiceImpl{
		repos:      repos,
		tx:         tx,
		calculator: NewCalculator(repos, NewBracketEngine(repos.Brackets, clk), tx, policy),
		notifier:   notifier,
		metrics:    m,
		clock:      clk,
	}
}

var _ payroll.PayrollService = (*PayrollServiceImpl)(nil)

// ========== SELF SERVICE ==========

func (s *PayrollServiceImpl) GetMyEntries(ctx context.Context, requester payroll.Requester) ([]payroll.EntryResponse, error) {
	entries, err := s.repos.Entries.ListByUser(ctx, requester.UserID)
	if err != nil {
		return nil, err
	}

	resp := make([]payroll.EntryResponse, 0, len(entries))
	for _, e := range entries {
		if e.Run != nil && e.Run.CompanyID != requester.CompanyID {
			continue
		}
		resp = append(resp, payroll.ToEntryResponse(e))
	}
	return resp, nil
}

// GetPayslip returns one entry. Admins see any entry of their company; everyone else
// only their own.
func (s *PayrollServiceImpl) GetPayslip(ctx context.Context, requester payroll.Requester, entryID string) (payroll.EntryResponse, error) {
	entry, err := s.repos.Entries.GetByID(ctx, entryID)
	if err != nil {
		return payroll.EntryResponse{}, err
	}
	if entry.Run == nil || entry.Run.CompanyID != requester.CompanyID {
		return payroll.EntryResponse{}, payroll.ErrEntryNotFound
	}
	if !user.IsAdminRole(requester.Role) && entry.UserID != requester.UserID {
		return payroll.EntryResponse{}, payroll.ErrPayslipForbidden
	}
	return payroll.ToEntryResponse(entry), nil
}

// ========== RATES ==========

func (s *PayrollServiceImpl) AddRate(ctx context.Context, companyID, employeeID string, req payroll.CreateRateRequest) (payroll.RateResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RateResponse{}, err
	}
	if err := s.ensureEmployee(ctx, companyID, employeeID); err != nil {
		return payroll.RateResponse{}, err
	}

	rate, err := s.repos.Rates.Create(ctx, payroll.UserRate{
		UserID:     employeeID,
		HourlyRate: req.HourlyRate.Round(2),
	})
	if err != nil {
		return payroll.RateResponse{}, err
	}
	return payroll.ToRateResponse(rate), nil
}

func (s *PayrollServiceImpl) ListRates(ctx context.Context, companyID, employeeID string) ([]payroll.RateResponse, error) {
	if err := s.ensureEmployee(ctx, companyID, employeeID); err != nil {
		return nil, err
	}

	rates, err := s.repos.Rates.ListByUser(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	resp := make([]payroll.RateResponse, 0, len(rates))
	for _, r := range rates {
		resp = append(resp, payroll.ToRateResponse(r))
	}
	return resp, nil
}

func (s *PayrollServiceImpl) ensureEmployee(ctx context.Context, companyID, employeeID string) error {
	if _, err := s.repos.Users.GetByIDInCompany(ctx, employeeID, companyID); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return payroll.ErrEmployeeNotFound
		}
		return err
	}
	return nil
}

// ========== SCHEDULE ==========

func (s *PayrollServiceImpl) GetSchedule(ctx context.Context, companyID string) (payroll.PayScheduleResponse, error) {
	schedule, err := s.repos.Schedules.GetActive(ctx, companyID)
	if err != nil {
		return payroll.PayScheduleResponse{}, err
	}
	return payroll.ToScheduleResponse(schedule), nil
}

// UpdateSchedule replaces the active schedule. Fields left out of the request are
// carried over from the schedule being replaced.
func (s *PayrollServiceImpl) UpdateSchedule(ctx context.Context, companyID string, req payroll.UpdateScheduleRequest) (payroll.PayScheduleResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayScheduleResponse{}, err
	}

	var created payroll.PaySchedule
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		next := payroll.PaySchedule{
			CompanyID: companyID,
			Frequency: payroll.Frequency(req.Frequency),
			Timezone:  "UTC",
			IsActive:  true,
		}

		prev, err := s.repos.Schedules.GetActive(ctx, companyID)
		switch {
		case err == nil:
			next.CutoffConfig = prev.CutoffConfig
			next.PaydayOffsetDays = prev.PaydayOffsetDays
			next.Timezone = prev.Timezone
		case !errors.Is(err, payroll.ErrScheduleNotFound):
			return err
		}

		if req.CutoffConfig != nil {
			next.CutoffConfig = *req.CutoffConfig
		}
		if req.PaydayOffsetDays != nil {
			next.PaydayOffsetDays = *req.PaydayOffsetDays
		}
		if req.Timezone != nil {
			next.Timezone = *req.Timezone
		}

		if err := s.repos.Schedules.DeactivateAll(ctx, companyID); err != nil {
			return err
		}
		created, err = s.repos.Schedules.Create(ctx, next)
		return err
	})
	if err != nil {
		return payroll.PayScheduleResponse{}, err
	}
	return payroll.ToScheduleResponse(created), nil
}

// ========== RUNS ==========

func (s *PayrollServiceImpl) ListCompanyPayroll(ctx context.Context, companyID string) ([]payroll.RunResponse, error) {
	runs, err := s.repos.Runs.List(ctx, companyID, payroll.RunFilter{})
	if err != nil {
		return nil, err
	}

	resp := make([]payroll.RunResponse, 0, len(runs))
	for _, run := range runs {
		run.Entries, err = s.repos.Entries.ListByRun(ctx, run.ID, false)
		if err != nil {
			return nil, err
		}
		resp = append(resp, payroll.ToRunResponse(run))
	}
	return resp, nil
}

func (s *PayrollServiceImpl) CreateRun(ctx context.Context, companyID string, req payroll.CreateRunRequest) (payroll.RunResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RunResponse{}, err
	}
	start, end := req.Period()

	run, _, err := s.createOrGetRun(ctx, companyID, start, end)
	if err != nil {
		return payroll.RunResponse{}, err
	}
	return payroll.ToRunResponse(run), nil
}

func (s *PayrollServiceImpl) Calculate(ctx context.Context, companyID string, req payroll.CalculateRequest) (payroll.CalculateResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.CalculateResponse{}, err
	}
	start, end := req.Period()

	result, err := s.calculate(ctx, companyID, req.UserID, start, end, req.Finalize)
	if err != nil {
		return payroll.CalculateResponse{}, err
	}
	return payroll.CalculateResponse{
		Run:      payroll.ToRunResponse(result.Run),
		Computed: result.Computed,
		Skipped:  result.Skipped,
		Failed:   result.Failed,
	}, nil
}

func (s *PayrollServiceImpl) Finalize(ctx context.Context, companyID, runID string) (payroll.RunResponse, error) {
	run, err := s.repos.Runs.GetByID(ctx, runID, companyID)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	run, err = s.finalize(ctx, run)
	if err != nil {
		return payroll.RunResponse{}, err
	}
	run.Entries, err = s.repos.Entries.ListByRun(ctx, run.ID, true)
	if err != nil {
		return payroll.RunResponse{}, err
	}
	return payroll.ToRunResponse(run), nil
}

func (s *PayrollServiceImpl) ListRuns(ctx context.Context, companyID string, filter payroll.RunFilter) ([]payroll.RunResponse, error) {
	runs, err := s.repos.Runs.List(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	resp := make([]payroll.RunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, payroll.ToRunResponse(run))
	}
	return resp, nil
}

func (s *PayrollServiceImpl) GetRun(ctx context.Context, companyID, runID string) (payroll.RunResponse, error) {
	run, err := s.repos.Runs.GetByID(ctx, runID, companyID)
	if err != nil {
		return payroll.RunResponse{}, err
	}
	run.Entries, err = s.repos.Entries.ListByRun(ctx, run.ID, true)
	if err != nil {
		return payroll.RunResponse{}, err
	}
	return payroll.ToRunResponse(run), nil
}
