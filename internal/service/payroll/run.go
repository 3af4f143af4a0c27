package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/metrics"
)

// CalculateResult is the outcome of one calculate request.
type CalculateResult struct {
	Run      payroll.PayrollRun
	Computed int
	Skipped  []payroll.SkippedUser
	Failed   []payroll.FailedUser
}

// createOrGetRun returns the run of the period, creating it on first use. The active
// schedule, when there is one, is attached on creation and returned for frequency lookups.
func (s *PayrollServiceImpl) createOrGetRun(ctx context.Context, companyID string, start, end time.Time) (payroll.PayrollRun, *payroll.PaySchedule, error) {
	if start.After(end) {
		return payroll.PayrollRun{}, nil, errInvalidPeriod(start, end)
	}

	var schedule *payroll.PaySchedule
	active, err := s.repos.Schedules.GetActive(ctx, companyID)
	switch {
	case err == nil:
		schedule = &active
	case !errors.Is(err, payroll.ErrScheduleNotFound):
		return payroll.PayrollRun{}, nil, err
	}

	run := payroll.PayrollRun{
		CompanyID:   companyID,
		PeriodStart: startOfDay(start),
		PeriodEnd:   startOfDay(end),
		Status:      payroll.RunStatusDraft,
	}
	if schedule != nil {
		run.ScheduleID = &schedule.ID
	}

	stored, err := s.repos.Runs.CreateIfAbsent(ctx, run)
	if err != nil {
		return payroll.PayrollRun{}, nil, err
	}
	return stored, schedule, nil
}

// calculate computes entries for one user or for every active user of the company,
// refreshes the run totals and optionally finalizes. A failing user is reported in
// Failed and the batch moves on.
func (s *PayrollServiceImpl) calculate(ctx context.Context, companyID string, userID *string, start, end time.Time, finalize bool) (CalculateResult, error) {
	scope := "company"
	if userID != nil {
		scope = "user"
	}
	defer s.metrics.ObserveCalculation(scope, time.Now())

	comp, err := s.repos.Companies.GetByID(ctx, companyID)
	if err != nil {
		return CalculateResult{}, err
	}

	run, schedule, err := s.createOrGetRun(ctx, companyID, start, end)
	if err != nil {
		return CalculateResult{}, err
	}
	if run.IsFinalized() {
		return CalculateResult{}, payroll.ErrRunFinalized
	}

	var userIDs []string
	if userID != nil {
		u, err := s.repos.Users.GetByIDInCompany(ctx, *userID, companyID)
		if err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				return CalculateResult{}, payroll.ErrEmployeeNotFound
			}
			return CalculateResult{}, err
		}
		userIDs = []string{u.ID}
	} else {
		users, err := s.repos.Users.ListActiveByCompany(ctx, companyID)
		if err != nil {
			return CalculateResult{}, err
		}
		for _, u := range users {
			userIDs = append(userIDs, u.ID)
		}
	}

	batch := Batch{Run: run, Company: comp, Frequency: payroll.FrequencyMonthly}
	if schedule != nil {
		batch.Frequency = schedule.Frequency
	}

	result := CalculateResult{
		Skipped: []payroll.SkippedUser{},
		Failed:  []payroll.FailedUser{},
	}
	for _, uid := range userIDs {
		if err := ctx.Err(); err != nil {
			return CalculateResult{}, err
		}

		res, err := s.calculator.ComputeEntryForUser(ctx, batch, uid)
		switch {
		case err != nil:
			slog.Error("payroll entry computation failed",
				"run_id", run.ID, "company_id", companyID, "user_id", uid, "error", err)
			result.Failed = append(result.Failed, payroll.FailedUser{UserID: uid, Error: err.Error()})
		case res.Skipped:
			result.Skipped = append(result.Skipped, payroll.SkippedUser{UserID: uid, Skip: true, Reason: res.Reason})
		default:
			result.Computed++
		}
	}
	s.metrics.AddEntries(metrics.EntryResultComputed, result.Computed)
	s.metrics.AddEntries(metrics.EntryResultSkipped, len(result.Skipped))
	s.metrics.AddEntries(metrics.EntryResultFailed, len(result.Failed))

	run, err = s.repos.Runs.RefreshTotals(ctx, run.ID)
	if err != nil {
		return CalculateResult{}, err
	}

	slog.Info("payroll calculated",
		"run_id", run.ID,
		"company_id", companyID,
		"computed", result.Computed,
		"skipped", len(result.Skipped),
		"failed", len(result.Failed),
	)

	if finalize {
		run, err = s.finalize(ctx, run)
		if err != nil {
			return CalculateResult{}, err
		}
	}

	run.Entries, err = s.repos.Entries.ListByRun(ctx, run.ID, run.IsFinalized())
	if err != nil {
		return CalculateResult{}, err
	}
	result.Run = run
	return result, nil
}

// finalize locks the run and numbers every entry that has no payslip yet. Numbers are
// {periodStart}-{first 6 of company id}-{position:0000} in entry order, so calling it
// again leaves existing numbers untouched.
func (s *PayrollServiceImpl) finalize(ctx context.Context, run payroll.PayrollRun) (payroll.PayrollRun, error) {
	wasFinalized := run.IsFinalized()

	var (
		finalized payroll.PayrollRun
		entries   []payroll.PayrollEntry
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		finalized, err = s.repos.Runs.MarkFinalized(ctx, run.ID, s.clock.Now())
		if err != nil {
			return err
		}
		entries, err = s.repos.Entries.ListByRun(ctx, run.ID, false)
		if err != nil {
			return err
		}
		for i, e := range entries {
			if e.PayslipNumber != nil {
				continue
			}
			number := PayslipNumber(finalized, i+1)
			if err := s.repos.Entries.AssignPayslipNumber(ctx, e.ID, number); err != nil {
				return err
			}
			entries[i].PayslipNumber = &number
		}
		return nil
	})
	if err != nil {
		return payroll.PayrollRun{}, err
	}

	if !wasFinalized {
		s.metrics.IncRunsFinalized()
		slog.Info("payroll run finalized", "run_id", finalized.ID, "company_id", finalized.CompanyID, "entries", len(entries))
		s.notifyFinalized(ctx, finalized, entries)
	}
	return finalized, nil
}

// PayslipNumber formats the payslip number of the entry at position seq (1-based).
func PayslipNumber(run payroll.PayrollRun, seq int) string {
	prefix := run.CompanyID
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}
	return fmt.Sprintf("%s-%s-%04d", run.PeriodStart.Format(time.DateOnly), prefix, seq)
}

func (s *PayrollServiceImpl) notifyFinalized(ctx context.Context, run payroll.PayrollRun, entries []payroll.PayrollEntry) {
	if s.notifier == nil || len(entries) == 0 {
		return
	}

	period := run.PeriodStart.Format(time.DateOnly) + " to " + run.PeriodEnd.Format(time.DateOnly)
	reqs := make([]notification.CreateNotificationRequest, 0, len(entries))
	for _, e := range entries {
		data := map[string]interface{}{
			"run_id":   run.ID,
			"entry_id": e.ID,
		}
		if e.PayslipNumber != nil {
			data["payslip_number"] = *e.PayslipNumber
		}
		reqs = append(reqs, notification.CreateNotificationRequest{
			CompanyID:   run.CompanyID,
			RecipientID: e.UserID,
			Type:        notification.TypePayrollFinalized,
			Title:       "Payslip available",
			Message:     "Your payslip for " + period + " is ready.",
			Data:        data,
		})
	}
	if err := s.notifier.QueueBulkNotification(ctx, reqs); err != nil {
		slog.Warn("failed to queue payroll notifications", "run_id", run.ID, "error", err)
	}
}
