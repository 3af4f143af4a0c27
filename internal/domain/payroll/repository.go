package payroll

import (
	"context"
	"time"
)

// RunRepository - payroll_runs table. All lookups include companyID to prevent cross-company access.
type RunRepository interface {
	// CreateIfAbsent inserts with ON CONFLICT DO NOTHING and returns the stored row for the period
	CreateIfAbsent(ctx context.Context, run PayrollRun) (PayrollRun, error)
	GetByID(ctx context.Context, id string, companyID string) (PayrollRun, error)
	List(ctx context.Context, companyID string, filter RunFilter) ([]PayrollRun, error)
	// RefreshTotals recomputes total_gross/total_net from the run's entries
	RefreshTotals(ctx context.Context, id string) (PayrollRun, error)
	MarkFinalized(ctx context.Context, id string, at time.Time) (PayrollRun, error)
}

// EntryRepository - payroll_entries and payroll_lines tables.
type EntryRepository interface {
	// Upsert creates or replaces the entry keyed by (run_id, user_id); payslip_number is preserved
	Upsert(ctx context.Context, entry PayrollEntry) (PayrollEntry, error)
	// ReplaceLines deletes every line of the entry and inserts lines
	ReplaceLines(ctx context.Context, entryID string, lines []PayrollLine) error
	GetByID(ctx context.Context, id string) (PayrollEntry, error)
	// ListByRun returns entries ordered by created_at, id
	ListByRun(ctx context.Context, runID string, withLines bool) ([]PayrollEntry, error)
	// ListByUser returns the user's entries with their parent run, newest period first
	ListByUser(ctx context.Context, userID string) ([]PayrollEntry, error)
	AssignPayslipNumber(ctx context.Context, id string, number string) error
}

// RateRepository - user_rates table (append-only)
type RateRepository interface {
	Create(ctx context.Context, rate UserRate) (UserRate, error)
	GetLatest(ctx context.Context, userID string) (UserRate, error)
	ListByUser(ctx context.Context, userID string) ([]UserRate, error)
}

// ScheduleRepository - pay_schedules table
type ScheduleRepository interface {
	GetActive(ctx context.Context, companyID string) (PaySchedule, error)
	DeactivateAll(ctx context.Context, companyID string) error
	Create(ctx context.Context, schedule PaySchedule) (PaySchedule, error)
}

// BracketRepository - contribution_brackets and withholding_tax_brackets tables
type BracketRepository interface {
	// Both return rows effective on asOf, ordered by ascending minimum
	ListContribution(ctx context.Context, key ContributionKey, asOf time.Time) ([]ContributionBracket, error)
	ListWithholding(ctx context.Context, key WithholdingKey, asOf time.Time) ([]WithholdingTaxBracket, error)
}

// Transactor runs fn with a transaction carried in the context it receives.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
