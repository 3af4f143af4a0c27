package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// ========== RUNS ==========

type payrollRunRepository struct {
	db *database.DB
}

func NewPayrollRunRepository(db *database.DB) payroll.RunRepository {
	return &payrollRunRepository{db: db}
}

const runColumns = `id, company_id, schedule_id, period_start, period_end, status,
	total_gross, total_net, finalized_at, created_at, updated_at`

func scanRun(row pgx.Row) (payroll.PayrollRun, error) {
	var run payroll.PayrollRun
	err := row.Scan(
		&run.ID, &run.CompanyID, &run.ScheduleID, &run.PeriodStart, &run.PeriodEnd, &run.Status,
		&run.TotalGross, &run.TotalNet, &run.FinalizedAt, &run.CreatedAt, &run.UpdatedAt,
	)
	return run, err
}

func dateParam(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// CreateIfAbsent implements payroll.RunRepository. Concurrent callers for the same
// period all observe the single stored row.
func (r *payrollRunRepository) CreateIfAbsent(ctx context.Context, run payroll.PayrollRun) (payroll.PayrollRun, error) {
	q := GetQuerier(ctx, r.db)

	if run.Status == "" {
		run.Status = payroll.RunStatusDraft
	}

	insert := `
		INSERT INTO payroll_runs (company_id, schedule_id, period_start, period_end, status)
		VALUES ($1, $2, $3::date, $4::date, $5)
		ON CONFLICT ON CONSTRAINT uk_payroll_runs_period DO NOTHING
	`
	_, err := q.Exec(ctx, insert, run.CompanyID, run.ScheduleID, dateParam(run.PeriodStart), dateParam(run.PeriodEnd), run.Status)
	if err != nil {
		return payroll.PayrollRun{}, fmt.Errorf("failed to create payroll run: %w", err)
	}

	query := `
		SELECT ` + runColumns + `
		FROM payroll_runs
		WHERE company_id = $1 AND period_start = $2::date AND period_end = $3::date
	`
	stored, err := scanRun(q.QueryRow(ctx, query, run.CompanyID, dateParam(run.PeriodStart), dateParam(run.PeriodEnd)))
	if err != nil {
		return payroll.PayrollRun{}, fmt.Errorf("failed to load payroll run: %w", err)
	}
	return stored, nil
}

// GetByID implements payroll.RunRepository.
func (r *payrollRunRepository) GetByID(ctx context.Context, id string, companyID string) (payroll.PayrollRun, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + runColumns + ` FROM payroll_runs WHERE id = $1 AND company_id = $2`
	run, err := scanRun(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRun{}, payroll.ErrRunNotFound
		}
		return payroll.PayrollRun{}, fmt.Errorf("failed to get payroll run: %w", err)
	}
	return run, nil
}

// List implements payroll.RunRepository.
func (r *payrollRunRepository) List(ctx context.Context, companyID string, filter payroll.RunFilter) ([]payroll.PayrollRun, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"company_id = $1"}
	args := []interface{}{companyID}
	argIdx := 2

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.Year != nil {
		conditions = append(conditions, fmt.Sprintf("EXTRACT(YEAR FROM period_start) = $%d", argIdx))
		args = append(args, *filter.Year)
	}

	query := `
		SELECT ` + runColumns + `
		FROM payroll_runs
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY period_start DESC, created_at DESC
	`
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll runs: %w", err)
	}
	defer rows.Close()

	var runs []payroll.PayrollRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll runs: %w", err)
	}
	return runs, nil
}

// RefreshTotals implements payroll.RunRepository.
func (r *payrollRunRepository) RefreshTotals(ctx context.Context, id string) (payroll.PayrollRun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_runs pr
		SET total_gross = COALESCE(t.gross, 0),
			total_net = COALESCE(t.net, 0),
			updated_at = NOW()
		FROM (
			SELECT SUM(gross_pay) AS gross, SUM(net_pay) AS net
			FROM payroll_entries
			WHERE run_id = $1
		) t
		WHERE pr.id = $1
		RETURNING pr.id, pr.company_id, pr.schedule_id, pr.period_start, pr.period_end, pr.status,
			pr.total_gross, pr.total_net, pr.finalized_at, pr.created_at, pr.updated_at
	`
	run, err := scanRun(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRun{}, payroll.ErrRunNotFound
		}
		return payroll.PayrollRun{}, fmt.Errorf("failed to refresh payroll run totals: %w", err)
	}
	return run, nil
}

// MarkFinalized implements payroll.RunRepository. finalized_at is kept from the first call.
func (r *payrollRunRepository) MarkFinalized(ctx context.Context, id string, at time.Time) (payroll.PayrollRun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_runs
		SET status = $2,
			finalized_at = COALESCE(finalized_at, $3),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + runColumns
	run, err := scanRun(q.QueryRow(ctx, query, id, payroll.RunStatusFinalized, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRun{}, payroll.ErrRunNotFound
		}
		return payroll.PayrollRun{}, fmt.Errorf("failed to finalize payroll run: %w", err)
	}
	return run, nil
}

// ========== ENTRIES ==========

type payrollEntryRepository struct {
	db *database.DB
}

func NewPayrollEntryRepository(db *database.DB) payroll.EntryRepository {
	return &payrollEntryRepository{db: db}
}

// entryValueColumns are written on every upsert, in the order of entryValues.
var entryValueColumns = []string{
	"jurisdiction", "hourly_rate", "total_work_hours", "regular_hours", "overtime_hours", "leave_hours",
	"basic_pay", "overtime_pay", "night_diff_pay", "holiday_pay", "leave_pay", "allowances", "other_earnings",
	"late_undertime", "absences", "other_deductions",
	"sss_employee", "philhealth_employee", "pagibig_employee", "fica_social_security", "fica_medicare", "ca_sdi",
	"withholding_tax", "gross_pay", "net_pay",
}

func entryValues(e *payroll.PayrollEntry) []interface{} {
	return []interface{}{
		e.Jurisdiction, e.HourlyRate, e.TotalWorkHours, e.RegularHours, e.OvertimeHours, e.LeaveHours,
		e.BasicPay, e.OvertimePay, e.NightDiffPay, e.HolidayPay, e.LeavePay, e.Allowances, e.OtherEarnings,
		e.LateUndertime, e.Absences, e.OtherDeductions,
		e.SSSEmployee, e.PhilHealthEmployee, e.PagIBIGEmployee, e.FICASocialSecurity, e.FICAMedicare, e.CASDI,
		e.WithholdingTax, e.GrossPay, e.NetPay,
	}
}

func entryColumns(alias string) string {
	cols := append([]string{"id", "run_id", "user_id"}, entryValueColumns...)
	cols = append(cols, "payslip_number", "created_at", "updated_at")
	if alias != "" {
		for i, c := range cols {
			cols[i] = alias + "." + c
		}
	}
	return strings.Join(cols, ", ")
}

func entryDest(e *payroll.PayrollEntry) []interface{} {
	return []interface{}{
		&e.ID, &e.RunID, &e.UserID,
		&e.Jurisdiction, &e.HourlyRate, &e.TotalWorkHours, &e.RegularHours, &e.OvertimeHours, &e.LeaveHours,
		&e.BasicPay, &e.OvertimePay, &e.NightDiffPay, &e.HolidayPay, &e.LeavePay, &e.Allowances, &e.OtherEarnings,
		&e.LateUndertime, &e.Absences, &e.OtherDeductions,
		&e.SSSEmployee, &e.PhilHealthEmployee, &e.PagIBIGEmployee, &e.FICASocialSecurity, &e.FICAMedicare, &e.CASDI,
		&e.WithholdingTax, &e.GrossPay, &e.NetPay,
		&e.PayslipNumber, &e.CreatedAt, &e.UpdatedAt,
	}
}

// Upsert implements payroll.EntryRepository.
func (r *payrollEntryRepository) Upsert(ctx context.Context, entry payroll.PayrollEntry) (payroll.PayrollEntry, error) {
	q := GetQuerier(ctx, r.db)

	cols := append([]string{"run_id", "user_id"}, entryValueColumns...)
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	updates := make([]string, 0, len(entryValueColumns)+1)
	for _, c := range entryValueColumns {
		updates = append(updates, c+" = EXCLUDED."+c)
	}
	updates = append(updates, "updated_at = NOW()")

	query := `
		INSERT INTO payroll_entries (` + strings.Join(cols, ", ") + `)
		VALUES (` + strings.Join(placeholders, ", ") + `)
		ON CONFLICT ON CONSTRAINT uk_payroll_entries_run_user DO UPDATE
		SET ` + strings.Join(updates, ", ") + `
		RETURNING ` + entryColumns("")

	args := append([]interface{}{entry.RunID, entry.UserID}, entryValues(&entry)...)

	var stored payroll.PayrollEntry
	if err := q.QueryRow(ctx, query, args...).Scan(entryDest(&stored)...); err != nil {
		return payroll.PayrollEntry{}, fmt.Errorf("failed to upsert payroll entry: %w", err)
	}
	return stored, nil
}

// ReplaceLines implements payroll.EntryRepository.
func (r *payrollEntryRepository) ReplaceLines(ctx context.Context, entryID string, lines []payroll.PayrollLine) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM payroll_lines WHERE entry_id = $1`, entryID); err != nil {
		return fmt.Errorf("failed to delete payroll lines: %w", err)
	}
	if len(lines) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(`
			INSERT INTO payroll_lines (entry_id, type, code, label, amount, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, entryID, l.Type, l.Code, l.Label, l.Amount, l.SortOrder)
	}
	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert payroll lines: %w", err)
	}
	return nil
}

// GetByID implements payroll.EntryRepository. The parent run and lines are attached.
func (r *payrollEntryRepository) GetByID(ctx context.Context, id string) (payroll.PayrollEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + entryColumns("e") + `,
			pr.id, pr.company_id, pr.schedule_id, pr.period_start, pr.period_end, pr.status,
			pr.total_gross, pr.total_net, pr.finalized_at, pr.created_at, pr.updated_at
		FROM payroll_entries e
		JOIN payroll_runs pr ON pr.id = e.run_id
		WHERE e.id = $1
	`
	var (
		e   payroll.PayrollEntry
		run payroll.PayrollRun
	)
	dest := append(entryDest(&e),
		&run.ID, &run.CompanyID, &run.ScheduleID, &run.PeriodStart, &run.PeriodEnd, &run.Status,
		&run.TotalGross, &run.TotalNet, &run.FinalizedAt, &run.CreatedAt, &run.UpdatedAt,
	)
	if err := q.QueryRow(ctx, query, id).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollEntry{}, payroll.ErrEntryNotFound
		}
		return payroll.PayrollEntry{}, fmt.Errorf("failed to get payroll entry: %w", err)
	}
	e.Run = &run

	lines, err := r.linesByEntry(ctx, []string{e.ID})
	if err != nil {
		return payroll.PayrollEntry{}, err
	}
	e.Lines = lines[e.ID]
	return e, nil
}

// ListByRun implements payroll.EntryRepository.
func (r *payrollEntryRepository) ListByRun(ctx context.Context, runID string, withLines bool) ([]payroll.PayrollEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + entryColumns("e") + `,
			NULLIF(TRIM(u.first_name || ' ' || u.last_name), ''),
			u.email
		FROM payroll_entries e
		LEFT JOIN users u ON u.id = e.user_id
		WHERE e.run_id = $1
		ORDER BY e.created_at, e.id
	`
	rows, err := q.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll entries: %w", err)
	}
	defer rows.Close()

	var entries []payroll.PayrollEntry
	for rows.Next() {
		var e payroll.PayrollEntry
		dest := append(entryDest(&e), &e.UserName, &e.UserEmail)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan payroll entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll entries: %w", err)
	}

	if withLines && len(entries) > 0 {
		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		lines, err := r.linesByEntry(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range entries {
			entries[i].Lines = lines[entries[i].ID]
		}
	}
	return entries, nil
}

// ListByUser implements payroll.EntryRepository.
func (r *payrollEntryRepository) ListByUser(ctx context.Context, userID string) ([]payroll.PayrollEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + entryColumns("e") + `,
			pr.id, pr.company_id, pr.schedule_id, pr.period_start, pr.period_end, pr.status,
			pr.total_gross, pr.total_net, pr.finalized_at, pr.created_at, pr.updated_at
		FROM payroll_entries e
		JOIN payroll_runs pr ON pr.id = e.run_id
		WHERE e.user_id = $1
		ORDER BY pr.period_start DESC, e.created_at DESC
	`
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user payroll entries: %w", err)
	}
	defer rows.Close()

	var entries []payroll.PayrollEntry
	for rows.Next() {
		var (
			e   payroll.PayrollEntry
			run payroll.PayrollRun
		)
		dest := append(entryDest(&e),
			&run.ID, &run.CompanyID, &run.ScheduleID, &run.PeriodStart, &run.PeriodEnd, &run.Status,
			&run.TotalGross, &run.TotalNet, &run.FinalizedAt, &run.CreatedAt, &run.UpdatedAt,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan payroll entry: %w", err)
		}
		e.Run = &run
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll entries: %w", err)
	}
	return entries, nil
}

// AssignPayslipNumber implements payroll.EntryRepository. An entry that already has a
// number keeps it.
func (r *payrollEntryRepository) AssignPayslipNumber(ctx context.Context, id string, number string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_entries
		SET payslip_number = $2, updated_at = NOW()
		WHERE id = $1 AND payslip_number IS NULL
	`
	if _, err := q.Exec(ctx, query, id, number); err != nil {
		return fmt.Errorf("failed to assign payslip number: %w", err)
	}
	return nil
}

func (r *payrollEntryRepository) linesByEntry(ctx context.Context, entryIDs []string) (map[string][]payroll.PayrollLine, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, entry_id, type, code, label, amount, sort_order
		FROM payroll_lines
		WHERE entry_id = ANY($1::uuid[])
		ORDER BY entry_id, sort_order
	`
	rows, err := q.Query(ctx, query, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll lines: %w", err)
	}
	defer rows.Close()

	lines := make(map[string][]payroll.PayrollLine, len(entryIDs))
	for rows.Next() {
		var l payroll.PayrollLine
		if err := rows.Scan(&l.ID, &l.EntryID, &l.Type, &l.Code, &l.Label, &l.Amount, &l.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan payroll line: %w", err)
		}
		lines[l.EntryID] = append(lines[l.EntryID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll lines: %w", err)
	}
	return lines, nil
}
