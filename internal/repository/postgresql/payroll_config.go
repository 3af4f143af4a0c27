package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

// ========== RATES ==========

type payrollRateRepository struct {
	db *database.DB
}

func NewPayrollRateRepository(db *database.DB) payroll.RateRepository {
	return &payrollRateRepository{db: db}
}

// Create implements payroll.RateRepository.
func (r *payrollRateRepository) Create(ctx context.Context, rate payroll.UserRate) (payroll.UserRate, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO user_rates (user_id, hourly_rate)
		VALUES ($1, $2)
		RETURNING id, user_id, hourly_rate, created_at
	`
	var created payroll.UserRate
	err := q.QueryRow(ctx, query, rate.UserID, rate.HourlyRate).Scan(
		&created.ID, &created.UserID, &created.HourlyRate, &created.CreatedAt,
	)
	if err != nil {
		return payroll.UserRate{}, fmt.Errorf("failed to create user rate: %w", err)
	}
	return created, nil
}

// GetLatest implements payroll.RateRepository.
func (r *payrollRateRepository) GetLatest(ctx context.Context, userID string) (payroll.UserRate, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, user_id, hourly_rate, created_at
		FROM user_rates
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	var rate payroll.UserRate
	err := q.QueryRow(ctx, query, userID).Scan(&rate.ID, &rate.UserID, &rate.HourlyRate, &rate.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.UserRate{}, payroll.ErrRateNotFound
		}
		return payroll.UserRate{}, fmt.Errorf("failed to get latest user rate: %w", err)
	}
	return rate, nil
}

// ListByUser implements payroll.RateRepository. Newest first.
func (r *payrollRateRepository) ListByUser(ctx context.Context, userID string) ([]payroll.UserRate, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, user_id, hourly_rate, created_at
		FROM user_rates
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user rates: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (payroll.UserRate, error) {
		var rate payroll.UserRate
		if err := row.Scan(&rate.ID, &rate.UserID, &rate.HourlyRate, &rate.CreatedAt); err != nil {
			return payroll.UserRate{}, fmt.Errorf("failed to scan user rate: %w", err)
		}
		return rate, nil
	})
}

// ========== SCHEDULES ==========

type payScheduleRepository struct {
	db *database.DB
}

func NewPayScheduleRepository(db *database.DB) payroll.ScheduleRepository {
	return &payScheduleRepository{db: db}
}

const payScheduleColumns = `id, company_id, frequency, cutoff_config, payday_offset_days, timezone, is_active, created_at, updated_at`

func scanPaySchedule(row pgx.Row) (payroll.PaySchedule, error) {
	var (
		s      payroll.PaySchedule
		cutoff []byte
	)
	err := row.Scan(&s.ID, &s.CompanyID, &s.Frequency, &cutoff, &s.PaydayOffsetDays, &s.Timezone, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return payroll.PaySchedule{}, err
	}
	if len(cutoff) > 0 {
		if err := json.Unmarshal(cutoff, &s.CutoffConfig); err != nil {
			return payroll.PaySchedule{}, fmt.Errorf("failed to decode cutoff config: %w", err)
		}
	}
	return s, nil
}

// GetActive implements payroll.ScheduleRepository.
func (r *payScheduleRepository) GetActive(ctx context.Context, companyID string) (payroll.PaySchedule, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payScheduleColumns + ` FROM pay_schedules WHERE company_id = $1 AND is_active`
	s, err := scanPaySchedule(q.QueryRow(ctx, query, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PaySchedule{}, payroll.ErrScheduleNotFound
		}
		return payroll.PaySchedule{}, fmt.Errorf("failed to get active pay schedule: %w", err)
	}
	return s, nil
}

// DeactivateAll implements payroll.ScheduleRepository.
func (r *payScheduleRepository) DeactivateAll(ctx context.Context, companyID string) error {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE pay_schedules SET is_active = FALSE, updated_at = NOW() WHERE company_id = $1 AND is_active`
	if _, err := q.Exec(ctx, query, companyID); err != nil {
		return fmt.Errorf("failed to deactivate pay schedules: %w", err)
	}
	return nil
}

// Create implements payroll.ScheduleRepository. A concurrent active schedule for the
// same company surfaces as payroll.ErrActiveScheduleRace.
func (r *payScheduleRepository) Create(ctx context.Context, schedule payroll.PaySchedule) (payroll.PaySchedule, error) {
	q := GetQuerier(ctx, r.db)

	cutoff, err := json.Marshal(schedule.CutoffConfig)
	if err != nil {
		return payroll.PaySchedule{}, fmt.Errorf("failed to encode cutoff config: %w", err)
	}
	if schedule.Timezone == "" {
		schedule.Timezone = "UTC"
	}

	query := `
		INSERT INTO pay_schedules (company_id, frequency, cutoff_config, payday_offset_days, timezone, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + payScheduleColumns
	created, err := scanPaySchedule(q.QueryRow(ctx, query,
		schedule.CompanyID, schedule.Frequency, cutoff, schedule.PaydayOffsetDays, schedule.Timezone, schedule.IsActive,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return payroll.PaySchedule{}, payroll.ErrActiveScheduleRace
		}
		return payroll.PaySchedule{}, fmt.Errorf("failed to create pay schedule: %w", err)
	}
	return created, nil
}

// ========== BRACKETS ==========

type bracketRepository struct {
	db *database.DB
}

func NewBracketRepository(db *database.DB) payroll.BracketRepository {
	return &bracketRepository{db: db}
}

func nullableDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

// ListContribution implements payroll.BracketRepository.
func (r *bracketRepository) ListContribution(ctx context.Context, key payroll.ContributionKey, asOf time.Time) ([]payroll.ContributionBracket, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, country, agency, frequency, state_code, min_salary_base, max_salary_base,
			employee_rate, employee_fixed, employer_rate, employer_fixed, effective_from, effective_to
		FROM contribution_brackets
		WHERE country = $1 AND agency = $2 AND frequency = $3 AND state_code = $4
			AND effective_from <= $5::date
			AND (effective_to IS NULL OR effective_to >= $5::date)
		ORDER BY min_salary_base
	`
	rows, err := q.Query(ctx, query, key.Country, key.Agency, key.Frequency, key.StateCode, dateParam(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to list contribution brackets: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (payroll.ContributionBracket, error) {
		var (
			b                                      payroll.ContributionBracket
			maxBase, eeRate, eeFixed, erRate, erFx decimal.NullDecimal
		)
		err := row.Scan(
			&b.ID, &b.Country, &b.Agency, &b.Frequency, &b.StateCode, &b.MinSalaryBase, &maxBase,
			&eeRate, &eeFixed, &erRate, &erFx, &b.EffectiveFrom, &b.EffectiveTo,
		)
		if err != nil {
			return payroll.ContributionBracket{}, fmt.Errorf("failed to scan contribution bracket: %w", err)
		}
		b.MaxSalaryBase = nullableDecimal(maxBase)
		b.EmployeeRate = nullableDecimal(eeRate)
		b.EmployeeFixed = nullableDecimal(eeFixed)
		b.EmployerRate = nullableDecimal(erRate)
		b.EmployerFixed = nullableDecimal(erFx)
		return b, nil
	})
}

// ListWithholding implements payroll.BracketRepository.
func (r *bracketRepository) ListWithholding(ctx context.Context, key payroll.WithholdingKey, asOf time.Time) ([]payroll.WithholdingTaxBracket, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, country, authority, frequency, state_code, min_base, max_base,
			base_tax, excess_rate, effective_from, effective_to
		FROM withholding_tax_brackets
		WHERE country = $1 AND authority = $2 AND frequency = $3 AND state_code = $4
			AND effective_from <= $5::date
			AND (effective_to IS NULL OR effective_to >= $5::date)
		ORDER BY min_base
	`
	rows, err := q.Query(ctx, query, key.Country, key.Authority, key.Frequency, key.StateCode, dateParam(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to list withholding brackets: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (payroll.WithholdingTaxBracket, error) {
		var (
			b       payroll.WithholdingTaxBracket
			maxBase decimal.NullDecimal
		)
		err := row.Scan(
			&b.ID, &b.Country, &b.Authority, &b.Frequency, &b.StateCode, &b.MinBase, &maxBase,
			&b.BaseTax, &b.ExcessRate, &b.EffectiveFrom, &b.EffectiveTo,
		)
		if err != nil {
			return payroll.WithholdingTaxBracket{}, fmt.Errorf("failed to scan withholding bracket: %w", err)
		}
		b.MaxBase = nullableDecimal(maxBase)
		return b, nil
	})
}
