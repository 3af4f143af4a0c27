package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type timeLogRepositoryImpl struct {
	db *database.DB
}

func NewTimeLogRepository(db *database.DB) attendance.TimeLogRepository {
	return &timeLogRepositoryImpl{db: db}
}

const timeLogColumns = `tl.id, tl.user_id, tl.time_in, tl.time_out, tl.status,
	tl.lunch_break_start, tl.lunch_break_end, tl.coffee_breaks, tl.created_at, tl.updated_at`

// timeLogScan collects the raw columns of a time log before they are folded into the entity.
type timeLogScan struct {
	log          attendance.TimeLog
	lunchStart   *time.Time
	lunchEnd     *time.Time
	coffeeBreaks []byte
}

func (s *timeLogScan) dest() []any {
	return []any{
		&s.log.ID,
		&s.log.UserID,
		&s.log.TimeIn,
		&s.log.TimeOut,
		&s.log.Status,
		&s.lunchStart,
		&s.lunchEnd,
		&s.coffeeBreaks,
		&s.log.CreatedAt,
		&s.log.UpdatedAt,
	}
}

func (s *timeLogScan) build() (attendance.TimeLog, error) {
	log := s.log
	if s.lunchStart != nil {
		log.LunchBreak = &attendance.Break{Start: *s.lunchStart, End: s.lunchEnd}
	}
	if len(s.coffeeBreaks) > 0 {
		if err := json.Unmarshal(s.coffeeBreaks, &log.CoffeeBreaks); err != nil {
			return attendance.TimeLog{}, fmt.Errorf("failed to decode coffee breaks of time log %s: %w", log.ID, err)
		}
	}
	return log, nil
}

// ListOverlapping implements attendance.TimeLogRepository.
func (r *timeLogRepositoryImpl) ListOverlapping(ctx context.Context, userID string, start, end time.Time) ([]attendance.TimeLog, error) {
	if start.After(end) {
		return nil, attendance.ErrInvalidRange
	}
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + timeLogColumns + `
		FROM time_logs tl
		WHERE tl.user_id = $1
			AND tl.status = $2
			AND tl.time_in <= $4
			AND (tl.time_out IS NULL OR tl.time_out >= $3)
		ORDER BY tl.time_in
	`
	rows, err := q.Query(ctx, query, userID, attendance.TimeLogStatusActive, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list time logs: %w", err)
	}
	defer rows.Close()

	var logs []attendance.TimeLog
	for rows.Next() {
		var s timeLogScan
		if err := rows.Scan(s.dest()...); err != nil {
			return nil, fmt.Errorf("failed to scan time log: %w", err)
		}
		log, err := s.build()
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate time logs: %w", err)
	}
	return logs, nil
}

// ListOpen implements attendance.TimeLogRepository.
func (r *timeLogRepositoryImpl) ListOpen(ctx context.Context) ([]attendance.OpenTimeLog, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + timeLogColumns + `,
			u.company_id,
			sh.user_shift_id,
			sh.assigned_date,
			sh.start_minute,
			sh.end_minute,
			COALESCE(sh.crosses_midnight, FALSE)
		FROM time_logs tl
		JOIN users u ON u.id = tl.user_id
		LEFT JOIN LATERAL (
			SELECT us.id AS user_shift_id,
				us.assigned_date,
				(EXTRACT(EPOCH FROM s.start_time) / 60)::int AS start_minute,
				(EXTRACT(EPOCH FROM s.end_time) / 60)::int AS end_minute,
				s.crosses_midnight
			FROM user_shifts us
			JOIN shifts s ON s.id = us.shift_id
			WHERE us.user_id = tl.user_id
				AND us.assigned_date = (tl.time_in AT TIME ZONE 'UTC')::date
			ORDER BY s.start_time
			LIMIT 1
		) sh ON TRUE
		WHERE tl.time_out IS NULL AND tl.status = $1
		ORDER BY tl.time_in
	`
	rows, err := q.Query(ctx, query, attendance.TimeLogStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list open time logs: %w", err)
	}
	defer rows.Close()

	var open []attendance.OpenTimeLog
	for rows.Next() {
		var (
			s   timeLogScan
			otl attendance.OpenTimeLog
		)
		dest := append(s.dest(),
			&otl.CompanyID,
			&otl.UserShiftID,
			&otl.ShiftDate,
			&otl.ShiftStartMinute,
			&otl.ShiftEndMinute,
			&otl.CrossesMidnight,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan open time log: %w", err)
		}
		log, err := s.build()
		if err != nil {
			return nil, err
		}
		otl.TimeLog = log
		open = append(open, otl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate open time logs: %w", err)
	}
	return open, nil
}

type overtimeRepositoryImpl struct {
	db *database.DB
}

func NewOvertimeRepository(db *database.DB) attendance.OvertimeRepository {
	return &overtimeRepositoryImpl{db: db}
}

// ListByRequester implements attendance.OvertimeRepository.
func (r *overtimeRepositoryImpl) ListByRequester(ctx context.Context, userID string, status attendance.OvertimeStatus, createdFrom, createdTo time.Time) ([]attendance.Overtime, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, time_log_id, requester_id, approver_id,
			requested_hours, late_hours, status, requester_reason, created_at, updated_at
		FROM overtimes
		WHERE requester_id = $1
			AND status = $2
			AND created_at >= $3
			AND created_at <= $4
		ORDER BY created_at
	`
	rows, err := q.Query(ctx, query, userID, status, createdFrom, createdTo)
	if err != nil {
		return nil, fmt.Errorf("failed to list overtimes: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (attendance.Overtime, error) {
		var (
			o    attendance.Overtime
			late decimal.NullDecimal
		)
		err := row.Scan(
			&o.ID, &o.CompanyID, &o.TimeLogID, &o.RequesterID, &o.ApproverID,
			&o.RequestedHours, &late, &o.Status, &o.RequesterReason, &o.CreatedAt, &o.UpdatedAt,
		)
		if err != nil {
			return attendance.Overtime{}, fmt.Errorf("failed to scan overtime: %w", err)
		}
		if late.Valid {
			o.LateHours = &late.Decimal
		}
		return o, nil
	})
}
