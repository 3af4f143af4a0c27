package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type shiftRepositoryImpl struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) schedule.ShiftRepository {
	return &shiftRepositoryImpl{db: db}
}

// ListSchedulesActiveBetween implements schedule.ShiftRepository.
func (r *shiftRepositoryImpl) ListSchedulesActiveBetween(ctx context.Context, from, to time.Time) ([]schedule.ShiftSchedule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, shift_id, recurrence_pattern, start_date, end_date,
			assigned_to_all, assigned_user_id, created_at
		FROM shift_schedules
		WHERE start_date <= $2::date
			AND (end_date IS NULL OR end_date >= $1::date)
		ORDER BY company_id, created_at
	`
	rows, err := q.Query(ctx, query, from.UTC().Format(time.DateOnly), to.UTC().Format(time.DateOnly))
	if err != nil {
		return nil, fmt.Errorf("failed to list shift schedules: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (schedule.ShiftSchedule, error) {
		var s schedule.ShiftSchedule
		err := row.Scan(
			&s.ID, &s.CompanyID, &s.ShiftID, &s.RecurrencePattern, &s.StartDate, &s.EndDate,
			&s.AssignedToAll, &s.AssignedUserID, &s.CreatedAt,
		)
		if err != nil {
			return schedule.ShiftSchedule{}, fmt.Errorf("failed to scan shift schedule: %w", err)
		}
		return s, nil
	})
}

// CreateUserShift implements schedule.ShiftRepository.
func (r *shiftRepositoryImpl) CreateUserShift(ctx context.Context, us schedule.UserShift) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO user_shifts (user_id, shift_id, assigned_date)
		VALUES ($1, $2, $3::date)
		ON CONFLICT (user_id, shift_id, assigned_date) DO NOTHING
	`
	tag, err := q.Exec(ctx, query, us.UserID, us.ShiftID, us.AssignedDate.UTC().Format(time.DateOnly))
	if err != nil {
		return false, fmt.Errorf("failed to create user shift: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListUserShiftsOn implements schedule.ShiftRepository.
func (r *shiftRepositoryImpl) ListUserShiftsOn(ctx context.Context, day time.Time) ([]schedule.UserShiftDetail, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT us.id, us.user_id, us.shift_id, us.assigned_date, us.created_at,
			s.company_id,
			(EXTRACT(EPOCH FROM s.start_time) / 60)::int,
			(EXTRACT(EPOCH FROM s.end_time) / 60)::int,
			EXISTS (
				SELECT 1 FROM time_logs tl
				WHERE tl.user_id = us.user_id
					AND tl.time_out IS NULL
					AND tl.status = $2
			)
		FROM user_shifts us
		JOIN shifts s ON s.id = us.shift_id
		JOIN users u ON u.id = us.user_id
		WHERE us.assigned_date = $1::date AND u.status = 'active'
		ORDER BY s.start_time, us.user_id
	`
	rows, err := q.Query(ctx, query, day.UTC().Format(time.DateOnly), attendance.TimeLogStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list user shifts: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (schedule.UserShiftDetail, error) {
		var d schedule.UserShiftDetail
		err := row.Scan(
			&d.ID, &d.UserID, &d.ShiftID, &d.AssignedDate, &d.CreatedAt,
			&d.CompanyID, &d.StartMinute, &d.EndMinute, &d.HasActiveLog,
		)
		if err != nil {
			return schedule.UserShiftDetail{}, fmt.Errorf("failed to scan user shift: %w", err)
		}
		return d, nil
	})
}
