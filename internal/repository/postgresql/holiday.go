package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/master/holiday"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type holidayRepositoryImpl struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) holiday.HolidayRepository {
	return &holidayRepositoryImpl{db: db}
}

// ListBetween implements holiday.HolidayRepository.
func (r *holidayRepositoryImpl) ListBetween(ctx context.Context, companyID string, start, end time.Time) ([]holiday.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, name, date, type, created_at
		FROM holidays
		WHERE company_id = $1
			AND date >= ($2::timestamptz AT TIME ZONE 'UTC')::date
			AND date <= ($3::timestamptz AT TIME ZONE 'UTC')::date
		ORDER BY date
	`
	rows, err := q.Query(ctx, query, companyID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (holiday.Holiday, error) {
		var h holiday.Holiday
		if err := row.Scan(&h.ID, &h.CompanyID, &h.Name, &h.Date, &h.Type, &h.CreatedAt); err != nil {
			return holiday.Holiday{}, fmt.Errorf("failed to scan holiday: %w", err)
		}
		return h, nil
	})
}
