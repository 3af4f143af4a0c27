package attendance

import (
	"context"
	"time"
)

// TimeLogRepository defines read access to punch records.
type TimeLogRepository interface {
	// ListOverlapping returns active logs with time_in <= end and (time_out IS NULL OR time_out >= start).
	ListOverlapping(ctx context.Context, userID string, start, end time.Time) ([]TimeLog, error)

	// ListOpen returns every active log without a clock-out, joined with the user's shift for that day
	ListOpen(ctx context.Context) ([]OpenTimeLog, error)
}

// OvertimeRepository defines read access to overtime requests.
type OvertimeRepository interface {
	ListByRequester(ctx context.Context, userID string, status OvertimeStatus, createdFrom, createdTo time.Time) ([]Overtime, error)
}
