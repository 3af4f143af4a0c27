package schedule

import (
	"context"
	"time"
)

type ScheduleService interface {
	// GenerateUpcoming materializes user shifts for the next windowDays days
	GenerateUpcoming(ctx context.Context, now time.Time, windowDays int) (created int, err error)
}
