package holiday

import (
	"context"
	"time"
)

type HolidayRepository interface {
	// ListBetween returns company holidays whose date falls within [start, end]
	ListBetween(ctx context.Context, companyID string, start, end time.Time) ([]Holiday, error)
}
