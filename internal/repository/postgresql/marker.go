package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

type markerStore struct {
	db *database.DB
}

// NewMarkerStore keeps reminder markers in the reminder_markers table. It is
// used when no Redis instance is configured.
func NewMarkerStore(db *database.DB) notification.MarkerStore {
	return &markerStore{db: db}
}

// Acquire implements notification.MarkerStore. An expired marker is taken over.
func (s *markerStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	q := GetQuerier(ctx, s.db)

	now := time.Now().UTC()
	query := `
		INSERT INTO reminder_markers (key, created_at, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at
		WHERE reminder_markers.expires_at <= EXCLUDED.created_at
	`
	tag, err := q.Exec(ctx, query, key, now, now.Add(ttl))
	if err != nil {
		return false, fmt.Errorf("failed to acquire reminder marker: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Release implements notification.MarkerStore.
func (s *markerStore) Release(ctx context.Context, key string) error {
	q := GetQuerier(ctx, s.db)

	if _, err := q.Exec(ctx, `DELETE FROM reminder_markers WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to release reminder marker: %w", err)
	}
	return nil
}
