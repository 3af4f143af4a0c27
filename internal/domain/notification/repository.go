package notification

import (
	"context"
	"time"
)

// Repository defines the notification repository interface
type Repository interface {
	Create(ctx context.Context, notification *Notification) error
	CreateBatch(ctx context.Context, notifications []*Notification) error
	GetByUserID(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) ([]*Notification, int, error)
	GetUnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, ids []string, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) error
}

// MarkerStore records one-shot markers so a reminder is sent at most once per key.
type MarkerStore interface {
	// Acquire stores key with the given ttl and reports whether this call created it
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release removes key so a later Acquire can take it again
	Release(ctx context.Context, key string) error
}
