package notification

import (
	"time"
)

// NotificationType is also the SSE event name pushed to subscribers
type NotificationType string

const (
	TypeClockInReminder  NotificationType = "clockInReminder"
	TypeClockOutReminder NotificationType = "clockOutReminder"
	TypePayrollFinalized NotificationType = "payrollFinalized"
)

// AllNotificationTypes returns all available notification types
func AllNotificationTypes() []NotificationType {
	return []NotificationType{
		TypeClockInReminder,
		TypeClockOutReminder,
		TypePayrollFinalized,
	}
}

// Notification represents a notification entity
type Notification struct {
	ID          string
	CompanyID   string
	RecipientID string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}
