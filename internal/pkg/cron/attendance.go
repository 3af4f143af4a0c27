package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/metrics"
)

const (
	JobClockInReminder  = "clock_in_reminder"
	JobClockOutReminder = "clock_out_reminder"

	// A reminder fires when the shift boundary is more than reminderFloor and at most
	// reminderLead away. With a one-minute tick every boundary is seen exactly once.
	reminderLead  = 30 * time.Minute
	reminderFloor = 29 * time.Minute
)

// Notifier queues a single notification.
type Notifier interface {
	QueueNotification(ctx context.Context, req notification.CreateNotificationRequest) error
}

type AttendanceJobs struct {
	shiftRepo   schedule.ShiftRepository
	timeLogRepo attendance.TimeLogRepository
	markers     notification.MarkerStore
	notifier    Notifier
	metrics     *metrics.Metrics
	clock       clock.Clock
	markerTTL   time.Duration
}

func NewAttendanceJobs(
	shiftRepo schedule.ShiftRepository,
	timeLogRepo attendance.TimeLogRepository,
	markers notification.MarkerStore,
	notifier Notifier,
	m *metrics.Metrics,
	clk clock.Clock,
	markerTTL time.Duration,
) *AttendanceJobs {
	if clk == nil {
		clk = clock.New()
	}
	if markerTTL <= 0 {
		markerTTL = 48 * time.Hour
	}
	return &AttendanceJobs{
		shiftRepo:   shiftRepo,
		timeLogRepo: timeLogRepo,
		markers:     markers,
		notifier:    notifier,
		metrics:     m,
		clock:       clk,
		markerTTL:   markerTTL,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, spec string) error {
	if err := scheduler.AddJob(JobClockInReminder, spec, j.ClockInReminders); err != nil {
		return err
	}
	return scheduler.AddJob(JobClockOutReminder, spec, j.ClockOutReminders)
}

func dueForReminder(boundary, now time.Time) bool {
	until := boundary.Sub(now)
	return until > reminderFloor && until <= reminderLead
}

// ClockInReminders notifies users whose shift today starts in about 30 minutes and who
// have not clocked in yet. Each user shift is reminded once.
func (j *AttendanceJobs) ClockInReminders(ctx context.Context) error {
	now := j.clock.Now().UTC()

	shifts, err := j.shiftRepo.ListUserShiftsOn(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list today's user shifts: %w", err)
	}

	sent := 0
	for _, us := range shifts {
		if us.HasActiveLog {
			continue
		}
		start := schedule.At(us.AssignedDate, us.StartMinute)
		if !dueForReminder(start, now) {
			continue
		}

		ok, err := j.markers.Acquire(ctx, "clockin:"+us.ID, j.markerTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire reminder marker: %w", err)
		}
		if !ok {
			continue
		}

		err = j.notifier.QueueNotification(ctx, notification.CreateNotificationRequest{
			CompanyID:   us.CompanyID,
			RecipientID: us.UserID,
			Type:        notification.TypeClockInReminder,
			Title:       "Shift starting soon",
			Message:     fmt.Sprintf("Your shift starts at %s UTC. Remember to clock in.", start.Format("15:04")),
			Data: map[string]interface{}{
				"user_shift_id": us.ID,
				"shift_id":      us.ShiftID,
				"starts_at":     start,
			},
		})
		if err != nil {
			slog.Warn("failed to queue clock-in reminder", "user_shift_id", us.ID, "user_id", us.UserID, "error", err)
			continue
		}
		j.metrics.IncReminder(string(notification.TypeClockInReminder))
		sent++
	}

	if sent > 0 {
		slog.Info("clock-in reminders sent", "count", sent)
	}
	return nil
}

// ClockOutReminders notifies users with an open time log whose shift ends in about 30
// minutes. Shifts crossing midnight end on the day after the shift date.
func (j *AttendanceJobs) ClockOutReminders(ctx context.Context) error {
	now := j.clock.Now().UTC()

	logs, err := j.timeLogRepo.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("failed to list open time logs: %w", err)
	}

	sent := 0
	for _, log := range logs {
		end, ok := shiftEnd(log)
		if !ok || !dueForReminder(end, now) {
			continue
		}

		acquired, err := j.markers.Acquire(ctx, "clockout:"+log.ID, j.markerTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire reminder marker: %w", err)
		}
		if !acquired {
			continue
		}

		err = j.notifier.QueueNotification(ctx, notification.CreateNotificationRequest{
			CompanyID:   log.CompanyID,
			RecipientID: log.UserID,
			Type:        notification.TypeClockOutReminder,
			Title:       "Shift ending soon",
			Message:     fmt.Sprintf("Your shift ends at %s UTC. Remember to clock out.", end.Format("15:04")),
			Data: map[string]interface{}{
				"time_log_id": log.ID,
				"ends_at":     end,
			},
		})
		if err != nil {
			slog.Warn("failed to queue clock-out reminder", "time_log_id", log.ID, "user_id", log.UserID, "error", err)
			continue
		}
		j.metrics.IncReminder(string(notification.TypeClockOutReminder))
		sent++
	}

	if sent > 0 {
		slog.Info("clock-out reminders sent", "count", sent)
	}
	return nil
}

func shiftEnd(log attendance.OpenTimeLog) (time.Time, bool) {
	if log.ShiftDate == nil || log.ShiftEndMinute == nil {
		return time.Time{}, false
	}
	end := schedule.At(*log.ShiftDate, *log.ShiftEndMinute)
	crosses := log.CrossesMidnight
	if log.ShiftStartMinute != nil && *log.ShiftEndMinute <= *log.ShiftStartMinute {
		crosses = true
	}
	if crosses {
		end = end.Add(24 * time.Hour)
	}
	return end, true
}
