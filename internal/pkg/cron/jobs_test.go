package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubShiftRepo struct {
	shifts []schedule.UserShiftDetail
	days   []time.Time
}

func (s *stubShiftRepo) ListSchedulesActiveBetween(context.Context, time.Time, time.Time) ([]schedule.ShiftSchedule, error) {
	return nil, nil
}

func (s *stubShiftRepo) CreateUserShift(context.Context, schedule.UserShift) (bool, error) {
	return false, nil
}

func (s *stubShiftRepo) ListUserShiftsOn(_ context.Context, day time.Time) ([]schedule.UserShiftDetail, error) {
	s.days = append(s.days, day)
	return s.shifts, nil
}

type stubTimeLogRepo struct {
	open []attendance.OpenTimeLog
}

func (s *stubTimeLogRepo) ListOverlapping(context.Context, string, time.Time, time.Time) ([]attendance.TimeLog, error) {
	return nil, nil
}

func (s *stubTimeLogRepo) ListOpen(context.Context) ([]attendance.OpenTimeLog, error) {
	return s.open, nil
}

type memMarkers struct {
	mu   sync.Mutex
	keys map[string]time.Duration
}

func (m *memMarkers) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = ttl
	return true, nil
}

func (m *memMarkers) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

type recordingNotifier struct {
	sent []notification.CreateNotificationRequest
}

func (r *recordingNotifier) QueueNotification(_ context.Context, req notification.CreateNotificationRequest) error {
	r.sent = append(r.sent, req)
	return nil
}

func intPtr(i int) *int { return &i }

func timePtr(t time.Time) *time.Time { return &t }

func newAttendanceJobs(shifts *stubShiftRepo, logs *stubTimeLogRepo, now time.Time) (*AttendanceJobs, *recordingNotifier, *clock.FakeClock, *memMarkers) {
	notifier := &recordingNotifier{}
	clk := clock.NewFakeClock(now)
	markers := &memMarkers{keys: map[string]time.Duration{}}
	m := metrics.New(prometheus.NewRegistry(), metrics.Config{ServiceName: "cron-test"})
	return NewAttendanceJobs(shifts, logs, markers, notifier, m, clk, time.Hour), notifier, clk, markers
}

func TestAttendanceJobs_ClockInReminders(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	shifts := &stubShiftRepo{shifts: []schedule.UserShiftDetail{
		{UserShift: schedule.UserShift{ID: "us-due", UserID: "u-1", AssignedDate: day}, CompanyID: "co-1", StartMinute: 9 * 60},
		{UserShift: schedule.UserShift{ID: "us-later", UserID: "u-2", AssignedDate: day}, CompanyID: "co-1", StartMinute: 9*60 + 1},
		{UserShift: schedule.UserShift{ID: "us-clocked", UserID: "u-3", AssignedDate: day}, CompanyID: "co-1", StartMinute: 9 * 60, HasActiveLog: true},
	}}
	jobs, notifier, clk, markers := newAttendanceJobs(shifts, &stubTimeLogRepo{}, time.Date(2024, 1, 2, 8, 30, 0, 0, time.UTC))

	// Act
	require.NoError(t, jobs.ClockInReminders(context.Background()))
	clk.Advance(30 * time.Second)
	require.NoError(t, jobs.ClockInReminders(context.Background()))

	// Assert
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "u-1", notifier.sent[0].RecipientID)
	assert.Equal(t, notification.TypeClockInReminder, notifier.sent[0].Type)
	assert.Equal(t, "us-due", notifier.sent[0].Data["user_shift_id"])
	assert.Equal(t, time.Hour, markers.keys["clockin:us-due"])
	require.NotEmpty(t, shifts.days)
	assert.Equal(t, 2, shifts.days[0].Day())
}

func TestAttendanceJobs_ClockInReminders_Window(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	shift := schedule.UserShiftDetail{UserShift: schedule.UserShift{ID: "us-1", UserID: "u-1", AssignedDate: day}, StartMinute: 9 * 60}

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"thirty one minutes before", time.Date(2024, 1, 2, 8, 29, 0, 0, time.UTC), 0},
		{"exactly thirty minutes before", time.Date(2024, 1, 2, 8, 30, 0, 0, time.UTC), 1},
		{"twenty nine and a half minutes before", time.Date(2024, 1, 2, 8, 30, 30, 0, time.UTC), 1},
		{"exactly twenty nine minutes before", time.Date(2024, 1, 2, 8, 31, 0, 0, time.UTC), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs, notifier, _, _ := newAttendanceJobs(&stubShiftRepo{shifts: []schedule.UserShiftDetail{shift}}, &stubTimeLogRepo{}, tt.now)
			require.NoError(t, jobs.ClockInReminders(context.Background()))
			assert.Len(t, notifier.sent, tt.want)
		})
	}
}

func TestAttendanceJobs_ClockOutReminders(t *testing.T) {
	logs := &stubTimeLogRepo{open: []attendance.OpenTimeLog{
		{
			// night shift 22:00-06:00 that started on Jan 1
			TimeLog:          attendance.TimeLog{ID: "tl-night", UserID: "u-1"},
			CompanyID:        "co-1",
			ShiftDate:        timePtr(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			ShiftStartMinute: intPtr(22 * 60),
			ShiftEndMinute:   intPtr(6 * 60),
		},
		{
			TimeLog:          attendance.TimeLog{ID: "tl-day", UserID: "u-2"},
			CompanyID:        "co-1",
			ShiftDate:        timePtr(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
			ShiftStartMinute: intPtr(9 * 60),
			ShiftEndMinute:   intPtr(17 * 60),
		},
		{
			TimeLog:   attendance.TimeLog{ID: "tl-unscheduled", UserID: "u-3"},
			CompanyID: "co-1",
		},
	}}
	jobs, notifier, _, markers := newAttendanceJobs(&stubShiftRepo{}, logs, time.Date(2024, 1, 2, 5, 30, 0, 0, time.UTC))

	require.NoError(t, jobs.ClockOutReminders(context.Background()))
	require.NoError(t, jobs.ClockOutReminders(context.Background()))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "u-1", notifier.sent[0].RecipientID)
	assert.Equal(t, notification.TypeClockOutReminder, notifier.sent[0].Type)
	assert.Contains(t, markers.keys, "clockout:tl-night")
}

func TestShiftEnd_CrossesMidnightFlag(t *testing.T) {
	log := attendance.OpenTimeLog{
		ShiftDate:       timePtr(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		ShiftEndMinute:  intPtr(30),
		CrossesMidnight: true,
	}

	end, ok := shiftEnd(log)

	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 30, 0, 0, time.UTC), end)
}

type stubScheduleService struct {
	now    time.Time
	window int
}

func (s *stubScheduleService) GenerateUpcoming(_ context.Context, now time.Time, windowDays int) (int, error) {
	s.now, s.window = now, windowDays
	return 3, nil
}

type stubLeaveService struct {
	calls int
	err   error
}

func (s *stubLeaveService) DebitBalance(context.Context, string, string, decimal.Decimal) (leave.Balance, error) {
	return leave.Balance{}, nil
}

func (s *stubLeaveService) RunMonthlyAccrual(_ context.Context, now time.Time) (leave.AccrualSummary, error) {
	s.calls++
	return leave.AccrualSummary{Month: now.Format("2006-01")}, s.err
}

func TestScheduler_RegisterAndRunOnce(t *testing.T) {
	now := time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(now)
	scheduleSvc := &stubScheduleService{}
	leaveSvc := &stubLeaveService{err: errors.New("balances unavailable")}
	scheduler := NewScheduler(metrics.New(prometheus.NewRegistry(), metrics.Config{}))

	require.NoError(t, NewShiftJobs(scheduleSvc, clk, 30).RegisterJobs(scheduler, "0 1 * * *"))
	require.NoError(t, NewLeaveJobs(leaveSvc, clk).RegisterJobs(scheduler, "0 2 * * *"))

	err := scheduler.RunOnce(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), JobLeaveAccrual)
	assert.Equal(t, now, scheduleSvc.now)
	assert.Equal(t, 30, scheduleSvc.window)
	assert.Equal(t, 1, leaveSvc.calls)
	assert.Len(t, scheduler.Jobs(), 2)
}

func TestScheduler_RejectsInvalidSpec(t *testing.T) {
	scheduler := NewScheduler(nil)

	err := scheduler.AddJob("broken", "every minute", func(context.Context) error { return nil })

	assert.Error(t, err)
	assert.Empty(t, scheduler.Jobs())
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler := NewScheduler(nil)
	require.NoError(t, scheduler.AddJob("noop", "* * * * *", func(context.Context) error { return nil }))

	scheduler.Start()
	scheduler.Stop()
}
