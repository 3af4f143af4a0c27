package schedule

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memShiftRepo struct {
	schedules  []schedule.ShiftSchedule
	userShifts map[string]schedule.UserShift
}

func newMemShiftRepo(schedules ...schedule.ShiftSchedule) *memShiftRepo {
	return &memShiftRepo{schedules: schedules, userShifts: map[string]schedule.UserShift{}}
}

func (r *memShiftRepo) ListSchedulesActiveBetween(_ context.Context, from, to time.Time) ([]schedule.ShiftSchedule, error) {
	var out []schedule.ShiftSchedule
	for _, s := range r.schedules {
		if s.StartDate.After(to) {
			continue
		}
		if s.EndDate != nil && s.EndDate.Before(from) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *memShiftRepo) CreateUserShift(_ context.Context, us schedule.UserShift) (bool, error) {
	key := fmt.Sprintf("%s/%s/%s", us.UserID, us.ShiftID, us.AssignedDate.Format(time.DateOnly))
	if _, ok := r.userShifts[key]; ok {
		return false, nil
	}
	r.userShifts[key] = us
	return true, nil
}

func (r *memShiftRepo) ListUserShiftsOn(_ context.Context, _ time.Time) ([]schedule.UserShiftDetail, error) {
	return nil, nil
}

func (r *memShiftRepo) has(userID, shiftID, day string) bool {
	_, ok := r.userShifts[userID+"/"+shiftID+"/"+day]
	return ok
}

type memUsers struct {
	users []user.User
	calls int
}

func (m *memUsers) GetByID(_ context.Context, id string) (user.User, error) {
	return user.User{}, user.ErrUserNotFound
}

func (m *memUsers) GetByIDInCompany(_ context.Context, id, companyID string) (user.User, error) {
	return user.User{}, user.ErrUserNotFound
}

func (m *memUsers) ListActiveByCompany(_ context.Context, companyID string) ([]user.User, error) {
	m.calls++
	var out []user.User
	for _, u := range m.users {
		if u.CompanyID == companyID && u.IsActive() {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) GetEmploymentDetail(_ context.Context, _ string) (user.EmploymentDetail, error) {
	return user.EmploymentDetail{}, user.ErrEmploymentDetailNotFound
}

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestShiftSchedule_Occurrences(t *testing.T) {
	end := date("2024-01-10")
	sched := schedule.ShiftSchedule{
		RecurrencePattern: "FREQ=WEEKLY;BYDAY=MO,WE,fr",
		StartDate:         date("2024-01-03"),
		EndDate:           &end,
	}

	days := sched.Occurrences(date("2024-01-01"), date("2024-01-31"))

	var got []string
	for _, d := range days {
		got = append(got, d.Format(time.DateOnly))
	}
	assert.Equal(t, []string{"2024-01-03", "2024-01-05", "2024-01-08", "2024-01-10"}, got)
}

func TestScheduleService_GenerateUpcoming_AssignedToAll(t *testing.T) {
	repo := newMemShiftRepo(schedule.ShiftSchedule{
		ID:                "sched-1",
		CompanyID:         "co-1",
		ShiftID:           "morning",
		RecurrencePattern: "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR",
		StartDate:         date("2023-12-01"),
		AssignedToAll:     true,
	})
	users := &memUsers{users: []user.User{
		{ID: "u-1", CompanyID: "co-1", Status: user.StatusActive},
		{ID: "u-2", CompanyID: "co-1", Status: user.StatusActive},
		{ID: "u-3", CompanyID: "co-1", Status: user.StatusInactive},
		{ID: "u-4", CompanyID: "co-2", Status: user.StatusActive},
	}}
	svc := NewScheduleService(repo, users)
	now := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC) // a Monday

	// Act
	created, err := svc.GenerateUpcoming(context.Background(), now, 7)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 10, created)
	assert.True(t, repo.has("u-1", "morning", "2024-01-01"))
	assert.True(t, repo.has("u-2", "morning", "2024-01-05"))
	assert.False(t, repo.has("u-1", "morning", "2024-01-06"))
	assert.False(t, repo.has("u-3", "morning", "2024-01-01"))
	assert.False(t, repo.has("u-4", "morning", "2024-01-01"))
}

func TestScheduleService_GenerateUpcoming_IsIdempotent(t *testing.T) {
	assigned := "u-9"
	repo := newMemShiftRepo(schedule.ShiftSchedule{
		ID:                "sched-2",
		CompanyID:         "co-1",
		ShiftID:           "night",
		RecurrencePattern: "FREQ=WEEKLY;BYDAY=SA,SU",
		StartDate:         date("2024-01-01"),
		AssignedUserID:    &assigned,
	})
	svc := NewScheduleService(repo, &memUsers{})
	now := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)

	first, err := svc.GenerateUpcoming(context.Background(), now, 30)
	require.NoError(t, err)
	second, err := svc.GenerateUpcoming(context.Background(), now.Add(24*time.Hour), 30)
	require.NoError(t, err)

	assert.Equal(t, 8, first)
	// the window moved one day, adding nothing new until it reaches another weekend
	assert.Equal(t, 0, second)
	assert.Len(t, repo.userShifts, 8)
}

func TestScheduleService_GenerateUpcoming_SkipsUnassigned(t *testing.T) {
	repo := newMemShiftRepo(schedule.ShiftSchedule{
		ID:                "sched-3",
		CompanyID:         "co-1",
		ShiftID:           "morning",
		RecurrencePattern: "FREQ=WEEKLY;BYDAY=MO",
		StartDate:         date("2024-01-01"),
	})
	users := &memUsers{}
	svc := NewScheduleService(repo, users)

	created, err := svc.GenerateUpcoming(context.Background(), date("2024-01-01"), 30)

	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, 0, users.calls)
}

func TestScheduleService_GenerateUpcoming_InvalidWindow(t *testing.T) {
	svc := NewScheduleService(newMemShiftRepo(), &memUsers{})

	_, err := svc.GenerateUpcoming(context.Background(), date("2024-01-01"), 0)

	assert.Error(t, err)
}
