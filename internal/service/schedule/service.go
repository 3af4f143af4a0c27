package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
)

type scheduleServiceImpl struct {
	shiftRepo schedule.ShiftRepository
	userRepo  user.UserRepository
}

func NewScheduleService(shiftRepo schedule.ShiftRepository, userRepo user.UserRepository) schedule.ScheduleService {
	return &scheduleServiceImpl{
		shiftRepo: shiftRepo,
		userRepo:  userRepo,
	}
}

// GenerateUpcoming expands every shift schedule that overlaps [today, today+windowDays)
// into user shifts. Assignments that already exist are left alone, so running it again
// creates nothing new.
func (s *scheduleServiceImpl) GenerateUpcoming(ctx context.Context, now time.Time, windowDays int) (int, error) {
	if windowDays <= 0 {
		return 0, fmt.Errorf("window must be positive, got %d days", windowDays)
	}

	y, m, d := now.UTC().Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, windowDays-1)

	schedules, err := s.shiftRepo.ListSchedulesActiveBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to list shift schedules: %w", err)
	}

	// company users are loaded once per company
	companyUsers := make(map[string][]string)
	created := 0
	for _, sched := range schedules {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		days := sched.Occurrences(from, to)
		if len(days) == 0 {
			continue
		}

		userIDs, err := s.assignees(ctx, sched, companyUsers)
		if err != nil {
			return created, err
		}

		for _, day := range days {
			for _, userID := range userIDs {
				ok, err := s.shiftRepo.CreateUserShift(ctx, schedule.UserShift{
					UserID:       userID,
					ShiftID:      sched.ShiftID,
					AssignedDate: day,
				})
				if err != nil {
					return created, fmt.Errorf("failed to create user shift for schedule %s: %w", sched.ID, err)
				}
				if ok {
					created++
				}
			}
		}
	}

	slog.Info("upcoming user shifts generated",
		"from", from.Format(time.DateOnly),
		"to", to.Format(time.DateOnly),
		"schedules", len(schedules),
		"created", created,
	)
	return created, nil
}

func (s *scheduleServiceImpl) assignees(ctx context.Context, sched schedule.ShiftSchedule, cache map[string][]string) ([]string, error) {
	if !sched.AssignedToAll {
		if sched.AssignedUserID == nil || *sched.AssignedUserID == "" {
			return nil, nil
		}
		return []string{*sched.AssignedUserID}, nil
	}

	if ids, ok := cache[sched.CompanyID]; ok {
		return ids, nil
	}
	users, err := s.userRepo.ListActiveByCompany(ctx, sched.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users of company %s: %w", sched.CompanyID, err)
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	cache[sched.CompanyID] = ids
	return ids, nil
}
