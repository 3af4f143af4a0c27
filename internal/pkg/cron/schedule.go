package cron

import (
	"context"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/clock"
)

const JobShiftGenerator = "shift_generator"

type ShiftJobs struct {
	scheduleSvc schedule.ScheduleService
	clock       clock.Clock
	windowDays  int
}

func NewShiftJobs(scheduleSvc schedule.ScheduleService, clk clock.Clock, windowDays int) *ShiftJobs {
	if clk == nil {
		clk = clock.New()
	}
	return &ShiftJobs{scheduleSvc: scheduleSvc, clock: clk, windowDays: windowDays}
}

func (j *ShiftJobs) RegisterJobs(scheduler *Scheduler, spec string) error {
	return scheduler.AddJob(JobShiftGenerator, spec, j.GenerateUpcomingShifts)
}

func (j *ShiftJobs) GenerateUpcomingShifts(ctx context.Context) error {
	_, err := j.scheduleSvc.GenerateUpcoming(ctx, j.clock.Now(), j.windowDays)
	return err
}
