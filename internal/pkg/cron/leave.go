package cron

import (
	"context"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/clock"
)

const JobLeaveAccrual = "leave_accrual"

type LeaveJobs struct {
	leaveSvc leave.LeaveService
	clock    clock.Clock
}

func NewLeaveJobs(leaveSvc leave.LeaveService, clk clock.Clock) *LeaveJobs {
	if clk == nil {
		clk = clock.New()
	}
	return &LeaveJobs{leaveSvc: leaveSvc, clock: clk}
}

func (j *LeaveJobs) RegisterJobs(scheduler *Scheduler, spec string) error {
	return scheduler.AddJob(JobLeaveAccrual, spec, j.AccrueMonthly)
}

// AccrueMonthly runs daily; the service only credits on the first of the month.
func (j *LeaveJobs) AccrueMonthly(ctx context.Context) error {
	_, err := j.leaveSvc.RunMonthlyAccrual(ctx, j.clock.Now())
	return err
}
