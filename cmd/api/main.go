package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/schedule"
	appHTTP "github.com/cmlabs-hris/hris-payroll-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/postgresql"
	redisRepo "github.com/cmlabs-hris/hris-payroll-go/internal/repository/redis"
	leaveService "github.com/cmlabs-hris/hris-payroll-go/internal/service/leave"
	notificationService "github.com/cmlabs-hris/hris-payroll-go/internal/service/notification"
	payrollService "github.com/cmlabs-hris/hris-payroll-go/internal/service/payroll"
	scheduleService "github.com/cmlabs-hris/hris-payroll-go/internal/service/schedule"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	appName    = "hris-payroll"
	appVersion = "v1.0.0"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})).With(slog.String("app", appName), slog.String("env", cfg.App.Env)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	var markers notification.MarkerStore
	if cfg.Redis.URL != "" {
		client, err := redisRepo.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		markers = redisRepo.NewMarkerStore(client)
		slog.Info("reminder markers stored in redis")
	} else {
		markers = postgresql.NewMarkerStore(db)
		slog.Info("reminder markers stored in postgresql")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry, metrics.Config{ServiceName: appName, Environment: cfg.App.Env})
	clk := clock.New()

	// Repositories
	userRepo := postgresql.NewUserRepository(db)
	companyRepo := postgresql.NewCompanyRepository(db)
	timeLogRepo := postgresql.NewTimeLogRepository(db)
	shiftRepo := postgresql.NewShiftRepository(db)
	leavePolicyRepo := postgresql.NewLeavePolicyRepository(db)
	leaveBalanceRepo := postgresql.NewLeaveBalanceRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)
	payrollRepos := payrollService.Repositories{
		Companies: companyRepo,
		Users:     userRepo,
		Rates:     postgresql.NewPayrollRateRepository(db),
		Schedules: postgresql.NewPayScheduleRepository(db),
		Runs:      postgresql.NewPayrollRunRepository(db),
		Entries:   postgresql.NewPayrollEntryRepository(db),
		Brackets:  postgresql.NewBracketRepository(db),
		TimeLogs:  timeLogRepo,
		Overtimes: postgresql.NewOvertimeRepository(db),
		Leaves:    postgresql.NewLeaveRequestRepository(db),
		Holidays:  postgresql.NewHolidayRepository(db),
	}

	// Services
	hub := sse.NewHub(0)
	notifSvc := notificationService.NewNotificationService(notificationRepo, hub, clk, notificationService.Config{})
	payrollSvc := payrollService.NewPayrollService(
		payrollRepos,
		postgresql.NewTransactor(db),
		notifSvc,
		appMetrics,
		clk,
		payrollService.PolicyFromConfig(cfg.Payroll),
	)
	leaveSvc := leaveService.NewLeaveService(leavePolicyRepo, leaveBalanceRepo, userRepo, companyRepo, markers, cfg.Payroll.DefaultShiftHours)
	scheduleSvc := scheduleService.NewScheduleService(shiftRepo, userRepo)
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	// Background jobs
	scheduler := cron.NewScheduler(appMetrics)
	if cfg.Cron.Enabled {
		if err := registerJobs(cfg.Cron, scheduler, scheduleSvc, leaveSvc, shiftRepo, timeLogRepo, markers, notifSvc, appMetrics, clk); err != nil {
			return fmt.Errorf("register cron jobs: %w", err)
		}
		scheduler.Start()
	}

	// HTTP
	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			AppName:        appName,
			Version:        appVersion,
			Env:            cfg.App.Env,
			LogLevel:       cfg.SlogLevel(),
			AllowedOrigins: cfg.App.AllowedOrigins,
		},
		JWTService,
		appHTTP.NewPayrollHandler(payrollSvc),
		appHTTP.NewNotificationHandler(notifSvc, JWTService),
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		db,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Close SSE streams first so Shutdown does not wait on them
	hub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
	if cfg.Cron.Enabled {
		scheduler.Stop()
	}
	notifSvc.Stop()

	slog.Info("server stopped")
	return nil
}

func registerJobs(
	cfg config.CronConfig,
	scheduler *cron.Scheduler,
	scheduleSvc schedule.ScheduleService,
	leaveSvc leave.LeaveService,
	shiftRepo schedule.ShiftRepository,
	timeLogRepo attendance.TimeLogRepository,
	markers notification.MarkerStore,
	notifier cron.Notifier,
	m *metrics.Metrics,
	clk clock.Clock,
) error {
	if err := cron.NewShiftJobs(scheduleSvc, clk, cfg.ShiftWindowDays).RegisterJobs(scheduler, cfg.ShiftGeneratorSpec); err != nil {
		return err
	}
	if err := cron.NewAttendanceJobs(shiftRepo, timeLogRepo, markers, notifier, m, clk, cfg.MarkerTTL).RegisterJobs(scheduler, cfg.ReminderSpec); err != nil {
		return err
	}
	return cron.NewLeaveJobs(leaveSvc, clk).RegisterJobs(scheduler, cfg.LeaveAccrualSpec)
}
