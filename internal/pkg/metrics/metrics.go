package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	EntryResultComputed = "computed"
	EntryResultSkipped  = "skipped"
	EntryResultFailed   = "failed"
)

const (
	JobResultSuccess = "success"
	JobResultError   = "error"
)

// Config labels every series with the running service and environment.
type Config struct {
	ServiceName string
	Environment string
}

// Metrics holds the payroll and background job collectors. A nil *Metrics is a no-op.
type Metrics struct {
	entriesComputed *prometheus.CounterVec
	calcDuration    *prometheus.HistogramVec
	runsFinalized   prometheus.Counter
	jobRuns         *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	remindersSent   *prometheus.CounterVec
}

// New creates the collectors and registers them with registerer
// (prometheus.DefaultRegisterer when nil).
func New(registerer prometheus.Registerer, cfg Config) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "hris-payroll"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &Metrics{
		entriesComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "payroll_entries_total",
			Help:        "Payroll entries processed by calculation result.",
			ConstLabels: constLabels,
		}, []string{"result"}),
		calcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "payroll_calculation_duration_seconds",
			Help:        "Latency of payroll calculation requests.",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			ConstLabels: constLabels,
		}, []string{"scope"}),
		runsFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "payroll_runs_finalized_total",
			Help:        "Payroll runs moved to finalized.",
			ConstLabels: constLabels,
		}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "cron_job_runs_total",
			Help:        "Background job runs by name and result.",
			ConstLabels: constLabels,
		}, []string{"job", "result"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "cron_job_duration_seconds",
			Help:        "Background job latency.",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			ConstLabels: constLabels,
		}, []string{"job"}),
		remindersSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "attendance_reminders_sent_total",
			Help:        "Clock-in and clock-out reminders queued.",
			ConstLabels: constLabels,
		}, []string{"type"}),
	}

	registerer.MustRegister(
		m.entriesComputed,
		m.calcDuration,
		m.runsFinalized,
		m.jobRuns,
		m.jobDuration,
		m.remindersSent,
	)
	return m
}

func (m *Metrics) AddEntries(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.entriesComputed.WithLabelValues(result).Add(float64(n))
}

// ObserveCalculation records a calculation that started at start. scope is "user" or "company".
func (m *Metrics) ObserveCalculation(scope string, start time.Time) {
	if m == nil {
		return
	}
	m.calcDuration.WithLabelValues(scope).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncRunsFinalized() {
	if m == nil {
		return
	}
	m.runsFinalized.Inc()
}

func (m *Metrics) ObserveJob(job string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := JobResultSuccess
	if err != nil {
		result = JobResultError
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
	m.jobDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncReminder(kind string) {
	if m == nil {
		return
	}
	m.remindersSent.WithLabelValues(kind).Inc()
}
