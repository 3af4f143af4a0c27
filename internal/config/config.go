package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Redis    RedisConfig
	Payroll  PayrollConfig
	Cron     CronConfig
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int32
	MinConns    int32
	AutoMigrate bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	FrontendURL    string
	AllowedOrigins []string
}

// RedisConfig is optional. When URL is empty reminder dedupe markers are kept in PostgreSQL.
type RedisConfig struct {
	URL string
}

// PayrollConfig holds the policy constants used by the payroll calculator.
type PayrollConfig struct {
	Currency                 string
	OvertimeMultiplier       decimal.Decimal
	HolidayRegularMultiplier decimal.Decimal
	HolidayDoubleMultiplier  decimal.Decimal
	HolidaySpecialMultiplier decimal.Decimal
	WorkingDaysPerMonth      int
	DefaultShiftHours        decimal.Decimal
}

// CronConfig holds the schedules of the background jobs. Specs use the
// standard five-field cron syntax.
type CronConfig struct {
	Enabled            bool
	ShiftGeneratorSpec string
	ReminderSpec       string
	LeaveAccrualSpec   string
	ShiftWindowDays    int
	MarkerTTL          time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded, using process environment", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:        getEnv("DB_HOST", "localhost"),
		Port:        dbPort,
		User:        getEnv("DB_USER", "postgres"),
		Password:    getEnv("DB_PASSWORD", ""),
		Name:        getEnv("DB_NAME", "cmlabs-hris"),
		SSLMode:     getEnv("DB_SSL_MODE", "disable"),
		MaxConns:    int32(maxConns),
		MinConns:    int32(minConns),
		AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	frontendURL := getEnv("FRONTEND_URL", "http://localhost:3000")
	origins := getEnvSlice("CORS_ALLOWED_ORIGINS")
	if len(origins) == 0 {
		origins = []string{frontendURL}
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		FrontendURL:    frontendURL,
		AllowedOrigins: origins,
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	config.Redis = RedisConfig{
		URL: getEnv("REDIS_URL", ""),
	}

	// Payroll configuration
	workingDays, err := strconv.Atoi(getEnv("PAYROLL_WORKING_DAYS_PER_MONTH", "22"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_WORKING_DAYS_PER_MONTH: %w", err)
	}
	config.Payroll = PayrollConfig{
		Currency:            getEnv("PAYROLL_CURRENCY", "USD"),
		WorkingDaysPerMonth: workingDays,
	}
	decimals := []struct {
		key      string
		fallback string
		dst      *decimal.Decimal
	}{
		{"PAYROLL_OVERTIME_MULTIPLIER", "1.25", &config.Payroll.OvertimeMultiplier},
		{"PAYROLL_HOLIDAY_REGULAR_MULTIPLIER", "1.0", &config.Payroll.HolidayRegularMultiplier},
		{"PAYROLL_HOLIDAY_DOUBLE_MULTIPLIER", "2.0", &config.Payroll.HolidayDoubleMultiplier},
		{"PAYROLL_HOLIDAY_SPECIAL_MULTIPLIER", "0.3", &config.Payroll.HolidaySpecialMultiplier},
		{"PAYROLL_DEFAULT_SHIFT_HOURS", "8", &config.Payroll.DefaultShiftHours},
	}
	for _, d := range decimals {
		v, err := decimal.NewFromString(getEnv(d.key, d.fallback))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}

	// Cron configuration
	windowDays, err := strconv.Atoi(getEnv("CRON_SHIFT_WINDOW_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRON_SHIFT_WINDOW_DAYS: %w", err)
	}
	markerTTL, err := time.ParseDuration(getEnv("CRON_MARKER_TTL", "48h"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRON_MARKER_TTL: %w", err)
	}
	config.Cron = CronConfig{
		Enabled:            getEnvBool("CRON_ENABLED", true),
		ShiftGeneratorSpec: getEnv("CRON_SHIFT_GENERATOR_SPEC", "0 1 * * *"),
		ReminderSpec:       getEnv("CRON_REMINDER_SPEC", "* * * * *"),
		LeaveAccrualSpec:   getEnv("CRON_LEAVE_ACCRUAL_SPEC", "0 2 * * *"),
		ShiftWindowDays:    windowDays,
		MarkerTTL:          markerTTL,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS must not exceed DB_MAX_CONNS")
	}
	if c.Payroll.OvertimeMultiplier.LessThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("PAYROLL_OVERTIME_MULTIPLIER must be at least 1")
	}
	for name, m := range map[string]decimal.Decimal{
		"PAYROLL_HOLIDAY_REGULAR_MULTIPLIER": c.Payroll.HolidayRegularMultiplier,
		"PAYROLL_HOLIDAY_DOUBLE_MULTIPLIER":  c.Payroll.HolidayDoubleMultiplier,
		"PAYROLL_HOLIDAY_SPECIAL_MULTIPLIER": c.Payroll.HolidaySpecialMultiplier,
	} {
		if m.IsNegative() {
			return fmt.Errorf("%s must be non-negative", name)
		}
	}
	if c.Payroll.WorkingDaysPerMonth <= 0 {
		return fmt.Errorf("PAYROLL_WORKING_DAYS_PER_MONTH must be positive")
	}
	if !c.Payroll.DefaultShiftHours.IsPositive() {
		return fmt.Errorf("PAYROLL_DEFAULT_SHIFT_HOURS must be positive")
	}
	if c.Cron.ShiftWindowDays <= 0 {
		return fmt.Errorf("CRON_SHIFT_WINDOW_DAYS must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
