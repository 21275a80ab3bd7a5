// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the background scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetSchedulingPassInterval() time.Duration
	GetSchedulingWorkerCount() int
}

// CacheConfig provides settings for the redis-backed counts cache.
type CacheConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetCacheTTL() time.Duration
	IsCacheEnabled() bool
}

// BusinessCalendarConfig provides the working calendar used for
// business-hours computations (stage timers, SLA checks).
type BusinessCalendarConfig interface {
	GetWorkingDays() []time.Weekday
	GetWorkDayStart() string // "HH:MM"
	GetWorkDayEnd() string   // "HH:MM"
	GetHolidays() []string   // "YYYY-MM-DD"
}

// Config holds all application configuration loaded from the environment.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	JWTAccessSecret string

	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	SchedulingPassInterval time.Duration
	SchedulingWorkerCount  int

	CacheEnabled bool
	CacheTTL     time.Duration

	WorkingDays  []time.Weekday
	WorkDayStart string
	WorkDayEnd   string
	Holidays     []string
}

// DatabaseConfig
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig
func (c *Config) GetRedisURL() string                      { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool                { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string                { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int                 { return c.AsynqConcurrency }
func (c *Config) GetSchedulingPassInterval() time.Duration { return c.SchedulingPassInterval }
func (c *Config) GetSchedulingWorkerCount() int            { return c.SchedulingWorkerCount }

// CacheConfig
func (c *Config) GetCacheTTL() time.Duration { return c.CacheTTL }
func (c *Config) IsCacheEnabled() bool       { return c.CacheEnabled && c.RedisURL != "" }

// BusinessCalendarConfig
func (c *Config) GetWorkingDays() []time.Weekday { return c.WorkingDays }
func (c *Config) GetWorkDayStart() string        { return c.WorkDayStart }
func (c *Config) GetWorkDayEnd() string          { return c.WorkDayEnd }
func (c *Config) GetHolidays() []string          { return c.Holidays }

// Load reads configuration from the environment, applying defaults and
// validating required settings.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	workingDays, err := parseWorkingDays(getEnv("BUSINESS_WORKING_DAYS", "Mon,Tue,Wed,Thu,Fri"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		JWTAccessSecret:        getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:           corsAllowAll,
		CORSOrigins:            corsOrigins,
		CORSAllowCreds:         strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:               getEnv("REDIS_URL", ""),
		RedisTLSInsecure:       strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:         getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:       mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		SchedulingPassInterval: mustDuration(getEnv("SCHEDULING_PASS_INTERVAL", "24h")),
		SchedulingWorkerCount:  mustInt(getEnv("SCHEDULING_WORKER_COUNT", "4")),
		CacheEnabled:           strings.EqualFold(getEnv("CACHE_ENABLED", "true"), "true"),
		CacheTTL:               mustDuration(getEnv("CACHE_TTL", "10m")),
		WorkingDays:            workingDays,
		WorkDayStart:           getEnv("BUSINESS_DAY_START", "09:00"),
		WorkDayEnd:             getEnv("BUSINESS_DAY_END", "17:30"),
		Holidays:               splitCSV(getEnv("BUSINESS_HOLIDAYS", "")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.SchedulingPassInterval <= 0 {
		return nil, fmt.Errorf("SCHEDULING_PASS_INTERVAL must be a positive duration")
	}
	if cfg.SchedulingWorkerCount < 1 {
		cfg.SchedulingWorkerCount = 1
	}
	for _, value := range []string{cfg.WorkDayStart, cfg.WorkDayEnd} {
		if _, err := time.Parse("15:04", value); err != nil {
			return nil, fmt.Errorf("invalid business day boundary %q: %w", value, err)
		}
	}
	for _, day := range cfg.Holidays {
		if _, err := time.Parse("2006-01-02", day); err != nil {
			return nil, fmt.Errorf("invalid holiday date %q: %w", day, err)
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

func parseWorkingDays(value string) ([]time.Weekday, error) {
	parts := splitCSV(value)
	if len(parts) == 0 {
		return nil, fmt.Errorf("BUSINESS_WORKING_DAYS must name at least one day")
	}

	days := make([]time.Weekday, 0, len(parts))
	seen := make(map[time.Weekday]bool, len(parts))
	for _, part := range parts {
		key := strings.ToLower(part)
		if len(key) > 3 {
			key = key[:3]
		}
		day, ok := weekdayNames[key]
		if !ok {
			return nil, fmt.Errorf("unknown working day %q", part)
		}
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}

	return days, nil
}
