// Package config loads application configuration from the environment.
// A local .env file is honored in development; real environments set
// variables directly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Oracle    OracleConfig
	Scheduler SchedulerConfig
	HTTP      HTTPConfig
	Log       LogConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name            string
	Environment     Environment
	Version         string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// URL takes precedence; individual components are a fallback.
	URL string

	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// RunMigrations applies pending schema migrations at startup.
	RunMigrations bool
}

// DSN returns the connection string.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Disabled runs the engine without a cache; boards are always read
	// from PostgreSQL.
	Disabled bool
}

// Addr returns the host:port address.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// OracleConfig holds scoring service settings.
type OracleConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration

	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	BreakerThreshold int
	BreakerTimeout   time.Duration
}

// SchedulerConfig holds background job settings.
type SchedulerConfig struct {
	Enabled             bool
	WarmBoardsInterval  time.Duration
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxBodyBytes int64
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// Load reads configuration from the environment, preferring a .env file
// when one exists.
func Load() (*Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	cfg := &Config{
		App:       loadAppConfig(),
		Database:  loadDatabaseConfig(),
		Redis:     loadRedisConfig(),
		Oracle:    loadOracleConfig(),
		Scheduler: loadSchedulerConfig(),
		HTTP:      loadHTTPConfig(),
		Log:       LogConfig{Level: getEnv("LOG_LEVEL", "info")},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func loadAppConfig() AppConfig {
	return AppConfig{
		Name:            getEnv("APP_NAME", "progress-engine"),
		Environment:     Environment(getEnv("APP_ENV", "development")),
		Version:         getEnv("APP_VERSION", "0.1.0"),
		ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:             getEnv("DATABASE_URL", ""),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		Name:            getEnv("DB_NAME", "progress"),
		SSLMode:         getEnv("DB_SSLMODE", "prefer"),
		MaxConns:        getEnvInt("DB_MAX_CONNS", 25),
		MinConns:        getEnvInt("DB_MIN_CONNS", 2),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", time.Minute),
		RunMigrations:   getEnvBool("DB_RUN_MIGRATIONS", true),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Host:         getEnv("REDIS_HOST", "localhost"),
		Port:         getEnvInt("REDIS_PORT", 6379),
		Password:     getEnv("REDIS_PASSWORD", ""),
		DB:           getEnvInt("REDIS_DB", 0),
		PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
		DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		Disabled:     getEnvBool("REDIS_DISABLED", false),
	}
}

func loadOracleConfig() OracleConfig {
	return OracleConfig{
		BaseURL:          getEnv("ORACLE_BASE_URL", ""),
		APIKey:           getEnv("ORACLE_API_KEY", ""),
		RequestTimeout:   getEnvDuration("ORACLE_REQUEST_TIMEOUT", 30*time.Second),
		MaxRetries:       getEnvInt("ORACLE_MAX_RETRIES", 3),
		RetryBaseDelay:   getEnvDuration("ORACLE_RETRY_BASE_DELAY", time.Second),
		RetryMaxDelay:    getEnvDuration("ORACLE_RETRY_MAX_DELAY", 15*time.Second),
		BreakerThreshold: getEnvInt("ORACLE_CB_THRESHOLD", 5),
		BreakerTimeout:   getEnvDuration("ORACLE_CB_TIMEOUT", 60*time.Second),
	}
}

func loadSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:            getEnvBool("SCHEDULER_ENABLED", true),
		WarmBoardsInterval: getEnvDuration("SCHEDULER_WARM_BOARDS_INTERVAL", 5*time.Minute),
	}
}

func loadHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Host:         getEnv("HTTP_HOST", "0.0.0.0"),
		Port:         getEnvInt("HTTP_PORT", 8080),
		ReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:  getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		MaxBodyBytes: int64(getEnvInt("HTTP_MAX_BODY_BYTES", 256<<10)),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Oracle.BaseURL == "" {
		errs = append(errs, "ORACLE_BASE_URL is required")
	}

	if c.App.Environment == EnvProduction {
		if c.Database.URL == "" && c.Database.Password == "" {
			errs = append(errs, "DATABASE_URL or DB_PASSWORD is required in production")
		}
		if c.Database.SSLMode == "disable" {
			errs = append(errs, "DB_SSLMODE=disable is not allowed in production")
		}
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, "HTTP_PORT must be 1-65535")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "LOG_LEVEL must be one of debug, info, warn, error")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func getEnvInt(key string, defaultVal int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}
