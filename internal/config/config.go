package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Redis     RedisConfig     `yaml:"redis"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Email     EmailConfig     `yaml:"email"`
	Booking   BookingConfig   `yaml:"booking"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP and gRPC listener settings
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	GRPCPort       int      `yaml:"grpc_port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Driver       string `yaml:"driver"` // "postgres" or "memory"
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// RedisConfig backs request idempotency and rate limiting. Both are skipped
// when Enabled is false.
type RedisConfig struct {
	Enabled                bool   `yaml:"enabled"`
	Addr                   string `yaml:"addr"`
	Password               string `yaml:"password"`
	DB                     int    `yaml:"db"`
	RateLimitRequests      int    `yaml:"rate_limit_requests"`
	RateLimitWindowSeconds int    `yaml:"rate_limit_window_seconds"`
	IdempotencyTTLMinutes  int    `yaml:"idempotency_ttl_minutes"`
}

func (c RedisConfig) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func (c RedisConfig) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLMinutes) * time.Minute
}

// RabbitMQConfig contains domain event publishing settings
type RabbitMQConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// EmailConfig contains SendGrid settings. An empty API key logs e-mails
// instead of sending them.
type EmailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
}

// BookingConfig decides which calendar "today" refers to.
type BookingConfig struct {
	Timezone string `yaml:"timezone"`
}

// Location loads the booking time zone. Validate has already checked it.
func (c BookingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings (with seconds field)
type SchedulerConfig struct {
	CompleteFinishedReservations string `yaml:"complete_finished_reservations"`
	ExpireStalePending           string `yaml:"expire_stale_pending"`
	ReconcileTrustScores         string `yaml:"reconcile_trust_scores"`
}

// Load reads configuration from a YAML file. Variables from a .env file in
// the working directory are loaded first and never override the real
// environment.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Server
	envString("SERVER_HOST", &c.Server.Host)
	envInt("SERVER_PORT", &c.Server.Port)
	envInt("SERVER_GRPC_PORT", &c.Server.GRPCPort)

	// Database
	envString("DB_DRIVER", &c.Database.Driver)
	envString("DB_HOST", &c.Database.Host)
	envInt("DB_PORT", &c.Database.Port)
	envString("DB_USER", &c.Database.User)
	envString("DB_PASSWORD", &c.Database.Password)
	envString("DB_NAME", &c.Database.Database)
	envString("DB_SSL_MODE", &c.Database.SSLMode)

	// JWT
	envString("JWT_SECRET", &c.JWT.Secret)

	// Redis
	envBool("REDIS_ENABLED", &c.Redis.Enabled)
	envString("REDIS_ADDR", &c.Redis.Addr)
	envString("REDIS_PASSWORD", &c.Redis.Password)
	envInt("REDIS_DB", &c.Redis.DB)

	// RabbitMQ
	envBool("RABBITMQ_ENABLED", &c.RabbitMQ.Enabled)
	envString("RABBITMQ_URL", &c.RabbitMQ.URL)

	// Email
	envString("SENDGRID_API_KEY", &c.Email.SendGridAPIKey)
	envString("EMAIL_FROM", &c.Email.FromEmail)

	// Booking
	envString("BOOKING_TIMEZONE", &c.Booking.Timezone)

	// Log
	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_FORMAT", &c.Log.Format)

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 || c.Server.GRPCPort == c.Server.Port {
		return fmt.Errorf("invalid gRPC port: %d", c.Server.GRPCPort)
	}

	// Database validation
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
		if c.Database.MaxOpenConns == 0 {
			c.Database.MaxOpenConns = 25
		}
		if c.Database.MaxIdleConns == 0 {
			c.Database.MaxIdleConns = 5
		}
	default:
		return fmt.Errorf("unknown database driver: %q", c.Database.Driver)
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	// Redis
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}
	if c.Redis.RateLimitRequests == 0 {
		c.Redis.RateLimitRequests = 100
	}
	if c.Redis.RateLimitWindowSeconds == 0 {
		c.Redis.RateLimitWindowSeconds = 60
	}
	if c.Redis.IdempotencyTTLMinutes == 0 {
		c.Redis.IdempotencyTTLMinutes = 24 * 60
	}

	// RabbitMQ
	if c.RabbitMQ.Enabled && c.RabbitMQ.URL == "" {
		return fmt.Errorf("rabbitmq url is required when rabbitmq is enabled")
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "toolshare.events"
	}

	// Email defaults
	if c.Email.FromEmail == "" {
		c.Email.FromEmail = "noreply@toolshare.local"
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "ToolShare"
	}

	// Booking
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("invalid booking timezone %q: %w", c.Booking.Timezone, err)
	}

	// Scheduler defaults
	if c.Scheduler.CompleteFinishedReservations == "" {
		c.Scheduler.CompleteFinishedReservations = "0 5 0 * * *" // 00:05 daily
	}
	if c.Scheduler.ExpireStalePending == "" {
		c.Scheduler.ExpireStalePending = "0 10 0 * * *" // 00:10 daily
	}
	if c.Scheduler.ReconcileTrustScores == "" {
		c.Scheduler.ReconcileTrustScores = "0 0 3 * * *" // 3 AM daily
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetGRPCAddress returns the gRPC health server address, or "" when disabled
func (c *Config) GetGRPCAddress() string {
	if c.Server.GRPCPort == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}
