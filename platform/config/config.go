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

// RedisConfig provides settings for the asynq queue connection.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// WorkerConfig provides settings for the background worker process.
type WorkerConfig interface {
	GetWorkerMetricsAddr() string
}

// Dispatch modes for visit notifications.
const (
	DispatchModeInline = "inline"
	DispatchModeQueue  = "queue"
)

// DispatchConfig provides settings for the external sales-visit webhook.
type DispatchConfig interface {
	GetVisitWebhookURL() string
	GetVisitWebhookToken() string
	GetVisitWebhookTimeout() time.Duration
	GetVisitDispatchMode() string
	GetVisitDispatchMaxRetry() int
	GetVisitDefaultProject() string
	IsVisitDispatchEnabled() bool
}

// StorageConfig provides settings for archiving import files in MinIO.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOImportBucket() string
	IsMinIOEnabled() bool
}

// IngestionConfig provides limits for bulk lead imports.
type IngestionConfig interface {
	GetImportMaxFileSize() int64
	GetImportMaxRows() int
	GetPhoneDefaultRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string
	HTTPAddr              string
	DatabaseURL           string
	JWTAccessSecret       string
	CORSAllowAll          bool
	CORSOrigins           []string
	CORSAllowCreds        bool
	RedisURL              string
	RedisTLSInsecure      bool
	AsynqQueueName        string
	AsynqConcurrency      int
	VisitWebhookURL       string
	VisitWebhookToken     string
	VisitWebhookTimeout   time.Duration
	VisitDispatchMode     string
	VisitDispatchMaxRetry int
	VisitDefaultProject   string
	MinIOEndpoint         string
	MinIOAccessKey        string
	MinIOSecretKey        string
	MinIOUseSSL           bool
	MinIOImportBucket     string
	ImportMaxFileSize     int64
	ImportMaxRows         int
	PhoneDefaultRegion    string
	MigrateOnStart        bool
	WorkerMetricsAddr     string
}

// =============================================================================
// Interface Implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

func (c *Config) GetHTTPAddr() string       { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool     { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string  { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool   { return c.CORSAllowCreds }
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

func (c *Config) GetWorkerMetricsAddr() string { return c.WorkerMetricsAddr }

func (c *Config) GetVisitWebhookURL() string            { return c.VisitWebhookURL }
func (c *Config) GetVisitWebhookToken() string          { return c.VisitWebhookToken }
func (c *Config) GetVisitWebhookTimeout() time.Duration { return c.VisitWebhookTimeout }
func (c *Config) GetVisitDispatchMode() string          { return c.VisitDispatchMode }
func (c *Config) GetVisitDispatchMaxRetry() int         { return c.VisitDispatchMaxRetry }
func (c *Config) GetVisitDefaultProject() string        { return c.VisitDefaultProject }
func (c *Config) IsVisitDispatchEnabled() bool          { return c.VisitWebhookURL != "" }

func (c *Config) GetMinIOEndpoint() string     { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string    { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string    { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool         { return c.MinIOUseSSL }
func (c *Config) GetMinIOImportBucket() string { return c.MinIOImportBucket }
func (c *Config) IsMinIOEnabled() bool         { return c.MinIOEndpoint != "" }

func (c *Config) GetImportMaxFileSize() int64   { return c.ImportMaxFileSize }
func (c *Config) GetImportMaxRows() int         { return c.ImportMaxRows }
func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		JWTAccessSecret:       getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		CORSAllowCreds:        strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:              getEnv("REDIS_URL", ""),
		RedisTLSInsecure:      strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:      mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		VisitWebhookURL:       getEnv("VISIT_WEBHOOK_URL", ""),
		VisitWebhookToken:     getEnv("VISIT_WEBHOOK_TOKEN", ""),
		VisitWebhookTimeout:   mustDuration(getEnv("VISIT_WEBHOOK_TIMEOUT", "30s")),
		VisitDispatchMode:     strings.ToLower(getEnv("VISIT_DISPATCH_MODE", DispatchModeInline)),
		VisitDispatchMaxRetry: mustInt(getEnv("VISIT_DISPATCH_MAX_RETRY", "0")),
		VisitDefaultProject:   getEnv("VISIT_DEFAULT_PROJECT", "OASIS 2 (AUCALLAMA)"),
		MinIOEndpoint:         getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:        getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:        getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:           strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOImportBucket:     getEnv("MINIO_BUCKET_LEAD_IMPORTS", "lead-imports"),
		ImportMaxFileSize:     mustInt64(getEnv("IMPORT_MAX_FILE_SIZE", "10485760")),
		ImportMaxRows:         mustInt(getEnv("IMPORT_MAX_ROWS", "5000")),
		PhoneDefaultRegion:    strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "PE")),
		MigrateOnStart:        strings.EqualFold(getEnv("MIGRATE_ON_START", "true"), "true"),
		WorkerMetricsAddr:     getEnv("WORKER_METRICS_ADDR", ":9091"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required values and cross-field constraints.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTAccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	switch c.VisitDispatchMode {
	case DispatchModeInline:
	case DispatchModeQueue:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when VISIT_DISPATCH_MODE is %q", DispatchModeQueue)
		}
	default:
		return fmt.Errorf("VISIT_DISPATCH_MODE must be %q or %q, got %q", DispatchModeInline, DispatchModeQueue, c.VisitDispatchMode)
	}
	if c.VisitWebhookURL != "" && c.VisitWebhookToken == "" {
		return fmt.Errorf("VISIT_WEBHOOK_TOKEN is required when VISIT_WEBHOOK_URL is set")
	}
	if c.VisitWebhookTimeout <= 0 {
		return fmt.Errorf("VISIT_WEBHOOK_TIMEOUT must be a positive duration")
	}
	if c.VisitDispatchMaxRetry < 0 {
		return fmt.Errorf("VISIT_DISPATCH_MAX_RETRY cannot be negative")
	}
	return nil
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
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
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
