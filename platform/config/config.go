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

// SchedulerConfig provides settings for the asynq offer timer subsystem.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// MatchingConfig provides settings for eligibility, scoring, and offers.
type MatchingConfig interface {
	GetOfferResponseWindow() time.Duration
	GetMaxOffersPerLead() int
	GetRecencyWindow() time.Duration
	GetTierCapacity(tier string) int
}

// NotificationConfig provides settings for the notification dispatcher.
type NotificationConfig interface {
	GetAppBaseURL() string
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetWebhookURL() string
}

// StorageConfig provides settings for MinIO S3-compatible storage.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketAuditExports() string
	IsMinIOEnabled() bool
}

// =============================================================================
// Config
// =============================================================================

// Config holds all application configuration, loaded from the environment.
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

	OfferResponseWindow time.Duration
	MaxOffersPerLead    int
	RecencyWindow       time.Duration
	TierCapacities      map[string]int

	AppBaseURL       string
	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string
	WebhookURL       string

	MinIOEndpoint           string
	MinIOAccessKey          string
	MinIOSecretKey          string
	MinIOUseSSL             bool
	MinioBucketAuditExports string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string      { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// MatchingConfig implementation
func (c *Config) GetOfferResponseWindow() time.Duration { return c.OfferResponseWindow }
func (c *Config) GetMaxOffersPerLead() int              { return c.MaxOffersPerLead }
func (c *Config) GetRecencyWindow() time.Duration       { return c.RecencyWindow }

// GetTierCapacity returns the open-lead capacity for an agent tier.
// Unknown tiers fall back to the bronze capacity.
func (c *Config) GetTierCapacity(tier string) int {
	if cap, ok := c.TierCapacities[strings.ToLower(strings.TrimSpace(tier))]; ok {
		return cap
	}
	return c.TierCapacities["bronze"]
}

// NotificationConfig implementation
func (c *Config) GetAppBaseURL() string       { return c.AppBaseURL }
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetWebhookURL() string       { return c.WebhookURL }

// StorageConfig implementation
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketAuditExports() string {
	return c.MinioBucketAuditExports
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// =============================================================================
// Loading
// =============================================================================

// Load reads configuration from the environment. A .env file, when present,
// is loaded first; real environment variables take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", ""))
	corsAllowAll := containsWildcard(corsOrigins) || len(corsOrigins) == 0

	responseWindow := mustDuration(getEnv("OFFER_RESPONSE_WINDOW", "60m"))
	if responseWindow < time.Minute {
		responseWindow = 60 * time.Minute
	}

	maxOffers := mustInt(getEnv("MATCHING_MAX_OFFERS", "1"))
	if maxOffers < 1 {
		maxOffers = 1
	}

	recencyWindow := mustDuration(getEnv("MATCHING_RECENCY_WINDOW", "48h"))
	if recencyWindow <= 0 {
		recencyWindow = 48 * time.Hour
	}

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTAccessSecret: getEnv("JWT_ACCESS_SECRET", ""),

		CORSAllowAll:   corsAllowAll,
		CORSOrigins:    corsOrigins,
		CORSAllowCreds: strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "leadrouter"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),

		OfferResponseWindow: responseWindow,
		MaxOffersPerLead:    maxOffers,
		RecencyWindow:       recencyWindow,
		TierCapacities: map[string]int{
			"bronze":   mustInt(getEnv("CAPACITY_BRONZE", "3")),
			"silver":   mustInt(getEnv("CAPACITY_SILVER", "5")),
			"gold":     mustInt(getEnv("CAPACITY_GOLD", "8")),
			"platinum": mustInt(getEnv("CAPACITY_PLATINUM", "12")),
		},

		AppBaseURL:       getEnv("APP_BASE_URL", "http://localhost:4200"),
		EmailEnabled:     strings.EqualFold(getEnv("EMAIL_ENABLED", "false"), "true"),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Lead Router"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		WebhookURL:       getEnv("NOTIFY_WEBHOOK_URL", ""),

		MinIOEndpoint:           getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:          getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:          getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:             strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketAuditExports: getEnv("MINIO_BUCKET_AUDIT_EXPORTS", "assignment-audit-exports"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.EmailEnabled && (cfg.SMTPHost == "" || cfg.EmailFromAddress == "") {
		return nil, fmt.Errorf("SMTP_HOST and EMAIL_FROM_ADDRESS are required when EMAIL_ENABLED is true")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS allows all origins")
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
