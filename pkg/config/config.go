package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Mail     MailConfig
	App      AppConfig
	Export   ExportConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL string
}

type MailConfig struct {
	ResendAPIKey string
	FromName     string
	FromEmail    string
	AdminEmail   string
}

// AppConfig is the read-only settings surface consumed by the services.
type AppConfig struct {
	SiteName string
	SiteURL  string

	JWTSecret string
	// TokenSecret keys unsubscribe links; changing it invalidates old links.
	TokenSecret string
	// WebhookSecret signs publish-event webhook bodies.
	WebhookSecret string

	NotificationsEnabled bool
	DoubleOptin          bool
	DefaultCategories    []uint

	// RateLimitPerHour caps form submissions per IP per hour.
	RateLimitPerHour int
	// SendPacing throttles the delay between campaign recipient sends.
	SendPacing time.Duration
	// StuckTimeout is how long a campaign may stay in "sending" before the
	// watchdog resumes it.
	StuckTimeout time.Duration
	// PurgeAfterDays ages out unsubscribed/bounced leads; 0 disables purging.
	PurgeAfterDays int
	// EmailDNSCheck enables MX lookups during email validation.
	EmailDNSCheck bool
}

type ExportConfig struct {
	Bucket string
	Region string
}

func Load() *Config {
	godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Mail: MailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromName:     getEnv("MAIL_FROM_NAME", "Lead Collector"),
			FromEmail:    getEnv("MAIL_FROM_EMAIL", "noreply@localhost"),
			AdminEmail:   getEnv("ADMIN_EMAIL", ""),
		},
		App: AppConfig{
			SiteName:             getEnv("SITE_NAME", "Lead Collector"),
			SiteURL:              getEnv("SITE_URL", "http://localhost:3000"),
			JWTSecret:            getEnv("JWT_SECRET", "change-me"),
			TokenSecret:          getEnv("TOKEN_SECRET", "change-me-too"),
			WebhookSecret:        getEnv("WEBHOOK_SECRET", "change-me-three"),
			NotificationsEnabled: getEnvBool("NOTIFICATIONS_ENABLED", true),
			DoubleOptin:          getEnvBool("DOUBLE_OPTIN", false),
			DefaultCategories:    getEnvUintList("DEFAULT_CATEGORIES"),
			RateLimitPerHour:     getEnvInt("RATE_LIMIT_PER_HOUR", 5),
			SendPacing:           getEnvDuration("SEND_PACING", 100*time.Millisecond),
			StuckTimeout:         getEnvDuration("STUCK_TIMEOUT", time.Hour),
			PurgeAfterDays:       getEnvInt("PURGE_AFTER_DAYS", 0),
			EmailDNSCheck:        getEnvBool("EMAIL_DNS_CHECK", false),
		},
		Export: ExportConfig{
			Bucket: getEnv("EXPORT_BUCKET", "lead-collector-exports"),
			Region: getEnv("EXPORT_REGION", "eu-central-1"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvUintList parses a comma separated id list, e.g. "3,7,12".
func getEnvUintList(key string) []uint {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var ids []uint
	for _, part := range strings.Split(value, ",") {
		parsed, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint(parsed))
	}
	return ids
}
