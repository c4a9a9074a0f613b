package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Tasks
		Maintenance
		Audit
		Bootstrap
		Demo
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret     string
		TokenLifetime time.Duration
		BcryptCost    int

		// Login throttling
		MaxLoginAttempts int           // Failed attempts before lockout
		LockoutDuration  time.Duration // How long a locked account stays locked
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Maintenance struct {
		Enabled        bool
		ExpirySchedule string // Cron format: "*/15 * * * *" = every 15 minutes
		AuditSchedule  string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Audit struct {
		RetentionDays int // Days to keep audit events (default: 30)
	}
	Bootstrap struct {
		AdminUsername string
		AdminPassword string
		AdminEmail    string
	}
	Demo struct {
		Enabled bool // Read-only mode for public demo instances
	}
)

const DefaultDatabasePath = "./data/reserve.db"

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Auth defaults
	v.SetDefault("auth_jwt_secret", "")
	v.SetDefault("auth_token_lifetime", "24h")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_lockout_duration", "30m")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Background maintenance defaults
	v.SetDefault("maintenance_enabled", true)
	v.SetDefault("booking_expiry_schedule", "*/15 * * * *") // Every 15 minutes
	v.SetDefault("audit_cleanup_schedule", "0 3 * * *")     // Daily at 03:00
	v.SetDefault("audit_retention_days", 30)

	v.SetDefault("demo_mode", false)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			JWTSecret:        v.GetString("AUTH_JWT_SECRET"),
			TokenLifetime:    v.GetDuration("AUTH_TOKEN_LIFETIME"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Maintenance: Maintenance{
			Enabled:        v.GetBool("MAINTENANCE_ENABLED"),
			ExpirySchedule: v.GetString("BOOKING_EXPIRY_SCHEDULE"),
			AuditSchedule:  v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Bootstrap: Bootstrap{
			AdminUsername: v.GetString("ADMIN_USERNAME"),
			AdminPassword: v.GetString("ADMIN_PASSWORD"),
			AdminEmail:    v.GetString("ADMIN_EMAIL"),
		},
		Demo: Demo{
			Enabled: v.GetBool("DEMO_MODE"),
		},
	}
}
