package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server      ServerConfig      `mapstructure:"server" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database" validate:"required"`
	Auth        AuthConfig        `mapstructure:"auth" validate:"required"`
	Recurrence  RecurrenceConfig  `mapstructure:"recurrence" validate:"required"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance" validate:"required"`
	Task        TaskConfig        `mapstructure:"task" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver selects the storage adapter.
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	// URL is a postgres connection URL or a sqlite DSN (e.g. "file:tasks.db").
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0,lte=525600"`
}

// RecurrenceConfig bounds rule previews and materialization.
type RecurrenceConfig struct {
	PreviewCount            int `mapstructure:"preview_count" validate:"gte=1,ltefield=MaxPreviewCount"`
	MaxPreviewCount         int `mapstructure:"max_preview_count" validate:"gte=1,lte=500"`
	MaxInstancesPerTemplate int `mapstructure:"max_instances_per_template" validate:"gte=1"`
	MaxPeriods              int `mapstructure:"max_periods" validate:"gte=100"`
}

// MaintenanceConfig controls the periodic materialize-and-prune run.
type MaintenanceConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Schedule is a standard five-field cron expression or a descriptor
	// such as "@daily".
	Schedule        string        `mapstructure:"schedule" validate:"required"`
	LookaheadDays   int           `mapstructure:"lookahead_days" validate:"gte=1,lte=366"`
	RetentionDays   int           `mapstructure:"retention_days" validate:"gte=0"`
	Concurrency     int           `mapstructure:"concurrency" validate:"gte=1,lte=64"`
	TemplateTimeout time.Duration `mapstructure:"template_timeout" validate:"gt=0"`
	Timezone        string        `mapstructure:"timezone" validate:"required"`
	RunOnStart      bool          `mapstructure:"run_on_start"`
}

// Location resolves Timezone.
func (m MaintenanceConfig) Location() (*time.Location, error) {
	return time.LoadLocation(m.Timezone)
}

// Lookahead returns the materialization horizon.
func (m MaintenanceConfig) Lookahead() time.Duration {
	return time.Duration(m.LookaheadDays) * 24 * time.Hour
}

// Retention returns how long past instances are kept.
func (m MaintenanceConfig) Retention() time.Duration {
	return time.Duration(m.RetentionDays) * 24 * time.Hour
}

// TaskConfig sizes the background worker pool.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gte=1"`
	QueueSize   int `mapstructure:"queue_size" validate:"gte=1"`
}
