package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "HOMEORG"

// keys lists every configuration key so that each can be bound to its
// environment variable.
var keys = []string{
	"server.port",
	"server.log_level",
	"database.driver",
	"database.url",
	"auth.jwt_secret",
	"auth.token_lifetime_minutes",
	"recurrence.preview_count",
	"recurrence.max_preview_count",
	"recurrence.max_instances_per_template",
	"recurrence.max_periods",
	"maintenance.enabled",
	"maintenance.schedule",
	"maintenance.lookahead_days",
	"maintenance.retention_days",
	"maintenance.concurrency",
	"maintenance.template_timeout",
	"maintenance.timezone",
	"maintenance.run_on_start",
	"task.worker_count",
	"task.queue_size",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("recurrence.preview_count", 10)
	v.SetDefault("recurrence.max_preview_count", 50)
	v.SetDefault("recurrence.max_instances_per_template", 50)
	v.SetDefault("recurrence.max_periods", 10000)
	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.schedule", "0 3 * * *")
	v.SetDefault("maintenance.lookahead_days", 30)
	v.SetDefault("maintenance.retention_days", 30)
	v.SetDefault("maintenance.concurrency", 1)
	v.SetDefault("maintenance.template_timeout", "30s")
	v.SetDefault("maintenance.timezone", "UTC")
	v.SetDefault("maintenance.run_on_start", false)
	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
}

// Load reads configuration from a .env file (if present) and environment
// variables. See LoadFile.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from defaults, the optional YAML file at
// path, a .env file in the working directory and HOMEORG_-prefixed
// environment variables, in increasing order of precedence. The result is
// validated before it is returned.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags and the values tags cannot express.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := cfg.Maintenance.Location(); err != nil {
		return fmt.Errorf("config validation failed: invalid maintenance timezone %q: %w",
			cfg.Maintenance.Timezone, err)
	}
	if _, err := cron.ParseStandard(cfg.Maintenance.Schedule); err != nil {
		return fmt.Errorf("config validation failed: invalid maintenance schedule %q: %w",
			cfg.Maintenance.Schedule, err)
	}
	return nil
}
