// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Reports   ReportsConfig   `mapstructure:"reports"`
	Scripts   ScriptsConfig   `mapstructure:"scripts"`
	Sitespeed SitespeedConfig `mapstructure:"sitespeed"`
	Scans     ScansConfig     `mapstructure:"scans"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Notify    NotifyConfig    `mapstructure:"notify"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ReportsConfig sets the report tree locations. Dir is the local path the
// service reads reports from; HostDir is the same directory as seen by the
// docker daemon, which is what gets volume-mounted into the container.
type ReportsConfig struct {
	Dir     string `mapstructure:"dir"`
	HostDir string `mapstructure:"host_dir"`
}

// ScriptsConfig locates static sitespeed scripts mounted read-only into
// the container.
type ScriptsConfig struct {
	HostDir string `mapstructure:"host_dir"`
}

// SitespeedConfig governs the sitespeed.io container invocation.
type SitespeedConfig struct {
	Image          string `mapstructure:"image"`
	Locale         string `mapstructure:"locale"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ScansConfig bounds scan execution.
type ScansConfig struct {
	// MaxConcurrent caps simultaneously running scans; 0 means unbounded.
	MaxConcurrent int `mapstructure:"max_concurrent"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// NotifyConfig selects the completion-event publisher.
type NotifyConfig struct {
	// Provider is "noop" or "pubsub".
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SITESPEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5001)
	v.SetDefault("reports.dir", "./sitespeed-reports")
	v.SetDefault("reports.host_dir", "")
	v.SetDefault("scripts.host_dir", "")
	v.SetDefault("sitespeed.image", "sitespeedio/sitespeed.io:38.6.0-plus1")
	v.SetDefault("sitespeed.locale", "fr")
	v.SetDefault("sitespeed.timeout_seconds", 600)
	v.SetDefault("scans.max_concurrent", 0)
	v.SetDefault("logging.development", true)
	v.SetDefault("notify.provider", "noop")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Reports.Dir == "" {
		return fmt.Errorf("reports.dir must be set")
	}
	if c.Sitespeed.Image == "" {
		return fmt.Errorf("sitespeed.image must be set")
	}
	if c.Sitespeed.TimeoutSeconds <= 0 {
		return fmt.Errorf("sitespeed.timeout_seconds must be > 0")
	}
	if c.Scans.MaxConcurrent < 0 {
		return fmt.Errorf("scans.max_concurrent must be >= 0")
	}
	if c.Notify.Provider == "pubsub" && (c.Notify.ProjectID == "" || c.Notify.TopicID == "") {
		return fmt.Errorf("notify.project_id and notify.topic_id must be set when provider is pubsub")
	}
	return nil
}

// ScanTimeout converts the configured timeout into a duration.
func (c Config) ScanTimeout() time.Duration {
	return time.Duration(c.Sitespeed.TimeoutSeconds) * time.Second
}

// HostReportsDir returns the docker-visible reports path, falling back to
// the local path when the two views coincide.
func (c Config) HostReportsDir() string {
	if c.Reports.HostDir != "" {
		return c.Reports.HostDir
	}
	return c.Reports.Dir
}
