// Package config loads dashboard configuration from YAML, the environment and flags.
package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for the latency dashboard
type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Database struct {
		Path                string        `yaml:"path"`
		RetentionDays       int           `yaml:"retention_days"`
		MaintenanceInterval time.Duration `yaml:"maintenance_interval"`
	} `yaml:"database"`

	Probe struct {
		Mode           string        `yaml:"mode"` // auto, icmp or tcp
		DefaultSamples int           `yaml:"default_samples"`
		MaxSamples     int           `yaml:"max_samples"`
		Timeout        time.Duration `yaml:"timeout"`
		Interval       time.Duration `yaml:"interval"`
		TCPPorts       []int         `yaml:"tcp_ports"`
	} `yaml:"probe"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Map struct {
		OutputDir     string `yaml:"output_dir"`
		GeoIPDatabase string `yaml:"geoip_database"`
	} `yaml:"map"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

// DefaultConfig returns configuration with sane defaults
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Port = 5000
	cfg.Server.ReadTimeout = 15 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 10 * time.Second

	cfg.Database.Path = "latency_dashboard.db"
	cfg.Database.RetentionDays = 90
	cfg.Database.MaintenanceInterval = time.Hour

	cfg.Probe.Mode = "auto"
	cfg.Probe.DefaultSamples = 5
	cfg.Probe.MaxSamples = 100
	cfg.Probe.Timeout = 2 * time.Second
	cfg.Probe.Interval = 100 * time.Millisecond
	cfg.Probe.TCPPorts = []int{80, 443}

	cfg.Storage.Path = "latency_data"

	cfg.Map.OutputDir = "generated"

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Metrics.Enabled = true

	return cfg
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path cannot be empty")
	}
	if c.Database.RetentionDays < 0 {
		return fmt.Errorf("database.retention_days must be >= 0")
	}
	if c.Database.RetentionDays > 0 && c.Database.MaintenanceInterval <= 0 {
		return fmt.Errorf("database.maintenance_interval must be > 0 when retention is enabled")
	}

	switch c.Probe.Mode {
	case "auto", "icmp", "tcp":
	default:
		return fmt.Errorf("probe.mode must be one of auto, icmp, tcp")
	}
	if c.Probe.DefaultSamples <= 0 {
		return fmt.Errorf("probe.default_samples must be > 0")
	}
	if c.Probe.MaxSamples < c.Probe.DefaultSamples {
		return fmt.Errorf("probe.max_samples must be >= probe.default_samples")
	}
	if c.Probe.Timeout <= 0 {
		return fmt.Errorf("probe.timeout must be positive")
	}
	if c.Probe.Interval < 0 {
		return fmt.Errorf("probe.interval must be >= 0")
	}
	for _, port := range c.Probe.TCPPorts {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("probe.tcp_ports entry %d out of range", port)
		}
	}

	if c.Map.OutputDir == "" {
		return fmt.Errorf("map.output_dir cannot be empty")
	}
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}
	return nil
}
