package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Environment overrides
const (
	EnvPort      = "LATENCY_PORT"
	EnvDBPath    = "LATENCY_DB_PATH"
	EnvLogLevel  = "LATENCY_LOG_LEVEL"
	EnvProbeMode = "LATENCY_PROBE_MODE"
	EnvGeoIPDB   = "LATENCY_GEOIP_DB"
)

// Load reads configuration from a YAML file over the defaults, then applies
// environment overrides. A missing file falls back to defaults. Variables in
// a .env file in the working directory are loaded first without replacing
// ones already set.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := DefaultConfig()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err == nil {
		return godotenv.Load(path)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if port := os.Getenv(EnvPort); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Server.Port = p
	}
	if path := os.Getenv(EnvDBPath); path != "" {
		c.Database.Path = path
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
	if mode := os.Getenv(EnvProbeMode); mode != "" {
		c.Probe.Mode = mode
	}
	if geo := os.Getenv(EnvGeoIPDB); geo != "" {
		c.Map.GeoIPDatabase = geo
	}
	return nil
}
