package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from the YAML file at path, applies defaults and
// RELAY_* environment overrides, and validates the result. Any failure is
// fatal for startup.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes raw YAML bytes, applies defaults and environment overrides,
// and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides applies RELAY_SECTION_FIELD environment variables over
// the loaded configuration. Overrides always win over the file.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("RELAY_PROXY_LISTEN_ADDRESS"); val != "" {
		cfg.Proxy.ListenAddress = val
	}
	if val := os.Getenv("RELAY_PROXY_MANAGEMENT_ADDRESS"); val != "" {
		cfg.Proxy.ManagementAddress = val
	}
	if val := os.Getenv("RELAY_PROXY_UPSTREAM_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Proxy.UpstreamTimeout = d
		}
	}
	if val := os.Getenv("RELAY_ROTATION_STRATEGY"); val != "" {
		cfg.Rotation.Strategy = val
	}
	if val := os.Getenv("RELAY_ROTATION_SWITCH_AFTER"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Rotation.SwitchAfter = n
		}
	}
	if val := os.Getenv("RELAY_ROTATION_DEGRADE_PASSTHROUGH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Rotation.DegradePassthrough = b
		}
	}
	if val := os.Getenv("RELAY_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("RELAY_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("RELAY_SNAPSHOT_PATH"); val != "" {
		cfg.Snapshot.Path = val
	}
}
