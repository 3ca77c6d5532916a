package config

import (
	"time"

	"helios-hq/relay/pkg/accounts"
)

// Default values applied to fields left unset in the configuration file.
const (
	DefaultListenAddress      = "127.0.0.1:8080"
	DefaultManagementAddress  = "127.0.0.1:9090"
	DefaultUpstreamTimeout    = 60 * time.Second
	DefaultReadTimeout        = 30 * time.Second
	DefaultWriteTimeout       = 0 * time.Second
	DefaultShutdownTimeout    = 30 * time.Second
	DefaultMaxBodySize        = 10 * 1024 * 1024
	DefaultAuthHeader         = "Authorization"
	DefaultAuthScheme         = "Bearer"
	DefaultStrategy           = "round_robin"
	DefaultCheckInterval      = 5 * time.Minute
	DefaultExhaustedStatus    = 429
	DefaultHeaderStageTimeout = 2 * time.Second
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
	DefaultMetricsNamespace   = "relay"
	DefaultSnapshotBackend    = "sqlite"
	DefaultSnapshotPath       = "relay-usage.db"
	DefaultSnapshotSchedule   = "@every 1m"
)

// ApplyDefaults fills every unset field with its default value. It never
// overrides a value the operator set explicitly.
func ApplyDefaults(cfg *Config) {
	applyProxyDefaults(&cfg.Proxy)
	applyAccountsDefaults(&cfg.Accounts)
	applyRotationDefaults(&cfg.Rotation)
	applyStreamingDefaults(&cfg.Streaming)
	applyTelemetryDefaults(&cfg.Telemetry)
	applySnapshotDefaults(&cfg.Snapshot)
}

func applyProxyDefaults(cfg *ProxyConfig) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.ManagementAddress == "" {
		cfg.ManagementAddress = DefaultManagementAddress
	}
	if cfg.UpstreamTimeout == 0 {
		cfg.UpstreamTimeout = DefaultUpstreamTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
}

func applyAccountsDefaults(cfg *AccountsConfig) {
	if cfg.AuthHeader == "" {
		cfg.AuthHeader = DefaultAuthHeader
	}
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = DefaultAuthScheme
	}
	if cfg.QuotaUnit == "" {
		cfg.QuotaUnit = accounts.QuotaBytes
	}
}

func applyRotationDefaults(cfg *RotationConfig) {
	if cfg.Strategy == "" {
		cfg.Strategy = DefaultStrategy
	}
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}
	if cfg.ExhaustedStatus == 0 {
		cfg.ExhaustedStatus = DefaultExhaustedStatus
	}
}

func applyStreamingDefaults(cfg *StreamingConfig) {
	if len(cfg.ContentTypes) == 0 {
		cfg.ContentTypes = []string{"text/event-stream"}
	}
	if cfg.HeaderStageTimeout == 0 {
		cfg.HeaderStageTimeout = DefaultHeaderStageTimeout
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}

func applySnapshotDefaults(cfg *SnapshotConfig) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultSnapshotBackend
	}
	if cfg.Path == "" {
		cfg.Path = DefaultSnapshotPath
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSnapshotSchedule
	}
}
