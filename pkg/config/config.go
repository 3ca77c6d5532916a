package config

import (
	"time"

	"helios-hq/relay/pkg/accounts"
	"helios-hq/relay/pkg/rules"
)

// Config is the root configuration for the relay.
type Config struct {
	// Proxy holds the listener and transport settings.
	Proxy ProxyConfig `yaml:"proxy"`

	// Rules is the ordered classification rule list. Evaluated first match
	// wins; an empty list allows everything.
	Rules []rules.Rule `yaml:"rules"`

	// Accounts holds the credential pool and how credentials are attached.
	Accounts AccountsConfig `yaml:"accounts"`

	// Rotation selects and tunes the account rotation strategy.
	Rotation RotationConfig `yaml:"rotation"`

	// Streaming controls which responses are relayed incrementally.
	Streaming StreamingConfig `yaml:"streaming"`

	// Monitor configures path-marker traffic observation.
	Monitor MonitorConfig `yaml:"monitor"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Snapshot configures periodic usage persistence.
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// ProxyConfig holds the listener and transport settings.
type ProxyConfig struct {
	// ListenAddress is the address the proxy listener binds to.
	ListenAddress string `yaml:"listen_address"`

	// ManagementAddress is the address the management listener (/metrics,
	// /healthz) binds to. Empty disables the management listener.
	ManagementAddress string `yaml:"management_address"`

	// UpstreamTimeout bounds a single upstream request, including the retry
	// issued by failover.
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`

	// ReadTimeout is the proxy server's read timeout.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the proxy server's write timeout. Zero disables it,
	// which long-lived streamed responses require.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodySize caps buffered (non-streamed) request and response bodies,
	// in bytes.
	MaxBodySize int64 `yaml:"max_body_size"`
}

// AccountsConfig holds the credential pool and attachment settings.
type AccountsConfig struct {
	// AuthHeader is the header the credential is written to.
	AuthHeader string `yaml:"auth_header"`

	// AuthScheme is the prefix written before the secret (e.g. "Bearer").
	// Empty writes the secret bare.
	AuthScheme string `yaml:"auth_scheme"`

	// QuotaUnit selects how usage is compared against quotas: bytes or
	// requests.
	QuotaUnit accounts.QuotaUnit `yaml:"quota_unit"`

	// Pool is the account list. Must be non-empty with unique ids.
	Pool []accounts.Account `yaml:"pool"`
}

// RotationConfig selects and tunes the rotation strategy.
type RotationConfig struct {
	// Strategy names the rotation strategy: round_robin, least_used,
	// interval, or smart.
	Strategy string `yaml:"strategy"`

	// SwitchAfter, when positive, holds each selected account for this many
	// requests before consulting the strategy again.
	SwitchAfter int64 `yaml:"switch_after"`

	// CheckInterval is the reuse window for the interval strategy.
	CheckInterval time.Duration `yaml:"check_interval"`

	// ExhaustedStatus is the upstream status code treated as quota
	// exhaustion.
	ExhaustedStatus int `yaml:"exhausted_status"`

	// DegradePassthrough lets exchanges proceed with the client's own
	// credential when every account is exhausted, instead of rejecting
	// with 503.
	DegradePassthrough bool `yaml:"degrade_passthrough"`
}

// StreamingConfig controls which responses are relayed incrementally.
type StreamingConfig struct {
	// Paths are request path fragments that force streaming.
	Paths []string `yaml:"paths"`

	// ContentTypes are response content types relayed as streams.
	ContentTypes []string `yaml:"content_types"`

	// HeaderStageTimeout bounds the response phase for streamed exchanges,
	// measured from response headers to first relayed byte.
	HeaderStageTimeout time.Duration `yaml:"header_stage_timeout"`
}

// MonitorConfig configures path-marker traffic observation.
type MonitorConfig struct {
	// PathMarkers are path fragments whose exchanges are counted by the
	// monitor stage. Empty disables the stage.
	PathMarkers []string `yaml:"path_markers"`
}

// TelemetryConfig configures logging and metrics.
type TelemetryConfig struct {
	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus collector.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn, or error.
	Level string `yaml:"level"`

	// Format is the output format: json or text.
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus collector.
type MetricsConfig struct {
	// Enabled turns metric collection on.
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	Namespace string `yaml:"namespace"`
}

// SnapshotConfig configures periodic usage persistence.
type SnapshotConfig struct {
	// Enabled turns periodic snapshots on.
	Enabled bool `yaml:"enabled"`

	// Backend names the store: sqlite or memory.
	Backend string `yaml:"backend"`

	// Path is the SQLite database file path.
	Path string `yaml:"path"`

	// Schedule is the cron expression driving snapshot persistence.
	Schedule string `yaml:"schedule"`

	// RestoreOnStart seeds usage counters from the last persisted snapshot
	// at startup.
	RestoreOnStart bool `yaml:"restore_on_start"`
}
