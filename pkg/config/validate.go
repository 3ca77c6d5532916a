package config

import (
	"fmt"
	"strings"

	"helios-hq/relay/pkg/accounts/strategies"
	"helios-hq/relay/pkg/rules"
)

// FieldError is a validation error for one configuration field.
type FieldError struct {
	// Field is the dotted path to the field (e.g. "rotation.strategy").
	Field string

	// Message is the human-readable problem description.
	Message string
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError aggregates every validation failure found in a
// configuration so the operator can fix the file in one pass.
type ValidationError struct {
	// Errors holds all field errors found.
	Errors []FieldError
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate checks the entire configuration and returns a ValidationError
// listing every problem, or nil when the configuration is valid.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProxy(&cfg.Proxy)...)
	errs = append(errs, validateRules(cfg.Rules)...)
	errs = append(errs, validateAccounts(&cfg.Accounts)...)
	errs = append(errs, validateRotation(&cfg.Rotation)...)
	errs = append(errs, validateStreaming(&cfg.Streaming)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateSnapshot(&cfg.Snapshot)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateProxy(cfg *ProxyConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "proxy.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.UpstreamTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.upstream_timeout",
			Message: "upstream timeout must be non-negative",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.read_timeout",
			Message: "read timeout must be non-negative",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.write_timeout",
			Message: "write timeout must be non-negative",
		})
	}
	if cfg.MaxBodySize <= 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.max_body_size",
			Message: "max body size must be positive",
		})
	}
	return errs
}

// validateRules compiles the rule list exactly as the matcher will at
// startup, so a bad pattern is reported with its index and rule context.
func validateRules(ruleList []rules.Rule) []FieldError {
	var errs []FieldError

	if _, err := rules.NewMatcher(ruleList); err != nil {
		errs = append(errs, FieldError{
			Field:   "rules",
			Message: err.Error(),
		})
	}
	return errs
}

func validateAccounts(cfg *AccountsConfig) []FieldError {
	var errs []FieldError

	if cfg.AuthHeader == "" {
		errs = append(errs, FieldError{
			Field:   "accounts.auth_header",
			Message: "auth header is required",
		})
	}
	if !cfg.QuotaUnit.Valid() {
		errs = append(errs, FieldError{
			Field:   "accounts.quota_unit",
			Message: fmt.Sprintf("unknown quota unit %q (want bytes or requests)", cfg.QuotaUnit),
		})
	}

	if len(cfg.Pool) == 0 {
		errs = append(errs, FieldError{
			Field:   "accounts.pool",
			Message: "at least one account must be configured",
		})
		return errs
	}

	seen := make(map[string]bool, len(cfg.Pool))
	for i, acct := range cfg.Pool {
		prefix := fmt.Sprintf("accounts.pool[%d]", i)

		if acct.ID == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".id",
				Message: "account id is required",
			})
			continue
		}
		if seen[acct.ID] {
			errs = append(errs, FieldError{
				Field:   prefix + ".id",
				Message: fmt.Sprintf("duplicate account id %q", acct.ID),
			})
		}
		seen[acct.ID] = true

		if acct.Secret == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".secret",
				Message: "account secret is required",
			})
		}
		if acct.Quota < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".quota",
				Message: "quota must be non-negative (zero means unlimited)",
			})
		}
	}
	return errs
}

func validateRotation(cfg *RotationConfig) []FieldError {
	var errs []FieldError

	switch cfg.Strategy {
	case strategies.NameRoundRobin, strategies.NameLeastUsed, strategies.NameInterval, strategies.NameSmart:
	default:
		errs = append(errs, FieldError{
			Field: "rotation.strategy",
			Message: fmt.Sprintf("unknown strategy %q (want %s, %s, %s, or %s)",
				cfg.Strategy,
				strategies.NameRoundRobin, strategies.NameLeastUsed,
				strategies.NameInterval, strategies.NameSmart),
		})
	}

	if cfg.SwitchAfter < 0 {
		errs = append(errs, FieldError{
			Field:   "rotation.switch_after",
			Message: "switch_after must be non-negative",
		})
	}
	if cfg.CheckInterval <= 0 {
		errs = append(errs, FieldError{
			Field:   "rotation.check_interval",
			Message: "check interval must be positive",
		})
	}
	if cfg.ExhaustedStatus < 100 || cfg.ExhaustedStatus > 599 {
		errs = append(errs, FieldError{
			Field:   "rotation.exhausted_status",
			Message: fmt.Sprintf("exhausted status %d is not a valid HTTP status code", cfg.ExhaustedStatus),
		})
	}
	return errs
}

func validateStreaming(cfg *StreamingConfig) []FieldError {
	var errs []FieldError

	if cfg.HeaderStageTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "streaming.header_stage_timeout",
			Message: "header stage timeout must be positive",
		})
	}
	for i, ct := range cfg.ContentTypes {
		if strings.TrimSpace(ct) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("streaming.content_types[%d]", i),
				Message: "content type must not be empty",
			})
		}
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q (want debug, info, warn, or error)", cfg.Logging.Level),
		})
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q (want json or text)", cfg.Logging.Format),
		})
	}
	return errs
}

func validateSnapshot(cfg *SnapshotConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return nil
	}

	switch cfg.Backend {
	case "sqlite", "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "snapshot.backend",
			Message: fmt.Sprintf("unknown backend %q (want sqlite or memory)", cfg.Backend),
		})
	}
	if cfg.Backend == "sqlite" && cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "snapshot.path",
			Message: "sqlite backend requires a database path",
		})
	}
	if cfg.Schedule == "" {
		errs = append(errs, FieldError{
			Field:   "snapshot.schedule",
			Message: "snapshot schedule is required",
		})
	}
	return errs
}
