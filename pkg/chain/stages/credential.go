package stages

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"helios-hq/relay/pkg/accounts"
	"helios-hq/relay/pkg/chain"
	"helios-hq/relay/pkg/telemetry/metrics"
)

// CredentialConfig configures the credential stage.
type CredentialConfig struct {
	// HeaderName is the header carrying the credential. Default:
	// Authorization.
	HeaderName string

	// Scheme is the prefix written before the secret (e.g. "Bearer").
	// Empty means the secret is written bare.
	Scheme string

	// DegradePassthrough, when true, lets an exchange proceed with the
	// client's own credential if every account is exhausted, instead of
	// rejecting with 503.
	DegradePassthrough bool
}

// Credential selects an account from the pool and rewrites the exchange's
// authorization credential, overwriting any prior value. The chosen account
// id is annotated on the exchange for the usage and failover stages.
//
// The stage fails soft: when no account is available it short-circuits with
// a synthetic 503 rather than forwarding an unauthenticated request (unless
// degrade-passthrough is configured).
type Credential struct {
	pool      *accounts.Pool
	cfg       CredentialConfig
	logger    *slog.Logger
	collector *metrics.Collector
}

// NewCredential creates the credential stage.
func NewCredential(pool *accounts.Pool, cfg CredentialConfig, logger *slog.Logger, collector *metrics.Collector) *Credential {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "Authorization"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Credential{pool: pool, cfg: cfg, logger: logger, collector: collector}
}

// Name implements chain.Stage.
func (s *Credential) Name() string { return "credential" }

// Request attaches the selected account's credential to the outgoing
// request.
func (s *Credential) Request(ctx context.Context, ex *chain.Exchange) chain.Decision {
	acct, err := s.pool.Select()
	if err != nil {
		if errors.Is(err, accounts.ErrNoAvailableAccount) {
			if s.cfg.DegradePassthrough {
				s.logger.Warn("no account available, passing through client credential",
					"exchange", ex.ID,
				)
				return chain.Continue()
			}
			s.logger.Warn("no account available, rejecting exchange",
				"exchange", ex.ID,
				"error", err,
			)
			if s.collector != nil {
				s.collector.RecordSynthetic("no_account")
			}
			return chain.ShortCircuit(syntheticResponse(http.StatusServiceUnavailable))
		}
		return chain.Fail(err)
	}

	ex.AccountID = acct.ID
	ex.Request.SetHeader(s.cfg.HeaderName, CredentialValue(s.cfg.Scheme, acct.Secret))

	if s.collector != nil {
		s.collector.RecordRotation(s.pool.Strategy())
		s.collector.SetActiveAccounts(s.pool.ActiveCount())
	}

	s.logger.Debug("credential attached",
		"exchange", ex.ID,
		"account", acct.ID,
	)
	return chain.Continue()
}

// Response is a no-op; credentials only matter on the way out.
func (s *Credential) Response(ctx context.Context, ex *chain.Exchange) chain.Decision {
	return chain.Continue()
}

// CredentialValue formats a header value from a scheme and secret. The
// failover stage reuses it when re-credentialing a retry.
func CredentialValue(scheme, secret string) string {
	if scheme == "" {
		return secret
	}
	return scheme + " " + secret
}
