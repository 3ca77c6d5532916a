package stages

import (
	"context"
	"errors"
	"log/slog"

	"helios-hq/relay/pkg/accounts"
	"helios-hq/relay/pkg/chain"
	"helios-hq/relay/pkg/stream"
	"helios-hq/relay/pkg/telemetry/metrics"
)

// DefaultExhaustedStatus is the status code treated as a quota-exhaustion
// signal when none is configured.
const DefaultExhaustedStatus = 429

// FailoverConfig configures the failover stage.
type FailoverConfig struct {
	// ExhaustedStatus is the upstream status code that signals quota
	// exhaustion. Default: 429.
	ExhaustedStatus int

	// HeaderName and Scheme mirror the credential stage settings so a retry
	// is re-credentialed identically.
	HeaderName string
	Scheme     string
}

// Failover watches response status codes for the quota-exhaustion signal.
// On the signal it marks the exchange's account exhausted, selects a fresh
// account, re-credentials the original request, and re-issues it upstream
// exactly once. If the retry fails the same way, the failing response is
// forwarded as-is: the one-retry cap bounds latency and fan-out when every
// account exhausts at once.
type Failover struct {
	pool      *accounts.Pool
	forwarder chain.Forwarder
	cfg       FailoverConfig
	logger    *slog.Logger
	collector *metrics.Collector
}

// NewFailover creates the failover stage.
func NewFailover(pool *accounts.Pool, forwarder chain.Forwarder, cfg FailoverConfig, logger *slog.Logger, collector *metrics.Collector) *Failover {
	if cfg.ExhaustedStatus == 0 {
		cfg.ExhaustedStatus = DefaultExhaustedStatus
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = "Authorization"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Failover{pool: pool, forwarder: forwarder, cfg: cfg, logger: logger, collector: collector}
}

// Name implements chain.Stage.
func (s *Failover) Name() string { return "failover" }

// Request is a no-op; failover reacts to responses.
func (s *Failover) Request(ctx context.Context, ex *chain.Exchange) chain.Decision {
	return chain.Continue()
}

// Response inspects the status code and performs at most one
// re-credentialed retry on a quota-exhaustion signal.
func (s *Failover) Response(ctx context.Context, ex *chain.Exchange) chain.Decision {
	resp := ex.Response
	if resp == nil || resp.StatusCode != s.cfg.ExhaustedStatus || ex.AccountID == "" {
		return chain.Continue()
	}

	if ex.Retried {
		// Second exhaustion signal on the same exchange: give up and let
		// the failing response through.
		s.logger.Warn("retry exhausted as well, forwarding failing response",
			"exchange", ex.ID,
			"account", ex.AccountID,
			"status", resp.StatusCode,
		)
		if err := s.pool.MarkExhausted(ex.AccountID); err != nil {
			s.logger.Error("marking retry account exhausted failed", "exchange", ex.ID, "error", err)
		}
		return chain.Continue()
	}

	// Cancelled exchanges are never retried.
	if err := ctx.Err(); err != nil {
		return chain.Continue()
	}

	exhaustedID := ex.AccountID
	if err := s.pool.MarkExhausted(exhaustedID); err != nil {
		s.logger.Error("marking account exhausted failed",
			"exchange", ex.ID,
			"account", exhaustedID,
			"error", err,
		)
		return chain.Continue()
	}

	fresh, err := s.pool.Select()
	if err != nil {
		if errors.Is(err, accounts.ErrNoAvailableAccount) {
			s.logger.Warn("no account left for retry, forwarding failing response",
				"exchange", ex.ID,
				"exhausted_account", exhaustedID,
			)
			return chain.Continue()
		}
		return chain.Fail(err)
	}

	ex.Retried = true
	ex.AccountID = fresh.ID
	ex.Request.SetHeader(s.cfg.HeaderName, CredentialValue(s.cfg.Scheme, fresh.Secret))

	s.logger.Info("retrying with fresh account",
		"exchange", ex.ID,
		"exhausted_account", exhaustedID,
		"retry_account", fresh.ID,
	)
	if s.collector != nil {
		s.collector.RecordRetry()
	}

	// Drop the failing response's open stream, if any, before replacing it.
	if resp.Stream != nil {
		_ = resp.Stream.Close()
	}

	retryResp, err := s.forwarder.Forward(ctx, ex.Request)
	if err != nil {
		// Transport failure on the retry: surface the original failing
		// response rather than a half-finished retry.
		s.logger.Error("retry transport failed, forwarding original response",
			"exchange", ex.ID,
			"retry_account", fresh.ID,
			"error", err,
		)
		ex.AccountID = exhaustedID
		return chain.Continue()
	}

	s.accountRetry(ex, fresh.ID, retryResp)
	ex.Response = retryResp

	if retryResp.StatusCode == s.cfg.ExhaustedStatus {
		s.logger.Warn("retry returned exhaustion signal, giving up",
			"exchange", ex.ID,
			"retry_account", fresh.ID,
		)
		if err := s.pool.MarkExhausted(fresh.ID); err != nil {
			s.logger.Error("marking retry account exhausted failed", "exchange", ex.ID, "error", err)
		}
	}

	return chain.Continue()
}

// accountRetry records the retry's byte volume under the fresh account. The
// usage stage ran before this stage and cannot see the replacement response,
// so the failover stage owns accounting for its own retry. An open stream is
// wrapped in a counting reader regardless of the gate's verdict: buffering
// drains it to EOF just like relaying does, and the count fires either way.
func (s *Failover) accountRetry(ex *chain.Exchange, accountID string, resp *chain.Response) {
	bytesIn := ex.Request.BodyLen()

	if resp.Stream != nil {
		exchangeID := ex.ID
		if bytesIn > 0 {
			s.recordUsage(exchangeID, accountID, bytesIn, 0)
		}
		resp.Stream = stream.NewCountingReader(resp.Stream, func(n int64) {
			s.recordUsage(exchangeID, accountID, 0, n)
		})
		return
	}

	s.recordUsage(ex.ID, accountID, bytesIn, resp.BodyLen())
}

func (s *Failover) recordUsage(exchangeID, accountID string, bytesIn, bytesOut int64) {
	if bytesIn == 0 && bytesOut == 0 {
		return
	}
	if err := s.pool.RecordUsage(accountID, bytesIn, bytesOut); err != nil {
		s.logger.Error("recording retry usage failed",
			"exchange", exchangeID,
			"account", accountID,
			"error", err,
		)
		return
	}
	if s.collector != nil {
		s.collector.RecordBytes("in", accountID, bytesIn)
		s.collector.RecordBytes("out", accountID, bytesOut)
	}
}
