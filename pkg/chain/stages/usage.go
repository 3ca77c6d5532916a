package stages

import (
	"context"
	"log/slog"

	"helios-hq/relay/pkg/accounts"
	"helios-hq/relay/pkg/chain"
	"helios-hq/relay/pkg/stream"
	"helios-hq/relay/pkg/telemetry/metrics"
)

// Usage measures exchange byte volume and feeds it back into the account
// pool under the exchange's annotated account id. It is side-effect only and
// never alters the chain decision.
//
// Buffered bodies are measured directly. Streamed response bodies are
// wrapped in a counting reader so bytes are accounted as they pass through
// the relay, without buffering.
type Usage struct {
	pool      *accounts.Pool
	logger    *slog.Logger
	collector *metrics.Collector
}

// NewUsage creates the usage stage.
func NewUsage(pool *accounts.Pool, logger *slog.Logger, collector *metrics.Collector) *Usage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Usage{pool: pool, logger: logger, collector: collector}
}

// Name implements chain.Stage.
func (s *Usage) Name() string { return "usage" }

// Request records the request body size.
func (s *Usage) Request(ctx context.Context, ex *chain.Exchange) chain.Decision {
	if ex.AccountID == "" {
		return chain.Continue()
	}

	if n := ex.Request.BodyLen(); n > 0 {
		s.record(ex, ex.AccountID, n, 0)
	}
	return chain.Continue()
}

// Response records the response body size. For streamed responses the body
// is wrapped so the bytes are counted incrementally and recorded when the
// stream ends.
func (s *Usage) Response(ctx context.Context, ex *chain.Exchange) chain.Decision {
	if ex.AccountID == "" || ex.Response == nil {
		return chain.Continue()
	}

	resp := ex.Response
	if resp.Streamed && resp.Stream != nil {
		accountID := ex.AccountID
		exchangeID := ex.ID
		resp.Stream = stream.NewCountingReader(resp.Stream, func(n int64) {
			s.record(&chain.Exchange{ID: exchangeID}, accountID, 0, n)
		})
		return chain.Continue()
	}

	if n := resp.BodyLen(); n > 0 {
		s.record(ex, ex.AccountID, 0, n)
	}
	return chain.Continue()
}

// record writes usage to the pool and the metrics collector. Accounting
// failures are logged, never propagated: usage is a side effect.
func (s *Usage) record(ex *chain.Exchange, accountID string, bytesIn, bytesOut int64) {
	if err := s.pool.RecordUsage(accountID, bytesIn, bytesOut); err != nil {
		s.logger.Error("recording usage failed",
			"exchange", ex.ID,
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
