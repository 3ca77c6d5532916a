package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"helios-hq/relay/pkg/chain"
	"helios-hq/relay/pkg/stream"
	"helios-hq/relay/pkg/telemetry/metrics"
)

// HandlerConfig tunes the proxy handler.
type HandlerConfig struct {
	// UpstreamTimeout bounds one upstream request, retry included.
	UpstreamTimeout time.Duration

	// HeaderStageTimeout bounds the response phase for streamed exchanges,
	// from response headers to first relayed byte.
	HeaderStageTimeout time.Duration

	// MaxBodySize caps buffered request bodies, in bytes. Zero means no cap.
	MaxBodySize int64
}

// Handler proxies one HTTP exchange through the interceptor chain.
type Handler struct {
	chain     *chain.Chain
	forwarder *Forwarder
	gate      *stream.Gate
	cfg       HandlerConfig
	logger    *slog.Logger
	collector *metrics.Collector
}

// NewHandler creates the proxy handler.
func NewHandler(c *chain.Chain, forwarder *Forwarder, gate *stream.Gate, cfg HandlerConfig, logger *slog.Logger, collector *metrics.Collector) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		chain:     c,
		forwarder: forwarder,
		gate:      gate,
		cfg:       cfg,
		logger:    logger,
		collector: collector,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ex, err := h.buildExchange(r)
	if err != nil {
		h.logger.Warn("rejecting oversized request body", "url", r.URL.String(), "error", err)
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	ctx := r.Context()

	// Request phase.
	if decision := h.chain.Request(ctx, ex); decision.Kind != chain.KindContinue {
		h.finishShortCircuit(w, ex, decision)
		return
	}

	// Upstream.
	upstreamCtx := ctx
	if h.cfg.UpstreamTimeout > 0 {
		var cancel context.CancelFunc
		upstreamCtx, cancel = context.WithTimeout(ctx, h.cfg.UpstreamTimeout)
		defer cancel()
	}

	resp, err := h.forwarder.Forward(upstreamCtx, ex.Request)
	if err != nil {
		h.logger.Error("upstream request failed",
			"exchange", ex.ID,
			"url", ex.Request.URL,
			"error", err,
		)
		if h.collector != nil {
			h.collector.RecordSynthetic("upstream_error")
		}
		h.writeStatus(w, http.StatusBadGateway)
		h.observe(ex, http.StatusBadGateway)
		return
	}
	ex.Response = resp
	resp.Streamed = h.gate.ShouldStream(resp.Header, ex.Request.Path)

	// Buffered responses are materialized before the response phase so the
	// stages see the complete body. Streamed bodies stay untouched; stages
	// work at the header level.
	if !resp.Streamed {
		if err := h.forwarder.BufferResponse(resp); err != nil {
			h.logger.Error("buffering upstream response failed", "exchange", ex.ID, "error", err)
			h.writeStatus(w, http.StatusBadGateway)
			h.observe(ex, http.StatusBadGateway)
			return
		}
	}

	// Response phase, bounded for streams so header-level stages cannot sit
	// between the upstream and the client's first byte.
	phaseCtx := ctx
	if resp.Streamed && h.cfg.HeaderStageTimeout > 0 {
		var cancel context.CancelFunc
		phaseCtx, cancel = context.WithTimeout(ctx, h.cfg.HeaderStageTimeout)
		defer cancel()
	}
	if decision := h.chain.Response(phaseCtx, ex); decision.Kind != chain.KindContinue {
		h.discardBody(ex.Response)
		h.finishShortCircuit(w, ex, decision)
		return
	}

	// A failover retry may have swapped in a fresh, not-yet-buffered
	// response. Re-apply the gate decision to the final response.
	final := ex.Response
	if final.Stream != nil {
		final.Streamed = h.gate.ShouldStream(final.Header, ex.Request.Path)
		if !final.Streamed {
			if err := h.forwarder.BufferResponse(final); err != nil {
				h.logger.Error("buffering retry response failed", "exchange", ex.ID, "error", err)
				h.writeStatus(w, http.StatusBadGateway)
				h.observe(ex, http.StatusBadGateway)
				return
			}
		}
	}

	h.writeResponse(ctx, w, ex, final)
	h.observe(ex, final.StatusCode)
}

// buildExchange buffers the client request into a chain exchange.
func (h *Handler) buildExchange(r *http.Request) (*chain.Exchange, error) {
	var body []byte
	if r.Body != nil {
		reader := io.Reader(r.Body)
		if h.cfg.MaxBodySize > 0 {
			reader = io.LimitReader(reader, h.cfg.MaxBodySize+1)
		}
		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, err
		}
		if h.cfg.MaxBodySize > 0 && int64(len(data)) > h.cfg.MaxBodySize {
			return nil, errors.New("request body exceeds configured cap")
		}
		body = data
	}

	url := r.URL.String()
	if !r.URL.IsAbs() {
		// Origin-form request (reverse-proxy deployment): reconstruct the
		// absolute target from the Host header.
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		url = scheme + "://" + r.Host + r.URL.RequestURI()
	}

	return chain.NewExchange(&chain.Request{
		Method: r.Method,
		URL:    url,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	}), nil
}

// finishShortCircuit writes a stage's synthetic response, or a 502 for chain
// errors.
func (h *Handler) finishShortCircuit(w http.ResponseWriter, ex *chain.Exchange, decision chain.Decision) {
	switch decision.Kind {
	case chain.KindShortCircuitResponse:
		h.writeBuffered(w, decision.Response)
		h.observe(ex, decision.Response.StatusCode)

	case chain.KindShortCircuitError:
		if h.collector != nil {
			h.collector.RecordSynthetic("chain_error")
		}
		h.writeStatus(w, http.StatusBadGateway)
		h.observe(ex, http.StatusBadGateway)
	}
}

// writeResponse sends the final response to the client: a buffered write or
// an incremental relay.
func (h *Handler) writeResponse(ctx context.Context, w http.ResponseWriter, ex *chain.Exchange, resp *chain.Response) {
	if !resp.Streamed {
		h.writeBuffered(w, resp)
		return
	}

	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)

	if h.collector != nil {
		h.collector.RecordStreamed()
	}

	n, err := stream.Relay(ctx, w, resp.Stream)
	if err != nil && !errors.Is(err, context.Canceled) {
		h.logger.Error("stream relay failed",
			"exchange", ex.ID,
			"relayed_bytes", n,
			"error", err,
		)
		return
	}
	h.logger.Debug("stream relayed",
		"exchange", ex.ID,
		"relayed_bytes", n,
		"cancelled", errors.Is(err, context.Canceled),
	)
}

// writeBuffered writes a fully materialized response.
func (h *Handler) writeBuffered(w http.ResponseWriter, resp *chain.Response) {
	copyHeader(w.Header(), resp.Header)
	if resp.Header.Get("Content-Length") == "" {
		w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
	}
	w.WriteHeader(resp.StatusCode)
	if len(resp.Body) > 0 {
		w.Write(resp.Body)
	}
}

// writeStatus writes an empty synthetic response with the given status.
func (h *Handler) writeStatus(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(status)
}

// discardBody drops a response that will never reach the client.
func (h *Handler) discardBody(resp *chain.Response) {
	if resp != nil && resp.Stream != nil {
		resp.Stream.Close()
	}
}

// observe records the exchange outcome.
func (h *Handler) observe(ex *chain.Exchange, status int) {
	if h.collector == nil {
		return
	}
	h.collector.RecordExchange(
		string(ex.Verdict),
		strconv.Itoa(status),
		time.Since(ex.StartedAt).Seconds(),
	)
}

// copyHeader copies all header values from src to dst.
func copyHeader(dst, src http.Header) {
	for name, values := range src {
		dst[name] = values
	}
}
