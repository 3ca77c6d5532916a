package chain

import "context"

// Stage is a single unit in the interceptor chain. A stage sees every
// exchange twice: once in the request phase before upstream contact, and
// once in the response phase when the upstream response headers are
// available.
//
// For streamed responses the response phase runs at the header level, before
// the first body byte is relayed; stages must not block the relay beyond the
// configured header-stage timeout carried by ctx.
//
// Implementations must be safe for concurrent use and must keep all
// exchange-scoped state on the Exchange itself.
type Stage interface {
	// Name returns the stage name for events and statistics.
	Name() string

	// Request processes the request phase. The stage may mutate
	// ex.Request in place.
	Request(ctx context.Context, ex *Exchange) Decision

	// Response processes the response phase. The stage may mutate
	// ex.Response headers in place; streamed bodies are pass-through only.
	Response(ctx context.Context, ex *Exchange) Decision
}

// Forwarder re-issues an exchange's request to upstream. The transport layer
// implements it; the failover stage uses it for its single retry.
type Forwarder interface {
	// Forward sends the request upstream and returns the response. The
	// returned response may be streamed.
	Forward(ctx context.Context, req *Request) (*Response, error)
}

// ForwarderFunc adapts a function to the Forwarder interface.
type ForwarderFunc func(ctx context.Context, req *Request) (*Response, error)

// Forward implements Forwarder.
func (f ForwarderFunc) Forward(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
