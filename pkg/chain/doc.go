// Package chain drives the per-exchange control flow of the proxy.
//
// An Exchange is one request/response cycle. The chain runs an ordered list
// of stages over it in two phases: the request phase before the exchange is
// forwarded upstream, and the response phase once the upstream response
// headers are available. Each stage returns a Decision; the first
// short-circuit decision stops the phase, and a short-circuit with a
// response makes the proxy serve that synthetic response without contacting
// upstream.
//
// Stage order is configuration data fixed at startup, so behavior is
// reproducible across restarts. The chain itself holds no exchange-scoped
// mutable state and is re-entrant; one goroutine per client connection runs
// exchanges through it concurrently.
package chain
