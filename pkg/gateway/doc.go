// Package gateway is the HTTP transport boundary of the relay.
//
// The Handler owns one proxied cycle end to end: it buffers the client
// request, runs the interceptor chain's request phase, forwards the request
// upstream with the exchange's context, runs the response phase at the
// header level, and then either writes the buffered response or relays the
// body incrementally when the stream gate says so.
//
// The Server wraps the handler with recovery and request-id middleware,
// binds the proxy listener, and serves /metrics and /healthz on a separate
// management listener so operational endpoints never share a port with
// proxied traffic.
package gateway
