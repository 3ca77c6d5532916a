// Package stream decides which response bodies must be relayed as unbounded
// byte streams and provides the machinery to do so.
//
// The Gate inspects response headers (and the request path) to spot
// event-stream responses. Streamed bodies are never buffered: the relay
// copies them chunk by chunk, flushing after each write, while a counting
// reader measures the bytes as they pass so usage accounting stays exact.
// Body-level mutation of a streamed response is out of scope; streamed
// bodies are pass-through only.
package stream
