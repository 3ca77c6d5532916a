// Package logging configures the structured logger the proxy emits its
// events through.
//
// Everything is built on log/slog: the package parses the configured level
// and format into a slog handler and provides context helpers so exchange
// and account identifiers follow a request through every component. One
// structured event is emitted per meaningful chain decision; the log schema
// itself belongs to the consuming collaborator.
package logging
