// Relay is an intercepting HTTP proxy that rewrites outgoing credentials to
// rotate traffic across a pool of upstream accounts.
//
// It classifies each request against an ordered rule list, attaches a
// credential chosen by the configured rotation strategy, tracks per-account
// usage against quotas, and fails over to a fresh account when upstream
// signals quota exhaustion. Event-stream responses are relayed incrementally
// with their bytes counted in flight.
//
// Usage:
//
//	# Start with the default configuration file
//	relay run
//
//	# Start with a custom configuration file
//	relay run --config /etc/relay/relay.yaml
//
//	# Validate a configuration file without starting
//	relay validate --config relay.yaml
//
//	# Show version information
//	relay version
package main

func main() {
	Execute()
}
