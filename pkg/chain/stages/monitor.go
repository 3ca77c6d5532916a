package stages

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"helios-hq/relay/pkg/chain"
)

// MonitorStats is a point-in-time snapshot of the monitor stage's counters.
type MonitorStats struct {
	// Requests counts request-phase marker hits per marker.
	Requests map[string]int64

	// Responses counts response-phase marker hits per marker.
	Responses map[string]int64
}

// Monitor observes exchanges whose path contains one of the configured
// markers and keeps per-marker hit counters. It is side-effect only: nothing
// it sees changes the chain decision. Typical markers are API path fragments
// worth tracking separately from the bulk of proxied traffic, such as
// "/v1/messages" or "/chat/completions".
type Monitor struct {
	markers []string
	logger  *slog.Logger

	mu        sync.Mutex
	requests  map[string]int64
	responses map[string]int64
}

// NewMonitor creates the monitor stage. With no markers the stage observes
// nothing and every exchange passes untouched.
func NewMonitor(markers []string, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		markers:   markers,
		logger:    logger,
		requests:  make(map[string]int64),
		responses: make(map[string]int64),
	}
}

// Name implements chain.Stage.
func (s *Monitor) Name() string { return "monitor" }

// Request counts marker hits on the outgoing path.
func (s *Monitor) Request(ctx context.Context, ex *chain.Exchange) chain.Decision {
	if marker, ok := s.match(ex.Request.Path); ok {
		s.mu.Lock()
		s.requests[marker]++
		n := s.requests[marker]
		s.mu.Unlock()

		s.logger.Debug("monitored request",
			"exchange", ex.ID,
			"marker", marker,
			"hits", n,
		)
	}
	return chain.Continue()
}

// Response counts marker hits once the upstream has answered.
func (s *Monitor) Response(ctx context.Context, ex *chain.Exchange) chain.Decision {
	if ex.Response == nil {
		return chain.Continue()
	}
	if marker, ok := s.match(ex.Request.Path); ok {
		s.mu.Lock()
		s.responses[marker]++
		s.mu.Unlock()

		s.logger.Debug("monitored response",
			"exchange", ex.ID,
			"marker", marker,
			"status", ex.Response.StatusCode,
			"streamed", ex.Response.Streamed,
		)
	}
	return chain.Continue()
}

// Stats returns a copy of the current counters.
func (s *Monitor) Stats() MonitorStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := MonitorStats{
		Requests:  make(map[string]int64, len(s.requests)),
		Responses: make(map[string]int64, len(s.responses)),
	}
	for k, v := range s.requests {
		stats.Requests[k] = v
	}
	for k, v := range s.responses {
		stats.Responses[k] = v
	}
	return stats
}

// match returns the first configured marker contained in path.
func (s *Monitor) match(path string) (string, bool) {
	for _, m := range s.markers {
		if strings.Contains(path, m) {
			return m, true
		}
	}
	return "", false
}
