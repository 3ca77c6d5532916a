package strategies

import (
	"fmt"
	"sync"
	"time"

	"helios-hq/relay/pkg/accounts"
)

// Interval repeats the last-selected account until a configured interval has
// elapsed since the last switch, then advances to the next candidate in
// round-robin order. An account that drops out of the candidate set (marked
// exhausted or disabled) is replaced immediately regardless of the interval.
type Interval struct {
	interval time.Duration
	now      func() time.Time

	mu         sync.Mutex
	cursor     int
	lastID     string
	lastSwitch time.Time
}

// IntervalOption configures an Interval strategy.
type IntervalOption func(*Interval)

// WithIntervalClock overrides the time source. Used by tests.
func WithIntervalClock(now func() time.Time) IntervalOption {
	return func(s *Interval) { s.now = now }
}

// NewInterval creates a time-based strategy that switches accounts at most
// once per interval.
func NewInterval(interval time.Duration, opts ...IntervalOption) *Interval {
	s := &Interval{
		interval: interval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns the current account, advancing only when the interval has
// elapsed or the current account is no longer selectable.
func (s *Interval) Select(candidates []accounts.State) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("no candidates for interval selection")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if s.lastID != "" && now.Sub(s.lastSwitch) <= s.interval {
		for _, c := range candidates {
			if c.Account.ID == s.lastID {
				return s.lastID, nil
			}
		}
		// Current account fell out of the candidate set; fall through and
		// switch now.
	}

	if s.lastID != "" {
		s.cursor = (s.cursor + 1) % len(candidates)
	} else {
		s.cursor = 0
	}
	s.lastID = candidates[s.cursor].Account.ID
	s.lastSwitch = now
	return s.lastID, nil
}

// Name returns the strategy name.
func (s *Interval) Name() string {
	return "interval"
}

// Reset clears the cursor and the last selection. Primarily used by tests.
func (s *Interval) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = 0
	s.lastID = ""
	s.lastSwitch = time.Time{}
}
