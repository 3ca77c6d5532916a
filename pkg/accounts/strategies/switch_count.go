package strategies

import (
	"fmt"
	"sync"

	"helios-hq/relay/pkg/accounts"
)

// SwitchCount is a decorator that gates switching cadence by request count:
// the wrapped strategy is consulted only every n-th selection, and the last
// answer is repeated in between. It layers over any strategy; it is a
// modifier, not a strategy of its own.
//
// If the held account drops out of the candidate set before the window
// closes, the wrapped strategy is consulted immediately.
type SwitchCount struct {
	wrapped accounts.RotationStrategy
	n       int64

	mu     sync.Mutex
	count  int64
	lastID string
}

// NewSwitchCount wraps a strategy so it switches accounts only after n
// selections. n must be at least 1; n == 1 is a pass-through.
func NewSwitchCount(wrapped accounts.RotationStrategy, n int64) (*SwitchCount, error) {
	if wrapped == nil {
		return nil, fmt.Errorf("switch-after-n requires a wrapped strategy")
	}
	if n < 1 {
		return nil, fmt.Errorf("switch-after-n count must be >= 1, got %d", n)
	}
	return &SwitchCount{wrapped: wrapped, n: n}, nil
}

// Select repeats the held account until n selections have passed, then
// delegates to the wrapped strategy.
func (s *SwitchCount) Select(candidates []accounts.State) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("no candidates for switch-after-n selection")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastID != "" && s.count%s.n != 0 {
		for _, c := range candidates {
			if c.Account.ID == s.lastID {
				s.count++
				return s.lastID, nil
			}
		}
		// Held account is gone; consult the wrapped strategy now and restart
		// the window.
		s.count = 0
	}

	id, err := s.wrapped.Select(candidates)
	if err != nil {
		return "", err
	}
	s.lastID = id
	s.count++
	return id, nil
}

// Name returns the decorated strategy name.
func (s *SwitchCount) Name() string {
	return s.wrapped.Name() + "+switch_count"
}

// Reset clears the window and resets the wrapped strategy.
func (s *SwitchCount) Reset() {
	s.mu.Lock()
	s.count = 0
	s.lastID = ""
	s.mu.Unlock()
	s.wrapped.Reset()
}
