package strategies

import (
	"fmt"

	"helios-hq/relay/pkg/accounts"
)

// LeastUsed selects the candidate with the minimum accumulated usage, in the
// pool's quota unit. Ties break toward the lowest account id so that a given
// snapshot always produces the same selection.
type LeastUsed struct{}

// NewLeastUsed creates a new least-used strategy.
func NewLeastUsed() *LeastUsed {
	return &LeastUsed{}
}

// Select returns the id of the least-used candidate.
func (s *LeastUsed) Select(candidates []accounts.State) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("no candidates for least-used selection")
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Used < best.Used || (c.Used == best.Used && c.Account.ID < best.Account.ID) {
			best = c
		}
	}
	return best.Account.ID, nil
}

// Name returns the strategy name.
func (s *LeastUsed) Name() string {
	return "least_used"
}

// Reset is a no-op; the strategy holds no local state.
func (s *LeastUsed) Reset() {}
