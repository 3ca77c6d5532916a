package strategies

import (
	"fmt"
	"sort"

	"helios-hq/relay/pkg/accounts"
)

// Smart is the composite strategy. It imposes a deterministic total order on
// the candidates and always selects the first:
//
//  1. health, active before quota-exceeded (candidates handed to a strategy
//     are normally all active; the ordering still holds when a caller feeds
//     a wider snapshot)
//  2. remaining-quota fraction, descending
//  3. priority weight, descending
//  4. account id, ascending
//
// No randomness is involved; the same snapshot always yields the same
// account.
type Smart struct{}

// NewSmart creates a new smart composite strategy.
func NewSmart() *Smart {
	return &Smart{}
}

// Select returns the id of the best-ranked candidate.
func (s *Smart) Select(candidates []accounts.State) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("no candidates for smart selection")
	}

	ranked := make([]accounts.State, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		return smartLess(ranked[i], ranked[j])
	})

	return ranked[0].Account.ID, nil
}

// smartLess reports whether a ranks before b in the composite order.
func smartLess(a, b accounts.State) bool {
	if a.Health != b.Health {
		return healthRank(a.Health) < healthRank(b.Health)
	}
	af, bf := a.RemainingFraction(), b.RemainingFraction()
	if af != bf {
		return af > bf
	}
	if a.Account.Priority != b.Account.Priority {
		return a.Account.Priority > b.Account.Priority
	}
	return a.Account.ID < b.Account.ID
}

// healthRank orders health states for the primary criterion.
func healthRank(h accounts.HealthState) int {
	switch h {
	case accounts.HealthActive:
		return 0
	case accounts.HealthQuotaExceeded:
		return 1
	default:
		return 2
	}
}

// Name returns the strategy name.
func (s *Smart) Name() string {
	return "smart"
}

// Reset is a no-op; the strategy holds no local state.
func (s *Smart) Reset() {}
