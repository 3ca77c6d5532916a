package accounts

// RotationStrategy decides which account the pool hands out next.
//
// Select receives the selectable accounts (health active) in declaration
// order and returns the id of the chosen one. The snapshot is a copy; a
// strategy never mutates pool state. Implementations must be safe for
// concurrent use, as the pool calls them from every exchange-handling
// goroutine.
type RotationStrategy interface {
	// Select returns the id of the account to use for the next exchange.
	// candidates is never empty.
	Select(candidates []State) (string, error)

	// Name returns the strategy name for logging and statistics.
	Name() string

	// Reset clears strategy-local state. Primarily used by tests.
	Reset()
}
