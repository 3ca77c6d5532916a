package accounts

import (
	"errors"
	"fmt"
)

// Common pool errors that can be checked with errors.Is().
var (
	// ErrNoAvailableAccount is returned by Select when every account is
	// disabled or quota-exceeded.
	ErrNoAvailableAccount = errors.New("no available account")

	// ErrUnknownAccount is returned when an operation names an account id
	// the pool does not hold.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrEmptyPool is returned at construction when the configured account
	// list is empty. Fatal at startup.
	ErrEmptyPool = errors.New("account pool is empty")

	// ErrDuplicateAccount is returned at construction when two accounts
	// share an id. Fatal at startup.
	ErrDuplicateAccount = errors.New("duplicate account id")
)

// NoAvailableAccountError is returned when selection finds no eligible
// account. It carries the pool composition at the time of failure so callers
// can decide whether to degrade or reject.
type NoAvailableAccountError struct {
	// Total is the number of accounts in the pool.
	Total int

	// Exhausted is the number of quota-exceeded accounts.
	Exhausted int

	// Disabled is the number of disabled accounts.
	Disabled int
}

// Error implements the error interface.
func (e *NoAvailableAccountError) Error() string {
	return fmt.Sprintf("no available account (total: %d, quota-exceeded: %d, disabled: %d)",
		e.Total, e.Exhausted, e.Disabled)
}

// Is implements error matching for errors.Is().
func (e *NoAvailableAccountError) Is(target error) bool {
	return target == ErrNoAvailableAccount
}

// UnknownAccountError is returned when an account id is not in the pool.
type UnknownAccountError struct {
	// ID is the account id that was not found.
	ID string
}

// Error implements the error interface.
func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("unknown account %q", e.ID)
}

// Is implements error matching for errors.Is().
func (e *UnknownAccountError) Is(target error) bool {
	return target == ErrUnknownAccount
}
