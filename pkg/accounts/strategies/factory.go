package strategies

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"helios-hq/relay/pkg/accounts"
)

// Strategy names accepted in configuration.
const (
	NameRoundRobin = "round_robin"
	NameLeastUsed  = "least_used"
	NameInterval   = "interval"
	NameSmart      = "smart"
)

// ErrUnknownStrategy is returned when a configured strategy name is not
// recognized. It can be checked with errors.Is().
var ErrUnknownStrategy = errors.New("unknown rotation strategy")

// UnknownStrategyError is returned for an unrecognized strategy name.
type UnknownStrategyError struct {
	// Strategy is the invalid name.
	Strategy string
}

// Error implements the error interface.
func (e *UnknownStrategyError) Error() string {
	return fmt.Sprintf("unknown rotation strategy %q (available: %s)",
		e.Strategy, strings.Join([]string{NameRoundRobin, NameLeastUsed, NameInterval, NameSmart}, ", "))
}

// Is implements error matching for errors.Is().
func (e *UnknownStrategyError) Is(target error) bool {
	return target == ErrUnknownStrategy
}

// FromName builds the strategy named in configuration. checkInterval is only
// consulted by the interval strategy; switchAfter, when greater than zero,
// layers the switch-after-N gate over the chosen strategy.
func FromName(name string, checkInterval time.Duration, switchAfter int64) (accounts.RotationStrategy, error) {
	var base accounts.RotationStrategy
	switch name {
	case NameRoundRobin:
		base = NewRoundRobin()
	case NameLeastUsed:
		base = NewLeastUsed()
	case NameInterval:
		base = NewInterval(checkInterval)
	case NameSmart:
		base = NewSmart()
	default:
		return nil, &UnknownStrategyError{Strategy: name}
	}

	if switchAfter > 0 {
		return NewSwitchCount(base, switchAfter)
	}
	return base, nil
}
