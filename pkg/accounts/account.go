package accounts

import "time"

// HealthState describes whether an account may receive traffic.
type HealthState string

const (
	// HealthActive means the account is eligible for selection.
	HealthActive HealthState = "active"

	// HealthQuotaExceeded means upstream signalled quota exhaustion for this
	// account. It is skipped by selection until reactivated.
	HealthQuotaExceeded HealthState = "quota_exceeded"

	// HealthDisabled means the account was taken out of service by the
	// operator. Disabled accounts are never selected.
	HealthDisabled HealthState = "disabled"
)

// Account is a single upstream credential as declared in configuration.
// The pool owns all account records; callers receive copies.
type Account struct {
	// ID is the opaque, unique account identifier.
	ID string `yaml:"id"`

	// Name is the human-readable display name.
	Name string `yaml:"name"`

	// Secret is the credential attached to outgoing requests.
	Secret string `yaml:"secret"`

	// Quota is the usage ceiling in pool units (bytes by default, requests
	// when so configured). Zero means unlimited.
	Quota int64 `yaml:"quota"`

	// Priority is the weight used by the smart rotation strategy.
	// Higher values are preferred.
	Priority int `yaml:"priority"`
}

// UsageRecord holds the running totals for one account. Totals are
// monotonically non-decreasing within a process lifetime and reset only on
// explicit reactivation.
type UsageRecord struct {
	// BytesIn is the total request bytes attributed to the account.
	BytesIn int64

	// BytesOut is the total response bytes attributed to the account.
	BytesOut int64

	// Requests is the number of times the account was selected.
	Requests int64

	// LastUsed is when the account was last selected.
	LastUsed time.Time
}

// Total returns the combined byte volume of the record.
func (u UsageRecord) Total() int64 {
	return u.BytesIn + u.BytesOut
}

// State is a consistent-as-of-call view of one account: its declaration,
// usage totals, health, and the usage expressed in quota units.
type State struct {
	// Account is a copy of the account record.
	Account Account

	// Usage is a copy of the account's running totals.
	Usage UsageRecord

	// Health is the account's health state at snapshot time.
	Health HealthState

	// Used is the accumulated usage in the pool's quota unit.
	Used int64
}

// RemainingFraction returns the fraction of quota still available, in
// [0, 1]. Unlimited quotas report 1.
func (s State) RemainingFraction() float64 {
	if s.Account.Quota <= 0 {
		return 1
	}
	remaining := s.Account.Quota - s.Used
	if remaining <= 0 {
		return 0
	}
	return float64(remaining) / float64(s.Account.Quota)
}
