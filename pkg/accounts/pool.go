package accounts

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// QuotaUnit selects how accumulated usage is compared against an account's
// quota ceiling.
type QuotaUnit string

const (
	// QuotaBytes counts request plus response bytes against the quota.
	QuotaBytes QuotaUnit = "bytes"

	// QuotaRequests counts selections against the quota.
	QuotaRequests QuotaUnit = "requests"
)

// Valid reports whether the unit is recognized.
func (u QuotaUnit) Valid() bool {
	return u == QuotaBytes || u == QuotaRequests
}

// entry is the pool-private mutable record for one account.
type entry struct {
	account Account
	usage   UsageRecord
	health  HealthState
}

// Pool holds the account records and their usage counters. All mutating
// operations serialize against a single pool-wide critical section; Snapshot
// is consistent-as-of-call per account but makes no cross-account atomicity
// guarantee beyond holding the lock for the duration of the copy.
type Pool struct {
	mu       sync.Mutex
	order    []string
	entries  map[string]*entry
	strategy RotationStrategy
	unit     QuotaUnit
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Pool.
type Option func(*Pool)

// WithQuotaUnit sets the unit used to compare usage against quotas.
// Default: bytes.
func WithQuotaUnit(unit QuotaUnit) Option {
	return func(p *Pool) { p.unit = unit }
}

// WithLogger sets the pool's logger. Default: slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) { p.logger = logger }
}

// WithClock overrides the pool's time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pool) { p.now = now }
}

// NewPool creates a pool over the configured accounts, delegating selection
// to the given strategy. The account list must be non-empty and ids must be
// unique; violations are fatal configuration errors.
func NewPool(accountList []Account, strategy RotationStrategy, opts ...Option) (*Pool, error) {
	if len(accountList) == 0 {
		return nil, ErrEmptyPool
	}
	if strategy == nil {
		return nil, fmt.Errorf("rotation strategy is required")
	}

	p := &Pool{
		entries:  make(map[string]*entry, len(accountList)),
		strategy: strategy,
		unit:     QuotaBytes,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, acct := range accountList {
		if acct.ID == "" {
			return nil, fmt.Errorf("account %q: %w", acct.Name, fmt.Errorf("id is empty"))
		}
		if _, exists := p.entries[acct.ID]; exists {
			return nil, fmt.Errorf("account %q: %w", acct.ID, ErrDuplicateAccount)
		}
		p.order = append(p.order, acct.ID)
		p.entries[acct.ID] = &entry{account: acct, health: HealthActive}
	}

	return p, nil
}

// Strategy returns the name of the active rotation strategy.
func (p *Pool) Strategy() string {
	return p.strategy.Name()
}

// Select picks the next account via the rotation strategy and marks it used.
// Disabled and quota-exceeded accounts are never candidates; when no account
// is selectable, Select fails with a *NoAvailableAccountError and the caller
// decides whether to degrade or reject the exchange.
func (p *Pool) Select() (Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	candidates := make([]State, 0, len(p.order))
	exhausted, disabled := 0, 0
	for _, id := range p.order {
		e := p.entries[id]
		switch e.health {
		case HealthActive:
			candidates = append(candidates, p.stateLocked(e))
		case HealthQuotaExceeded:
			exhausted++
		case HealthDisabled:
			disabled++
		}
	}

	if len(candidates) == 0 {
		return Account{}, &NoAvailableAccountError{
			Total:     len(p.order),
			Exhausted: exhausted,
			Disabled:  disabled,
		}
	}

	id, err := p.strategy.Select(candidates)
	if err != nil {
		return Account{}, fmt.Errorf("strategy %s: %w", p.strategy.Name(), err)
	}

	e, ok := p.entries[id]
	if !ok || e.health != HealthActive {
		return Account{}, fmt.Errorf("strategy %s selected ineligible account %q", p.strategy.Name(), id)
	}

	e.usage.Requests++
	e.usage.LastUsed = p.now()

	return e.account, nil
}

// RecordUsage adds request and response byte counts to an account's totals.
func (p *Pool) RecordUsage(id string, bytesIn, bytesOut int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[id]
	if !ok {
		return &UnknownAccountError{ID: id}
	}

	if bytesIn > 0 {
		e.usage.BytesIn += bytesIn
	}
	if bytesOut > 0 {
		e.usage.BytesOut += bytesOut
	}
	return nil
}

// MarkExhausted transitions an account to quota-exceeded. The transition is
// idempotent: repeat calls, and calls against a disabled account, change
// nothing.
func (p *Pool) MarkExhausted(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[id]
	if !ok {
		return &UnknownAccountError{ID: id}
	}

	if e.health != HealthActive {
		return nil
	}

	e.health = HealthQuotaExceeded
	p.logger.Warn("account marked quota-exceeded",
		"account", id,
		"bytes_in", e.usage.BytesIn,
		"bytes_out", e.usage.BytesOut,
		"requests", e.usage.Requests,
	)
	return nil
}

// Reactivate returns a quota-exceeded account to active and resets its usage
// totals. Reactivating an already-active account is a no-op; disabled
// accounts stay disabled.
func (p *Pool) Reactivate(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[id]
	if !ok {
		return &UnknownAccountError{ID: id}
	}

	if e.health != HealthQuotaExceeded {
		return nil
	}

	e.health = HealthActive
	e.usage = UsageRecord{}
	p.logger.Info("account reactivated", "account", id)
	return nil
}

// Disable takes an account out of service for the rest of the process
// lifetime. The record is kept; only its health changes.
func (p *Pool) Disable(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[id]
	if !ok {
		return &UnknownAccountError{ID: id}
	}

	e.health = HealthDisabled
	p.logger.Info("account disabled", "account", id)
	return nil
}

// Snapshot returns every account with its usage and health, in declaration
// order. The returned states are copies.
func (p *Pool) Snapshot() []State {
	p.mu.Lock()
	defer p.mu.Unlock()

	states := make([]State, 0, len(p.order))
	for _, id := range p.order {
		states = append(states, p.stateLocked(p.entries[id]))
	}
	return states
}

// ActiveCount returns the number of accounts currently eligible for
// selection.
func (p *Pool) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, e := range p.entries {
		if e.health == HealthActive {
			n++
		}
	}
	return n
}

// RestoreUsage seeds usage totals from a persisted snapshot, keyed by
// account id. Unknown ids are skipped: the configured pool is authoritative
// for which accounts exist. Intended for startup, before traffic flows.
func (p *Pool) RestoreUsage(records map[string]UsageRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, rec := range records {
		e, ok := p.entries[id]
		if !ok {
			p.logger.Debug("skipping persisted usage for unconfigured account", "account", id)
			continue
		}
		e.usage = rec
	}
}

// stateLocked builds the copy-out view of an entry. Caller holds p.mu.
func (p *Pool) stateLocked(e *entry) State {
	used := e.usage.Total()
	if p.unit == QuotaRequests {
		used = e.usage.Requests
	}
	return State{
		Account: e.account,
		Usage:   e.usage,
		Health:  e.health,
		Used:    used,
	}
}
