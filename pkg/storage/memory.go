package storage

import (
	"context"
	"sync"

	"helios-hq/relay/pkg/accounts"
)

// Memory is an in-memory Backend. Snapshots do not survive the process; it
// exists for tests and deployments that opt out of persistence.
type Memory struct {
	mu      sync.RWMutex
	records map[string]accounts.UsageRecord
	saved   bool
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{}
}

// SaveSnapshot implements Backend.
func (m *Memory) SaveSnapshot(ctx context.Context, states []accounts.State) error {
	records := make(map[string]accounts.UsageRecord, len(states))
	for _, st := range states {
		records[st.Account.ID] = st.Usage
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = records
	m.saved = true
	return nil
}

// LoadUsage implements Backend.
func (m *Memory) LoadUsage(ctx context.Context) (map[string]accounts.UsageRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.saved {
		return nil, ErrNoSnapshot
	}
	out := make(map[string]accounts.UsageRecord, len(m.records))
	for id, rec := range m.records {
		out[id] = rec
	}
	return out, nil
}

// Close implements Backend.
func (m *Memory) Close() error {
	return nil
}
