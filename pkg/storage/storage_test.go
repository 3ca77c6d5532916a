package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"helios-hq/relay/pkg/accounts"
	"helios-hq/relay/pkg/accounts/strategies"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleStates() []accounts.State {
	return []accounts.State{
		{
			Account: accounts.Account{ID: "acct-a", Quota: 1000},
			Usage: accounts.UsageRecord{
				BytesIn:  120,
				BytesOut: 4096,
				Requests: 7,
				LastUsed: time.Unix(1700000000, 0),
			},
			Health: accounts.HealthActive,
		},
		{
			Account: accounts.Account{ID: "acct-b"},
			Usage:   accounts.UsageRecord{BytesIn: 5, BytesOut: 10, Requests: 1},
			Health:  accounts.HealthQuotaExceeded,
		},
	}
}

func testBackends(t *testing.T) map[string]Backend {
	t.Helper()

	sqlite, err := NewSQLite(SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "usage.db"),
	}, discardLogger())
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Backend{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func TestBackendRoundTrip(t *testing.T) {
	for name, backend := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := backend.LoadUsage(ctx); !errors.Is(err, ErrNoSnapshot) {
				t.Fatalf("LoadUsage() on empty backend = %v, want ErrNoSnapshot", err)
			}

			states := sampleStates()
			if err := backend.SaveSnapshot(ctx, states); err != nil {
				t.Fatalf("SaveSnapshot() error = %v", err)
			}

			records, err := backend.LoadUsage(ctx)
			if err != nil {
				t.Fatalf("LoadUsage() error = %v", err)
			}
			if len(records) != 2 {
				t.Fatalf("records = %d, want 2", len(records))
			}

			a := records["acct-a"]
			if a.BytesIn != 120 || a.BytesOut != 4096 || a.Requests != 7 {
				t.Errorf("acct-a record = %+v, want 120/4096/7", a)
			}
			if a.LastUsed.Unix() != 1700000000 {
				t.Errorf("acct-a LastUsed = %v, want unix 1700000000", a.LastUsed)
			}

			if b := records["acct-b"]; b.BytesIn != 5 || b.BytesOut != 10 {
				t.Errorf("acct-b record = %+v, want 5/10", b)
			}
		})
	}
}

func TestBackendLatestSnapshotWins(t *testing.T) {
	for name, backend := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			first := sampleStates()
			if err := backend.SaveSnapshot(ctx, first); err != nil {
				t.Fatalf("SaveSnapshot() error = %v", err)
			}

			second := sampleStates()
			second[0].Usage.BytesOut = 9999
			if err := backend.SaveSnapshot(ctx, second); err != nil {
				t.Fatalf("SaveSnapshot() error = %v", err)
			}

			records, err := backend.LoadUsage(ctx)
			if err != nil {
				t.Fatalf("LoadUsage() error = %v", err)
			}
			if got := records["acct-a"].BytesOut; got != 9999 {
				t.Errorf("acct-a BytesOut = %d, want latest value 9999", got)
			}
		})
	}
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.db")
	ctx := context.Background()

	first, err := NewSQLite(SQLiteConfig{Path: path}, discardLogger())
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	if err := first.SaveSnapshot(ctx, sampleStates()); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second, err := NewSQLite(SQLiteConfig{Path: path}, discardLogger())
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer second.Close()

	records, err := second.LoadUsage(ctx)
	if err != nil {
		t.Fatalf("LoadUsage() after reopen error = %v", err)
	}
	if records["acct-a"].Requests != 7 {
		t.Errorf("acct-a requests = %d, want 7 across reopen", records["acct-a"].Requests)
	}
}

func TestSnapshotterRestoreIntoPool(t *testing.T) {
	ctx := context.Background()
	backend := NewMemory()

	pool, err := accounts.NewPool([]accounts.Account{
		{ID: "acct-a", Secret: "sk-aaa"},
		{ID: "acct-b", Secret: "sk-bbb"},
	}, strategies.NewRoundRobin(), accounts.WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	// Simulate traffic, snapshot, then restore into a fresh pool.
	if _, err := pool.Select(); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if err := pool.RecordUsage("acct-a", 100, 200); err != nil {
		t.Fatalf("RecordUsage() error = %v", err)
	}
	if err := backend.SaveSnapshot(ctx, pool.Snapshot()); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	fresh, err := accounts.NewPool([]accounts.Account{
		{ID: "acct-a", Secret: "sk-aaa"},
		{ID: "acct-b", Secret: "sk-bbb"},
	}, strategies.NewRoundRobin(), accounts.WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	records, err := backend.LoadUsage(ctx)
	if err != nil {
		t.Fatalf("LoadUsage() error = %v", err)
	}
	fresh.RestoreUsage(records)

	state := fresh.Snapshot()[0]
	if state.Usage.BytesIn != 100 || state.Usage.BytesOut != 200 || state.Usage.Requests != 1 {
		t.Errorf("restored usage = %+v, want 100/200/1", state.Usage)
	}
}

func TestSnapshotterStopWritesFinalSnapshot(t *testing.T) {
	backend := NewMemory()
	pool, err := accounts.NewPool([]accounts.Account{
		{ID: "acct-a", Secret: "sk-aaa"},
	}, strategies.NewRoundRobin(), accounts.WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	// A schedule far in the future: only the Stop-time snapshot fires.
	snap, err := NewSnapshotter(pool, backend, "@every 1h", discardLogger())
	if err != nil {
		t.Fatalf("NewSnapshotter() error = %v", err)
	}
	snap.Start()

	if err := pool.RecordUsage("acct-a", 42, 0); err != nil {
		t.Fatalf("RecordUsage() error = %v", err)
	}
	snap.Stop()

	records, err := backend.LoadUsage(context.Background())
	if err != nil {
		t.Fatalf("LoadUsage() error = %v", err)
	}
	if records["acct-a"].BytesIn != 42 {
		t.Errorf("final snapshot BytesIn = %d, want 42", records["acct-a"].BytesIn)
	}
}

func TestSnapshotterRejectsBadSchedule(t *testing.T) {
	pool, err := accounts.NewPool([]accounts.Account{
		{ID: "acct-a", Secret: "sk-aaa"},
	}, strategies.NewRoundRobin(), accounts.WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	if _, err := NewSnapshotter(pool, NewMemory(), "not a schedule", discardLogger()); err == nil {
		t.Fatal("NewSnapshotter() with invalid schedule must fail")
	}
}
