package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"helios-hq/relay/pkg/accounts"
)

// saveTimeout bounds a single scheduled snapshot write.
const saveTimeout = 10 * time.Second

// Snapshotter persists the account pool's usage snapshot on a cron schedule,
// and once more on Stop so the final counters are never lost to the tick
// boundary.
type Snapshotter struct {
	pool    *accounts.Pool
	backend Backend
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewSnapshotter schedules periodic snapshots of pool into backend. The
// schedule accepts standard cron expressions and the @every form.
func NewSnapshotter(pool *accounts.Pool, backend Backend, schedule string, logger *slog.Logger) (*Snapshotter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Snapshotter{
		pool:    pool,
		backend: backend,
		cron:    cron.New(),
		logger:  logger,
	}

	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, &BackendError{Backend: "snapshotter", Op: "schedule", Err: err}
	}
	return s, nil
}

// Start begins scheduled persistence.
func (s *Snapshotter) Start() {
	s.cron.Start()
	s.logger.Info("usage snapshotter started")
}

// Stop halts the schedule, waits for an in-flight tick, and writes one final
// snapshot.
func (s *Snapshotter) Stop() {
	<-s.cron.Stop().Done()
	s.tick()
	s.logger.Info("usage snapshotter stopped")
}

// tick persists one snapshot.
func (s *Snapshotter) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	states := s.pool.Snapshot()
	if err := s.backend.SaveSnapshot(ctx, states); err != nil {
		s.logger.Error("persisting usage snapshot failed", "error", err)
		return
	}
	s.logger.Debug("usage snapshot persisted", "accounts", len(states))
}
