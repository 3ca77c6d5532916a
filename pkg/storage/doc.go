// Package storage persists account usage snapshots so quota accounting
// survives a restart.
//
// A Backend stores the pool's point-in-time usage state and returns the most
// recent one for restoration at startup. Two implementations exist: a SQLite
// backend for durable operation and an in-memory backend for tests and
// throwaway deployments.
//
// The Snapshotter drives a Backend on a cron schedule, persisting the pool's
// snapshot at each tick and once more on shutdown.
package storage
