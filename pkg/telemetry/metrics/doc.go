// Package metrics exposes the proxy's Prometheus instrumentation.
//
// A single Collector owns every metric: exchange counts by verdict and
// status, byte volume by direction and account, rotation and failover
// counters, and the active-account gauge. Components record through the
// collector rather than owning metrics themselves, which keeps registration
// in one place and label cardinality under control.
package metrics
