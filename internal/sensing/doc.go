// Package sensing contains the bridge's core loop: read a frame,
// derive brightness and presence, publish what changed, and drive the
// lamp through a two-threshold hysteresis policy.
//
// The loop is a single goroutine. It re-reads the settings snapshot
// every iteration, so reconfiguration (thresholds, topics, camera
// index) takes effect without a restart. Camera faults are absorbed:
// open failures back off exponentially, read failures reopen the
// stream after a short delay, and neither ever stops the loop or
// reaches a caller. The only way out of Run is context cancellation.
//
// Everything downstream of a sample is best-effort. Publishes are
// dropped while the bus is disconnected, event inserts and telemetry
// writes log and continue on failure. A broken sink must never stall
// actuation.
package sensing
