// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Failure reasons for IncUserCreateFailed.
const (
	ReasonUserExists   = "user_exists"
	ReasonUnauthorized = "unauthorized"
	ReasonLockHeld     = "lock_held"
	ReasonOther        = "other"
)

// Recorder captures metric events for a bootstrap run.
type Recorder interface {
	// Engine metrics
	ObserveConnectDuration(duration time.Duration)
	IncConnectRetry()

	// Provisioning metrics
	IncUserCreated()
	IncUserCreateFailed(reason string)
	IncUserVerified(ok bool)

	// Run lock and ledger metrics
	IncLockContended()
	IncLedgerWriteFailed()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
