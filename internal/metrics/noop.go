package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// ObserveConnectDuration is a no-op.
func (n *NoopRecorder) ObserveConnectDuration(duration time.Duration) {}

// IncConnectRetry is a no-op.
func (n *NoopRecorder) IncConnectRetry() {}

// IncUserCreated is a no-op.
func (n *NoopRecorder) IncUserCreated() {}

// IncUserCreateFailed is a no-op.
func (n *NoopRecorder) IncUserCreateFailed(reason string) {}

// IncUserVerified is a no-op.
func (n *NoopRecorder) IncUserVerified(ok bool) {}

// IncLockContended is a no-op.
func (n *NoopRecorder) IncLockContended() {}

// IncLedgerWriteFailed is a no-op.
func (n *NoopRecorder) IncLedgerWriteFailed() {}
