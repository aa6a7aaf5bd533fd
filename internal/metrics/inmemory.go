package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ConnectDurationCount   uint64
	ConnectDurationTotalNs int64
	ConnectRetries         uint64
	UsersCreated           uint64
	UserCreateFailures     map[string]uint64
	UsersVerified          uint64
	UserVerifyFailures     uint64
	LockContentions        uint64
	LedgerWriteFailures    uint64
}

// InMemoryRecorder stores metrics in memory. The CLI logs its snapshot when a
// run ends; tests read it directly.
type InMemoryRecorder struct {
	connectDurationCount   uint64
	connectDurationTotalNs int64
	connectRetries         uint64
	usersCreated           uint64
	usersVerified          uint64
	userVerifyFailures     uint64
	lockContentions        uint64
	ledgerWriteFailures    uint64

	mu       sync.Mutex
	failures map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{failures: make(map[string]uint64)}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	failures := make(map[string]uint64, len(m.failures))
	for reason, n := range m.failures {
		failures[reason] = n
	}
	m.mu.Unlock()

	return Snapshot{
		ConnectDurationCount:   atomic.LoadUint64(&m.connectDurationCount),
		ConnectDurationTotalNs: atomic.LoadInt64(&m.connectDurationTotalNs),
		ConnectRetries:         atomic.LoadUint64(&m.connectRetries),
		UsersCreated:           atomic.LoadUint64(&m.usersCreated),
		UserCreateFailures:     failures,
		UsersVerified:          atomic.LoadUint64(&m.usersVerified),
		UserVerifyFailures:     atomic.LoadUint64(&m.userVerifyFailures),
		LockContentions:        atomic.LoadUint64(&m.lockContentions),
		LedgerWriteFailures:    atomic.LoadUint64(&m.ledgerWriteFailures),
	}
}

// ObserveConnectDuration records how long reaching the engine took.
func (m *InMemoryRecorder) ObserveConnectDuration(duration time.Duration) {
	atomic.AddUint64(&m.connectDurationCount, 1)
	atomic.AddInt64(&m.connectDurationTotalNs, duration.Nanoseconds())
}

// IncConnectRetry increments the connection retry counter.
func (m *InMemoryRecorder) IncConnectRetry() {
	atomic.AddUint64(&m.connectRetries, 1)
}

// IncUserCreated increments the users created counter.
func (m *InMemoryRecorder) IncUserCreated() {
	atomic.AddUint64(&m.usersCreated, 1)
}

// IncUserCreateFailed increments the failure counter for reason.
func (m *InMemoryRecorder) IncUserCreateFailed(reason string) {
	m.mu.Lock()
	m.failures[reason]++
	m.mu.Unlock()
}

// IncUserVerified counts a verification outcome.
func (m *InMemoryRecorder) IncUserVerified(ok bool) {
	if ok {
		atomic.AddUint64(&m.usersVerified, 1)
		return
	}
	atomic.AddUint64(&m.userVerifyFailures, 1)
}

// IncLockContended increments the lock contention counter.
func (m *InMemoryRecorder) IncLockContended() {
	atomic.AddUint64(&m.lockContentions, 1)
}

// IncLedgerWriteFailed increments the ledger failure counter.
func (m *InMemoryRecorder) IncLedgerWriteFailed() {
	atomic.AddUint64(&m.ledgerWriteFailures, 1)
}
