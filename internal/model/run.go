package model

import (
	"time"

	"github.com/google/uuid"
)

// Run status values.
const (
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// BootstrapRun records one create-user invocation.
type BootstrapRun struct {
	ID         string    `json:"id"`
	Username   string    `json:"user"`
	Database   string    `json:"db"`
	Roles      []string  `json:"roles"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewBootstrapRun starts a run record for the given spec.
func NewBootstrapRun(database string, spec UserSpec) *BootstrapRun {
	return &BootstrapRun{
		ID:        uuid.NewString(),
		Username:  spec.Username,
		Database:  database,
		Roles:     spec.RoleStrings(),
		StartedAt: time.Now().UTC(),
	}
}

// Finish stamps the outcome. A nil err marks the run as succeeded.
func (r *BootstrapRun) Finish(err error) {
	r.FinishedAt = time.Now().UTC()
	if err != nil {
		r.Status = RunStatusFailed
		r.Error = err.Error()
		return
	}
	r.Status = RunStatusSucceeded
	r.Error = ""
}

// Succeeded returns true if the run completed without error.
func (r *BootstrapRun) Succeeded() bool {
	return r.Status == RunStatusSucceeded
}

// Duration returns how long the run took.
func (r *BootstrapRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
