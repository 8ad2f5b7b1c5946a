// Package store tracks stitch job statuses. The memory store backs
// single-process deployments; the redis store survives restarts and is
// selected when REDIS_URL is set.
package store

import (
	"context"
	"time"
)

// Job states.
const (
	StateQueued  = "queued"
	StateRunning = "running"
	StateDone    = "done"
	StateError   = "error"
)

// Status is the externally visible state of one stitch job.
type Status struct {
	JobID   string     `json:"job_id"`
	State   string     `json:"state"`
	Message string     `json:"message,omitempty"`
	Inputs  int        `json:"inputs"`
	Pages   int        `json:"pages,omitempty"`
	Output  string     `json:"output,omitempty"`
	Error   string     `json:"error,omitempty"`
	Start   *time.Time `json:"start_time,omitempty"`
	End     *time.Time `json:"end_time,omitempty"`
}

// Terminal reports whether the status will not change again.
func (s Status) Terminal() bool {
	return s.State == StateDone || s.State == StateError
}

// StatusStore persists job statuses.
type StatusStore interface {
	Set(ctx context.Context, jobID string, st Status) error
	Get(ctx context.Context, jobID string) (Status, bool, error)
	Recent(ctx context.Context, limit int) ([]Status, error)
	Close() error
}
