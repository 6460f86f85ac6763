// Package stores persists install run history in SQLite.
package stores

import "time"

// RunStatus is the terminal state of a recorded run.
type RunStatus string

// Run status values.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// StepStatus is the recorded outcome of one pipeline step.
type StepStatus string

// Step status values. Soft failures are recorded distinctly so a later
// reader can tell a tolerated failure from a clean pass.
const (
	StepStatusOK         StepStatus = "ok"
	StepStatusFailed     StepStatus = "failed"
	StepStatusSoftFailed StepStatus = "soft_failed"
	StepStatusSkipped    StepStatus = "skipped"
)

// Run is one install pipeline invocation.
type Run struct {
	// ID is the run's UUID.
	ID string

	// PrefixName is the Wine prefix the run targeted.
	PrefixName string

	// Status is the run's current or terminal status.
	Status RunStatus

	// Error holds the failing step's message for failed runs.
	Error string

	// StartedAt is when the run began.
	StartedAt time.Time

	// CompletedAt is when the run finished, zero while running.
	CompletedAt time.Time
}

// Step is one recorded step outcome within a run.
type Step struct {
	// RunID is the owning run's UUID.
	RunID string

	// Seq is the step's position within the run, starting at 0.
	Seq int

	// Name is the pipeline step name.
	Name string

	// Status is the step outcome.
	Status StepStatus

	// Detail is the step's log or failure detail, may be empty.
	Detail string

	// RecordedAt is when the outcome was recorded.
	RecordedAt time.Time
}
