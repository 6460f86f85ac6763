package pipeline

import "fmt"

// StepStatus tags a step outcome. The pipeline driver halts on hard
// failures, continues past soft ones and records skips for idempotent
// short-circuits.
type StepStatus string

// Step status values.
const (
	StatusOK         StepStatus = "ok"
	StatusSkipped    StepStatus = "skipped"
	StatusSoftFailed StepStatus = "soft_failed"
	StatusFailed     StepStatus = "failed"
)

// StepResult is the tagged outcome of one pipeline step.
type StepResult struct {
	Status StepStatus

	// Detail is a human-readable outcome summary; for failures it names the
	// cause.
	Detail string

	// Err is the underlying error for failed and soft-failed steps.
	Err error
}

// halts reports whether the pipeline must stop at this result.
func (r StepResult) halts() bool {
	return r.Status == StatusFailed
}

// ok returns a successful result.
func ok(detail string) StepResult {
	return StepResult{Status: StatusOK, Detail: detail}
}

// skipped returns an idempotent short-circuit result.
func skipped(detail string) StepResult {
	return StepResult{Status: StatusSkipped, Detail: detail}
}

// hard returns a pipeline-halting failure.
func hard(err error, format string, args ...interface{}) StepResult {
	return StepResult{
		Status: StatusFailed,
		Detail: fmt.Sprintf(format, args...),
		Err:    err,
	}
}

// soft returns a tolerated failure: logged, recorded, not halting.
func soft(err error, format string, args ...interface{}) StepResult {
	return StepResult{
		Status: StatusSoftFailed,
		Detail: fmt.Sprintf(format, args...),
		Err:    err,
	}
}

// StepRecord is one entry in a run's ordered outcome log.
type StepRecord struct {
	Name   string
	Status StepStatus
	Detail string
}

// Result is the pipeline's terminal value: a success flag plus the ordered
// log of step outcomes. No partial or indeterminate state is exposed.
type Result struct {
	// Success is true when every step finished without a hard failure.
	Success bool

	// RunID is the recorded run's UUID.
	RunID string

	// Steps is the ordered outcome log, one record per executed step.
	Steps []StepRecord
}

// FailedStep returns the name of the halting step, or "" on success.
func (r Result) FailedStep() string {
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			return s.Name
		}
	}
	return ""
}
