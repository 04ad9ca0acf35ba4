package model

import "time"

// StepResult classifies the outcome of one step run.
type StepResult string

const (
	StepSucceeded StepResult = "succeeded"
	StepFailed    StepResult = "failed"
	StepSkipped   StepResult = "skipped"
)

// StepOutcome is what the scheduler observes after running a step.
type StepOutcome struct {
	RunID      string        `json:"run_id"`
	Area       string        `json:"area"`
	Result     StepResult    `json:"result"`
	Errors     int           `json:"errors"`
	Duration   time.Duration `json:"duration"`
	SkipReason string        `json:"skip_reason,omitempty"`
}

// Succeeded reports whether the step ran to completion without errors.
func (o StepOutcome) Succeeded() bool {
	return o.Result == StepSucceeded
}

// RunRecord is a single line in the maintenance run log (JSONL format).
// A record with Result == StepSucceeded is the success marker for its area.
type RunRecord struct {
	RunID      string        `json:"run_id"`
	Area       string        `json:"area"`
	Variant    Variant       `json:"variant,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ns"`
	Result     StepResult    `json:"result"`
	Errors     int           `json:"errors"`
	SkipReason string        `json:"skip_reason,omitempty"`
}

// Succeeded reports whether the record marks a successful run.
func (r RunRecord) Succeeded() bool {
	return r.Result == StepSucceeded
}
