package models

import "time"

// RunOutcome describes how an export invocation ended.
type RunOutcome string

const (
	// RunOutcomeSuccess means every workspace was traversed.
	RunOutcomeSuccess RunOutcome = "success"
	// RunOutcomePartial means the output file was written up to a failure.
	RunOutcomePartial RunOutcome = "partial"
	// RunOutcomeFailure means nothing was written.
	RunOutcomeFailure RunOutcome = "failure"
)

// ExportRun is the history record of one export invocation.
type ExportRun struct {
	ID         string
	OutputPath string
	UserName   string
	Outcome    RunOutcome
	Rows       int
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}
