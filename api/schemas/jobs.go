// File: api/schemas/jobs.go
package schemas

import "time"

// JobStatus tracks a job through its lifecycle. Transitions are owned
// exclusively by the task workflow; nothing else mutates a job's status.
type JobStatus string

const (
	StatusPending         JobStatus = "pending"
	StatusRunning         JobStatus = "running"
	StatusWaitingApproval JobStatus = "waiting_approval"
	StatusWaitingInfo     JobStatus = "waiting_info"
	StatusCompleted       JobStatus = "completed"
	StatusFailed          JobStatus = "failed"
	StatusRejected        JobStatus = "rejected"
	StatusKilled          JobStatus = "killed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusRejected, StatusKilled:
		return true
	}
	return false
}

// Job is the persistent record of one task handed to the agent. Created once
// at task start and never deleted by this system (archival is external).
type Job struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Goal          string    `json:"goal"`
	Status        JobStatus `json:"status"`
	WorkflowID    string    `json:"workflow_id"`
	SessionID     string    `json:"session_id,omitempty"`
	SessionViewer string    `json:"session_viewer_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TaskLogEntry is one row of the per-job activity feed: a single turn's
// action and (truncated) reasoning, recorded for the dashboard.
type TaskLogEntry struct {
	JobID     string    `json:"job_id"`
	Action    string    `json:"action"`
	Reasoning string    `json:"reasoning"`
	Finished  bool      `json:"finished"`
	CreatedAt time.Time `json:"created_at"`
}

// Strategy is the planner's classification of how a goal should be resolved.
type Strategy string

const (
	// StrategyBrowser means the agent must drive a browser session.
	StrategyBrowser Strategy = "browser"
	// StrategyMemory means the goal can be resolved from stored context alone.
	StrategyMemory Strategy = "memory"
	// StrategyClarify means the agent needs more information from the owner.
	StrategyClarify Strategy = "clarify"
)

// Plan is the outcome of the strategic-planning phase.
type Plan struct {
	Strategy  Strategy `json:"strategy"`
	Reasoning string   `json:"reasoning"`
	// ProfileContext carries the owner profile retrieved from long-term
	// memory so later turns do not need to re-fetch it.
	ProfileContext string `json:"profile_context"`
}

// TurnErrorKind classifies failures that a turn reports as part of its
// result rather than as an activity error. These end the job gracefully.
type TurnErrorKind string

const (
	TurnErrorNone          TurnErrorKind = ""
	TurnErrorRateLimit     TurnErrorKind = "rate_limit"
	TurnErrorQuotaExceeded TurnErrorKind = "quota_exceeded"
	TurnErrorScreenshot    TurnErrorKind = "screenshot_failed"
	TurnErrorModel         TurnErrorKind = "model_error"
)

// TurnResult is what one observe-decide-act cycle produces. It is consumed
// immediately by the workflow to derive the next transition and never
// retained beyond that.
type TurnResult struct {
	Reasoning        string        `json:"reasoning"`
	Finished         bool          `json:"finished"`
	ActionTaken      string        `json:"action_taken"`
	RequiresApproval bool          `json:"requires_approval"`
	ApprovalAction   string        `json:"approval_action,omitempty"`
	ErrorKind        TurnErrorKind `json:"error_kind,omitempty"`
	ErrorMessage     string        `json:"error_message,omitempty"`
}
