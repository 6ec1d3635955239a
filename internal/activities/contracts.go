// File: internal/activities/contracts.go

// Package activities implements the side-effecting units of work the task
// workflow schedules: job persistence, strategic planning, browser session
// management, reasoning-action turns, owner notifications and long-term
// memory writes. Each activity is independently retryable under the policy
// the workflow attaches to it.
package activities

import (
	"context"

	"github.com/xkilldash9x/wraith/api/schemas"
)

// Activity registration names. The workflow schedules activities by these
// names, so they are part of the durable contract: renaming one breaks
// replay of in-flight jobs.
const (
	NameCreateJobRecord   = "CreateJobRecord"
	NamePlanStrategy      = "PlanStrategy"
	NameProvisionSession  = "ProvisionSession"
	NameExecuteTurn       = "ExecuteTurn"
	NameRequestApproval   = "RequestApproval"
	NameUpdateJobStatus   = "UpdateJobStatus"
	NameSendCompletion    = "SendCompletion"
	NameSendFailure       = "SendFailure"
	NameSaveOutcomeMemory = "SaveOutcomeMemory"
	NameReleaseSession    = "ReleaseSession"
)

// ErrTypePermanent marks application errors the workflow must not retry.
const ErrTypePermanent = "permanent"

// -- Activity input/output payloads --

type CreateJobInput struct {
	OwnerID    string
	Goal       string
	WorkflowID string
}

type CreateJobOutput struct {
	JobID string
}

type PlanInput struct {
	OwnerID string
	Goal    string
}

type ProvisionInput struct {
	OwnerID string
	JobID   string
}

type TurnInput struct {
	SessionID      string
	Goal           string
	OwnerID        string
	ProfileContext string
	JobID          string
}

type ApprovalRequestInput struct {
	NotifyAddress     string
	OwnerID           string
	WorkflowID        string
	JobID             string
	ActionDescription string
}

type ApprovalRequestOutput struct {
	Notified bool
}

type UpdateStatusInput struct {
	JobID  string
	Status schemas.JobStatus
}

type CompletionInput struct {
	NotifyAddress string
	OwnerID       string
	Goal          string
	Summary       string
}

type FailureInput struct {
	NotifyAddress string
	OwnerID       string
	Goal          string
	Status        schemas.JobStatus
	Reason        string
}

type SaveMemoryInput struct {
	OwnerID string
	Goal    string
	Outcome string
}

type ReleaseInput struct {
	SessionID string
}

// -- Collaborator boundaries --

// JobStore persists job records and per-turn logs.
type JobStore interface {
	CreateJob(ctx context.Context, ownerID, goal, workflowID string) (string, error)
	UpdateStatus(ctx context.Context, jobID string, status schemas.JobStatus) error
	AttachSession(ctx context.Context, jobID, sessionID, viewerURL string) error
	AppendTaskLog(ctx context.Context, entry schemas.TaskLogEntry) error
	RecordApproval(ctx context.Context, workflowID, notifyAddress, description string) error
}

// Planner decides how a goal should be resolved before any browser is
// provisioned.
type Planner interface {
	PlanStrategy(ctx context.Context, ownerID, goal string) (schemas.Plan, error)
}

// TurnExecutor runs one observe-decide-act cycle against a live session.
type TurnExecutor interface {
	ExecuteTurn(ctx context.Context, in TurnInput) (schemas.TurnResult, error)
}

// SessionManager provisions and releases browser sessions.
type SessionManager interface {
	Provision(ctx context.Context, ownerID, jobID string) (schemas.Session, error)
	Release(ctx context.Context, sessionID string) error
}

// Notifier delivers owner-facing notifications. Implementations own the
// formatting; callers only supply the facts.
type Notifier interface {
	SendApprovalRequest(ctx context.Context, addr, ownerID, workflowID, action string) error
	SendCompletion(ctx context.Context, addr, ownerID, goal, summary string) error
	SendFailure(ctx context.Context, addr, ownerID, goal string, status schemas.JobStatus, reason string) error
}

// MemoryStore is the long-term memory service boundary.
type MemoryStore interface {
	SaveOutcome(ctx context.Context, ownerID, goal, outcome string) error
}
