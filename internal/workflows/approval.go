// File: internal/workflows/approval.go

package workflows

import (
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/xkilldash9x/wraith/api/schemas"
	"github.com/xkilldash9x/wraith/internal/activities"
)

// approvalGate suspends the loop until the owner decides, the deadline
// elapses, or a kill arrives. It returns terminal=false only on approval;
// every other resolution carries the final outcome.
//
// Decision precedence while waiting: kill beats approve and reject, and a
// later decision overwrites an earlier undelivered one.
func (r *taskRun) approvalGate(ctx workflow.Context, action string) (TaskOutcome, bool, error) {
	logger := workflow.GetLogger(ctx)
	workflowID := workflow.GetInfo(ctx).WorkflowExecution.ID

	r.setStatus(ctx, schemas.StatusWaitingApproval)

	// Discard any decision that predates this gate. The owner has not seen
	// this request yet, so an earlier click cannot answer it.
	r.controls.takeDecision()

	err := workflow.ExecuteActivity(withNotifyOptions(ctx), activities.NameRequestApproval, activities.ApprovalRequestInput{
		NotifyAddress:     r.input.NotifyAddress,
		OwnerID:           r.input.OwnerID,
		WorkflowID:        workflowID,
		JobID:             r.jobID,
		ActionDescription: action,
	}).Get(ctx, nil)
	if err != nil {
		// An approval request the owner never saw cannot be waited on.
		out, werr := r.fail(ctx, "sending the approval request failed", err)
		return out, true, werr
	}

	logger.Info("Awaiting owner approval", "action", action, "timeout", r.input.ApprovalTimeout)

	ok, err := workflow.AwaitWithTimeout(ctx, r.input.ApprovalTimeout, func() bool {
		return r.controls.killed || r.controls.decision != schemas.DecisionUnset
	})
	if err != nil {
		out, werr := r.fail(ctx, "waiting for approval was interrupted", err)
		return out, true, werr
	}

	if r.controls.killed {
		out, werr := r.killed(ctx)
		return out, true, werr
	}
	if !ok {
		out, werr := r.approvalTimedOut(ctx, action)
		return out, true, werr
	}

	switch r.controls.takeDecision() {
	case schemas.DecisionApproved:
		logger.Info("Action approved, resuming", "action", action)
		r.setStatus(ctx, schemas.StatusRunning)
		return TaskOutcome{}, false, nil
	default:
		out, werr := r.rejected(ctx, action)
		return out, true, werr
	}
}

// approvalTimedOut ends the job after a gate deadline elapses with no human
// decision. Silence is not consent.
func (r *taskRun) approvalTimedOut(ctx workflow.Context, action string) (TaskOutcome, error) {
	workflow.GetLogger(ctx).Warn("Approval deadline elapsed", "action", action)

	r.setStatus(ctx, schemas.StatusFailed)
	r.notifyTerminal(ctx, schemas.StatusFailed,
		"The approval request for \""+action+"\" expired with no decision.")

	return TaskOutcome{
			Status: schemas.StatusFailed,
			JobID:  r.jobID,
			Turns:  r.turns,
		}, temporal.NewApplicationError(
			"approval deadline elapsed", ErrTypeApprovalTimeout)
}

// rejected ends the job after the owner declined a gated action.
func (r *taskRun) rejected(ctx workflow.Context, action string) (TaskOutcome, error) {
	workflow.GetLogger(ctx).Info("Action rejected by owner", "action", action)

	r.setStatus(ctx, schemas.StatusRejected)
	r.notifyTerminal(ctx, schemas.StatusRejected,
		"You declined the proposed action: "+action)

	return TaskOutcome{
		Status:  schemas.StatusRejected,
		JobID:   r.jobID,
		Summary: "Stopped before: " + action,
		Turns:   r.turns,
	}, nil
}

// killed ends the job after the owner pulled the kill switch. The kill flag
// is monotonic, so this path is reachable from any waiting or looping
// state and always wins over pending decisions.
func (r *taskRun) killed(ctx workflow.Context) (TaskOutcome, error) {
	workflow.GetLogger(ctx).Info("Task killed by owner", "job_id", r.jobID, "turns", r.turns)

	r.setStatus(ctx, schemas.StatusKilled)
	r.notifyTerminal(ctx, schemas.StatusKilled, "The task was stopped at your request.")

	return TaskOutcome{
		Status:  schemas.StatusKilled,
		JobID:   r.jobID,
		Summary: r.lastReasoning,
		Turns:   r.turns,
	}, nil
}
