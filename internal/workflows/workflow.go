// File: internal/workflows/workflow.go

// Package workflows holds the durable task orchestration: a
// replay-deterministic state machine that sequences planning, the bounded
// reasoning-action loop, human approval gates, mid-task message injection
// and a kill switch, surviving process restarts and day-long suspensions.
package workflows

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/xkilldash9x/wraith/api/schemas"
	"github.com/xkilldash9x/wraith/internal/activities"
	"github.com/xkilldash9x/wraith/internal/risk"
)

// TaskWorkflowName is the durable registration name of the task workflow.
const TaskWorkflowName = "TaskWorkflow"

// Defaults applied when the launcher leaves the knobs zero.
const (
	DefaultMaxTurns        = 20
	DefaultApprovalTimeout = 24 * time.Hour
)

// messageDelimiter separates the original goal from owner updates merged in
// at turn boundaries.
const messageDelimiter = "\n\n--- OWNER UPDATE ---\n"

// ErrTypeApprovalTimeout is the application-error type used when an
// approval gate's deadline elapses with no human decision.
const ErrTypeApprovalTimeout = "approval_timeout"

// TaskInput starts one job. MaxTurns and ApprovalTimeout are recorded in
// workflow history, so changing launcher configuration never affects jobs
// already in flight.
type TaskInput struct {
	Goal            string
	OwnerID         string
	NotifyAddress   string
	MaxTurns        int
	ApprovalTimeout time.Duration
}

// TaskOutcome is the workflow's result for completed, rejected and killed
// jobs. Failed jobs surface through the workflow error instead.
type TaskOutcome struct {
	Status  schemas.JobStatus
	JobID   string
	Summary string
	Turns   int
}

// TaskWorkflow is the root orchestrator. The risk classifier is injected at
// worker construction so the destructive-intent rules can be swapped
// without touching the state machine.
type TaskWorkflow struct {
	risk risk.Classifier
}

// NewTaskWorkflow builds the workflow definition. A nil classifier gets the
// default keyword rule set.
func NewTaskWorkflow(classifier risk.Classifier) *TaskWorkflow {
	if classifier == nil {
		classifier = risk.NewKeywordClassifier(risk.DefaultRules())
	}
	return &TaskWorkflow{risk: classifier}
}

// Register attaches the workflow to a worker under its durable name.
func (w *TaskWorkflow) Register(reg worker.Registry) {
	reg.RegisterWorkflowWithOptions(w.Run, workflow.RegisterOptions{Name: TaskWorkflowName})
}

// Run executes one job end to end.
//
// INIT -> PLANNING -> {BROWSER_LOOP | MEMORY_RESOLVE | CLARIFY} ->
// {COMPLETING | FAILED | rejected | killed}, with session cleanup
// guaranteed on every path.
func (w *TaskWorkflow) Run(ctx workflow.Context, input TaskInput) (TaskOutcome, error) {
	logger := workflow.GetLogger(ctx)

	if input.Goal == "" || input.OwnerID == "" {
		return TaskOutcome{}, temporal.NewNonRetryableApplicationError(
			"task input requires a goal and an owner", "invalid_input", nil)
	}
	if input.MaxTurns <= 0 {
		input.MaxTurns = DefaultMaxTurns
	}
	if input.ApprovalTimeout <= 0 {
		input.ApprovalTimeout = DefaultApprovalTimeout
	}

	controls, err := newControlState(ctx)
	if err != nil {
		return TaskOutcome{}, fmt.Errorf("failed to register control handlers: %w", err)
	}

	r := &taskRun{
		wf:       w,
		input:    input,
		controls: controls,
	}

	// Cleanup is the moral equivalent of a finally block: it runs on every
	// outcome and must never override it.
	defer r.cleanup(ctx)

	logger.Info("Task workflow started",
		"owner_id", input.OwnerID,
		"max_turns", input.MaxTurns,
	)
	return r.execute(ctx)
}

// taskRun carries the mutable state of one execution.
type taskRun struct {
	wf       *TaskWorkflow
	input    TaskInput
	controls *controlState

	jobID         string
	sessionID     string
	turns         int
	lastReasoning string
}

func (r *taskRun) execute(ctx workflow.Context) (TaskOutcome, error) {
	workflowID := workflow.GetInfo(ctx).WorkflowExecution.ID

	// INIT: anchor everything to a job record.
	var created activities.CreateJobOutput
	err := workflow.ExecuteActivity(withJobWriteOptions(ctx), activities.NameCreateJobRecord, activities.CreateJobInput{
		OwnerID:    r.input.OwnerID,
		Goal:       r.input.Goal,
		WorkflowID: workflowID,
	}).Get(ctx, &created)
	if err != nil {
		return r.fail(ctx, "creating the job record failed", err)
	}
	r.jobID = created.JobID

	// PLANNING: decide whether this goal needs a browser at all.
	var plan schemas.Plan
	err = workflow.ExecuteActivity(withPlanOptions(ctx), activities.NamePlanStrategy, activities.PlanInput{
		OwnerID: r.input.OwnerID,
		Goal:    r.input.Goal,
	}).Get(ctx, &plan)
	if err != nil {
		return r.fail(ctx, "strategic planning failed", err)
	}

	switch plan.Strategy {
	case schemas.StrategyBrowser:
		return r.runBrowserLoop(ctx, plan)
	case schemas.StrategyClarify:
		return r.clarify(ctx, plan)
	default:
		// StrategyMemory, plus anything unrecognized that slipped past the
		// planning activity's normalization.
		return r.resolveFromMemory(ctx, plan)
	}
}

// runBrowserLoop provisions the session and drives the bounded
// reasoning-action loop.
func (r *taskRun) runBrowserLoop(ctx workflow.Context, plan schemas.Plan) (TaskOutcome, error) {
	logger := workflow.GetLogger(ctx)

	var session schemas.Session
	err := workflow.ExecuteActivity(withProvisionOptions(ctx), activities.NameProvisionSession, activities.ProvisionInput{
		OwnerID: r.input.OwnerID,
		JobID:   r.jobID,
	}).Get(ctx, &session)
	if err != nil {
		return r.fail(ctx, "provisioning the browser session failed", err)
	}
	r.sessionID = session.ID

	r.setStatus(ctx, schemas.StatusRunning)

	goal := r.input.Goal
	var addendum []string
	finished := false

	for turn := 0; turn < r.input.MaxTurns; turn++ {
		// Kill has the highest precedence: checked before any work is
		// dispatched for this iteration.
		if r.controls.killed {
			return r.killed(ctx)
		}

		// Merge owner messages at the turn boundary only, so an in-flight
		// turn never observes a goal mutation. The addendum accumulates:
		// every message received so far stays in the working goal.
		if msgs := r.controls.drainMessages(); len(msgs) > 0 {
			addendum = append(addendum, msgs...)
			goal = r.input.Goal + messageDelimiter + strings.Join(addendum, "\n")
			logger.Info("Merged owner messages into working goal", "new_messages", len(msgs))
		}

		var result schemas.TurnResult
		err := workflow.ExecuteActivity(withTurnOptions(ctx), activities.NameExecuteTurn, activities.TurnInput{
			SessionID:      r.sessionID,
			Goal:           goal,
			OwnerID:        r.input.OwnerID,
			ProfileContext: plan.ProfileContext,
			JobID:          r.jobID,
		}).Get(ctx, &result)
		if err != nil {
			return r.fail(ctx, "turn execution failed", err)
		}
		r.turns++
		r.lastReasoning = result.Reasoning

		// A kill that arrived while the turn was in flight discards the
		// result; the completed activity is the only work it gets.
		if r.controls.killed {
			return r.killed(ctx)
		}

		if needed, action := r.approvalNeeded(result); needed {
			outcome, terminal, err := r.approvalGate(ctx, action)
			if terminal {
				return outcome, err
			}
		}

		if result.Finished {
			finished = true
			break
		}
	}

	summary := r.lastReasoning
	if !finished {
		// Never hang forever: the iteration ceiling ends the job as
		// complete-with-caveats rather than looping on an informal
		// stopping heuristic.
		logger.Warn("Turn ceiling reached without completion", "turns", r.turns)
		summary = fmt.Sprintf(
			"Stopped after the maximum of %d turns without an explicit finish. Last progress: %s",
			r.input.MaxTurns, r.lastReasoning)
	}
	return r.complete(ctx, summary)
}

// approvalNeeded combines the turn's explicit flag with the destructive-
// intent classifier over its reasoning.
func (r *taskRun) approvalNeeded(result schemas.TurnResult) (bool, string) {
	if result.RequiresApproval {
		action := result.ApprovalAction
		if action == "" {
			action = result.Reasoning
		}
		return true, action
	}
	if label, hit := r.wf.risk.Classify(result.Reasoning); hit {
		return true, label
	}
	return false, ""
}

// resolveFromMemory finishes a job whose answer came straight from stored
// context; no session is ever provisioned.
func (r *taskRun) resolveFromMemory(ctx workflow.Context, plan schemas.Plan) (TaskOutcome, error) {
	return r.complete(ctx, plan.Reasoning)
}

// clarify parks the job awaiting more information from the owner. The reply
// arrives as a fresh task, so this run ends here.
func (r *taskRun) clarify(ctx workflow.Context, plan schemas.Plan) (TaskOutcome, error) {
	r.setStatus(ctx, schemas.StatusWaitingInfo)
	r.notifyTerminal(ctx, schemas.StatusWaitingInfo, plan.Reasoning)
	r.saveMemory(ctx, "Needs clarification: "+plan.Reasoning)

	return TaskOutcome{
		Status:  schemas.StatusWaitingInfo,
		JobID:   r.jobID,
		Summary: plan.Reasoning,
		Turns:   r.turns,
	}, nil
}

// complete is the single COMPLETING path: status write, exactly one
// completion notification, one memory write.
func (r *taskRun) complete(ctx workflow.Context, summary string) (TaskOutcome, error) {
	logger := workflow.GetLogger(ctx)

	r.setStatus(ctx, schemas.StatusCompleted)

	err := workflow.ExecuteActivity(withNotifyOptions(ctx), activities.NameSendCompletion, activities.CompletionInput{
		NotifyAddress: r.input.NotifyAddress,
		OwnerID:       r.input.OwnerID,
		Goal:          r.input.Goal,
		Summary:       summary,
	}).Get(ctx, nil)
	if err != nil {
		// The job itself succeeded; a lost notification is logged, not fatal.
		logger.Error("Completion notification failed", "error", err)
	}

	r.saveMemory(ctx, summary)

	logger.Info("Task completed", "job_id", r.jobID, "turns", r.turns)
	return TaskOutcome{
		Status:  schemas.StatusCompleted,
		JobID:   r.jobID,
		Summary: summary,
		Turns:   r.turns,
	}, nil
}

// fail is the terminal path for unclassified activity errors: status write,
// one failure notification, then the error propagates so the execution is
// marked failed.
func (r *taskRun) fail(ctx workflow.Context, msg string, cause error) (TaskOutcome, error) {
	workflow.GetLogger(ctx).Error("Task failed", "reason", msg, "error", cause)

	r.setStatus(ctx, schemas.StatusFailed)
	r.notifyTerminal(ctx, schemas.StatusFailed, msg)

	return TaskOutcome{
		Status: schemas.StatusFailed,
		JobID:  r.jobID,
		Turns:  r.turns,
	}, fmt.Errorf("%s: %w", msg, cause)
}

// setStatus writes the job status, tolerating a missing job ID (failure
// before INIT finished) and logging rather than cascading a status-write
// failure into the terminal path.
func (r *taskRun) setStatus(ctx workflow.Context, status schemas.JobStatus) {
	if r.jobID == "" {
		return
	}
	err := workflow.ExecuteActivity(withStatusOptions(ctx), activities.NameUpdateJobStatus, activities.UpdateStatusInput{
		JobID:  r.jobID,
		Status: status,
	}).Get(ctx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Error("Status update failed",
			"job_id", r.jobID, "status", status, "error", err)
	}
}

// notifyTerminal sends the one status-appropriate owner notification for a
// non-completed terminal state.
func (r *taskRun) notifyTerminal(ctx workflow.Context, status schemas.JobStatus, reason string) {
	err := workflow.ExecuteActivity(withNotifyOptions(ctx), activities.NameSendFailure, activities.FailureInput{
		NotifyAddress: r.input.NotifyAddress,
		OwnerID:       r.input.OwnerID,
		Goal:          r.input.Goal,
		Status:        status,
		Reason:        reason,
	}).Get(ctx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Error("Terminal notification failed",
			"status", status, "error", err)
	}
}

// saveMemory persists the task outcome to long-term memory, best effort.
func (r *taskRun) saveMemory(ctx workflow.Context, outcome string) {
	err := workflow.ExecuteActivity(withMemoryOptions(ctx), activities.NameSaveOutcomeMemory, activities.SaveMemoryInput{
		OwnerID: r.input.OwnerID,
		Goal:    r.input.Goal,
		Outcome: outcome,
	}).Get(ctx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Warn("Memory save failed", "error", err)
	}
}

// cleanup releases the browser session exactly once, on every outcome. It
// runs on a disconnected context so it still executes when the workflow is
// returning an error, and its own failures are logged and swallowed.
func (r *taskRun) cleanup(ctx workflow.Context) {
	if r.sessionID == "" {
		return
	}
	dctx, cancel := workflow.NewDisconnectedContext(ctx)
	defer cancel()

	err := workflow.ExecuteActivity(withReleaseOptions(dctx), activities.NameReleaseSession, activities.ReleaseInput{
		SessionID: r.sessionID,
	}).Get(dctx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Warn("Best-effort session release failed",
			"session_id", r.sessionID, "error", err)
	}
}
