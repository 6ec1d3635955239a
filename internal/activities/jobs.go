// File: internal/activities/jobs.go
package activities

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// CreateJobRecord persists the initial job row. It is the first activity of
// every task and anchors everything else to a job ID.
func (a *Activities) CreateJobRecord(ctx context.Context, in CreateJobInput) (CreateJobOutput, error) {
	jobID, err := a.store.CreateJob(ctx, in.OwnerID, in.Goal, in.WorkflowID)
	if err != nil {
		return CreateJobOutput{}, fmt.Errorf("failed to create job record: %w", err)
	}
	a.logger.Info("Created job record",
		zap.String("job_id", jobID),
		zap.String("owner_id", in.OwnerID),
		zap.String("workflow_id", in.WorkflowID),
	)
	return CreateJobOutput{JobID: jobID}, nil
}

// UpdateJobStatus writes the job's high-level status. The workflow is the
// only caller, so this never races with another writer.
func (a *Activities) UpdateJobStatus(ctx context.Context, in UpdateStatusInput) error {
	if err := a.store.UpdateStatus(ctx, in.JobID, in.Status); err != nil {
		return fmt.Errorf("failed to update job %s to %s: %w", in.JobID, in.Status, err)
	}
	a.logger.Info("Job status updated",
		zap.String("job_id", in.JobID),
		zap.String("status", string(in.Status)),
	)
	return nil
}

// SaveOutcomeMemory records the finished task in long-term memory so future
// planning can draw on it. A memory write failing is not worth failing the
// job over; the workflow schedules this with a small retry budget.
func (a *Activities) SaveOutcomeMemory(ctx context.Context, in SaveMemoryInput) error {
	if err := a.memory.SaveOutcome(ctx, in.OwnerID, in.Goal, in.Outcome); err != nil {
		return fmt.Errorf("failed to save task memory: %w", err)
	}
	a.logger.Debug("Task outcome saved to memory", zap.String("owner_id", in.OwnerID))
	return nil
}
