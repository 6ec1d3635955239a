// File: internal/activities/notify.go
package activities

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// RequestApproval dispatches the approval-request notification for a
// high-stakes action and records the open gate for the dashboard. The
// notification carries the workflow ID so the owner's approve/reject links
// can be routed back as signals.
func (a *Activities) RequestApproval(ctx context.Context, in ApprovalRequestInput) (ApprovalRequestOutput, error) {
	if err := a.notifier.SendApprovalRequest(ctx, in.NotifyAddress, in.OwnerID, in.WorkflowID, in.ActionDescription); err != nil {
		return ApprovalRequestOutput{Notified: false}, fmt.Errorf("failed to send approval request: %w", err)
	}

	if err := a.store.RecordApproval(ctx, in.WorkflowID, in.NotifyAddress, in.ActionDescription); err != nil {
		a.logger.Warn("Failed to record approval request",
			zap.String("workflow_id", in.WorkflowID),
			zap.Error(err),
		)
	}

	a.logger.Info("Approval request sent",
		zap.String("workflow_id", in.WorkflowID),
		zap.String("to", in.NotifyAddress),
	)
	return ApprovalRequestOutput{Notified: true}, nil
}

// SendCompletion notifies the owner that the task finished.
func (a *Activities) SendCompletion(ctx context.Context, in CompletionInput) error {
	if err := a.notifier.SendCompletion(ctx, in.NotifyAddress, in.OwnerID, in.Goal, in.Summary); err != nil {
		return fmt.Errorf("failed to send completion notification: %w", err)
	}
	a.logger.Info("Completion notification sent", zap.String("to", in.NotifyAddress))
	return nil
}

// SendFailure notifies the owner of a non-completed terminal outcome:
// failed, rejected or killed. Content is status-appropriate and the
// workflow guarantees exactly one such notification per job.
func (a *Activities) SendFailure(ctx context.Context, in FailureInput) error {
	if err := a.notifier.SendFailure(ctx, in.NotifyAddress, in.OwnerID, in.Goal, in.Status, in.Reason); err != nil {
		return fmt.Errorf("failed to send %s notification: %w", in.Status, err)
	}
	a.logger.Info("Terminal notification sent",
		zap.String("to", in.NotifyAddress),
		zap.String("status", string(in.Status)),
	)
	return nil
}
