// File: internal/workflows/options.go
package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/xkilldash9x/wraith/internal/activities"
)

// Activity invocation policy, one option set per call class. Transient
// infrastructure failures (network, timeouts, 5xx) are retried here with
// exponential backoff and never reach the state machine; errors the
// activity marks permanent are not retried and propagate as failures.
//
// The timeouts mirror the nature of each call: status writes are fast
// database updates, a turn can legitimately take minutes of model
// inference and browser actions.

func defaultRetry(maxAttempts int32) *temporal.RetryPolicy {
	return &temporal.RetryPolicy{
		InitialInterval:        time.Second,
		BackoffCoefficient:     2.0,
		MaximumInterval:        30 * time.Second,
		MaximumAttempts:        maxAttempts,
		NonRetryableErrorTypes: []string{activities.ErrTypePermanent},
	}
}

func withOptions(ctx workflow.Context, timeout time.Duration, maxAttempts int32) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy:         defaultRetry(maxAttempts),
	})
}

// withJobWriteOptions covers job-record creation.
func withJobWriteOptions(ctx workflow.Context) workflow.Context {
	return withOptions(ctx, 30*time.Second, 5)
}

// withStatusOptions covers status transitions, which are single-row writes.
func withStatusOptions(ctx workflow.Context) workflow.Context {
	return withOptions(ctx, 10*time.Second, 5)
}

// withPlanOptions covers the strategic-planning model call.
func withPlanOptions(ctx workflow.Context) workflow.Context {
	return withOptions(ctx, 2*time.Minute, 3)
}

// withProvisionOptions covers cloud-browser provisioning.
func withProvisionOptions(ctx workflow.Context) workflow.Context {
	return withOptions(ctx, 3*time.Minute, 3)
}

// withTurnOptions covers one full observe-decide-act cycle.
func withTurnOptions(ctx workflow.Context) workflow.Context {
	return withOptions(ctx, 5*time.Minute, 3)
}

// withNotifyOptions covers outbound owner notifications.
func withNotifyOptions(ctx workflow.Context) workflow.Context {
	return withOptions(ctx, time.Minute, 4)
}

// withMemoryOptions covers long-term memory writes.
func withMemoryOptions(ctx workflow.Context) workflow.Context {
	return withOptions(ctx, 30*time.Second, 3)
}

// withReleaseOptions covers best-effort session release during cleanup.
func withReleaseOptions(ctx workflow.Context) workflow.Context {
	return withOptions(ctx, 30*time.Second, 2)
}
