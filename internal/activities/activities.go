// File: internal/activities/activities.go
package activities

import (
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
)

// Activities bundles every collaborator the task workflow's activities
// touch. One instance is registered per worker process.
type Activities struct {
	store    JobStore
	planner  Planner
	turns    TurnExecutor
	sessions SessionManager
	notifier Notifier
	memory   MemoryStore
	logger   *zap.Logger
}

// New wires up an Activities instance. All dependencies are required except
// the logger, which falls back to a no-op.
func New(
	store JobStore,
	planner Planner,
	turns TurnExecutor,
	sessions SessionManager,
	notifier Notifier,
	memory MemoryStore,
	logger *zap.Logger,
) (*Activities, error) {
	if store == nil || planner == nil || turns == nil || sessions == nil || notifier == nil || memory == nil {
		return nil, fmt.Errorf("cannot initialize activities with nil dependencies")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Activities{
		store:    store,
		planner:  planner,
		turns:    turns,
		sessions: sessions,
		notifier: notifier,
		memory:   memory,
		logger:   logger.Named("activities"),
	}, nil
}

// Register attaches every activity to the worker under its durable name.
func (a *Activities) Register(w worker.Registry) {
	w.RegisterActivityWithOptions(a.CreateJobRecord, activity.RegisterOptions{Name: NameCreateJobRecord})
	w.RegisterActivityWithOptions(a.PlanStrategy, activity.RegisterOptions{Name: NamePlanStrategy})
	w.RegisterActivityWithOptions(a.ProvisionSession, activity.RegisterOptions{Name: NameProvisionSession})
	w.RegisterActivityWithOptions(a.ExecuteTurn, activity.RegisterOptions{Name: NameExecuteTurn})
	w.RegisterActivityWithOptions(a.RequestApproval, activity.RegisterOptions{Name: NameRequestApproval})
	w.RegisterActivityWithOptions(a.UpdateJobStatus, activity.RegisterOptions{Name: NameUpdateJobStatus})
	w.RegisterActivityWithOptions(a.SendCompletion, activity.RegisterOptions{Name: NameSendCompletion})
	w.RegisterActivityWithOptions(a.SendFailure, activity.RegisterOptions{Name: NameSendFailure})
	w.RegisterActivityWithOptions(a.SaveOutcomeMemory, activity.RegisterOptions{Name: NameSaveOutcomeMemory})
	w.RegisterActivityWithOptions(a.ReleaseSession, activity.RegisterOptions{Name: NameReleaseSession})
}
