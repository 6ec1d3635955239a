// File: internal/activities/browser.go
package activities

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/wraith/api/schemas"
)

// ProvisionSession creates the job's browser session and records it on the
// job row so the owner can watch the live view.
func (a *Activities) ProvisionSession(ctx context.Context, in ProvisionInput) (schemas.Session, error) {
	session, err := a.sessions.Provision(ctx, in.OwnerID, in.JobID)
	if err != nil {
		return schemas.Session{}, fmt.Errorf("failed to provision browser session: %w", err)
	}

	if err := a.store.AttachSession(ctx, in.JobID, session.ID, session.ViewerURL); err != nil {
		// The session exists; losing the job-row linkage is recoverable and
		// not worth orphaning a running task over.
		a.logger.Warn("Failed to attach session to job record",
			zap.String("job_id", in.JobID),
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
	}

	a.logger.Info("Browser session provisioned",
		zap.String("job_id", in.JobID),
		zap.String("session_id", session.ID),
		zap.Bool("reconnected", session.Reconnected),
	)
	return session, nil
}

// ReleaseSession frees the job's browser session. Called from workflow
// cleanup on every outcome; failures are reported to the caller, which
// treats them as best-effort.
func (a *Activities) ReleaseSession(ctx context.Context, in ReleaseInput) error {
	if err := a.sessions.Release(ctx, in.SessionID); err != nil {
		return fmt.Errorf("failed to release session %s: %w", in.SessionID, err)
	}
	a.logger.Info("Browser session released", zap.String("session_id", in.SessionID))
	return nil
}
