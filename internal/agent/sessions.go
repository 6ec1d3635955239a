// File: internal/agent/sessions.go
package agent

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/wraith/api/schemas"
	"github.com/xkilldash9x/wraith/internal/activities"
	"github.com/xkilldash9x/wraith/internal/browser"
)

// Sessions adapts a browser backend to the session-manager boundary the
// activities expect, and drops per-session conversation state on release.
type Sessions struct {
	backend  browser.Backend
	executor *Executor
	logger   *zap.Logger
}

var _ activities.SessionManager = (*Sessions)(nil)

// NewSessions builds a session manager. The executor may be nil when no
// per-session state needs clearing (tests, memory-only deployments).
func NewSessions(backend browser.Backend, executor *Executor, logger *zap.Logger) (*Sessions, error) {
	if backend == nil {
		return nil, fmt.Errorf("session manager requires a browser backend")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sessions{backend: backend, executor: executor, logger: logger.Named("sessions")}, nil
}

// Provision starts a browser session for the job.
func (s *Sessions) Provision(ctx context.Context, ownerID, jobID string) (schemas.Session, error) {
	session, err := s.backend.StartSession(ctx, ownerID)
	if err != nil {
		return schemas.Session{}, fmt.Errorf("starting browser session: %w", err)
	}
	s.logger.Info("Session provisioned",
		zap.String("owner_id", ownerID),
		zap.String("job_id", jobID),
		zap.String("session_id", session.ID),
	)
	return session, nil
}

// Release tears the session down. A session the backend no longer knows is
// treated as already released.
func (s *Sessions) Release(ctx context.Context, sessionID string) error {
	if s.executor != nil {
		s.executor.EndSession(sessionID)
	}
	if err := s.backend.ReleaseSession(ctx, sessionID); err != nil {
		if errors.Is(err, browser.ErrSessionNotFound) {
			s.logger.Debug("Session already gone", zap.String("session_id", sessionID))
			return nil
		}
		return fmt.Errorf("releasing browser session %s: %w", sessionID, err)
	}
	return nil
}
