// Package jobstore provides the PostgreSQL persistence layer for job
// records, the per-turn activity feed and the approval audit trail.
package jobstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/wraith/api/schemas"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for
// mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store provides a PostgreSQL implementation of the activities.JobStore
// interface.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("jobstore"),
	}, nil
}

const sqlInsertJob = `
    INSERT INTO jobs (id, owner_id, goal, status, workflow_id, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $6);
`

// CreateJob inserts the record for a freshly launched task and returns its
// generated ID.
func (s *Store) CreateJob(ctx context.Context, ownerID, goal, workflowID string) (string, error) {
	jobID := uuid.NewString()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx, sqlInsertJob,
		jobID, ownerID, goal, string(schemas.StatusPending), workflowID, now)
	if err != nil {
		return "", fmt.Errorf("failed to insert job: %w", err)
	}

	s.log.Info("Job record created",
		zap.String("job_id", jobID),
		zap.String("owner_id", ownerID),
	)
	return jobID, nil
}

// The excluded list mirrors schemas.JobStatus.Terminal: a finished job's
// status is immutable at the database level, whatever the caller thinks.
const sqlUpdateStatus = `
    UPDATE jobs SET status = $2, updated_at = $3
    WHERE id = $1 AND status NOT IN ('completed', 'failed', 'rejected', 'killed');
`

// UpdateStatus moves a job to the given lifecycle status. Jobs already in a
// terminal status are never moved again.
func (s *Store) UpdateStatus(ctx context.Context, jobID string, status schemas.JobStatus) error {
	tag, err := s.pool.Exec(ctx, sqlUpdateStatus, jobID, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s not found or already terminal", jobID)
	}

	s.log.Debug("Job status updated",
		zap.String("job_id", jobID),
		zap.String("status", string(status)),
	)
	return nil
}

const sqlAttachSession = `
    UPDATE jobs SET session_id = $2, session_viewer_url = $3, updated_at = $4 WHERE id = $1;
`

// AttachSession records the live browser session (and its viewer URL) on
// the job so the dashboard can embed the session view.
func (s *Store) AttachSession(ctx context.Context, jobID, sessionID, viewerURL string) error {
	tag, err := s.pool.Exec(ctx, sqlAttachSession, jobID, sessionID, viewerURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to attach session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s not found", jobID)
	}
	return nil
}

const sqlInsertTaskLog = `
    INSERT INTO task_logs (job_id, action, reasoning, finished, created_at)
    VALUES ($1, $2, $3, $4, $5);
`

// AppendTaskLog adds one turn's action and reasoning to the job's feed.
func (s *Store) AppendTaskLog(ctx context.Context, entry schemas.TaskLogEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, sqlInsertTaskLog,
		entry.JobID, entry.Action, entry.Reasoning, entry.Finished, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to append task log: %w", err)
	}
	return nil
}

const sqlInsertApproval = `
    INSERT INTO approvals (id, workflow_id, notify_address, action_description, requested_at)
    VALUES ($1, $2, $3, $4, $5);
`

// RecordApproval writes an audit row for a pending approval request.
func (s *Store) RecordApproval(ctx context.Context, workflowID, notifyAddress, description string) error {
	_, err := s.pool.Exec(ctx, sqlInsertApproval,
		uuid.NewString(), workflowID, notifyAddress, description, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record approval request: %w", err)
	}
	return nil
}

const sqlSelectJob = `
    SELECT id, owner_id, goal, status, workflow_id,
           COALESCE(session_id, ''), COALESCE(session_viewer_url, ''),
           created_at, updated_at
    FROM jobs
    WHERE id = $1;
`

// GetJob fetches a single job record.
func (s *Store) GetJob(ctx context.Context, jobID string) (schemas.Job, error) {
	var (
		job       schemas.Job
		statusStr string
	)
	err := s.pool.QueryRow(ctx, sqlSelectJob, jobID).Scan(
		&job.ID, &job.OwnerID, &job.Goal, &statusStr, &job.WorkflowID,
		&job.SessionID, &job.SessionViewer, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return schemas.Job{}, fmt.Errorf("failed to query job: %w", err)
	}
	job.Status = schemas.JobStatus(statusStr)
	return job, nil
}

const sqlSelectTaskLogs = `
    SELECT job_id, action, reasoning, finished, created_at
    FROM task_logs
    WHERE job_id = $1
    ORDER BY created_at ASC;
`

// GetTaskLogs returns the job's activity feed in chronological order.
func (s *Store) GetTaskLogs(ctx context.Context, jobID string) ([]schemas.TaskLogEntry, error) {
	rows, err := s.pool.Query(ctx, sqlSelectTaskLogs, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task logs: %w", err)
	}
	defer rows.Close()

	var entries []schemas.TaskLogEntry
	for rows.Next() {
		var e schemas.TaskLogEntry
		if err := rows.Scan(&e.JobID, &e.Action, &e.Reasoning, &e.Finished, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task log row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return entries, nil
}
