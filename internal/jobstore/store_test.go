package jobstore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/wraith/api/schemas"
)

// flexibleSQLMatcher creates a regex that is insensitive to whitespace for more robust SQL mock testing.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

// ArgumentMatcherFunc is a helper to create inline mock matchers.
type ArgumentMatcherFunc func(interface{}) bool

func (f ArgumentMatcherFunc) Match(v interface{}) bool {
	return f(v)
}

// anyTime is a matcher that accepts any value (used for timestamps we can't predict exactly)
var anyTime = ArgumentMatcherFunc(func(v interface{}) bool {
	return true
})

// anyUUID matches any string that parses as a UUID.
var anyUUID = ArgumentMatcherFunc(func(v interface{}) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
})

func newTestStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	mockPool.ExpectPing().WillReturnError(nil)
	store, err := New(context.Background(), mockPool, zap.NewNop())
	require.NoError(t, err)
	return store, mockPool
}

// -- Test Cases --

func TestNewStore(t *testing.T) {
	t.Run("should return error if ping fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mockPool.Close()

		pingErr := errors.New("database unavailable")
		mockPool.ExpectPing().WillReturnError(pingErr)

		_, err = New(context.Background(), mockPool, zap.NewNop())
		require.Error(t, err)
		assert.ErrorIs(t, err, pingErr, "Error from ping should be propagated")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestCreateJob(t *testing.T) {
	ctx := context.Background()

	t.Run("should insert a pending job and return its id", func(t *testing.T) {
		store, mockPool := newTestStore(t)

		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertJob)).
			WithArgs(anyUUID, "owner-1", "book a flight", string(schemas.StatusPending), "wf-1", anyTime).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		jobID, err := store.CreateJob(ctx, "owner-1", "book a flight", "wf-1")
		require.NoError(t, err)
		_, parseErr := uuid.Parse(jobID)
		assert.NoError(t, parseErr, "returned job ID should be a UUID")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should propagate insert failures", func(t *testing.T) {
		store, mockPool := newTestStore(t)

		dbErr := errors.New("constraint violation")
		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertJob)).
			WithArgs(anyUUID, "owner-1", "goal", string(schemas.StatusPending), "wf-1", anyTime).
			WillReturnError(dbErr)

		jobID, err := store.CreateJob(ctx, "owner-1", "goal", "wf-1")
		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
		assert.Empty(t, jobID)
	})
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("should update the status column", func(t *testing.T) {
		store, mockPool := newTestStore(t)

		mockPool.ExpectExec(flexibleSQLMatcher(sqlUpdateStatus)).
			WithArgs("job-1", string(schemas.StatusRunning), anyTime).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := store.UpdateStatus(ctx, "job-1", schemas.StatusRunning)
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should fail when the job does not exist", func(t *testing.T) {
		store, mockPool := newTestStore(t)

		mockPool.ExpectExec(flexibleSQLMatcher(sqlUpdateStatus)).
			WithArgs("missing", string(schemas.StatusKilled), anyTime).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := store.UpdateStatus(ctx, "missing", schemas.StatusKilled)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("should never move a terminal job", func(t *testing.T) {
		store, mockPool := newTestStore(t)

		// The guard lives in the statement itself: a killed job matches no
		// row, so the write reports zero rows affected.
		for _, terminal := range []schemas.JobStatus{
			schemas.StatusCompleted, schemas.StatusFailed,
			schemas.StatusRejected, schemas.StatusKilled,
		} {
			assert.Contains(t, sqlUpdateStatus, string(terminal))
		}

		mockPool.ExpectExec(flexibleSQLMatcher(sqlUpdateStatus)).
			WithArgs("job-1", string(schemas.StatusRunning), anyTime).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := store.UpdateStatus(ctx, "job-1", schemas.StatusRunning)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "terminal")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestAttachSession(t *testing.T) {
	ctx := context.Background()
	store, mockPool := newTestStore(t)

	mockPool.ExpectExec(flexibleSQLMatcher(sqlAttachSession)).
		WithArgs("job-1", "sess-9", "https://viewer.example/sess-9", anyTime).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := store.AttachSession(ctx, "job-1", "sess-9", "https://viewer.example/sess-9")
	require.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestAppendTaskLog(t *testing.T) {
	ctx := context.Background()

	t.Run("should insert the entry with its own timestamp", func(t *testing.T) {
		store, mockPool := newTestStore(t)
		createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertTaskLog)).
			WithArgs("job-1", "click_at", "Clicking the submit button", false, createdAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := store.AppendTaskLog(ctx, schemas.TaskLogEntry{
			JobID:     "job-1",
			Action:    "click_at",
			Reasoning: "Clicking the submit button",
			CreatedAt: createdAt,
		})
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should fill a zero timestamp", func(t *testing.T) {
		store, mockPool := newTestStore(t)

		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertTaskLog)).
			WithArgs("job-1", "REASONING", "thinking", true, anyTime).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := store.AppendTaskLog(ctx, schemas.TaskLogEntry{
			JobID:     "job-1",
			Action:    "REASONING",
			Reasoning: "thinking",
			Finished:  true,
		})
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRecordApproval(t *testing.T) {
	ctx := context.Background()
	store, mockPool := newTestStore(t)

	mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertApproval)).
		WithArgs(anyUUID, "wf-1", "owner@example.com", "place order", anyTime).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := store.RecordApproval(ctx, "wf-1", "owner@example.com", "place order")
	require.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestGetJob(t *testing.T) {
	ctx := context.Background()
	store, mockPool := newTestStore(t)

	createdAt := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	updatedAt := createdAt.Add(2 * time.Hour)

	rows := pgxmock.NewRows([]string{
		"id", "owner_id", "goal", "status", "workflow_id",
		"session_id", "session_viewer_url", "created_at", "updated_at",
	}).AddRow(
		"job-1", "owner-1", "renew passport", "running", "wf-1",
		"sess-9", "https://viewer.example/sess-9", createdAt, updatedAt,
	)

	mockPool.ExpectQuery(flexibleSQLMatcher(sqlSelectJob)).
		WithArgs("job-1").
		WillReturnRows(rows)

	job, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, schemas.StatusRunning, job.Status)
	assert.Equal(t, "renew passport", job.Goal)
	assert.Equal(t, "sess-9", job.SessionID)
	assert.Equal(t, updatedAt, job.UpdatedAt)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestGetTaskLogs(t *testing.T) {
	ctx := context.Background()
	store, mockPool := newTestStore(t)

	t1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	rows := pgxmock.NewRows([]string{"job_id", "action", "reasoning", "finished", "created_at"}).
		AddRow("job-1", "navigate", "Opening the booking site", false, t1).
		AddRow("job-1", "click_at", "Selecting the date", true, t2)

	mockPool.ExpectQuery(flexibleSQLMatcher(sqlSelectTaskLogs)).
		WithArgs("job-1").
		WillReturnRows(rows)

	entries, err := store.GetTaskLogs(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "navigate", entries[0].Action)
	assert.True(t, entries[1].Finished)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
