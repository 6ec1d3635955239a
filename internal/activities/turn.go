// File: internal/activities/turn.go
package activities

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/xkilldash9x/wraith/api/schemas"
	"github.com/xkilldash9x/wraith/internal/llmclient"
)

const maxLoggedReasoning = 1000

// ExecuteTurn runs a single reasoning-action cycle and appends it to the
// job's task log.
//
// Resource-exhaustion failures (rate limit, quota) come back as a terminal
// TurnResult instead of an error: retrying against a provider that is
// rejecting every call only burns the retry budget, and surfacing the
// condition as a finished turn lets the workflow complete the job and tell
// the owner what happened. Everything else propagates for the invoker's
// retry policy to handle.
func (a *Activities) ExecuteTurn(ctx context.Context, in TurnInput) (schemas.TurnResult, error) {
	result, err := a.turns.ExecuteTurn(ctx, in)
	if err != nil {
		switch {
		case llmclient.IsQuotaExhausted(err):
			a.logger.Warn("Turn hit provider quota", zap.String("job_id", in.JobID), zap.Error(err))
			result = exhaustedResult(schemas.TurnErrorQuotaExceeded, err)
		case llmclient.IsRateLimited(err):
			a.logger.Warn("Turn rate limited", zap.String("job_id", in.JobID), zap.Error(err))
			result = exhaustedResult(schemas.TurnErrorRateLimit, err)
		default:
			return schemas.TurnResult{}, err
		}
	}

	logEntry := schemas.TaskLogEntry{
		JobID:     in.JobID,
		Action:    result.ActionTaken,
		Reasoning: truncate(result.Reasoning, maxLoggedReasoning),
		Finished:  result.Finished,
		CreatedAt: time.Now().UTC(),
	}
	if logEntry.Action == "" {
		logEntry.Action = "REASONING"
	}
	if err := a.store.AppendTaskLog(ctx, logEntry); err != nil {
		// The feed is advisory; the turn itself succeeded.
		a.logger.Warn("Failed to append task log", zap.String("job_id", in.JobID), zap.Error(err))
	}

	a.logger.Info("Turn complete",
		zap.String("job_id", in.JobID),
		zap.String("action", result.ActionTaken),
		zap.Bool("finished", result.Finished),
		zap.Bool("requires_approval", result.RequiresApproval),
	)
	return result, nil
}

func exhaustedResult(kind schemas.TurnErrorKind, err error) schemas.TurnResult {
	return schemas.TurnResult{
		Reasoning:    "The language-model provider is currently refusing requests: " + truncate(err.Error(), 200),
		Finished:     true,
		ErrorKind:    kind,
		ErrorMessage: truncate(err.Error(), 500),
	}
}

// truncate cuts on a rune boundary so the result stays valid UTF-8 for the
// database.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
