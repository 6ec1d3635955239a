// File: internal/activities/planning.go
package activities

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/wraith/api/schemas"
)

// PlanStrategy runs the think-before-you-act phase: the planner consults
// long-term memory and classifies the goal as browser, memory or clarify.
// The workflow treats any other classification as memory, so this activity
// normalizes the value here rather than failing on model drift.
func (a *Activities) PlanStrategy(ctx context.Context, in PlanInput) (schemas.Plan, error) {
	plan, err := a.planner.PlanStrategy(ctx, in.OwnerID, in.Goal)
	if err != nil {
		return schemas.Plan{}, fmt.Errorf("strategic planning failed: %w", err)
	}

	switch plan.Strategy {
	case schemas.StrategyBrowser, schemas.StrategyMemory, schemas.StrategyClarify:
	default:
		a.logger.Warn("Planner returned unknown strategy, falling back to memory",
			zap.String("strategy", string(plan.Strategy)),
		)
		plan.Strategy = schemas.StrategyMemory
	}

	a.logger.Info("Strategy decided",
		zap.String("owner_id", in.OwnerID),
		zap.String("strategy", string(plan.Strategy)),
	)
	return plan, nil
}
