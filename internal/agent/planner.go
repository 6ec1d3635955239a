// File: internal/agent/planner.go

// Package agent contains the reasoning side of the system: the strategy
// planner that decides whether a goal needs a browser at all, and the turn
// executor that runs one observe-decide-act cycle against a live session.
package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/wraith/api/schemas"
)

// ContextSource supplies long-term memory context for an owner. Lookups are
// advisory: a failure degrades to empty context, never to a failed plan.
type ContextSource interface {
	// UserContext returns a formatted profile block for the owner, scoped
	// to the goal at hand.
	UserContext(ctx context.Context, ownerID, goal string) (string, error)
	// SearchKnowledge returns stored knowledge relevant to the query.
	SearchKnowledge(ctx context.Context, ownerID, query string) (string, error)
}

// Planner classifies a goal as browser, memory or clarify using the fast
// model tier, seeded with whatever long-term memory knows about the owner.
type Planner struct {
	llm    schemas.LLMClient
	memory ContextSource
	logger *zap.Logger
}

// NewPlanner builds a strategy planner. The memory source may be nil, in
// which case planning proceeds without stored context.
func NewPlanner(llm schemas.LLMClient, memory ContextSource, logger *zap.Logger) (*Planner, error) {
	if llm == nil {
		return nil, fmt.Errorf("planner requires an LLM client")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{llm: llm, memory: memory, logger: logger.Named("planner")}, nil
}

// PlanStrategy decides how the goal should be resolved. The model's raw
// response is kept as the plan reasoning; classification falls back to
// memory when the response names no known strategy.
func (p *Planner) PlanStrategy(ctx context.Context, ownerID, goal string) (schemas.Plan, error) {
	profile := p.lookupContext(ctx, ownerID, goal)

	response, err := p.llm.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: "You are the strategic-planning stage of an autonomous web agent.",
		UserPrompt:   buildStrategyPrompt(goal, profile),
		Tier:         schemas.TierFast,
		Options:      schemas.GenerationOptions{Temperature: 0.2},
	})
	if err != nil {
		return schemas.Plan{}, fmt.Errorf("strategy generation failed: %w", err)
	}

	plan := schemas.Plan{
		Strategy:       classifyStrategy(response),
		Reasoning:      strings.TrimSpace(response),
		ProfileContext: profile,
	}
	p.logger.Info("Goal classified",
		zap.String("owner_id", ownerID),
		zap.String("strategy", string(plan.Strategy)),
	)
	return plan, nil
}

// lookupContext merges the owner profile and goal-relevant knowledge.
// Memory outages are logged and swallowed.
func (p *Planner) lookupContext(ctx context.Context, ownerID, goal string) string {
	if p.memory == nil {
		return ""
	}

	var parts []string
	profile, err := p.memory.UserContext(ctx, ownerID, goal)
	if err != nil {
		p.logger.Warn("User context lookup failed", zap.String("owner_id", ownerID), zap.Error(err))
	} else if profile != "" {
		parts = append(parts, profile)
	}

	knowledge, err := p.memory.SearchKnowledge(ctx, ownerID, goal)
	if err != nil {
		p.logger.Warn("Knowledge search failed", zap.String("owner_id", ownerID), zap.Error(err))
	} else if knowledge != "" {
		parts = append(parts, "Relevant knowledge:\n"+knowledge)
	}

	return strings.Join(parts, "\n\n")
}

// classifyStrategy extracts the planner's choice from free text. Browser
// wins over clarify when both appear; anything unrecognized means the goal
// is answerable from memory.
func classifyStrategy(response string) schemas.Strategy {
	upper := strings.ToUpper(response)
	switch {
	case strings.Contains(upper, "BROWSER"):
		return schemas.StrategyBrowser
	case strings.Contains(upper, "CLARIFY"):
		return schemas.StrategyClarify
	default:
		return schemas.StrategyMemory
	}
}
