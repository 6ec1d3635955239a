// File: internal/agent/planner_test.go
package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/wraith/api/schemas"
)

func TestNewPlanner_RequiresLLM(t *testing.T) {
	_, err := NewPlanner(nil, nil, zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestPlanStrategy_ClassifiesBrowser(t *testing.T) {
	llm := new(mockLLM)
	memory := new(mockContextSource)
	memory.On("UserContext", mock.Anything, "owner-1", "book a flight").Return("Profile: frequent flyer", nil)
	memory.On("SearchKnowledge", mock.Anything, "owner-1", "book a flight").Return("Prefers aisle seats", nil)

	llm.On("Generate", mock.Anything, mock.MatchedBy(func(req schemas.GenerationRequest) bool {
		return req.Tier == schemas.TierFast && !req.Options.ForceJSONFormat
	})).Return("CHOICE: BROWSER\nThe task needs a travel site.", nil)

	p, err := NewPlanner(llm, memory, zaptest.NewLogger(t))
	require.NoError(t, err)

	plan, err := p.PlanStrategy(context.Background(), "owner-1", "book a flight")
	require.NoError(t, err)
	assert.Equal(t, schemas.StrategyBrowser, plan.Strategy)
	assert.Contains(t, plan.Reasoning, "travel site")
	assert.Contains(t, plan.ProfileContext, "frequent flyer")
	assert.Contains(t, plan.ProfileContext, "aisle seats")
	llm.AssertExpectations(t)
	memory.AssertExpectations(t)
}

func TestPlanStrategy_ClassifiesClarify(t *testing.T) {
	llm := new(mockLLM)
	llm.On("Generate", mock.Anything, mock.Anything).Return("CHOICE: CLARIFY\nWhich account?", nil)

	p, err := NewPlanner(llm, nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	plan, err := p.PlanStrategy(context.Background(), "owner-1", "fix it")
	require.NoError(t, err)
	assert.Equal(t, schemas.StrategyClarify, plan.Strategy)
}

func TestPlanStrategy_UnknownTextFallsBackToMemory(t *testing.T) {
	llm := new(mockLLM)
	llm.On("Generate", mock.Anything, mock.Anything).Return("I can answer that directly.", nil)

	p, err := NewPlanner(llm, nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	plan, err := p.PlanStrategy(context.Background(), "owner-1", "what is my agent email")
	require.NoError(t, err)
	assert.Equal(t, schemas.StrategyMemory, plan.Strategy)
}

func TestPlanStrategy_MemoryOutageDegradesToEmptyContext(t *testing.T) {
	llm := new(mockLLM)
	memory := new(mockContextSource)
	memory.On("UserContext", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("memory down"))
	memory.On("SearchKnowledge", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("memory down"))
	llm.On("Generate", mock.Anything, mock.Anything).Return("CHOICE: BROWSER", nil)

	p, err := NewPlanner(llm, memory, zaptest.NewLogger(t))
	require.NoError(t, err)

	plan, err := p.PlanStrategy(context.Background(), "owner-1", "order groceries")
	require.NoError(t, err)
	assert.Equal(t, schemas.StrategyBrowser, plan.Strategy)
	assert.Empty(t, plan.ProfileContext)
}

func TestPlanStrategy_GenerationErrorPropagates(t *testing.T) {
	llm := new(mockLLM)
	llm.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("provider unreachable"))

	p, err := NewPlanner(llm, nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = p.PlanStrategy(context.Background(), "owner-1", "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strategy generation failed")
}
