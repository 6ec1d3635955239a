// File: internal/service/service.go

// Package service assembles the worker's collaborators from configuration:
// database pool, job store, LLM router, browser backend, notifier, memory
// client, and the activities and workflow definitions built on top of them.
package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/wraith/internal/activities"
	"github.com/xkilldash9x/wraith/internal/agent"
	"github.com/xkilldash9x/wraith/internal/browser"
	"github.com/xkilldash9x/wraith/internal/browser/local"
	"github.com/xkilldash9x/wraith/internal/browser/steel"
	"github.com/xkilldash9x/wraith/internal/config"
	"github.com/xkilldash9x/wraith/internal/jobstore"
	"github.com/xkilldash9x/wraith/internal/llmclient"
	"github.com/xkilldash9x/wraith/internal/mailer"
	"github.com/xkilldash9x/wraith/internal/memory"
	"github.com/xkilldash9x/wraith/internal/risk"
	"github.com/xkilldash9x/wraith/internal/workflows"
)

// Components is everything a worker process needs, built once at startup
// and torn down together.
type Components struct {
	Store      *jobstore.Store
	Router     *llmclient.LLMRouter
	Backend    browser.Backend
	Notifier   *mailer.Client
	Memory     *memory.Client
	Activities *activities.Activities
	Workflow   *workflows.TaskWorkflow

	pool   *pgxpool.Pool
	logger *zap.Logger
}

// backendRegistry maps configured backend kinds to their constructors.
func backendRegistry() map[config.BrowserBackendKind]browser.Constructor {
	return map[config.BrowserBackendKind]browser.Constructor{
		config.BackendSteel: func(cfg config.BrowserConfig, logger *zap.Logger) (browser.Backend, error) {
			return steel.New(cfg, logger)
		},
		config.BackendLocal: func(cfg config.BrowserConfig, logger *zap.Logger) (browser.Backend, error) {
			return local.New(cfg, logger), nil
		},
	}
}

// Build constructs the full component graph. Anything partially constructed
// is torn down before an error returns.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if cfg == nil {
		return nil, fmt.Errorf("service requires a configuration")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Components{logger: logger}
	ok := false
	defer func() {
		if !ok {
			c.Close(ctx)
		}
	}()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("creating database pool: %w", err)
	}
	c.pool = pool

	c.Store, err = jobstore.New(ctx, pool, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing job store: %w", err)
	}

	c.Router, err = llmclient.NewRouter(cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing LLM router: %w", err)
	}

	c.Backend, err = browser.NewFromRegistry(cfg.Browser, logger, backendRegistry())
	if err != nil {
		return nil, fmt.Errorf("initializing browser backend: %w", err)
	}

	c.Notifier, err = mailer.New(cfg.Email, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing mailer: %w", err)
	}

	c.Memory = memory.New(cfg.Memory, logger)
	if !c.Memory.Enabled() {
		logger.Warn("Long-term memory is disabled; planning will run without owner context")
	}

	// One rule set gates risky actions in both places: the executor holds
	// them before dispatch, the workflow re-checks the reasoning it gets
	// back.
	classifier := risk.NewKeywordClassifier(risk.DefaultRules())

	planner, err := agent.NewPlanner(c.Router, c.Memory, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing planner: %w", err)
	}
	executor, err := agent.NewExecutor(c.Router, c.Backend, c.Memory, classifier, cfg.Browser, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing turn executor: %w", err)
	}
	sessions, err := agent.NewSessions(c.Backend, executor, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing session manager: %w", err)
	}

	c.Activities, err = activities.New(c.Store, planner, executor, sessions, c.Notifier, c.Memory, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing activities: %w", err)
	}
	c.Workflow = workflows.NewTaskWorkflow(classifier)

	ok = true
	logger.Info("Service components built",
		zap.String("browser_backend", string(cfg.Browser.Backend)),
		zap.Bool("memory_enabled", c.Memory.Enabled()),
	)
	return c, nil
}

// Close releases every held resource. Safe on a partially built graph.
func (c *Components) Close(ctx context.Context) {
	if c.Backend != nil {
		// The local backend owns real Chrome processes; give it a chance to
		// tear them down.
		if s, ok := c.Backend.(interface{ Shutdown(context.Context) }); ok {
			s.Shutdown(ctx)
		}
	}
	if c.Router != nil {
		if err := c.Router.Close(); err != nil {
			c.logger.Warn("LLM router close failed", zap.Error(err))
		}
	}
	if c.pool != nil {
		c.pool.Close()
	}
}
