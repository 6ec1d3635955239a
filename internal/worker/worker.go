// File: internal/worker/worker.go

// Package worker runs the Temporal worker process: it dials the cluster,
// registers the task workflow and its activities, and polls the configured
// task queue until asked to stop.
package worker

import (
	"fmt"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/xkilldash9x/wraith/internal/config"
	"github.com/xkilldash9x/wraith/internal/service"
)

// Worker wraps a Temporal worker together with the client it polls through.
type Worker struct {
	client client.Client
	inner  worker.Worker
	logger *zap.Logger
}

// New dials the Temporal cluster and registers the workflow and activities
// from the component graph. The caller owns the components' lifetime.
func New(cfg config.TemporalConfig, components *service.Components, logger *zap.Logger) (*Worker, error) {
	if components == nil {
		return nil, fmt.Errorf("worker requires built service components")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("worker")

	c, err := client.Dial(client.Options{
		HostPort:  cfg.HostPort,
		Namespace: cfg.Namespace,
		Logger:    newZapAdapter(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("dialing temporal at %s: %w", cfg.HostPort, err)
	}

	w := worker.New(c, cfg.TaskQueue, worker.Options{})
	components.Workflow.Register(w)
	components.Activities.Register(w)

	logger.Info("Worker registered",
		zap.String("task_queue", cfg.TaskQueue),
		zap.String("namespace", cfg.Namespace),
	)
	return &Worker{client: c, inner: w, logger: logger}, nil
}

// Run polls the task queue until the interrupt channel fires or a fatal
// poller error occurs. It blocks.
func (w *Worker) Run(interrupt <-chan interface{}) error {
	w.logger.Info("Worker polling started")
	if err := w.inner.Run(interrupt); err != nil {
		return fmt.Errorf("worker stopped with error: %w", err)
	}
	return nil
}

// Close releases the Temporal client connection.
func (w *Worker) Close() {
	w.client.Close()
}
