// File: cmd/worker.go
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/wraith/internal/observability"
	"github.com/xkilldash9x/wraith/internal/service"
	"github.com/xkilldash9x/wraith/internal/worker"
)

const componentShutdownTimeout = 30 * time.Second

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the task worker process",
	Long: `Starts a worker that polls the configured task queue and executes
browsing jobs. The worker needs reachable Temporal, Postgres and model API
endpoints; it runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()
		ctx := cmd.Context()

		components, err := service.Build(ctx, appConfig, logger)
		if err != nil {
			return err
		}
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), componentShutdownTimeout)
			defer cancel()
			components.Close(shutCtx)
		}()

		w, err := worker.New(appConfig.Temporal, components, logger)
		if err != nil {
			return err
		}
		defer w.Close()

		interrupt := make(chan interface{})
		go func() {
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			s := <-sig
			logger.Info("Shutdown signal received", zap.String("signal", s.String()))
			close(interrupt)
		}()

		return w.Run(interrupt)
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
