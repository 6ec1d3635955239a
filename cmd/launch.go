// File: cmd/launch.go
package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/xkilldash9x/wraith/internal/observability"
	"github.com/xkilldash9x/wraith/internal/workflows"
)

var launchFlags struct {
	goal            string
	ownerID         string
	notify          string
	maxTurns        int
	approvalTimeout time.Duration
	wait            bool
}

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Start a new browsing job",
	Long: `Submits a goal as a new durable job and prints its workflow ID. The
job runs on whatever worker is polling the task queue; use the workflow ID
with the approve, reject, kill, message and status commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()

		c, err := dialTemporal()
		if err != nil {
			return err
		}
		defer c.Close()

		workflowID := fmt.Sprintf("wraith-task-%s", uuid.NewString())
		input := workflows.TaskInput{
			Goal:            launchFlags.goal,
			OwnerID:         launchFlags.ownerID,
			NotifyAddress:   launchFlags.notify,
			MaxTurns:        launchFlags.maxTurns,
			ApprovalTimeout: launchFlags.approvalTimeout,
		}
		if input.MaxTurns == 0 {
			input.MaxTurns = appConfig.Orchestration.MaxTurns
		}
		if input.ApprovalTimeout == 0 {
			input.ApprovalTimeout = appConfig.Orchestration.ApprovalTimeout
		}

		run, err := c.ExecuteWorkflow(cmd.Context(), client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: appConfig.Temporal.TaskQueue,
		}, workflows.TaskWorkflowName, input)
		if err != nil {
			return fmt.Errorf("starting job: %w", err)
		}

		logger.Info("Job launched",
			zap.String("workflow_id", run.GetID()),
			zap.String("run_id", run.GetRunID()),
		)
		fmt.Fprintln(cmd.OutOrStdout(), run.GetID())

		if !launchFlags.wait {
			return nil
		}

		var outcome workflows.TaskOutcome
		if err := run.Get(cmd.Context(), &outcome); err != nil {
			return fmt.Errorf("job failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "status: %s\nturns: %d\n%s\n",
			outcome.Status, outcome.Turns, outcome.Summary)
		return nil
	},
}

func init() {
	launchCmd.Flags().StringVarP(&launchFlags.goal, "goal", "g", "", "the task to accomplish (required)")
	launchCmd.Flags().StringVarP(&launchFlags.ownerID, "owner", "o", "", "owner identifier the job runs for (required)")
	launchCmd.Flags().StringVarP(&launchFlags.notify, "notify", "n", "", "email address for approval requests and results")
	launchCmd.Flags().IntVar(&launchFlags.maxTurns, "max-turns", 0, "override the turn ceiling for this job")
	launchCmd.Flags().DurationVar(&launchFlags.approvalTimeout, "approval-timeout", 0, "override the approval window for this job")
	launchCmd.Flags().BoolVarP(&launchFlags.wait, "wait", "w", false, "block until the job finishes and print its outcome")
	launchCmd.MarkFlagRequired("goal")
	launchCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(launchCmd)
}
