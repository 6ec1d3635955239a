// File: cmd/signal.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/wraith/api/schemas"
)

// signalJob sends one named signal with an optional payload to a running job.
func signalJob(cmd *cobra.Command, workflowID, signalName string, payload interface{}) error {
	c, err := dialTemporal()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.SignalWorkflow(cmd.Context(), workflowID, "", signalName, payload); err != nil {
		return fmt.Errorf("signaling job %s: %w", workflowID, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s sent to %s\n", signalName, workflowID)
	return nil
}

var approveCmd = &cobra.Command{
	Use:   "approve <workflow-id>",
	Short: "Approve a job's pending high-stakes action",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return signalJob(cmd, args[0], schemas.SignalApprove, nil)
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <workflow-id>",
	Short: "Reject a job's pending high-stakes action and stop the job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return signalJob(cmd, args[0], schemas.SignalReject, nil)
	},
}

var killCmd = &cobra.Command{
	Use:   "kill <workflow-id>",
	Short: "Stop a running job at the next safe point",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return signalJob(cmd, args[0], schemas.SignalKill, nil)
	},
}

var messageCmd = &cobra.Command{
	Use:   "message <workflow-id> <text>",
	Short: "Send the agent extra instructions mid-task",
	Long: `Queues a message for a running job. The agent folds queued messages
into its working goal at the next turn boundary, in arrival order.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[1] == "" {
			return fmt.Errorf("message text must not be empty")
		}
		return signalJob(cmd, args[0], schemas.SignalUserMessage, schemas.UserMessageSignal{Text: args[1]})
	},
}

func init() {
	rootCmd.AddCommand(approveCmd, rejectCmd, killCmd, messageCmd)
}
