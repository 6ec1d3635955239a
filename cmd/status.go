// File: cmd/status.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/wraith/api/schemas"
)

var statusCmd = &cobra.Command{
	Use:   "status <workflow-id>",
	Short: "Show a running job's control state",
	Long: `Queries a running job for its pending approval decision, queued
message count and kill flag. The query is read-only and can be repeated
freely.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialTemporal()
		if err != nil {
			return err
		}
		defer c.Close()

		resp, err := c.QueryWorkflow(cmd.Context(), args[0], "", schemas.QueryStatus)
		if err != nil {
			return fmt.Errorf("querying job %s: %w", args[0], err)
		}

		var status schemas.ControlStatus
		if err := resp.Get(&status); err != nil {
			return fmt.Errorf("decoding status: %w", err)
		}

		out, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
