package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/io-sea/wfm-engine/internal/cliclient"
)

var (
	updateJobID    int64
	updateProgress string
)

// updateCmd is invoked by running jobs themselves to report progress; it is
// hidden from 'wfm --help' since it is not an operator-facing command.
var updateCmd = &cobra.Command{
	Use:    "update",
	Short:  "Report step progress by job id",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().Int64VarP(&updateJobID, "jobid", "j", 0, "job id")
	updateCmd.Flags().StringVarP(&updateProgress, "progress", "p", "", "progress string")
	updateCmd.MarkFlagRequired("jobid")
	updateCmd.MarkFlagRequired("progress")
}

type stepProgressRequest struct {
	JobID    int64  `json:"jobid"`
	Progress string `json:"progress"`
}

func runUpdate(cmd *cobra.Command, args []string) error {
	var instanceName string
	err := cliclient.New().Post("/step/progress/job", stepProgressRequest{
		JobID:    updateJobID,
		Progress: updateProgress,
	}, &instanceName)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", instanceName)
	return nil
}
