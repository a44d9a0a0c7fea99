package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/io-sea/wfm-engine/internal/cliclient"
)

var (
	runSession      string
	runStep         string
	runReplacements []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start one step of an active session",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runSession, "session", "s", "", "session name")
	runCmd.Flags().StringVarP(&runStep, "step", "t", "", "step name")
	runCmd.Flags().StringArrayVarP(&runReplacements, "define", "d", nil, "variable substitution var=val, may be repeated")
	runCmd.MarkFlagRequired("session")
	runCmd.MarkFlagRequired("step")
}

type stepStartupRequest struct {
	SessionName  string            `json:"session_name"`
	StepName     string            `json:"step_name"`
	Replacements map[string]string `json:"replacements"`
}

type stepStartupResponse struct {
	ID           int64  `json:"id"`
	InstanceName string `json:"instance_name"`
}

func runRun(cmd *cobra.Command, args []string) error {
	replacements, err := parseReplacements(runReplacements)
	if err != nil {
		return err
	}

	var resp stepStartupResponse
	err = cliclient.New().Post("/step/startup", stepStartupRequest{
		SessionName:  runSession,
		StepName:     runStep,
		Replacements: replacements,
	}, &resp)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s started\n", resp.InstanceName)
	return nil
}
