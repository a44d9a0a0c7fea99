package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/io-sea/wfm-engine/internal/cliclient"
)

var (
	startWorkflowFile string
	startSession      string
	startSync         bool
	startReplacements []string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a workflow session",
	Long: `Reads a workflow description file, starts the named session against the
running engine, and prints the resulting session status.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().StringVarP(&startWorkflowFile, "workflow", "w", "", "workflow description file")
	startCmd.Flags().StringVarP(&startSession, "session", "s", "", "session name")
	startCmd.Flags().BoolVar(&startSync, "syncstart", false, "wait for every service to come up before returning")
	startCmd.Flags().StringArrayVarP(&startReplacements, "define", "d", nil, "variable substitution var=val, may be repeated")
	startCmd.MarkFlagRequired("workflow")
	startCmd.MarkFlagRequired("session")
}

type sessionSummaryView struct {
	ID           int64  `json:"id"`
	Name         string `json:"session_name"`
	WorkflowName string `json:"workflow_name"`
	User         string `json:"user_name"`
	Status       string `json:"status"`
}

type sessionStartupRequest struct {
	WorkflowDescriptionFile string            `json:"workflow_description_file"`
	WorkflowDescription     string            `json:"workflow_description"`
	SyncStart               bool              `json:"sync_start"`
	SessionName             string            `json:"session_name"`
	UserName                string            `json:"user_name"`
	Replacements            map[string]string `json:"replacements"`
}

func runStart(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(startWorkflowFile)
	if err != nil {
		return fmt.Errorf("read workflow file: %w", err)
	}
	replacements, err := parseReplacements(startReplacements)
	if err != nil {
		return err
	}

	user := os.Getenv("USER")

	var sessions []sessionSummaryView
	err = cliclient.New().Post("/session/startup", sessionStartupRequest{
		WorkflowDescriptionFile: startWorkflowFile,
		WorkflowDescription:     string(data),
		SyncStart:               startSync,
		SessionName:             startSession,
		UserName:                user,
		Replacements:            replacements,
	}, &sessions)
	if err != nil {
		return err
	}
	for _, s := range sessions {
		fmt.Fprintf(cmd.OutOrStdout(), "%s started (status %s)\n", s.Name, s.Status)
	}
	return nil
}
