package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/io-sea/wfm-engine/internal/cliclient"
)

var (
	stopSession string
	stopSync    bool
	stopForce   bool
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a workflow session",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
	stopCmd.Flags().StringVarP(&stopSession, "session", "s", "", "session name")
	stopCmd.Flags().BoolVar(&stopSync, "syncstop", false, "wait for every service to stop before returning")
	stopCmd.Flags().BoolVar(&stopForce, "force", false, "cancel running steps instead of waiting for them")
	stopCmd.MarkFlagRequired("session")
}

type sessionStopRequest struct {
	SyncStop    bool   `json:"sync_stop"`
	SessionName string `json:"session_name"`
}

func runStop(cmd *cobra.Command, args []string) error {
	path := "/session/stop"
	if stopForce {
		path = "/session/forcedstop"
	}
	var result int
	if err := cliclient.New().Post(path, sessionStopRequest{SyncStop: stopSync, SessionName: stopSession}, &result); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s stopped\n", stopSession)
	return nil
}
