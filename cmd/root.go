package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// rootCmd is the base command for the wfm CLI.
var rootCmd = &cobra.Command{
	Use:   "wfm",
	Short: "Start, stop, and inspect workflow sessions on an HPC cluster",
	Long: `wfm drives a workflow-manager engine that starts HPC workflow sessions,
allocates and tears down ephemeral storage services, and dispatches steps
as Slurm jobs.

Run 'wfm serve' to start the engine, then use 'wfm start', 'wfm stop',
'wfm run', 'wfm status' and 'wfm show' to drive it.`,
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from main at
// build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command and translates a returned error into an
// exit code.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "wfm version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitCodeError)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
