package cmd

import (
	"github.com/spf13/cobra"

	"github.com/io-sea/wfm-engine/internal/cliclient"
)

var (
	showFull  bool
	showShort bool
)

// showCmd renders every known session: -l for a short name/status listing,
// -f for the full session/step/service detail. With neither flag it behaves
// like -l.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show every session, short or full detail",
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVarP(&showShort, "short", "l", false, "short listing (default)")
	showCmd.Flags().BoolVarP(&showFull, "full", "f", false, "full detail, including services and steps")
}

func runShow(cmd *cobra.Command, args []string) error {
	client := cliclient.New()
	if showFull {
		var detailed []sessionDetailedView
		if err := client.Get("/session/alldetailed", &detailed); err != nil {
			return err
		}
		for _, sess := range detailed {
			printSessionTable([]sessionSummaryView{sess.sessionSummaryView})
			if len(sess.Services) > 0 {
				printServiceTable(sess.Services)
			}
			if len(sess.Steps) > 0 {
				printStepDescriptionTable(sess.Steps)
			}
		}
		return nil
	}

	var sessions []sessionSummaryView
	if err := client.Get("/session/all", &sessions); err != nil {
		return err
	}
	printSessionTable(sessions)
	return nil
}
