package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/io-sea/wfm-engine/internal/cliclient"
)

// commandColumnMaxLen bounds the COMMAND column of the step-description
// table so a multi-line sbatch script doesn't blow out the table width.
const commandColumnMaxLen = 60

var (
	statusAll             bool
	statusSession         string
	statusAllSteps        bool
	statusStep            string
	statusAllDescriptions bool
	statusServiceName     string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session, step or service status",
	Long: `With no flags, lists every session. -s scopes to one session, further
narrowed by -t/-T to a step. -A lists every step description known to the
engine; -S looks up a single service by name.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVarP(&statusAll, "all", "a", false, "list every session")
	statusCmd.Flags().StringVarP(&statusSession, "session", "s", "", "scope to one session")
	statusCmd.Flags().BoolVarP(&statusAllSteps, "all-steps", "T", false, "with -s, show every step of the session")
	statusCmd.Flags().StringVarP(&statusStep, "step", "t", "", "with -s, show one step of the session")
	statusCmd.Flags().BoolVarP(&statusAllDescriptions, "all-descriptions", "A", false, "list every step description")
	statusCmd.Flags().StringVarP(&statusServiceName, "service", "S", "", "look up one service by name")
}

func runStatus(cmd *cobra.Command, args []string) error {
	client := cliclient.New()

	switch {
	case statusServiceName != "":
		var detailed []sessionDetailedView
		if err := client.Get("/session/alldetailed", &detailed); err != nil {
			return err
		}
		for _, sess := range detailed {
			for _, svc := range sess.Services {
				if svc.Name == statusServiceName {
					printServiceTable([]serviceView{svc})
					return nil
				}
			}
		}
		return fmt.Errorf("service %q not found", statusServiceName)

	case statusAllDescriptions:
		var descs []stepDescriptionView
		if err := client.Get("/step/description/all", &descs); err != nil {
			return err
		}
		printStepDescriptionTable(descs)
		return nil

	case statusSession != "":
		if statusAllSteps || statusStep != "" {
			path := "/step/status/" + statusSession
			if statusStep != "" {
				path += "/" + statusStep
			}
			var statuses []stepInstanceStatusView
			if err := client.Get(path, &statuses); err != nil {
				return err
			}
			printStepStatusTable(statuses)
			return nil
		}
		var sessions []sessionSummaryView
		if err := client.Get("/session/"+statusSession, &sessions); err != nil {
			return err
		}
		printSessionTable(sessions)
		return nil

	case statusAll:
		fallthrough
	default:
		var sessions []sessionSummaryView
		if err := client.Get("/session/all", &sessions); err != nil {
			return err
		}
		printSessionTable(sessions)
		return nil
	}
}

type serviceView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Location string `json:"location"`
	Status   string `json:"status"`
}

type stepDescriptionView struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Command string `json:"command"`
}

type sessionDetailedView struct {
	sessionSummaryView
	Services []serviceView         `json:"services"`
	Steps    []stepDescriptionView `json:"steps"`
}

type stepInstanceStatusView struct {
	ID           int64  `json:"id"`
	InstanceName string `json:"instance_name"`
	StepName     string `json:"step_name"`
	JobID        int64  `json:"jobid"`
	Progress     string `json:"progress"`
	Status       string `json:"status"`
}

func newTableWriter() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	return t
}

func printSessionTable(sessions []sessionSummaryView) {
	t := newTableWriter()
	t.AppendHeader(table.Row{"NAME", "WORKFLOW", "USER", "STATUS"})
	for _, s := range sessions {
		t.AppendRow(table.Row{s.Name, s.WorkflowName, s.User, s.Status})
	}
	t.Render()
}

func printServiceTable(services []serviceView) {
	t := newTableWriter()
	t.AppendHeader(table.Row{"NAME", "KIND", "LOCATION", "STATUS"})
	for _, s := range services {
		t.AppendRow(table.Row{s.Name, s.Kind, s.Location, s.Status})
	}
	t.Render()
}

func printStepDescriptionTable(descs []stepDescriptionView) {
	t := newTableWriter()
	t.AppendHeader(table.Row{"ID", "NAME", "COMMAND"})
	for _, d := range descs {
		t.AppendRow(table.Row{d.ID, d.Name, truncateCommand(d.Command)})
	}
	t.Render()
}

// truncateCommand collapses a step command to a single line and clips it to
// commandColumnMaxLen, since sbatch scripts often span several lines.
func truncateCommand(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > commandColumnMaxLen {
		return string(runes[:commandColumnMaxLen-3]) + "..."
	}
	return s
}

func printStepStatusTable(statuses []stepInstanceStatusView) {
	t := newTableWriter()
	t.AppendHeader(table.Row{"STEP", "INSTANCE", "JOBID", "PROGRESS", "STATUS"})
	for _, s := range statuses {
		t.AppendRow(table.Row{s.StepName, s.InstanceName, s.JobID, s.Progress, s.Status})
	}
	t.Render()
}
