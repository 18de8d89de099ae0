package cobra

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/envsetup/internal/config"
	"github.com/NielsdaWheelz/envsetup/internal/install"
	"github.com/NielsdaWheelz/envsetup/internal/pip"
	"github.com/NielsdaWheelz/envsetup/internal/report"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the installation plan without running it",
		Long: `Resolve settings exactly as install does and print the steps, the pip
commands they run and the retry policy. Nothing is executed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			params := settings.Params()
			plan, err := install.Resolve(params)
			if err != nil {
				return err
			}
			renderPlan(cmd.OutOrStdout(), settings, plan)
			return nil
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}

func renderPlan(w io.Writer, s config.Settings, plan install.Plan) {
	// The installer only renders command lines here; it never runs.
	installer := pip.NewInstaller(nil, s.Python, s.RepoPath, 0)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Installation plan (source: %s)", plan.Source.Label())
	t.AppendHeader(table.Row{"#", "Step", "Title", "Strategy", "Command"})
	for i, step := range plan.Steps {
		t.AppendRow(table.Row{i + 1, step.Name, step.Title, step.Kind, installer.Command(step.Args()...)})
	}
	t.Render()

	_, _ = fmt.Fprintf(w, "\nrepository: %s\n", s.RepoPath)
	if plan.Source.Registry() {
		policy := s.Params().Policy
		_, _ = fmt.Fprintf(w, "retry: every %s seconds for up to %s seconds (at most %s attempts)\n",
			report.FormatSeconds(policy.Sleep), report.FormatSeconds(policy.Budget),
			strconv.Itoa(policy.MaxAttempts()))
	}
	if s.CommandTimeout > 0 {
		_, _ = fmt.Fprintf(w, "command timeout: %s\n", s.CommandTimeout)
	}
}
