package cobra

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/envsetup/internal/config"
	"github.com/NielsdaWheelz/envsetup/internal/envinfo"
	"github.com/NielsdaWheelz/envsetup/internal/install"
)

func newEnvinfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "envinfo",
		Short: "Report the Python and host environment",
		Long: `Print the environment report install emits after a successful run:
runtime versions, installed packages, OS, resource limits and disk space.
Probes that fail are reported, never fatal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			s.reporter.Section(install.SectionInfo)
			(&envinfo.Reporter{
				Runner: s.runner,
				Pip:    s.pip,
				Python: s.settings.Python,
				Dir:    s.settings.RepoPath,
			}).Report(ctx, s.reporter)

			s.finish(nil)
			return nil
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}
