package cobra

import (
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/NielsdaWheelz/envsetup/internal/config"
	"github.com/NielsdaWheelz/envsetup/internal/envinfo"
	"github.com/NielsdaWheelz/envsetup/internal/errors"
	"github.com/NielsdaWheelz/envsetup/internal/install"
)

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the package and test-suite",
		Long: `Install the package under test, then the test-suite, then report the
environment.

Sources:
  GitHub     pip install <path>, once; any failure is fatal
  PyPI       pip install <name>[==<version>], retried within the sleep budget
  TestPyPI   pip install -r <requirements> if the file exists, then
             pip install <name>[==<version>] --no-deps --index-url <staging>,
             retried within the sleep budget

Exit codes:
  0    success
  1    install failed or retry budget exhausted
  2    invalid usage or configuration
  130  interrupted`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			// SIGINT cancels a running command or sleep.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			orch := &install.Orchestrator{
				Actions:  s.pip,
				Reporter: s.reporter,
				Sleeper:  newSleeper(),
				Env: &envinfo.Reporter{
					Runner: s.runner,
					Pip:    s.pip,
					Python: s.settings.Python,
					Dir:    s.settings.RepoPath,
				},
				Logger: s.logger,
			}

			res, err := orch.Run(ctx, s.settings.Params())
			if s.metrics != nil && res.Source.Registry() && res.PackageAttempts > 0 {
				s.metrics.SetRetryElapsed(install.StepNamePackage, res.Elapsed)
			}
			if err != nil && ctx.Err() != nil && errors.GetCode(err) != errors.EInterrupted {
				err = errors.Wrap(errors.EInterrupted, "installation interrupted", err)
			}
			if err == nil {
				s.logger.Info("installation complete",
					zap.Stringer("source", res.Source),
					zap.Int("package_attempts", res.PackageAttempts),
					zap.Duration("retry_elapsed", res.Elapsed),
					zap.Duration("wall", res.Wall))
			}
			s.finish(err)
			return err
		},
	}

	cmd.Long += "\n\nEnvironment:\n  " + strings.Join(config.EnvNames(), "\n  ") +
		"\n\nEnvironment variables override --config and --env-file; flags override both."
	config.RegisterFlags(cmd.Flags())
	return cmd
}
