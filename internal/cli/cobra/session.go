package cobra

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/NielsdaWheelz/envsetup/internal/config"
	"github.com/NielsdaWheelz/envsetup/internal/errors"
	"github.com/NielsdaWheelz/envsetup/internal/events"
	"github.com/NielsdaWheelz/envsetup/internal/exec"
	"github.com/NielsdaWheelz/envsetup/internal/metrics"
	"github.com/NielsdaWheelz/envsetup/internal/pip"
	"github.com/NielsdaWheelz/envsetup/internal/report"
	"github.com/NielsdaWheelz/envsetup/internal/retry"
	"github.com/NielsdaWheelz/envsetup/internal/tty"
)

// Seams replaced by tests.
var (
	newRunner  = func() exec.CommandRunner { return exec.NewRealRunner() }
	newSleeper = func() retry.Sleeper { return retry.TimerSleeper{} }
	lookupEnv  = os.LookupEnv
)

// session is the wiring shared by commands that run pip.
type session struct {
	name     string
	start    time.Time
	settings config.Settings
	logger   *zap.Logger
	runner   exec.CommandRunner
	pip      *pip.Installer
	reporter report.Reporter

	events  *events.Log
	metrics *metrics.Sink
}

func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	return config.Load(config.LoadOpts{
		ConfigFile: globalOpts.ConfigFile,
		DotenvFile: globalOpts.EnvFile,
		Lookup:     lookupEnv,
		Flags:      cmd.Flags(),
	})
}

func newLogger(w io.Writer) (*zap.Logger, error) {
	format := report.LogFormat(globalOpts.LogFormat)
	if format == "" {
		format = report.LogFormatJSON
		if f, ok := w.(*os.File); ok && tty.IsTTY(f) {
			format = report.LogFormatConsole
		}
	}
	logger, err := report.NewLogger(report.LoggerOpts{
		Verbose: globalOpts.Verbose,
		Format:  format,
		Writer:  w,
	})
	if err != nil {
		return nil, errors.Wrap(errors.EUsage, "invalid --log-format: "+string(format), err)
	}
	return logger, nil
}

func consoleOpts(w io.Writer) report.ConsoleOpts {
	f, _ := w.(*os.File)
	env := tty.Detect(f, lookupEnv)
	return report.ConsoleOpts{Color: env.Color, GitHub: env.GitHub}
}

// newSession loads settings and builds the reporter fan-out. Nothing is
// written before settings validate.
func newSession(cmd *cobra.Command) (*session, error) {
	settings, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	runner := newRunner()
	s := &session{
		name:     cmd.Name(),
		start:    time.Now(),
		settings: settings,
		logger:   logger,
		runner:   runner,
		pip: pip.NewInstaller(runner, settings.Python, settings.RepoPath,
			settings.CommandTimeout.Std()),
	}

	sinks := report.Multi{
		report.NewZapSink(logger),
		report.NewConsoleSink(cmd.OutOrStdout(), consoleOpts(cmd.OutOrStdout())),
	}
	if settings.EventsFile != "" {
		s.events = events.NewLog(settings.EventsFile, logger)
		s.events.Emit(events.EventCmdStart, events.CmdStartData(s.name, os.Args[1:]))
		sinks = append(sinks, s.events)
	}
	if settings.MetricsFile != "" {
		s.metrics = metrics.NewSink()
		sinks = append(sinks, s.metrics)
	}
	s.reporter = sinks

	logger.Debug("settings loaded",
		zap.String("repo", settings.RepoPath),
		zap.String("python", settings.Python),
		zap.String("source", settings.Source),
		zap.Duration("retry_sleep", settings.RetrySleep.Std()),
		zap.Duration("retry_budget", settings.RetryBudget.Std()))
	return s, nil
}

// finish flushes the optional outputs. Their failures are logged, never returned.
func (s *session) finish(err error) {
	if s.events != nil {
		s.events.Emit(events.EventCmdEnd, events.CmdEndData(s.name, errors.ExitCode(err),
			time.Since(s.start).Milliseconds(), string(errors.GetCode(err))))
	}
	if s.metrics != nil {
		s.metrics.SetSuccess(err == nil)
		if werr := s.metrics.WriteTextfile(s.settings.MetricsFile); werr != nil {
			s.logger.Warn("failed to write metrics", zap.String("path", s.settings.MetricsFile), zap.Error(werr))
		}
	}
	_ = s.logger.Sync()
}
