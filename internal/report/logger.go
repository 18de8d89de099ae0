package report

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFormat selects the zap encoder.
type LogFormat string

const (
	LogFormatJSON    LogFormat = "json"
	LogFormatConsole LogFormat = "console"
)

// LoggerOpts configures NewLogger.
type LoggerOpts struct {
	Verbose bool
	Format  LogFormat
	// OutputPaths defaults to stderr. Ignored when Writer is set.
	OutputPaths []string
	// Writer receives log output instead of OutputPaths.
	Writer io.Writer
}

// NewLogger builds the process logger from the production preset.
func NewLogger(opts LoggerOpts) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if opts.Verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	switch opts.Format {
	case "", LogFormatJSON:
		config.Encoding = "json"
	case LogFormatConsole:
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Sampling = nil
	config.OutputPaths = []string{"stderr"}
	if len(opts.OutputPaths) > 0 {
		config.OutputPaths = opts.OutputPaths
	}

	var buildOpts []zap.Option
	if opts.Writer != nil {
		enc := zapcore.NewJSONEncoder(config.EncoderConfig)
		if config.Encoding == "console" {
			enc = zapcore.NewConsoleEncoder(config.EncoderConfig)
		}
		core := zapcore.NewCore(enc, zapcore.AddSync(opts.Writer), config.Level)
		buildOpts = append(buildOpts, zap.WrapCore(func(zapcore.Core) zapcore.Core { return core }))
	}

	logger, err := config.Build(buildOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
