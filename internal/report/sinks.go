package report

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapSink writes each record as one zap entry.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates a sink writing to logger.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger}
}

// Section implements Reporter.
func (s *ZapSink) Section(title string) {
	s.logger.Info("section", zap.String("section", title))
}

// Entry implements Reporter.
func (s *ZapSink) Entry(r Record) {
	fields := []zap.Field{
		zap.String("severity", string(r.Severity)),
		zap.String("title", r.Title),
		zap.String("summary", r.Summary),
		zap.Strings("details", r.Details),
	}
	if r.Step != "" {
		fields = append(fields, zap.String("step", r.Step))
	}
	if r.Attempt > 0 {
		fields = append(fields, zap.Int("attempt", r.Attempt))
	}
	if r.Disposition != "" {
		fields = append(fields, zap.String("disposition", string(r.Disposition)))
	}
	if r.RetryIn > 0 {
		fields = append(fields, zap.Duration("retry_in", r.RetryIn))
	}

	if ce := s.logger.Check(zapLevel(r.Severity), r.Title); ce != nil {
		ce.Write(fields...)
	}
}

func zapLevel(sev Severity) zapcore.Level {
	switch sev {
	case SeverityAttention:
		return zapcore.WarnLevel
	case SeverityError, SeverityCritical:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Multi fans records out to several reporters in order.
type Multi []Reporter

// Section implements Reporter.
func (m Multi) Section(title string) {
	for _, r := range m {
		r.Section(title)
	}
}

// Entry implements Reporter.
func (m Multi) Entry(rec Record) {
	for _, r := range m {
		r.Entry(rec)
	}
}

// Collector keeps records in memory.
type Collector struct {
	Sections []string
	Records  []Record
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Section implements Reporter.
func (c *Collector) Section(title string) {
	c.Sections = append(c.Sections, title)
}

// Entry implements Reporter.
func (c *Collector) Entry(r Record) {
	c.Records = append(c.Records, r)
}

// Step returns the records reported for step, in order.
func (c *Collector) Step(step string) []Record {
	var out []Record
	for _, r := range c.Records {
		if r.Step == step {
			out = append(out, r)
		}
	}
	return out
}

// Last returns the most recent record, or a zero Record.
func (c *Collector) Last() Record {
	if len(c.Records) == 0 {
		return Record{}
	}
	return c.Records[len(c.Records)-1]
}
