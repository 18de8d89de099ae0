// Package report turns installation outcomes into structured log records.
// It is the single place where an install result becomes observable; every
// installer routes through Compose so logs look the same regardless of strategy.
package report

import (
	"strconv"
	"time"

	"github.com/NielsdaWheelz/envsetup/internal/shell"
)

// Severity is the fixed vocabulary of record severities.
type Severity string

const (
	SeverityInfo      Severity = "info"
	SeveritySkip      Severity = "skip"
	SeveritySuccess   Severity = "success"
	SeverityAttention Severity = "attention"
	SeverityError     Severity = "error"
	SeverityCritical  Severity = "critical"
)

// Disposition classifies one reported attempt.
type Disposition string

const (
	Success         Disposition = "success"
	WillRetry       Disposition = "will-retry"
	TerminalFailure Disposition = "terminal-failure"
	Skip            Disposition = "skip"
)

// Severity maps a disposition onto the record severity. Skips are informational.
func (d Disposition) Severity() Severity {
	switch d {
	case Success:
		return SeveritySuccess
	case WillRetry:
		return SeverityAttention
	case TerminalFailure:
		return SeverityError
	default:
		return SeverityInfo
	}
}

// Record is one structured log entry.
type Record struct {
	Severity Severity
	Title    string
	Summary  string
	Details  []string

	// Step names the installation step ("package", "tests", ...). Empty for
	// records that are not about an install.
	Step string
	// Attempt is the 1-based attempt number, or 0 for a non-retried step.
	Attempt     int
	Disposition Disposition
	// RetryIn is the sleep before the next attempt when Disposition is WillRetry.
	RetryIn time.Duration
}

// Reporter receives records. Implementations must not block for long;
// the installers call Entry synchronously between attempts.
type Reporter interface {
	Section(title string)
	Entry(r Record)
}

// Context describes the attempt being reported.
type Context struct {
	// Title is already parameterized with any attempt number.
	Title string
	// Prefix is the human summary prefix, e.g. "Installing package from PyPI".
	Prefix string
	Step   string

	Attempt     int
	Disposition Disposition
	RetryIn     time.Duration

	// Retried marks records from a retry sequence; their terminal failure
	// mentions the exhausted retry limit.
	Retried bool
}

// Compose builds the record for one attempt.
//
// The summary is "{prefix} {was successful|failed}. {outcome summary}" with
// a retry or retry-limit sentence appended for retried installs.
func Compose(out shell.Outcome, c Context) Record {
	summary := out.Summary()
	if c.Prefix != "" {
		verdict := "was successful"
		if !out.Success() {
			verdict = "failed"
		}
		summary = c.Prefix + " " + verdict + ". " + summary
	}

	switch {
	case c.Disposition == WillRetry:
		summary += " Installation will be retried in " + FormatSeconds(c.RetryIn) + " seconds."
	case c.Disposition == TerminalFailure && c.Retried:
		summary += " The retry limit has been reached; action will fail."
	}

	return Record{
		Severity:    c.Disposition.Severity(),
		Title:       c.Title,
		Summary:     summary,
		Details:     out.Details(),
		Step:        c.Step,
		Attempt:     c.Attempt,
		Disposition: c.Disposition,
		RetryIn:     c.RetryIn,
	}
}

// Skipped builds a skip record.
func Skipped(title, step, summary string, details []string) Record {
	return Record{
		Severity:    Skip.Severity(),
		Title:       title,
		Summary:     summary,
		Details:     details,
		Step:        step,
		Disposition: Skip,
	}
}

// Info builds an informational record.
func Info(title, summary string, details ...string) Record {
	return Record{Severity: SeverityInfo, Title: title, Summary: summary, Details: details}
}

// FormatSeconds renders d as a plain number of seconds ("15", "1.5").
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
