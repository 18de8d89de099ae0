// Package errors provides error formatting for envsetup CLI output.
package errors

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// PrintOptions controls error output formatting.
type PrintOptions struct {
	// Verbose enables detailed error output with more context keys and longer tails.
	Verbose bool
}

// Context key whitelist (default mode, in order)
var defaultContextKeys = []string{
	"op",
	"source",
	"package",
	"path",
	"command",
	"exit_code",
	"attempts",
	"elapsed",
}

// Additional context keys for verbose mode
var verboseContextKeys = []string{
	"op",
	"source",
	"package",
	"version",
	"index",
	"path",
	"resolved_path",
	"command",
	"exit_code",
	"attempts",
	"elapsed",
	"wall",
	"sleep",
	"budget",
	"timed_out",
	"hint",
}

// Truncation limits
const (
	defaultMaxLines = 20
	defaultMaxChars = 8 * 1024
	verboseMaxLines = 100
	verboseMaxChars = 64 * 1024

	maxValueLen      = 256
	maxExtraValueLen = 128
	maxOutputLineLen = 512
)

// outputKey holds the captured stderr of the failing command. It is printed
// as a tail block rather than as a context line.
const outputKey = "output"

// Format formats an error for display without I/O.
func Format(err error, opts PrintOptions) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	se, ok := AsSetupError(err)
	if !ok {
		sb.WriteString(err.Error())
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString("error_code: ")
	sb.WriteString(string(se.Code))
	sb.WriteString("\n")
	sb.WriteString(se.Msg)
	sb.WriteString("\n")
	headerLen := sb.Len()

	contextKeys := defaultContextKeys
	if opts.Verbose {
		contextKeys = verboseContextKeys
	}

	printedKeys := make(map[string]bool)
	first := true
	for _, key := range contextKeys {
		val, ok := se.Details[key]
		if !ok || val == "" || key == "hint" {
			continue
		}
		if first {
			sb.WriteString("\n")
			first = false
		}
		printedKeys[key] = true
		sb.WriteString(key)
		sb.WriteString(": ")
		sb.WriteString(sanitizeValue(val, maxValueLen))
		sb.WriteString("\n")
	}

	// In verbose mode, print extra keys under extra: section
	if opts.Verbose && se.Details != nil {
		var extraKeys []string
		for key := range se.Details {
			if !printedKeys[key] && key != "hint" && key != outputKey {
				extraKeys = append(extraKeys, key)
			}
		}
		if len(extraKeys) > 0 {
			sort.Strings(extraKeys)
			sb.WriteString("\nextra:\n")
			for _, key := range extraKeys {
				val := se.Details[key]
				if val == "" {
					continue
				}
				sb.WriteString("  ")
				sb.WriteString(key)
				sb.WriteString(": ")
				sb.WriteString(sanitizeValue(val, maxExtraValueLen))
				sb.WriteString("\n")
			}
		}
	}

	if lines := tailLines(se.Details[outputKey], opts); len(lines) > 0 {
		sb.WriteString(outputBlock(lines, opts))
	}

	if hint := se.Details["hint"]; hint != "" {
		sb.WriteString("\nhint: ")
		sb.WriteString(hint)
		sb.WriteString("\n")
	}

	for _, try := range deriveTryLines(se) {
		sb.WriteString("try: ")
		sb.WriteString(try)
		sb.WriteString("\n")
	}

	// The failure summary is always the final line, so CI logs that show
	// only the tail still name the failure.
	if sb.Len() > headerLen && summaryLast(se.Code) {
		sb.WriteString("\n")
		sb.WriteString(se.Msg)
		sb.WriteString("\n")
	}

	return sb.String()
}

func summaryLast(code Code) bool {
	switch code {
	case EInstallFailed, ERetryExhausted, EConfig:
		return true
	}
	return false
}

// PrintWithOptions writes a formatted error to w with the given options.
func PrintWithOptions(w io.Writer, err error, opts PrintOptions) {
	if err == nil {
		return
	}
	_, _ = io.WriteString(w, Format(err, opts))
}

// sanitizeValue collapses a value onto one line and truncates it to maxLen.
func sanitizeValue(val string, maxLen int) string {
	val = strings.TrimRight(val, " \t\r\n")
	val = strings.ReplaceAll(val, "\r\n", "\n")
	val = strings.ReplaceAll(val, "\n", "\\n")
	if len(val) > maxLen {
		return val[:maxLen] + "…"
	}
	return val
}

// tailLines returns the last lines of captured output, bounded by the
// line and character limits for the current mode.
func tailLines(output string, opts PrintOptions) []string {
	output = strings.TrimRight(output, " \t\r\n")
	if output == "" {
		return nil
	}

	maxLines, maxChars := defaultMaxLines, defaultMaxChars
	if opts.Verbose {
		maxLines, maxChars = verboseMaxLines, verboseMaxChars
	}
	if len(output) > maxChars {
		output = output[len(output)-maxChars:]
	}

	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n") {
		if len(line) > maxOutputLineLen {
			line = line[:maxOutputLineLen] + "…"
		}
		lines = append(lines, strings.TrimRight(line, " \t\r"))
	}
	if len(lines) > maxLines {
		return lines[len(lines)-maxLines:]
	}
	return lines
}

func outputBlock(lines []string, opts PrintOptions) string {
	maxLines := defaultMaxLines
	if opts.Verbose {
		maxLines = verboseMaxLines
	}

	var block strings.Builder
	if len(lines) >= maxLines {
		block.WriteString(fmt.Sprintf("\noutput (last %d lines):\n", len(lines)))
	} else {
		block.WriteString(fmt.Sprintf("\noutput (%d lines):\n", len(lines)))
	}
	for _, line := range lines {
		block.WriteString("  ")
		block.WriteString(line)
		block.WriteString("\n")
	}
	return block.String()
}

// deriveTryLines returns actionable suggestions based on error code.
func deriveTryLines(se *SetupError) []string {
	if se == nil {
		return nil
	}

	var lines []string
	switch se.Code {
	case EConfig:
		lines = append(lines, "envsetup plan --help")
	case ERetryExhausted:
		if se.Details["budget"] != "" {
			lines = append(lines, "raise --retry-budget (currently "+se.Details["budget"]+")")
		}
	}
	return lines
}

// GetHint extracts the hint from an error's details, if present.
func GetHint(err error) string {
	se, ok := AsSetupError(err)
	if !ok || se.Details == nil {
		return ""
	}
	return se.Details["hint"]
}
