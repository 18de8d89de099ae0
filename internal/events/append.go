// Package events provides per-invocation event logging for envsetup.
// Events are appended to a JSONL file, one JSON object per line.
package events

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NielsdaWheelz/envsetup/internal/report"
)

// SchemaVersion is the events file format version.
const SchemaVersion = "1.0"

// Event names.
const (
	EventCmdStart = "cmd_start"
	EventCmdEnd   = "cmd_end"
	EventSection  = "section"
	EventAttempt  = "attempt"
	EventRecord   = "record"
)

// Event represents a single line of the events file.
// This is the public contract for the events file format.
type Event struct {
	SchemaVersion string         `json:"schema_version"`
	Timestamp     string         `json:"timestamp"` // RFC3339
	InvocationID  string         `json:"invocation_id"`
	Event         string         `json:"event"`
	Data          map[string]any `json:"data,omitempty"`
}

// AppendEvent appends a single event to the events file.
// The file and its parent directory are created lazily.
// Each event is written as a single JSON line followed by newline.
//
// Best-effort: errors are returned but callers should typically ignore them
// and continue with the main operation.
func AppendEvent(path string, e Event) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	data = append(data, '\n')
	_, err = f.Write(data)
	return err
}

// Log is a report.Reporter that appends every section and record to a JSONL
// file under one invocation ID. Write failures are logged once and never
// interrupt the installation.
type Log struct {
	Path   string
	ID     string
	Now    func() time.Time
	Logger *zap.Logger

	failed bool
}

// NewLog creates a Log with a fresh invocation ID.
func NewLog(path string, logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{Path: path, ID: uuid.NewString(), Now: time.Now, Logger: logger}
}

// Emit appends one event. Errors are reported through the logger.
func (l *Log) Emit(event string, data map[string]any) {
	e := Event{
		SchemaVersion: SchemaVersion,
		Timestamp:     l.Now().UTC().Format(time.RFC3339),
		InvocationID:  l.ID,
		Event:         event,
		Data:          data,
	}
	if err := AppendEvent(l.Path, e); err != nil && !l.failed {
		l.failed = true
		l.Logger.Warn("failed to append event", zap.String("path", l.Path), zap.Error(err))
	}
}

// Section implements report.Reporter.
func (l *Log) Section(title string) {
	l.Emit(EventSection, map[string]any{"title": title})
}

// Entry implements report.Reporter. Install attempts are "attempt" events;
// everything else is a "record".
func (l *Log) Entry(r report.Record) {
	name := EventRecord
	if r.Step != "" && r.Disposition != report.Skip {
		name = EventAttempt
	}
	l.Emit(name, RecordData(r))
}

// RecordData returns the data map for a record or attempt event.
func RecordData(r report.Record) map[string]any {
	data := map[string]any{
		"severity": string(r.Severity),
		"title":    r.Title,
		"summary":  r.Summary,
	}
	if len(r.Details) > 0 {
		data["details"] = r.Details
	}
	if r.Step != "" {
		data["step"] = r.Step
	}
	if r.Attempt > 0 {
		data["attempt"] = r.Attempt
	}
	if r.Disposition != "" {
		data["disposition"] = string(r.Disposition)
	}
	if r.RetryIn > 0 {
		data["retry_in_ms"] = r.RetryIn.Milliseconds()
	}
	return data
}

// CmdStartData returns the data map for a cmd_start event.
func CmdStartData(cmd string, args []string) map[string]any {
	return map[string]any{
		"cmd":  cmd,
		"args": args,
	}
}

// CmdEndData returns the data map for a cmd_end event.
// errorCode should be empty or an E_* string.
func CmdEndData(cmd string, exitCode int, durationMs int64, errorCode string) map[string]any {
	data := map[string]any{
		"cmd":         cmd,
		"exit_code":   exitCode,
		"duration_ms": durationMs,
	}
	if errorCode != "" {
		data["error_code"] = errorCode
	}
	return data
}
