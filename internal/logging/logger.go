// Package logging provides the leveled console logger and the step
// observers that turn engine diagnostics into log output.
//   - StepLogger prints each step record to the console logger
//   - TraceWriter appends each step record to a JSONL file
package logging

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"PegSim/internal/engine"
	"PegSim/internal/report"
)

// ParseLevel maps a level name to a log.Level. Unknown values default to info.
func ParseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// New creates a leveled console logger writing to w.
func New(level string, w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		Prefix:          "pegsim",
		ReportTimestamp: true,
	})
}

// StepLogger logs step records. Every step goes out at debug level; with
// Verbose set, or for the final step of a trial, it goes out at info.
type StepLogger struct {
	Logger     *log.Logger
	TotalSteps int
	Verbose    bool
}

func (l *StepLogger) OnStep(trial int, rec engine.StepRecord) {
	if l == nil || l.Logger == nil {
		return
	}
	line := report.FormatStep(rec)
	if l.Verbose || rec.Step == l.TotalSteps {
		l.Logger.Info(line, "trial", trial)
		return
	}
	l.Logger.Debug(line, "trial", trial)
}

type traceEntry struct {
	Trial int `json:"trial"`
	engine.StepRecord
}

// TraceWriter writes step records as JSON lines. It is safe for concurrent
// use, and a nil TraceWriter ignores every call.
type TraceWriter struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewTraceWriter opens path for append, creating parent directories.
func NewTraceWriter(path string) (*TraceWriter, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &TraceWriter{file: f, enc: json.NewEncoder(f)}, nil
}

func (tw *TraceWriter) OnStep(trial int, rec engine.StepRecord) {
	if tw == nil {
		return
	}
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.file == nil {
		return
	}
	_ = tw.enc.Encode(traceEntry{Trial: trial, StepRecord: rec})
}

// Close closes the underlying file. Safe to call on nil receiver.
func (tw *TraceWriter) Close() error {
	if tw == nil {
		return nil
	}
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.file == nil {
		return nil
	}
	err := tw.file.Close()
	tw.file = nil
	return err
}
