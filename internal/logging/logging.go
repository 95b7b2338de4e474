// Package logging builds the charmbracelet/log logger used across the app.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Options holds logger configuration.
type Options struct {
	Level  string
	Format string
	// Path is a log file. Empty means Fallback.
	Path string
	// Fallback receives logs when Path is empty. Nil discards them.
	Fallback io.Writer
	Prefix   string
}

// LookupLevel maps a level name, in any case, to a log.Level.
func LookupLevel(level string) (log.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel, true
	case "info":
		return log.InfoLevel, true
	case "warn", "warning":
		return log.WarnLevel, true
	case "error":
		return log.ErrorLevel, true
	case "fatal":
		return log.FatalLevel, true
	}
	return log.InfoLevel, false
}

// ParseLevel is LookupLevel defaulting to info.
func ParseLevel(level string) log.Level {
	l, _ := LookupLevel(level)
	return l
}

// LookupFormatter maps a formatter name, in any case, to a log.Formatter.
// The empty name means text.
func LookupFormatter(format string) (log.Formatter, bool) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return log.TextFormatter, true
	case "json":
		return log.JSONFormatter, true
	case "logfmt":
		return log.LogfmtFormatter, true
	}
	return log.TextFormatter, false
}

// ParseFormatter is LookupFormatter defaulting to text.
func ParseFormatter(format string) log.Formatter {
	f, _ := LookupFormatter(format)
	return f
}

// New returns a logger and a closer for its file, if one was opened.
func New(opts Options) (*log.Logger, io.Closer, error) {
	var (
		w      = opts.Fallback
		closer io.Closer = nopCloser{}
	)
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}
	if w == nil {
		w = io.Discard
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(opts.Level),
		Formatter:       ParseFormatter(opts.Format),
		ReportTimestamp: opts.Path != "",
		Prefix:          opts.Prefix,
	})
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
