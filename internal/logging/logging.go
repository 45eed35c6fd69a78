// Package logging builds the charmbracelet logger shared by the commands.
package logging

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// timestampWriter prefixes each flushed line with an RFC3339 timestamp.
type timestampWriter struct {
	w   io.Writer
	buf bytes.Buffer
	mu  sync.Mutex
	now func() time.Time
}

// Write buffers bytes until a newline is found; for each full line, write a timestamped
// line to the underlying writer. Partial lines are kept in the buffer.
func (t *timestampWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, _ := t.buf.Write(p)
	for {
		line, err := t.buf.ReadString('\n')
		if err != nil {
			// put the partial line back for the next write
			t.buf.WriteString(line)
			break
		}
		ts := t.now().Format(time.RFC3339)
		if _, err := t.w.Write([]byte(ts + " " + line)); err != nil {
			return n, err
		}
	}
	return n, nil
}

// terminalWriter wraps an io.Writer and exposes an Fd method so libraries that
// inspect the file descriptor (for TTY detection) can work with wrapped writers.
type terminalWriter struct {
	w  io.Writer
	fd uintptr
}

func (tw *terminalWriter) Write(p []byte) (int, error) { return tw.w.Write(p) }

// Fd exposes the underlying file descriptor (e.g., os.Stderr.Fd()).
func (tw *terminalWriter) Fd() uintptr { return tw.fd }

// Options configures New.
type Options struct {
	// Out defaults to os.Stderr.
	Out io.Writer
	// File, when set, receives a copy of every line (opened for append).
	File   string
	Level  string
	Prefix string
	// Timestamps prefixes every line with an RFC3339 time.
	Timestamps bool
}

// ParseLevel maps a config string to a level. ok is false for unknown
// values, which map to info.
func ParseLevel(s string) (level log.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel, true
	case "info", "":
		return log.InfoLevel, true
	case "warn", "warning":
		return log.WarnLevel, true
	case "error":
		return log.ErrorLevel, true
	default:
		return log.InfoLevel, false
	}
}

// New returns a logger and a close function for the optional log file.
// Failure to open the log file is not fatal; it is reported on the returned
// logger and output stays on Out.
func New(opts Options) (*log.Logger, func() error) {
	out := opts.Out
	var fd uintptr
	if out == nil {
		out = os.Stderr
		fd = os.Stderr.Fd()
	} else if f, ok := out.(interface{ Fd() uintptr }); ok {
		fd = f.Fd()
	}

	closeFn := func() error { return nil }
	var fileErr error
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			// write to both stderr and file so running interactively still shows logs
			out = io.MultiWriter(out, f)
			closeFn = f.Close
		} else {
			fileErr = err
		}
	}
	if opts.Timestamps {
		out = &timestampWriter{w: out, now: time.Now}
	}
	logger := log.NewWithOptions(&terminalWriter{w: out, fd: fd}, log.Options{Prefix: opts.Prefix})

	level, ok := ParseLevel(opts.Level)
	logger.SetLevel(level)
	if !ok {
		logger.Warn("unknown log_level, defaulting to info", "provided", opts.Level)
	}
	if fileErr != nil {
		logger.Warn("log_file could not be opened; logging to stderr only", "path", opts.File, "err", fileErr)
	}
	return logger, closeFn
}
