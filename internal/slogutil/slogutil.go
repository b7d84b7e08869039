// Package slogutil builds the slog-based audit trail for apply runs.
// Entries are plain text lines in a rotating file under .remap/logs,
// readable without any tooling.
package slogutil

import (
	"io"
	"log/slog"
	"os"
)

// discardLevel sits above every slog level so a discard logger never
// formats a record.
const discardLevel = slog.Level(100)

// NewLogger wraps w in the audit line format at the given level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(newLineHandler(w, level))
}

// NewDiscardLogger returns a logger that drops everything. The apply
// engine uses it when auditing is disabled, keeping call sites
// unconditional.
func NewDiscardLogger() *slog.Logger {
	return slog.New(newLineHandler(io.Discard, discardLevel))
}

// NewAuditLogger opens the audit log at path. maxSize is a human size
// string such as "10MB"; empty or unparseable values disable rotation
// and the file grows without bound. The returned closer releases the
// underlying file.
func NewAuditLogger(path string, level slog.Level, maxSize string, maxBackups int) (*slog.Logger, io.Closer, error) {
	limit := parseSize(maxSize)
	if limit <= 0 {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, err
		}
		return NewLogger(f, level), f, nil
	}

	rf, err := openRotatingFile(path, limit, maxBackups)
	if err != nil {
		return nil, nil, err
	}
	return NewLogger(rf, level), rf, nil
}
