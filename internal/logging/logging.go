// Package logging writes leveled diagnostics to stderr. Stdout is
// reserved for plan and report output, which must stay parseable.
package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"
)

// LogLevel names a message severity.
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// severity orders levels for filtering. Unknown levels rank as info.
func (l LogLevel) severity() int {
	switch l {
	case DebugLevel:
		return 0
	case WarnLevel:
		return 2
	case ErrorLevel:
		return 3
	default:
		return 1
	}
}

// ParseLevel converts a level name to a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch LogLevel(s) {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel:
		return LogLevel(s)
	default:
		return InfoLevel
	}
}

// Format selects the output encoding.
type Format string

const (
	// JSONFormat renders one JSON object per line.
	JSONFormat Format = "json"
	// HumanFormat renders plain "TIMESTAMP [level] message | k=v" lines.
	HumanFormat Format = "human"
)

// Config holds logger configuration.
type Config struct {
	Format Format
	Level  LogLevel
	Output io.Writer // Optional, defaults to stderr
}

// Logger emits structured log lines. Every entry is rendered into a
// buffer and written with a single call under a mutex, so lines from
// concurrent scan workers never interleave.
type Logger struct {
	format Format
	min    int
	mu     sync.Mutex
	out    io.Writer
}

// NewLogger creates a logger from cfg.
func NewLogger(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	return &Logger{
		format: cfg.Format,
		min:    cfg.Level.severity(),
		out:    out,
	}
}

// NewNopLogger returns a logger that discards everything. Used in tests.
func NewNopLogger() *Logger {
	return NewLogger(Config{Level: ErrorLevel, Output: io.Discard})
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields map[string]interface{}) {
	l.emit(DebugLevel, message, fields)
}

// Info logs an informational message.
func (l *Logger) Info(message string, fields map[string]interface{}) {
	l.emit(InfoLevel, message, fields)
}

// Warn logs a warning.
func (l *Logger) Warn(message string, fields map[string]interface{}) {
	l.emit(WarnLevel, message, fields)
}

// Error logs an error.
func (l *Logger) Error(message string, fields map[string]interface{}) {
	l.emit(ErrorLevel, message, fields)
}

func (l *Logger) emit(level LogLevel, message string, fields map[string]interface{}) {
	if level.severity() < l.min {
		return
	}
	stamp := time.Now().UTC().Format(time.RFC3339)

	var buf bytes.Buffer
	if l.format == JSONFormat {
		renderJSON(&buf, stamp, level, message, fields)
	} else {
		renderHuman(&buf, stamp, level, message, fields)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(buf.Bytes())
}

func renderJSON(buf *bytes.Buffer, stamp string, level LogLevel, message string, fields map[string]interface{}) {
	entry := struct {
		Timestamp string                 `json:"timestamp"`
		Level     string                 `json:"level"`
		Message   string                 `json:"message"`
		Fields    map[string]interface{} `json:"fields,omitempty"`
	}{stamp, string(level), message, fields}

	data, err := json.Marshal(entry)
	if err != nil {
		// A field value is not serializable; keep the message and
		// report what was dropped.
		entry.Fields = map[string]interface{}{"marshalError": err.Error()}
		data, _ = json.Marshal(entry)
	}
	buf.Write(data)
	buf.WriteByte('\n')
}

// renderHuman writes fields in sorted key order so repeated runs
// produce identical lines.
func renderHuman(buf *bytes.Buffer, stamp string, level LogLevel, message string, fields map[string]interface{}) {
	buf.WriteString(stamp)
	buf.WriteString(" [")
	buf.WriteString(string(level))
	buf.WriteString("] ")
	buf.WriteString(message)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteString(" |")
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			fmt.Fprintf(buf, " %s=%v", k, fields[k])
		}
	}
	buf.WriteByte('\n')
}
