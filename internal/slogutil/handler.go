package slogutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// lineHandler renders records as single lines:
//
//	2026-03-14T09:26:53Z [info] moved file | from=src/a.ts to=src/b.ts
//
// Attributes bound with WithAttrs are formatted once up front and the
// resulting text is reused for every record.
type lineHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	min   slog.Leveler
	bound string // preformatted " key=value" pairs from WithAttrs
	scope string // dotted WithGroup path, prefixed onto later keys
}

func newLineHandler(w io.Writer, level slog.Level) *lineHandler {
	return &lineHandler{
		mu:  &sync.Mutex{},
		w:   w,
		min: level,
	}
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.min.Level()
}

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	line := make([]byte, 0, 128)
	line = r.Time.UTC().AppendFormat(line, time.RFC3339)
	line = append(line, " ["...)
	line = append(line, levelName(r.Level)...)
	line = append(line, "] "...)
	line = append(line, r.Message...)

	sep := " |"
	if h.bound != "" {
		line = append(line, sep...)
		line = append(line, h.bound...)
		sep = ""
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "" {
			return true
		}
		if sep != "" {
			line = append(line, sep...)
			sep = ""
		}
		line = appendAttr(line, h.scope, a)
		return true
	})
	line = append(line, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(line)
	return err
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	buf := []byte(h.bound)
	for _, a := range attrs {
		if a.Key == "" {
			continue
		}
		buf = appendAttr(buf, h.scope, a)
	}
	nh := *h
	nh.bound = string(buf)
	return &nh
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	if h.scope == "" {
		nh.scope = name
	} else {
		nh.scope = h.scope + "." + name
	}
	return &nh
}

// appendAttr writes " key=value", qualifying the key with the group
// scope. Values are resolved so LogValuer attributes log their final
// form.
func appendAttr(line []byte, scope string, a slog.Attr) []byte {
	line = append(line, ' ')
	if scope != "" {
		line = append(line, scope...)
		line = append(line, '.')
	}
	line = append(line, a.Key...)
	line = append(line, '=')

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		line = append(line, v.String()...)
	case slog.KindTime:
		line = v.Time().UTC().AppendFormat(line, time.RFC3339)
	case slog.KindDuration:
		line = append(line, v.Duration().String()...)
	default:
		line = fmt.Append(line, v.Any())
	}
	return line
}

// levelName maps slog levels onto the four names the trail uses.
func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "error"
	case l >= slog.LevelWarn:
		return "warn"
	case l >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
