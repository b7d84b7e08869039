package slogutil

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestHandleLineFormat(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	tests := []struct {
		name  string
		level slog.Level
		msg   string
		attrs []slog.Attr
		want  string
	}{
		{
			name:  "no attrs",
			level: slog.LevelWarn,
			msg:   "plain message",
			want:  "2026-03-14T09:26:53Z [warn] plain message\n",
		},
		{
			name:  "string attrs",
			level: slog.LevelInfo,
			msg:   "moved file",
			attrs: []slog.Attr{slog.String("from", "src/util.ts"), slog.String("to", "src/helpers.ts")},
			want:  "2026-03-14T09:26:53Z [info] moved file | from=src/util.ts to=src/helpers.ts\n",
		},
		{
			name:  "mixed kinds",
			level: slog.LevelDebug,
			msg:   "scan pass",
			attrs: []slog.Attr{
				slog.Int("edits", 3),
				slog.Bool("dryRun", true),
				slog.Duration("took", 1500*time.Millisecond),
				slog.Time("since", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)),
			},
			want: "2026-03-14T09:26:53Z [debug] scan pass | edits=3 dryRun=true took=1.5s since=2026-01-02T03:04:05Z\n",
		},
		{
			name:  "empty keys skipped",
			level: slog.LevelInfo,
			msg:   "partial",
			attrs: []slog.Attr{{}, slog.String("kept", "yes")},
			want:  "2026-03-14T09:26:53Z [info] partial | kept=yes\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := newLineHandler(&buf, slog.LevelDebug)

			r := slog.NewRecord(at, tt.level, tt.msg, 0)
			r.AddAttrs(tt.attrs...)
			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("line = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelDebug)

	scoped := logger.With("plan", "p-42").WithGroup("apply").With("step", 2)
	scoped.Info("wrote file", "path", "src/a.ts")

	_, rest, ok := strings.Cut(buf.String(), " ")
	if !ok {
		t.Fatalf("no timestamp in %q", buf.String())
	}
	want := "[info] wrote file | plan=p-42 apply.step=2 apply.path=src/a.ts\n"
	if rest != want {
		t.Errorf("line = %q, want %q", rest, want)
	}
}

func TestWithNoOpReturnsSameHandler(t *testing.T) {
	h := newLineHandler(io.Discard, slog.LevelInfo)

	if got, ok := h.WithGroup("").(*lineHandler); !ok || got != h {
		t.Error("WithGroup(\"\") should return the receiver")
	}
	if got, ok := h.WithAttrs(nil).(*lineHandler); !ok || got != h {
		t.Error("WithAttrs(nil) should return the receiver")
	}
}

func TestLevelThreshold(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Info("quiet", "k", "v")
	if buf.Len() != 0 {
		t.Fatalf("info should be suppressed at warn, got %q", buf.String())
	}

	logger.Warn("loud")
	if !strings.Contains(buf.String(), "[warn] loud") {
		t.Errorf("warn line missing: %q", buf.String())
	}
}

func TestDiscardLoggerDropsEverything(t *testing.T) {
	h := newLineHandler(io.Discard, discardLevel)
	if h.Enabled(context.Background(), slog.LevelError) {
		t.Error("discard level should disable error records")
	}

	// Must be callable at any level without observable effect.
	NewDiscardLogger().Error("boom", "k", "v")
}

func TestTimestampsNormalizedToUTC(t *testing.T) {
	var buf bytes.Buffer
	h := newLineHandler(&buf, slog.LevelDebug)

	cet := time.FixedZone("CET", 3600)
	r := slog.NewRecord(time.Date(2026, 3, 14, 10, 26, 53, 0, cet), slog.LevelInfo, "tz", 0)
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "2026-03-14T09:26:53Z ") {
		t.Errorf("timestamp not normalized to UTC: %q", buf.String())
	}
}

type deferredValue struct{}

func (deferredValue) LogValue() slog.Value { return slog.StringValue("resolved") }

func TestLogValuerResolved(t *testing.T) {
	var buf bytes.Buffer
	h := newLineHandler(&buf, slog.LevelDebug)

	r := slog.NewRecord(time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC), slog.LevelInfo, "lazy", 0)
	r.AddAttrs(slog.Any("value", deferredValue{}))
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if want := "2026-03-14T09:26:53Z [info] lazy | value=resolved\n"; buf.String() != want {
		t.Errorf("line = %q, want %q", buf.String(), want)
	}
}

func TestLevelName(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "debug"},
		{slog.LevelDebug + 2, "debug"},
		{slog.LevelInfo, "info"},
		{slog.LevelInfo + 1, "info"},
		{slog.LevelWarn, "warn"},
		{slog.LevelError, "error"},
		{slog.LevelError + 4, "error"},
	}

	for _, tt := range tests {
		if got := levelName(tt.level); got != tt.want {
			t.Errorf("levelName(%v) = %q, want %q", tt.level, got, tt.want)
		}
	}
}
