package slogutil

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// rotatingFile is an io.WriteCloser that starts a fresh file once the
// current one would exceed limit bytes. Older generations are kept as
// path.1 through path.keep, with .1 the most recent.
type rotatingFile struct {
	mu      sync.Mutex
	path    string
	limit   int64
	keep    int
	f       *os.File
	written int64
}

func openRotatingFile(path string, limit int64, keep int) (*rotatingFile, error) {
	r := &rotatingFile{path: path, limit: limit, keep: keep}
	if err := r.reopen(); err != nil {
		return nil, err
	}
	return r, nil
}

// reopen creates or reuses the log file in append mode and records
// its current size.
func (r *rotatingFile) reopen() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	r.f = f
	r.written = st.Size()
	return nil
}

func (r *rotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Never rotate an empty file: an entry larger than the limit goes
	// into the current file rather than producing an empty backup.
	if r.limit > 0 && r.written > 0 && r.written+int64(len(p)) > r.limit {
		// A failed rotation must not drop the entry; keep appending
		// to the oversized file instead.
		_ = r.rotate()
	}

	n, err := r.f.Write(p)
	r.written += int64(n)
	return n, err
}

func (r *rotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}

// rotate shifts path to path.1, path.1 to path.2 and so on, dropping
// the oldest generation, then reopens a fresh file.
func (r *rotatingFile) rotate() error {
	if err := r.f.Close(); err != nil {
		return err
	}

	if r.keep <= 0 {
		_ = os.Remove(r.path)
	} else {
		_ = os.Remove(r.generation(r.keep))
		for i := r.keep - 1; i >= 1; i-- {
			from := r.generation(i)
			if _, err := os.Stat(from); err == nil {
				_ = os.Rename(from, r.generation(i+1))
			}
		}
		_ = os.Rename(r.path, r.generation(1))
	}

	return r.reopen()
}

func (r *rotatingFile) generation(n int) string {
	return r.path + "." + strconv.Itoa(n)
}

// parseSize converts a human size such as "10MB", "1.5gb" or "512"
// into bytes. Empty or malformed strings yield 0, which disables
// rotation.
func parseSize(s string) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0
	}

	unit := int64(1)
	switch {
	case strings.HasSuffix(s, "GB"):
		unit, s = 1<<30, s[:len(s)-2]
	case strings.HasSuffix(s, "MB"):
		unit, s = 1<<20, s[:len(s)-2]
	case strings.HasSuffix(s, "KB"):
		unit, s = 1<<10, s[:len(s)-2]
	case strings.HasSuffix(s, "B"):
		s = s[:len(s)-1]
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return int64(v * float64(unit))
}
