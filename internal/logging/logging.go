// Package logging builds the process logger and the per-run log files.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	FormatText = "text"
	FormatJSON = "json"

	fileSuffix = ".log"
)

// NewProcessLogger returns a text logger when stderr is a terminal and a JSON logger otherwise.
// An explicit format overrides the detection.
func NewProcessLogger(format string) *slog.Logger {
	return slog.New(newHandler(os.Stderr, format, isTerminal(os.Stderr)))
}

func newHandler(w io.Writer, format string, terminal bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if format == FormatJSON || (format == "" && !terminal) {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// RunLog is the log of a single portal run. Close it when the run ends.
type RunLog struct {
	Logger *slog.Logger
	Path   string
	file   *os.File
}

// OpenRunLog creates dir/<portal>_<YYYYMMDD_HHMMSS>.log and returns a logger writing to both
// the file and base.
func OpenRunLog(dir, portal string, base slog.Handler, now time.Time) (*RunLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %q: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s%s", portal, now.Format("20060102_150405"), fileSuffix))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	fileHandler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(slog.NewMultiHandler(fileHandler, base)).With("portal", portal)
	return &RunLog{Logger: logger, Path: path, file: f}, nil
}

func (r *RunLog) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}

// Prune removes *.log files in dir last modified before now minus retention.
// It returns the number of removed files.
func Prune(dir string, retention time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(-retention)
	removed := 0
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
				errs = append(errs, err)
				continue
			}
			removed++
		}
	}
	return removed, errors.Join(errs...)
}
