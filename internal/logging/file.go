package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/lmittmann/tint"
)

// FileConfig mirrors the teacher's FileLoggerConfig: a JSON log file with
// optional size-based rotation.
type FileConfig struct {
	Path       string
	Level      Level
	MaxSize    int64 // 0 disables rotation
	MaxBackups int
}

// NewConsole returns a Logger backed by a tint-colored slog handler
// writing to stderr, for interactive CLI use.
func NewConsole(level Level) Logger {
	h := tint.NewHandler(os.Stderr, &tint.Options{Level: level.slogLevel()})
	return &slogLogger{logger: slog.New(h)}
}

// NewFile returns a Logger backed by a rotating JSON file, grounded on
// the teacher's FileLogger rotation behavior.
func NewFile(cfg FileConfig) (Logger, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("logging: create log dir: %w", err)
	}

	rw, err := newRotatingWriter(cfg.Path, cfg.MaxSize, cfg.MaxBackups)
	if err != nil {
		return nil, err
	}

	h := slog.NewJSONHandler(rw, &slog.HandlerOptions{Level: cfg.Level.slogLevel()})
	return &slogLogger{logger: slog.New(h), closer: rw.Close}, nil
}

// Null returns a Logger that discards everything, for tests and
// non-verbose command invocations.
func Null() Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return &slogLogger{logger: slog.New(h)}
}

// rotatingWriter appends to a file, renaming it aside once it crosses
// MaxSize and keeping at most MaxBackups old copies (path.1 .. path.N),
// the same scheme the teacher's FileLogger uses.
type rotatingWriter struct {
	mu         sync.Mutex
	path       string
	maxSize    int64
	maxBackups int
	file       *os.File
	size       int64
}

func newRotatingWriter(path string, maxSize int64, maxBackups int) (*rotatingWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("logging: stat log file: %w", err)
	}
	return &rotatingWriter{path: path, maxSize: maxSize, maxBackups: maxBackups, file: f, size: info.Size()}, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.maxSize > 0 && w.size+int64(len(p)) > w.maxSize {
		if err := w.rotateLocked(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *rotatingWriter) rotateLocked() error {
	if err := w.file.Close(); err != nil {
		return err
	}

	for i := w.maxBackups; i >= 1; i-- {
		src := backupPath(w.path, i)
		dst := backupPath(w.path, i+1)
		if i == w.maxBackups {
			os.Remove(src)
			continue
		}
		os.Rename(src, dst)
	}
	if w.maxBackups > 0 {
		os.Rename(w.path, backupPath(w.path, 1))
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("logging: reopen log file after rotation: %w", err)
	}
	w.file = f
	w.size = 0
	return nil
}

func backupPath(path string, n int) string {
	return fmt.Sprintf("%s.%d", path, n)
}

func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
