package log

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	writers []*bufio.Writer
	files   []*os.File
)

// NewLogger builds a slog logger that writes to the console and to a
// timestamped file under dir. botName scopes per-session log files; leave it
// empty for the process-wide logger. Buffers are flushed by FlushLog and
// FlushAndClose.
func NewLogger(debug bool, dir string, botName string) (*slog.Logger, error) {
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating log directory: %w", err)
	}

	prefix := "hive"
	if botName != "" {
		prefix = botName
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.log", prefix, time.Now().Format("2006-01-02-15_04_05")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error creating log file: %w", err)
	}

	w := bufio.NewWriterSize(f, 32*1024)
	mu.Lock()
	writers = append(writers, w)
	files = append(files, f)
	mu.Unlock()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, w), &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(handler), nil
}

// FlushLog flushes every buffered log writer. Safe to call at any time, used
// after panic recovery.
func FlushLog() {
	mu.Lock()
	defer mu.Unlock()
	for _, w := range writers {
		_ = w.Flush()
	}
}

// FlushAndClose flushes and closes every log file. Call once on shutdown.
func FlushAndClose() {
	mu.Lock()
	defer mu.Unlock()
	for _, w := range writers {
		_ = w.Flush()
	}
	for _, f := range files {
		_ = f.Close()
	}
	writers = nil
	files = nil
}
