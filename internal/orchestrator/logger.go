package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DebugLogger appends timestamped lines to a debug log file. Loggers derived
// with With share the file and its lock. A nil logger, or one without a
// file, discards everything.
type DebugLogger struct {
	sink   *logSink
	prefix string
}

type logSink struct {
	mu   sync.Mutex
	file *os.File
}

// NewDebugLogger creates a logger writing to the specified path, creating
// parent directories as needed. An empty path yields a no-op logger.
func NewDebugLogger(logPath string) (*DebugLogger, error) {
	if logPath == "" {
		return NopLogger(), nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logger := &DebugLogger{sink: &logSink{file: f}}
	logger.Log("=== jobhunt debug log started at %s (pid %d) ===", time.Now().Format(time.RFC3339), os.Getpid())
	return logger, nil
}

// NopLogger returns a logger that discards everything.
func NopLogger() *DebugLogger {
	return &DebugLogger{}
}

// With returns a logger that tags every line with scope.
func (l *DebugLogger) With(scope string) *DebugLogger {
	if l == nil {
		return NopLogger()
	}
	prefix := "[" + scope + "] "
	return &DebugLogger{sink: l.sink, prefix: l.prefix + prefix}
}

// Log writes a timestamped message.
func (l *DebugLogger) Log(format string, args ...interface{}) {
	if l == nil || l.sink == nil {
		return
	}

	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("15:04:05.000")

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if l.sink.file == nil {
		return
	}
	fmt.Fprintf(l.sink.file, "[%s] %s%s\n", timestamp, l.prefix, msg)
	_ = l.sink.file.Sync()
}

// Close closes the log file. Derived loggers stop writing too.
func (l *DebugLogger) Close() error {
	if l == nil || l.sink == nil {
		return nil
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if l.sink.file == nil {
		return nil
	}
	err := l.sink.file.Close()
	l.sink.file = nil
	return err
}
