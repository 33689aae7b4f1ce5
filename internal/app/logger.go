package app

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger writes one JSON object per line. Safe for concurrent use; the
// sandbox streams lines from its own goroutines.
type Logger struct {
	mu  sync.Mutex
	out io.Writer
}

type logLine struct {
	At      string                 `json:"at"`
	Level   string                 `json:"level"`
	Msg     string                 `json:"msg"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func NewLogger(out io.Writer) *Logger {
	if out == nil {
		out = io.Discard
	}
	return &Logger{out: out}
}

// DefaultLogWriter opens the append-only session log under the user cache
// dir. Falls back to io.Discard so logging can never break the app.
func DefaultLogWriter() io.Writer {
	base, err := os.UserCacheDir()
	if err != nil {
		return io.Discard
	}
	dir := filepath.Join(base, "codepeer")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return io.Discard
	}
	f, err := os.OpenFile(filepath.Join(dir, "codepeer.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return io.Discard
	}
	return f
}

func (l *Logger) Info(msg string, details map[string]interface{}) {
	l.emit("info", msg, details)
}

func (l *Logger) Error(msg string, details map[string]interface{}) {
	l.emit("error", msg, details)
}

func (l *Logger) emit(level, msg string, details map[string]interface{}) {
	line := logLine{
		At:      time.Now().UTC().Format(time.RFC3339Nano),
		Level:   level,
		Msg:     msg,
		Details: details,
	}
	payload, err := json.Marshal(line)
	if err != nil {
		return
	}
	payload = append(payload, '\n')
	l.mu.Lock()
	_, _ = l.out.Write(payload)
	l.mu.Unlock()
}
