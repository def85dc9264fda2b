// Package logging builds the application logger. Stdout belongs to the
// TUI, so log output goes to a file; a second in-memory sink keeps the
// most recent lines available for the TUI log panel.
package logging

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Tail retains the most recent log lines for display.
type Tail struct {
	mu    sync.Mutex
	lines []string
	max   int
}

// NewTail creates a ring of at most max lines.
func NewTail(max int) *Tail {
	if max <= 0 {
		max = 64
	}
	return &Tail{max: max}
}

// Write implements io.Writer for zapcore; each write is one encoded
// log entry.
func (t *Tail) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	if line == "" {
		return len(p), nil
	}
	t.mu.Lock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
	t.mu.Unlock()
	return len(p), nil
}

// Sync implements zapcore.WriteSyncer.
func (t *Tail) Sync() error { return nil }

// Last returns up to n of the most recent lines, oldest first.
func (t *Tail) Last(n int) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n <= 0 || len(t.lines) == 0 {
		return nil
	}
	if n > len(t.lines) {
		n = len(t.lines)
	}
	out := make([]string, n)
	copy(out, t.lines[len(t.lines)-n:])
	return out
}

// New opens the file-backed logger and its in-memory tail. The caller
// owns the returned closer.
func New(path string, debug bool) (*zap.SugaredLogger, *Tail, func(), error) {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	tail := NewTail(128)
	tailEnc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         "level",
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		LineEnding:       zapcore.DefaultLineEnding,
		ConsoleSeparator: " ",
	})
	tailCore := zapcore.NewCore(tailEnc, zapcore.AddSync(tail), level)

	cores := []zapcore.Core{tailCore}
	closer := func() {}
	if path != "" {
		sink, cleanup, err := zap.Open(path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("logging: open %s: %w", path, err)
		}
		closer = cleanup
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, level)
		cores = append(cores, fileCore)
	}

	logger := zap.New(zapcore.NewTee(cores...))
	return logger.Sugar(), tail, closer, nil
}
