// Package logging provides the process-wide log sink. Before the TUI attaches
// the terminal the only sink is stderr; once the TUI starts, stderr is
// removed and replaced by a bounded in-memory queue (see Queue) so that log
// output never corrupts the screen (spec.md §4.8, §9).
package logging

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Level is a log severity, matching the original's
// "%(asctime)s - %(levelname)s - %(message)s" convention.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger formats records and fans them out to every installed sink. It owns
// no goroutines; writes happen synchronously on the caller's goroutine, the
// same way the teacher's actisense.Config.LogFunc callback is invoked inline.
type Logger struct {
	mu    sync.Mutex
	sinks []io.Writer
	now   func() time.Time
}

// NewLogger creates a Logger with initialSink as its only sink.
func NewLogger(initialSink io.Writer) *Logger {
	return &Logger{
		sinks: []io.Writer{initialSink},
		now:   time.Now,
	}
}

// SetSinks atomically replaces the logger's sink list. cmd/rvcmon calls this
// before starting the TUI to swap stderr for the bounded queue, and again to
// restore stderr only if the TUI exits with an error.
func (l *Logger) SetSinks(sinks ...io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append([]io.Writer(nil), sinks...)
}

func (l *Logger) log(level Level, format string, args ...any) {
	line := fmt.Sprintf("%s - %s - %s\n", l.now().Format("15:04:05"), level, fmt.Sprintf(format, args...))

	l.mu.Lock()
	sinks := l.sinks
	l.mu.Unlock()

	for _, s := range sinks {
		_, _ = io.WriteString(s, line)
	}
}

func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, format, args...) }
