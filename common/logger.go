package common

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Logger is the small logging facade every component logs through, shaped
// like azcopy's common.ILogger but backed by zerolog rather than a
// hand-rolled rotating writer (common/logger.go in the teacher).
type Logger interface {
	ShouldLog(level LogLevel) bool
	Log(level LogLevel, component string, msg string, fields map[string]interface{})
}

type zerologLogger struct {
	mu     sync.Mutex
	zl     zerolog.Logger
	min    LogLevel
}

// NewLogger builds a Logger writing to w at or above min, tagged with
// jobID for every record it emits.
func NewLogger(w io.Writer, min LogLevel, jobID string) Logger {
	if w == nil {
		w = os.Stderr
	}
	zl := zerolog.New(w).With().Timestamp().Str("job_id", jobID).Logger()
	return &zerologLogger{zl: zl, min: min}
}

func (l *zerologLogger) ShouldLog(level LogLevel) bool {
	return level != ELogLevel.None() && level <= l.min
}

func (l *zerologLogger) Log(level LogLevel, component string, msg string, fields map[string]interface{}) {
	if !l.ShouldLog(level) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	var ev *zerolog.Event
	switch level {
	case ELogLevel.Error():
		ev = l.zl.Error()
	case ELogLevel.Warn():
		ev = l.zl.Warn()
	case ELogLevel.Debug():
		ev = l.zl.Debug()
	default:
		ev = l.zl.Info()
	}
	ev = ev.Str("component", component)
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

// NopLogger discards everything; useful as a zero-value default and in
// tests that don't care about log output.
func NopLogger() Logger { return &zerologLogger{zl: zerolog.New(io.Discard), min: ELogLevel.None()} }
