package lane

import (
	"io"
	"log"
	"sync/atomic"
)

// LogWriters holds the io.Writers for each logging stream.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

// Logger writes the ops, diag and trace streams of one camera stream. Every
// line carries the "[lane] " prefix, or "[lane <name>] " for a named Logger,
// so several Detectors can share a writer and still be told apart. A nil
// *Logger discards everything.
type Logger struct {
	ops   *log.Logger
	diag  *log.Logger
	trace *log.Logger
}

// NewLogger creates a Logger for the named stream. Pass nil for any writer
// to disable that stream.
func NewLogger(name string, w LogWriters) *Logger {
	prefix := "[lane] "
	if name != "" {
		prefix = "[lane " + name + "] "
	}
	return &Logger{
		ops:   newLogger(prefix, w.Ops),
		diag:  newLogger(prefix, w.Diag),
		trace: newLogger(prefix, w.Trace),
	}
}

func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

// Opsf logs lifecycle events and configuration errors.
func (l *Logger) Opsf(format string, args ...interface{}) {
	if l != nil && l.ops != nil {
		l.ops.Printf(format, args...)
	}
}

// Diagf logs per-frame decisions worth a second look: degenerate geometry,
// ambiguous cluster pairs, hysteresis damping.
func (l *Logger) Diagf(format string, args ...interface{}) {
	if l != nil && l.diag != nil {
		l.diag.Printf(format, args...)
	}
}

// Tracef logs per-frame segment and cluster counts.
func (l *Logger) Tracef(format string, args ...interface{}) {
	if l != nil && l.trace != nil {
		l.trace.Printf(format, args...)
	}
}

// std backs the package-level functions and any Detector built without
// WithLogger.
var std atomic.Pointer[Logger]

// SetLogWriters configures the package default streams.
func SetLogWriters(w LogWriters) {
	std.Store(NewLogger("", w))
}

func defaultLogger() *Logger { return std.Load() }

// Opsf logs to the default ops stream.
func Opsf(format string, args ...interface{}) { defaultLogger().Opsf(format, args...) }

// Diagf logs to the default diag stream.
func Diagf(format string, args ...interface{}) { defaultLogger().Diagf(format, args...) }

// Tracef logs to the default trace stream.
func Tracef(format string, args ...interface{}) { defaultLogger().Tracef(format, args...) }
