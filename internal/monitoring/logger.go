// Package monitoring holds the process-wide diagnostic loggers.
//
// Three streams are kept apart so the run loop can mute the chatty ones:
// ops (actionable warnings, dropped detections, lifecycle events), diag
// (per-batch summaries) and trace (per-pair association telemetry).
package monitoring

import (
	"io"
	"log"
	"os"
	"sync"
)

// Loggers bundles one *log.Logger per stream. A nil logger mutes that stream.
type Loggers struct {
	Ops   *log.Logger
	Diag  *log.Logger
	Trace *log.Logger
}

// LogWriters holds the io.Writers for each logging stream.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

var (
	mu          sync.RWMutex
	opsLogger   = log.New(os.Stderr, "[scantrack] ", log.LstdFlags|log.Lmicroseconds)
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetLoggers installs prebuilt loggers, e.g. ones bridged from zap.
func SetLoggers(l Loggers) {
	mu.Lock()
	defer mu.Unlock()
	opsLogger = l.Ops
	diagLogger = l.Diag
	traceLogger = l.Trace
}

// SetLogWriters configures all three streams at once.
// Pass nil for any writer to disable that stream.
func SetLogWriters(w LogWriters) {
	SetLoggers(Loggers{
		Ops:   newLogger(w.Ops),
		Diag:  newLogger(w.Diag),
		Trace: newLogger(w.Trace),
	})
}

func newLogger(w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, "[scantrack] ", log.LstdFlags|log.Lmicroseconds)
}

// Opsf logs to the ops stream.
func Opsf(format string, args ...interface{}) {
	mu.RLock()
	l := opsLogger
	mu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}

// Diagf logs to the diag stream.
func Diagf(format string, args ...interface{}) {
	mu.RLock()
	l := diagLogger
	mu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}

// Tracef logs to the trace stream.
func Tracef(format string, args ...interface{}) {
	mu.RLock()
	l := traceLogger
	mu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}

// TraceEnabled reports whether the trace stream has a destination, so hot
// loops can skip building arguments.
func TraceEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return traceLogger != nil
}
