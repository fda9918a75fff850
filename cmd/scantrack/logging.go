package main

import (
	"fmt"
	"io"
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/banshee-data/scantrack/internal/monitoring"
)

const (
	logFormatText = "text"
	logFormatJSON = "json"
)

// setupLogging routes the monitoring streams to w. Ops is always on; diag
// and trace follow verbose and traceOn. The returned func flushes any
// buffered output.
func setupLogging(format string, verbose, traceOn bool, w io.Writer) (func(), error) {
	switch format {
	case logFormatText:
		writers := monitoring.LogWriters{Ops: w}
		if verbose {
			writers.Diag = w
		}
		if traceOn {
			writers.Trace = w
		}
		monitoring.SetLogWriters(writers)
		return func() {}, nil

	case logFormatJSON:
		level := zapcore.InfoLevel
		if verbose || traceOn {
			level = zapcore.DebugLevel
		}
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(w),
			level,
		)
		logger := zap.New(core)

		ops, err := zap.NewStdLogAt(logger.Named("ops"), zapcore.InfoLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to bridge ops logger: %w", err)
		}
		loggers := monitoring.Loggers{Ops: ops}
		if verbose {
			if loggers.Diag, err = stdLogAt(logger.Named("diag")); err != nil {
				return nil, err
			}
		}
		if traceOn {
			if loggers.Trace, err = stdLogAt(logger.Named("trace")); err != nil {
				return nil, err
			}
		}
		monitoring.SetLoggers(loggers)
		return func() { _ = logger.Sync() }, nil

	default:
		return nil, fmt.Errorf("unknown log format %q (want %s or %s)", format, logFormatText, logFormatJSON)
	}
}

func stdLogAt(l *zap.Logger) (*log.Logger, error) {
	std, err := zap.NewStdLogAt(l, zapcore.DebugLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to bridge %s logger: %w", l.Name(), err)
	}
	return std, nil
}
