package interp

import "go.uber.org/zap"

// logger defaults to a no-op; embedders install a real one via SetLogger.
var logger = zap.NewNop()

// Logger returns the interpreter's logger instance.
func Logger() *zap.Logger {
	return logger
}

// SetLogger installs a logger for execution diagnostics. Passing nil
// restores the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

func debugf(format string, args ...any) {
	logger.Sugar().Debugf(format, args...)
}
