package wasm

import "go.uber.org/zap"

// logger defaults to a no-op; embedders install a real one via SetLogger.
var logger = zap.NewNop()

// SetLogger sets the logger used for decode diagnostics such as skipped
// sections. Passing nil restores the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}
