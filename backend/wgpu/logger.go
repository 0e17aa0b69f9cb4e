package wgpu

import (
	"log/slog"
	"sync/atomic"
)

// discard is the logger in effect until a device receives SetLogger.
var discard = slog.New(slog.DiscardHandler)

// logger is shared by every device in the package: device open and close,
// host device sharing and pipeline creation are logged through it.
var logger atomic.Pointer[slog.Logger]

func init() { logger.Store(discard) }

func slogger() *slog.Logger { return logger.Load() }

// setLogger installs l, or discard when l is nil.
func setLogger(l *slog.Logger) {
	if l == nil {
		l = discard
	}
	logger.Store(l)
}
