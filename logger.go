package camwall

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/camwall/frame"
	"github.com/gogpu/camwall/render"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// Devices of open walls, for logger propagation.
var (
	devicesMu sync.Mutex
	devices   = make(map[loggerSetter]int)
)

// SetLogger configures the logger for camwall and its sub-packages.
// By default camwall produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to disable logging.
//
// Log levels used by camwall:
//   - [slog.LevelDebug]: per-frame diagnostics (copies, resampling)
//   - [slog.LevelInfo]: lifecycle (device opened, wall started, stream ended)
//   - [slog.LevelWarn]: degraded operation (tick failed, source failed,
//     frame rejected)
//
// Example:
//
//	camwall.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	frame.SetLogger(l)
	render.SetLogger(l)

	devicesMu.Lock()
	for ls := range devices {
		ls.SetLogger(l)
	}
	devicesMu.Unlock()
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// trackDevice hands the current logger to dev and keeps it updated until
// untrackDevice is called.
func trackDevice(dev any) {
	ls, ok := dev.(loggerSetter)
	if !ok {
		return
	}
	ls.SetLogger(Logger())
	devicesMu.Lock()
	devices[ls]++
	devicesMu.Unlock()
}

func untrackDevice(dev any) {
	ls, ok := dev.(loggerSetter)
	if !ok {
		return
	}
	devicesMu.Lock()
	if devices[ls]--; devices[ls] <= 0 {
		delete(devices, ls)
	}
	devicesMu.Unlock()
}
