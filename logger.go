package scrollshot

import (
	"log/slog"

	"github.com/gogpu/scrollshot/internal/logging"
)

// SetLogger configures the logger for scrollshot and all its sub-packages.
// By default, scrollshot produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by scrollshot:
//   - [slog.LevelDebug]: per-layer geometry, persistence state transitions
//   - [slog.LevelInfo]: strategy selection, persistence outcome
//   - [slog.LevelWarn]: non-fatal downgrades (dropped segment, trim failure,
//     clipboard registration failure, fallback used)
//
// Example:
//
//	scrollshot.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by scrollshot.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}
