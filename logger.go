package subdiv

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled returns false so callers skip
// formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

var loggerPtr atomic.Pointer[slog.Logger]

var debugChecks atomic.Bool

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the package logger. By default nothing is logged.
// Pass nil to restore the silent default.
//
// Levels used:
//   - [slog.LevelDebug]: cache builds and resets, eval tree construction
//   - [slog.LevelWarn]: evaluation fallbacks, contract violations, invalid bounds
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current package logger. Safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// SetDebug turns contract violations into panics instead of logged failures.
func SetDebug(on bool) {
	debugChecks.Store(on)
}

func Debug() bool {
	return debugChecks.Load()
}

// contractViolation reports a broken evaluator precondition. It always
// returns false so call sites can fail-return.
func contractViolation(msg string, args ...any) bool {
	if Debug() {
		panic(fmt.Sprintf("subdiv: %s %v", msg, args))
	}
	Logger().Warn(msg, args...)
	return false
}
