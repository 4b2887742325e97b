package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"

	charmlog "charm.land/log/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	initOnce    sync.Once
	initialized atomic.Bool
)

// Setup installs the default slog logger. With an empty logFile, records are
// written to stderr; stdout is reserved for the stdio MCP transport.
func Setup(logFile string, debug bool) {
	initOnce.Do(func() {
		slog.SetDefault(slog.New(NewHandler(logFile, debug)))
		initialized.Store(true)
	})
}

// NewHandler returns the handler used by [Setup].
func NewHandler(logFile string, debug bool) slog.Handler {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	if logFile != "" {
		logRotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10,    // Max size in MB
			MaxBackups: 0,     // Number of backups
			MaxAge:     30,    // Days
			Compress:   false, // Enable compression
		}
		return slog.NewJSONHandler(logRotator, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		})
	}

	return newConsoleHandler(os.Stderr, debug)
}

func newConsoleHandler(w io.Writer, debug bool) *charmlog.Logger {
	logger := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
	})
	if debug {
		logger.SetLevel(charmlog.DebugLevel)
	}
	return logger
}

// Initialized reports whether [Setup] has run.
func Initialized() bool {
	return initialized.Load()
}

// RecoverPanic recovers from a panic in the calling goroutine, logs it with
// its stack and hands the panic, as an error, to cleanup. It must be called
// directly by a deferred statement.
func RecoverPanic(name string, cleanup func(error)) {
	r := recover()
	if r == nil {
		return
	}

	var err error
	switch v := r.(type) {
	case error:
		err = fmt.Errorf("panic: %w", v)
	case string:
		err = fmt.Errorf("panic: %s", v)
	default:
		err = fmt.Errorf("panic: %v", v)
	}

	slog.Error("Recovered from panic", "name", name, "error", err, "stack", string(debug.Stack()))
	if cleanup != nil {
		cleanup(err)
	}
}
