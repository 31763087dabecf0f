// Package workerutil wires process-wide logging and panic reporting for
// programs embedding the webhook client, in particular Cloudflare Worker
// entry points where an unreported panic kills the invocation silently.
package workerutil

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"sync"
)

var setupOnce sync.Once

// SetupLogging installs a JSON slog handler as the process-wide default.
// It is idempotent; only the first call takes effect.
func SetupLogging(level slog.Level) {
	setupOnce.Do(func() {
		h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		slog.SetDefault(slog.New(h))
	})
}

// LevelFromString maps a config string to a log level, defaulting to info.
func LevelFromString(s string) slog.Level {
	m := map[string]slog.Level{
		"DEBUG": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"ERROR": slog.LevelError,
	}
	v, ok := m[strings.ToUpper(s)]
	if !ok {
		return slog.LevelInfo
	}
	return v
}

// Protect runs an entry point and converts a panic into a logged error,
// so the hosting runtime sees a failed invocation instead of a crash.
func Protect(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered", "entrypoint", name, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic in %s: %v", name, r)
		}
	}()
	return fn()
}
