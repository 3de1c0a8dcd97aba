// Package log holds the process-wide logger. Components receive it via
// their constructors; the global exists for code that runs before the
// component graph is built.
package log

import (
	"os"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	dslog "github.com/grafana/dskit/log"
)

// Logger is the shared go-kit logger. It is a nop until InitLogger
// runs.
var Logger = kitlog.NewNopLogger()

// InitLogger initialises the global logger with the configured format
// and level and returns it.
func InitLogger(logFormat string, logLevel dslog.Level) kitlog.Logger {
	writer := kitlog.NewSyncWriter(os.Stderr)
	logger := dslog.NewGoKitWithWriter(logFormat, writer)

	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC, "caller", kitlog.Caller(5))

	// The level filter goes last so filtered lines skip the decorators.
	logger = level.NewFilter(logger, logLevel.Option)

	Logger = logger
	return logger
}
