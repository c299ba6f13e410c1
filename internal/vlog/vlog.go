// Package vlog provides the package-level debug logger shared by the editor
// core: a single logger, silent by default, switched on for diagnostics.
package vlog

import (
	"io"
	"log"
	"os"
)

var logger = log.New(io.Discard, "vis: ", 0)

// SetDebugMode enables or disables verbose logging across the editor core.
func SetDebugMode(enable bool) {
	if enable {
		logger.SetOutput(os.Stderr)
	} else {
		logger.SetOutput(io.Discard)
	}
}

// Printf logs a formatted debug message.
func Printf(format string, args ...interface{}) {
	logger.Printf(format, args...)
}

// Logger returns the shared logger for packages that need to pass it along.
func Logger() *log.Logger {
	return logger
}
