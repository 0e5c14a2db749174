// Package logx holds the zerolog logger shared by mini-kv.
package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Log is the shared logger. It writes to stderr; stdout stays free for output.
var Log = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Configure sets the global log level and output format.
//
// format is "console", "json", or "auto" (console when stderr is a terminal).
// The level string is tolerant of case and common synonyms.
func Configure(level, format string) {
	zerolog.SetGlobalLevel(parseLevel(level))
	Log = New(os.Stderr, format, isTerminal(os.Stderr))
}

// New builds a logger on w. tty decides what "auto" resolves to.
func New(w io.Writer, format string, tty bool) zerolog.Logger {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
	case "console":
		w = zerolog.ConsoleWriter{Out: w}
	default:
		if tty {
			w = zerolog.ConsoleWriter{Out: w}
		}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// parseLevel converts a string to a zerolog level.
// Accepts: all, trace, debug, info, warn, warning, error, fatal, none.
// Unknown values default to info.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "all", "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "none", "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
