// Package logging configures the process-wide zerolog setup.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds a logger at the given level. Console output is human-readable;
// jsonFormat switches to structured JSON for log shipping.
func New(level string, jsonFormat bool) zerolog.Logger {
	var out io.Writer = os.Stderr
	if !jsonFormat {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// Nop returns a disabled logger, for tests and library callers that do not
// want output.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// ParseLevel converts a level string to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "FATAL":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
