// Package logging wires a github.com/rs/zerolog.Logger to satisfy
// switchcontroller.Logger directly, rather than through the teacher
// pack's generic logiface.Logger[Event] facade (see logiface-zerolog).
// That facade buys format-agnostic event building across multiple
// backends; this daemon only ever has one backend, so the extra
// interface layer would be unexercised abstraction. See DESIGN.md.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger adapts zerolog.Logger to switchcontroller.Logger's Debugf/
// Infof/Warnf surface.
type Logger struct {
	z zerolog.Logger
}

// New builds a Logger writing level-colored, human-readable output to w
// at the given level ("debug", "info", "warn", "error"; unrecognized
// values fall back to info).
func New(w io.Writer, level string) Logger {
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	z := zerolog.New(console).With().Timestamp().Logger().Level(parseLevel(level))
	return Logger{z: z}
}

// NewJSON builds a Logger writing structured JSON lines to w, for
// production deployments where logs are shipped to an aggregator.
func NewJSON(w io.Writer, level string) Logger {
	z := zerolog.New(w).With().Timestamp().Logger().Level(parseLevel(level))
	return Logger{z: z}
}

// Default returns a human-readable Logger writing to stderr at info
// level.
func Default() Logger {
	return New(os.Stderr, "info")
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l Logger) Debugf(format string, args ...any) { l.z.Debug().Msgf(format, args...) }
func (l Logger) Infof(format string, args ...any)  { l.z.Info().Msgf(format, args...) }
func (l Logger) Warnf(format string, args ...any)  { l.z.Warn().Msgf(format, args...) }
