// Package logging builds the zerolog loggers shared by the client components.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options selects level and output format.
type Options struct {
	Level  string // trace|debug|info|warn|error
	Format string // json|console
	Out    io.Writer
}

// New creates a zerolog logger. Unknown levels fall back to info.
func New(opts Options) *zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	var base zerolog.Logger
	if strings.ToLower(opts.Format) == "console" {
		base = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	} else {
		base = zerolog.New(out)
	}
	base = base.Level(level).With().Timestamp().Logger()
	return &base
}

// Component returns a child logger tagged with the component name.
func Component(base *zerolog.Logger, name string) *zerolog.Logger {
	if base == nil {
		nop := zerolog.Nop()
		base = &nop
	}
	l := base.With().Str("component", name).Logger()
	return &l
}

// Redact hides secrets such as bearer tokens; keeps a short preview.
func Redact(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-2:]
}
