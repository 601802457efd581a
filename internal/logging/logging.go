package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a zerolog logger writing to stderr so that check output
// on stdout stays parseable by NRPE.
func New(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// LevelFor maps the --verbose and --debug flags to a zerolog level.
func LevelFor(verbose, debug bool) zerolog.Level {
	switch {
	case debug:
		return zerolog.DebugLevel
	case verbose:
		return zerolog.InfoLevel
	default:
		return zerolog.WarnLevel
	}
}
