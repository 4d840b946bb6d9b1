package bddgen

import (
	"os"

	"github.com/rs/zerolog"
)

// Config resolves the small set of ambient knobs the CLI exposes (§6,
// SPEC_FULL's ambient configuration stack). There is no other config
// source: no environment variables, no config file, since the tool is a
// one-shot batch transform invoked per run.
type Config struct {
	OutputDir string
	Verbose   bool
}

// Logger returns a zerolog.Logger configured per cfg.Verbose: Debug-level
// per-path tracing when verbose, Info-level run summaries otherwise.
func (cfg Config) Logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
