// Package logger builds charmbracelet/log loggers for the CLI and its collaborators.
//
// Everything logs to stderr: stdout carries the candidate report or, in
// server mode, the msgpack stream.
package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

// New creates a logger with prefix that follows the global level.
func New(prefix string) *log.Logger {
	return NewWithConfig(os.Stderr, prefix, log.GetLevel(), log.GetLevel() == log.DebugLevel)
}

// Setup configures the global logger. Debug turns on debug output with
// timestamps; otherwise only warnings and errors are shown.
func Setup(debug bool) {
	log.SetOutput(os.Stderr)
	if debug {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
		return
	}
	log.SetLevel(log.WarnLevel)
	log.SetReportTimestamp(false)
}
