package logger

import (
	"io"

	"github.com/charmbracelet/log"
)

// NewWithConfig creates a text logger writing to w.
func NewWithConfig(w io.Writer, prefix string, level log.Level, showTimestamp bool) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportCaller:    false,
		ReportTimestamp: showTimestamp,
		Formatter:       log.TextFormatter,
	})
}
