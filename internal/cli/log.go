// Package cli implements the lightbox command-line interface.
//
// # Commands
//
// The main commands are:
//   - layout: page through a catalog and write the packed rows as JSON or SVG
//   - view: browse a catalog in the terminal with the gallery viewer
//   - serve: expose gallery sessions over HTTP
//   - import: copy a catalog into MongoDB
//   - cache: inspect and clear the local cache
//
// # Configuration
//
// Settings resolve in order: built-in defaults, the TOML config file,
// LIGHTBOX_* environment variables (a .env file in the working directory is
// loaded first), then command-line flags.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// logs gallery, viewer, cache and HTTP events.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Packed 120 images (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
