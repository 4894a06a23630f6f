// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// Output formats.
const (
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

// New returns a logger writing to w. The level is read from level on every
// record, so changing it affects the logger immediately. Any format other
// than "pretty" produces JSON.
func New(w io.Writer, level *slog.LevelVar, format string) *slog.Logger {
	var handler slog.Handler
	if format == FormatPretty {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(handler)
}
