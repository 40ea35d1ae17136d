// Package cli implements the topocut command-line interface.
//
// Commands cover the full workflow: `build` runs the DEM-to-solid
// pipeline and writes an STL, `roads fetch` downloads road polylines from
// the Overpass API, and `roads dxf` exports roads as a CAD sketch scaled
// to the model footprint.
//
// All commands support --verbose (-v) for debug-level logging. Loggers
// travel through context.Context.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

// ctxKey is the private context key type for the logger.
type ctxKey struct{}

// newLogger creates a logger writing to w at the given level with
// timestamps formatted as "HH:MM:SS.ms".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// withLogger attaches a logger to the context.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// loggerFromContext retrieves the logger, falling back to the package
// default so library callers without a context still get output.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
