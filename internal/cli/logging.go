package cli

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/charmbracelet/log"
)

// logLevel resolves the configured level name against the -v and -q flags.
func logLevel(name string, verbose, quiet bool) (log.Level, error) {
	if quiet {
		return log.Level(math.MaxInt32), nil
	}
	if verbose {
		return log.DebugLevel, nil
	}
	level, err := log.ParseLevel(name)
	if err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// newLogger builds the process logger writing to w.
func newLogger(w io.Writer, level log.Level) *slog.Logger {
	handler := log.NewWithOptions(w, log.Options{
		TimeFormat:      time.RFC822,
		Level:           level,
		ReportTimestamp: true,
	})
	return slog.New(handler)
}
