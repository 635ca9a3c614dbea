package shared

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultLogFile receives the logs of the terminal game, which owns the
// screen.
const DefaultLogFile = "twentyfour.log"

// SetupLogger returns a logger writing to w at info level, or debug level
// when debug is set.
func SetupLogger(debug bool, w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// ApplyLevel sets a configured level name such as "warn". Debug mode wins
// over the configuration.
func ApplyLevel(logger *log.Logger, level string, debug bool) error {
	if debug {
		return nil
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(lvl)
	return nil
}

// OpenLogFile truncates and opens path for logging.
func OpenLogFile(path string) (*os.File, error) {
	if path == "" {
		path = DefaultLogFile
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
