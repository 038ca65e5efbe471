package simulate

import (
	"io"
	"os"

	"github.com/okian/ratings/pkg/logger"
)

// SetupLogging sends log output to stdout and, when logFile is set, to that
// file as well.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	level := "info"
	if verbose {
		level = "debug"
	}
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = io.NopCloser(nil)
	)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
		if err != nil {
			return nil, err
		}
		out, closer = io.MultiWriter(os.Stdout, f), f
	}
	if err := logger.Init(logger.WithLevel(level), logger.WithOutput(out)); err != nil {
		_ = closer.Close()
		return nil, err
	}
	return closer, nil
}

// ShowHelp prints usage information.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Ratings match simulator
=======================

Generates random finished games, submits them to a running ratings service
and checks that every account ends up with the games it played.

Usage:
  go run ./cmd/ratesim [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -matches int       Number of matches to submit (default 1000)
  -players int       Size of the player pool (default 200)
  -rainbow float     Share of rainbow games (default 0.5)
  -workers int       Concurrent HTTP workers (default CPU cores * 2)
  -timeout duration  HTTP request timeout (default 30s)
  -settle duration   Time allowed for the queue to drain (default 2m)
  -top int           Accounts to report (default 10)
  -output string     Write the generated matches to this JSON file
  -log string        Also write logs to this file
  -verbose           Enable debug logging
  -help              Show this help message
`)
}
