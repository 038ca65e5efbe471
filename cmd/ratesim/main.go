package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/ratings/internal/simulate"
)

// Default configuration constants.
const (
	defaultMatches  = 1000
	defaultPlayers  = 200
	defaultRainbow  = 0.5
	defaultWorkers  = 2 // multiplier for runtime.NumCPU()
	defaultTimeout  = 30 * time.Second
	defaultSettle   = 2 * time.Minute
	defaultTopN     = 10
	overallDeadline = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		matches = flag.Int("matches", defaultMatches, "Number of matches to submit")
		players = flag.Int("players", defaultPlayers, "Size of the player pool")
		rainbow = flag.Float64("rainbow", defaultRainbow, "Share of rainbow games")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent HTTP workers")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle  = flag.Duration("settle", defaultSettle, "Time allowed for the queue to drain")
		topN    = flag.Int("top", defaultTopN, "Accounts to report")
		output  = flag.String("output", "", "Write the generated matches to this JSON file")
		logFile = flag.String("log", "", "Also write logs to this file")
		verbose = flag.Bool("verbose", false, "Enable debug logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	closer, err := simulate.SetupLogging(*logFile, *verbose)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, overallDeadline)
	defer cancel()

	_, err = simulate.Run(ctx, &simulate.Config{
		BaseURL:      *baseURL,
		Matches:      *matches,
		Players:      *players,
		RainbowRatio: *rainbow,
		Workers:      *workers,
		Timeout:      *timeout,
		Settle:       *settle,
		TopN:         *topN,
		OutputFile:   *output,
		Verbose:      *verbose,
	})
	if err != nil {
		_, _ = os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		os.Exit(1) //nolint:gocritic // deferred cleanup is best effort
	}
}
