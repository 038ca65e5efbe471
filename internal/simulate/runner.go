package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/ratings/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
	pollInterval        = 100 * time.Millisecond
)

// Run generates matches, submits them, waits for the service to rate them
// and verifies the resulting accounts.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := logger.Named("simulate")
	stats := &Stats{StartTime: time.Now()}
	c := newClient(cfg)

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("matches", cfg.Matches),
		logger.Int("players", cfg.Players),
		logger.Int("workers", cfg.Workers),
		logger.Float64("rainbowRatio", cfg.RainbowRatio))

	before, err := c.stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}

	players, matches := generateMatches(cfg)
	stats.MatchesGenerated = len(matches)

	acceptedMatches, err := submitMatches(ctx, cfg, c, matches, stats)
	if err != nil {
		return nil, fmt.Errorf("match submission failed: %w", err)
	}

	if err := waitProcessed(ctx, c, before, int64(len(acceptedMatches)), cfg.Settle); err != nil {
		return nil, err
	}

	accounts, err := fetchAccounts(ctx, cfg, c, participants(acceptedMatches))
	if err != nil {
		return nil, fmt.Errorf("account retrieval failed: %w", err)
	}
	stats.AccountsRetrieved = len(accounts)

	if err := verifyAccounts(acceptedMatches, accounts); err != nil {
		return nil, err
	}
	reportTop(ctx, accounts, cfg.TopN)
	stats.SkillCorrelation = skillCorrelation(players, accounts)

	if cfg.OutputFile != "" {
		if err := saveMatches(cfg.OutputFile, matches); err != nil {
			log.Warn(ctx, "failed to save matches to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

// waitProcessed polls /stats until n more matches have been processed or
// failed than in before.
func waitProcessed(ctx context.Context, c *client, before serviceStats, n int64, settle time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, settle)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		s, err := c.stats(ctx)
		if err == nil {
			done := (s.MatchesProcessed - before.MatchesProcessed) + (s.MatchesFailed - before.MatchesFailed)
			if done >= n {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrNotProcessed, ctx.Err())
		case <-ticker.C:
		}
	}
}

func saveMatches(filename string, matches []Match) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal matches: %w", err)
	}
	return os.WriteFile(filename, data, filePermission)
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.MatchesSubmitted) / stats.Duration.Seconds()
	}
	logger.Named("simulate").Info(ctx, "final statistics",
		logger.Int("matchesGenerated", stats.MatchesGenerated),
		logger.Int("matchesSubmitted", stats.MatchesSubmitted),
		logger.Int("matchesAccepted", stats.MatchesAccepted),
		logger.Int("matchesDuplicate", stats.MatchesDuplicate),
		logger.Int("matchesFailed", stats.MatchesFailed),
		logger.Int("accountsRetrieved", stats.AccountsRetrieved),
		logger.Float64("skillCorrelation", stats.SkillCorrelation),
		logger.Duration("duration", stats.Duration),
		logger.Float64("matchesPerSecond", perSecond))
}
