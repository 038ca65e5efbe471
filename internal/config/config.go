// Package config defines service configuration structures and loading hooks.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/ratings/internal/domain/elo"
	"github.com/okian/ratings/internal/domain/glicko"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory match queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of rating workers.
	WorkerCount int `koanf:"worker_count"`

	DedupeSize int           `koanf:"dedupe_size"`
	DedupeTTL  time.Duration `koanf:"dedupe_ttl"`

	// ShardCount configures the number of shards in the in-memory store.
	ShardCount int `koanf:"shard_count"`

	// DatabaseURL switches storage to PostgreSQL when set.
	DatabaseURL string `koanf:"database_url"`

	Glicko Glicko     `koanf:"glicko"`
	Elo    elo.Config `koanf:"elo"`
}

// Glicko groups the Glicko-2 constants with the rating policy knobs.
type Glicko struct {
	glicko.Config `koanf:",squash"`

	TeamMode      string        `koanf:"team_mode"`
	GrayDeviation float64       `koanf:"gray_deviation"`
	DecayPeriod   time.Duration `koanf:"decay_period"`
}

// New creates a Config with defaults. The context is reserved for loaders
// that need one.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		Addr:        ":9080",
		QueueSize:   10_000,
		WorkerCount: runtime.NumCPU(),
		DedupeSize:  50_000,
		DedupeTTL:   24 * time.Hour,
		ShardCount:  16,
		Glicko: Glicko{
			Config:        glicko.DefaultConfig(),
			TeamMode:      glicko.FanOut.String(),
			GrayDeviation: 35,
			DecayPeriod:   glicko.DefaultDecayPeriod,
		},
		Elo: elo.DefaultConfig(),
	}
}

// Validate checks the values a process cannot start without.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative", ErrInvalidConfig)
	case c.ShardCount <= 0:
		return fmt.Errorf("%w: shard_count must be positive", ErrInvalidConfig)
	case c.Glicko.GrayDeviation <= 0:
		return fmt.Errorf("%w: glicko.gray_deviation must be positive", ErrInvalidConfig)
	case c.Glicko.DecayPeriod <= 0:
		return fmt.Errorf("%w: glicko.decay_period must be positive", ErrInvalidConfig)
	case len(c.Elo.TableAdjust) == 0:
		return fmt.Errorf("%w: elo.table_adjust must not be empty", ErrInvalidConfig)
	}
	if _, err := glicko.ParseTeamMode(c.Glicko.TeamMode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Glicko.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// TeamMode returns the parsed glicko team mode. Call after Validate.
func (c *Config) TeamMode() glicko.TeamMode {
	m, _ := glicko.ParseTeamMode(c.Glicko.TeamMode)
	return m
}
