package service

import (
	"time"

	"github.com/okian/ratings/internal/adapters/repository"
	"github.com/okian/ratings/internal/domain/elo"
	"github.com/okian/ratings/internal/domain/glicko"
	"github.com/okian/ratings/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of rating workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued matches.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many match IDs are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDedupeTTL sets how long a match ID is remembered.
func WithDedupeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.dedupeTTL = ttl
		}
	}
}

// WithShardCount sets the shard count of the default memory store.
func WithShardCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithStore replaces the default memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGlickoConfig sets the Glicko-2 constants.
func WithGlickoConfig(cfg glicko.Config) Option {
	return func(s *Service) {
		s.glickoCfg = cfg
	}
}

// WithTeamMode sets how multi-member teams are rated.
func WithTeamMode(mode glicko.TeamMode) Option {
	return func(s *Service) {
		s.teamMode = mode
	}
}

// WithEloConfig sets the Elo constants.
func WithEloConfig(cfg elo.Config) Option {
	return func(s *Service) {
		s.eloCfg = cfg
	}
}

// WithGrayDeviation sets the deviation used for non-rainbow matches.
func WithGrayDeviation(d float64) Option {
	return func(s *Service) {
		if d > 0 {
			s.grayDeviation = d
		}
	}
}

// WithDecayPeriod sets the length of one idle rating period.
func WithDecayPeriod(p time.Duration) Option {
	return func(s *Service) {
		if p > 0 {
			s.decayPeriod = p
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
