// Package service wires the rating engines, queue, workers and store into
// the operations exposed over HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	matchqueue "github.com/okian/ratings/internal/adapters/mq/queue"
	workerpool "github.com/okian/ratings/internal/adapters/mq/worker"
	"github.com/okian/ratings/internal/adapters/repository"
	"github.com/okian/ratings/internal/domain/dedupe"
	"github.com/okian/ratings/internal/domain/elo"
	"github.com/okian/ratings/internal/domain/glicko"
	"github.com/okian/ratings/internal/domain/model"
	"github.com/okian/ratings/internal/domain/rater"
	"github.com/okian/ratings/pkg/logger"
	"github.com/okian/ratings/pkg/metrics"
)

const (
	systemMetricsInterval = 10 * time.Second
	stopTimeout           = 30 * time.Second
)

// Service implements the API dependencies of the rating system.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	deduper dedupe.Deduper
	queue   *matchqueue.InMemoryQueue
	pool    *workerpool.Pool
	glicko  *glicko.Engine
	elo     *elo.Engine
	rater   *rater.Rater

	workerCount   int
	queueSize     int
	dedupeSize    int
	dedupeTTL     time.Duration
	shardCount    int
	glickoCfg     glicko.Config
	teamMode      glicko.TeamMode
	eloCfg        elo.Config
	grayDeviation float64
	decayPeriod   time.Duration
	now           func() time.Time

	started   bool
	startedAt time.Time
	memStore  *repository.MemoryStore // set when the service built its own store
	stopCh    chan struct{}

	logger logger.Logger
}

// New constructs a Service. Components are created by Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		queueSize:     10000,
		dedupeSize:    dedupe.DefaultMaxSize,
		dedupeTTL:     dedupe.DefaultTTL,
		shardCount:    repository.DefaultShardCount,
		glickoCfg:     glicko.DefaultConfig(),
		teamMode:      glicko.FanOut,
		eloCfg:        elo.DefaultConfig(),
		grayDeviation: rater.DefaultGrayDeviation,
		decayPeriod:   glicko.DefaultDecayPeriod,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the engines and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	g, err := glicko.NewEngine(
		glicko.WithConfig(s.glickoCfg),
		glicko.WithTeamMode(s.teamMode),
		glicko.WithSolverObserver(metrics.RecordSolverIterations),
	)
	if err != nil {
		return fmt.Errorf("glicko engine: %w", err)
	}
	s.glicko = g
	s.elo = elo.NewEngine(elo.WithConfig(s.eloCfg))
	s.rater = rater.New(s.glicko, s.elo, rater.WithGrayDeviation(s.grayDeviation), rater.WithDecayPeriod(s.decayPeriod))

	switch {
	case s.store == nil:
		s.memStore = repository.NewMemoryStore(ctx, repository.WithShardCount(s.shardCount))
		s.store = s.memStore
		s.logger.Info(ctx, "using memory store", logger.Int("shards", s.shardCount))
	case s.memStore != nil:
		s.memStore.Resume(ctx)
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize), dedupe.WithTTL(s.dedupeTTL))
	}
	s.queue = matchqueue.NewInMemoryQueue(matchqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.rater, s.store,
		workerpool.WithClock(s.now),
		workerpool.WithLogger(s.logger.Named("worker")),
	)
	s.pool.Start(ctx)

	s.stopCh = make(chan struct{})
	go s.systemMetrics(s.stopCh)

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "rating service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.String("team_mode", s.teamMode.String()),
	)
	return nil
}

// Stop drains the queue and stops the workers. A store passed with WithStore
// is left open for its owner. Accounts, results and seen match IDs survive a
// later Start.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping rating service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	if s.memStore != nil {
		_ = s.memStore.Close()
	}
	close(s.stopCh)
	s.started = false
	s.logger.Info(ctx, "rating service stopped")
}

// SubmitMatch validates m and queues it for rating. A missing match ID is
// generated. duplicate is true when the ID was already accepted.
func (s *Service) SubmitMatch(ctx context.Context, m model.Match) (id string, duplicate bool, err error) { //nolint:gocritic // matches travel by value
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return "", false, ErrNotStarted
	}

	m, err = s.normalize(m)
	if err != nil {
		metrics.RecordMatchRejected("invalid")
		return "", false, err
	}
	if s.deduper.SeenAndRecord(ctx, m.MatchID) {
		metrics.RecordMatchDuplicate()
		return m.MatchID, true, nil
	}
	if err := s.queue.Enqueue(ctx, m); err != nil {
		s.deduper.Unrecord(ctx, m.MatchID)
		if errors.Is(err, matchqueue.ErrFull) {
			metrics.RecordMatchRejected("backpressure")
			return m.MatchID, false, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		metrics.RecordMatchRejected("enqueue")
		return m.MatchID, false, err
	}
	s.logger.Debug(ctx, "match queued", logger.String("match_id", m.MatchID), logger.Int("players", m.TableSize()))
	return m.MatchID, false, nil
}

func (s *Service) normalize(m model.Match) (model.Match, error) { //nolint:gocritic // matches travel by value
	trim := func(names []string) []string {
		return lo.Map(names, func(n string, _ int) string { return strings.TrimSpace(n) })
	}
	m.Winners = trim(m.Winners)
	m.Losers = trim(m.Losers)
	m.MatchID = strings.TrimSpace(m.MatchID)

	switch {
	case len(m.Winners) == 0:
		return m, fmt.Errorf("%w: no winners", ErrInvalidMatch)
	case len(m.Losers) == 0:
		return m, fmt.Errorf("%w: no losers", ErrInvalidMatch)
	case lo.Contains(m.Players(), ""):
		return m, fmt.Errorf("%w: blank username", ErrInvalidMatch)
	}
	if dup := lo.FindDuplicates(m.Players()); len(dup) > 0 {
		return m, fmt.Errorf("%w: %s listed twice", ErrInvalidMatch, dup[0])
	}
	if _, ok := s.eloCfg.TableAdjust[m.TableSize()]; !ok {
		return m, fmt.Errorf("%w: unsupported table size %d", ErrInvalidMatch, m.TableSize())
	}
	if m.MatchID == "" {
		m.MatchID = uuid.NewString()
	}
	if m.CompletedAt.IsZero() {
		m.CompletedAt = s.now()
	}
	return m, nil
}

// Result returns the stored result of a rated match.
func (s *Service) Result(ctx context.Context, matchID string) (model.Result, error) {
	store, err := s.storeOrErr()
	if err != nil {
		return model.Result{}, err
	}
	return store.Result(ctx, matchID)
}

// Account returns a stored account.
func (s *Service) Account(ctx context.Context, username string) (model.Account, error) {
	store, err := s.storeOrErr()
	if err != nil {
		return model.Account{}, err
	}
	return store.Account(ctx, username)
}

func (s *Service) storeOrErr() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// RateTeams rates teams synchronously. An empty mode uses the configured one.
func (s *Service) RateTeams(teams []glicko.Team, mode string) ([]glicko.Rating, error) {
	g, err := s.glickoEngine()
	if err != nil {
		return nil, err
	}
	m := g.TeamMode()
	if mode != "" {
		if m, err = glicko.ParseTeamMode(mode); err != nil {
			return nil, err
		}
	}
	return g.RateTeamsWithMode(teams, m)
}

// RateOneVsOne rates a single head-to-head game synchronously.
func (s *Service) RateOneVsOne(a, b glicko.Rating, drawn bool) (glicko.Rating, glicko.Rating, error) {
	g, err := s.glickoEngine()
	if err != nil {
		return glicko.Rating{}, glicko.Rating{}, err
	}
	return g.RateOneVsOne(a, b, drawn)
}

// RateElo computes Elo deltas synchronously without touching stored accounts.
func (s *Service) RateElo(m elo.Match) (map[string]elo.Change, error) {
	s.mu.RLock()
	e := s.elo
	s.mu.RUnlock()
	if e == nil {
		return nil, ErrNotStarted
	}
	return e.RateMatch(m)
}

// CreateRating returns a default rating with any overrides applied.
func (s *Service) CreateRating(opts ...glicko.RatingOption) (glicko.Rating, error) {
	g, err := s.glickoEngine()
	if err != nil {
		return glicko.Rating{}, err
	}
	return g.CreateRating(opts...), nil
}

func (s *Service) glickoEngine() (*glicko.Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.glicko == nil {
		return nil, ErrNotStarted
	}
	return s.glicko, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"teamMode":    s.teamMode.String(),
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	queueLen := s.queue.Len(ctx)
	accounts := s.store.Count(ctx)
	ps := s.pool.Stats()

	stats["queueLength"] = queueLen
	stats["accounts"] = accounts
	stats["dedupeEntries"] = s.deduper.Size()
	stats["matchesProcessed"] = ps.Processed
	stats["matchesFailed"] = ps.Failed
	stats["activeWorkers"] = ps.Active
	stats["uptimeSeconds"] = int64(s.now().Sub(s.startedAt).Seconds())

	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateAccountsTotal(accounts)
	return stats
}

func (s *Service) systemMetrics(stop <-chan struct{}) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			metrics.UpdateSystemMemoryUsage(ms.HeapAlloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}
