package repository

import (
	"context"
	"hash/fnv"
	"maps"
	"strconv"
	"sync"
	"time"

	"github.com/okian/ratings/internal/domain/model"
	"github.com/okian/ratings/pkg/metrics"
)

type shard struct {
	mu       sync.RWMutex
	accounts map[string]model.Account
}

// MemoryStore keeps accounts in FNV-hashed shards and results in a single map.
// Values are deep-copied on the way in and out.
type MemoryStore struct {
	shards     []*shard
	shardCount int

	resultsMu sync.RWMutex
	results   map[string]model.Result

	metricsUpdateInterval time.Duration
	updaterMu             sync.Mutex
	stopChan              chan struct{} // nil while the updater is stopped
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store and starts its metrics updater, which
// stops when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		shardCount:            DefaultShardCount,
		results:               make(map[string]model.Result),
		metricsUpdateInterval: DefaultMetricsUpdateInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{accounts: make(map[string]model.Account)}
	}
	metrics.UpdateRepositoryShardCount(s.shardCount)
	s.Resume(ctx)
	return s
}

func (s *MemoryStore) shardFor(username string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(username))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *MemoryStore) Accounts(ctx context.Context, usernames []string) ([]model.Account, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(msSince(start)) }()

	out := make([]model.Account, 0, len(usernames))
	for _, name := range usernames {
		if name == "" {
			return nil, ErrEmptyUsername
		}
		sh := s.shardFor(name)
		sh.mu.RLock()
		a, ok := sh.accounts[name]
		sh.mu.RUnlock()
		if !ok {
			a = model.Account{Username: name}
		}
		out = append(out, a.Clone())
	}
	return out, nil
}

func (s *MemoryStore) Account(ctx context.Context, username string) (model.Account, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(msSince(start)) }()

	sh := s.shardFor(username)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	a, ok := sh.accounts[username]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Account{}, ErrNotFound
	}
	return a.Clone(), nil
}

func (s *MemoryStore) SaveAccounts(ctx context.Context, accounts []model.Account) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(msSince(start)) }()

	for _, a := range accounts {
		if a.Username == "" {
			return ErrEmptyUsername
		}
	}
	for _, a := range accounts {
		sh := s.shardFor(a.Username)
		sh.mu.Lock()
		sh.accounts[a.Username] = a.Clone()
		sh.mu.Unlock()
	}
	return nil
}

func (s *MemoryStore) SaveResult(ctx context.Context, r model.Result) error {
	if r.MatchID == "" {
		return ErrEmptyMatchID
	}
	s.resultsMu.Lock()
	defer s.resultsMu.Unlock()
	s.results[r.MatchID] = cloneResult(r)
	return nil
}

func (s *MemoryStore) Result(ctx context.Context, matchID string) (model.Result, error) {
	s.resultsMu.RLock()
	defer s.resultsMu.RUnlock()
	r, ok := s.results[matchID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Result{}, ErrNotFound
	}
	return cloneResult(r), nil
}

func (s *MemoryStore) Count(ctx context.Context) int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.accounts)
		sh.mu.RUnlock()
	}
	return n
}

// Close stops the metrics updater. Stored data is kept, so the store can be
// resumed. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.updaterMu.Lock()
	defer s.updaterMu.Unlock()
	if s.stopChan != nil {
		close(s.stopChan)
		s.stopChan = nil
	}
	return nil
}

// Resume restarts the metrics updater after Close. It is a no-op while the
// updater is running.
func (s *MemoryStore) Resume(ctx context.Context) {
	s.updaterMu.Lock()
	defer s.updaterMu.Unlock()
	if s.stopChan != nil {
		return
	}
	stop := make(chan struct{})
	s.stopChan = stop

	go func() {
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.updaterMu.Lock()
				if s.stopChan == stop {
					s.stopChan = nil
				}
				s.updaterMu.Unlock()
				return
			case <-stop:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *MemoryStore) updateMetrics() {
	total := 0
	for i, sh := range s.shards {
		sh.mu.RLock()
		n := len(sh.accounts)
		sh.mu.RUnlock()
		total += n
		metrics.UpdateRepositoryRecordsPerShard(strconv.Itoa(i), n)
	}
	metrics.UpdateRepositoryRecordsTotal(total)
	metrics.UpdateAccountsTotal(total)
}

func cloneResult(r model.Result) model.Result {
	out := r
	out.Elo = maps.Clone(r.Elo)
	out.Glicko = maps.Clone(r.Glicko)
	out.Accounts = make([]model.Account, len(r.Accounts))
	for i, a := range r.Accounts {
		out.Accounts[i] = a.Clone()
	}
	return out
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
