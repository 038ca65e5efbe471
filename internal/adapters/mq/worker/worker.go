// Package worker drains the match queue and rates matches against stored accounts.
package worker

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"runtime"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/ratings/internal/domain/elo"
	"github.com/okian/ratings/internal/domain/glicko"
	"github.com/okian/ratings/internal/domain/model"
	"github.com/okian/ratings/pkg/logger"
	"github.com/okian/ratings/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultLockStripes  = 256
	poolShutdownTimeout = 30 * time.Second
)

// Rater rates a finished match.
type Rater interface {
	Rate(m model.Match, accounts []model.Account, now time.Time) (model.Result, error)
}

// Store is the persistence a worker needs.
type Store interface {
	Accounts(ctx context.Context, usernames []string) ([]model.Account, error)
	SaveAccounts(ctx context.Context, accounts []model.Account) error
	SaveResult(ctx context.Context, r model.Result) error
}

// AccountLocker is implemented by stores shared between processes. The worker
// holds the lock across the read-modify-write of a match's accounts.
type AccountLocker interface {
	LockAccounts(ctx context.Context, usernames []string) (unlock func(), err error)
}

// Queue defines how workers receive matches.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Match
}

// Stats counts what the pool has processed so far.
type Stats struct {
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Active    int64 `json:"active"`
	Workers   int   `json:"workers"`
}

// accountLocks serializes read-modify-write cycles on the same accounts.
type accountLocks struct {
	stripes []sync.Mutex
}

func newAccountLocks(n int) *accountLocks {
	return &accountLocks{stripes: make([]sync.Mutex, n)}
}

// lock acquires the stripes of all usernames in ascending order and returns
// the matching unlock.
func (l *accountLocks) lock(usernames []string) func() {
	idx := make([]int, 0, len(usernames))
	for _, u := range usernames {
		h := fnv.New32a()
		_, _ = h.Write([]byte(u))
		idx = append(idx, int(h.Sum32()%uint32(len(l.stripes))))
	}
	slices.Sort(idx)
	idx = slices.Compact(idx)
	for _, i := range idx {
		l.stripes[i].Lock()
	}
	return func() {
		for _, i := range slices.Backward(idx) {
			l.stripes[i].Unlock()
		}
	}
}

// InMemoryWorker rates matches read from a Queue.
type InMemoryWorker struct {
	queue Queue
	rater Rater
	store Store
	locks *accountLocks
	pool  *Pool
	name  string
	now   func() time.Time

	logger logger.Logger
}

// NewInMemoryWorker creates a standalone worker.
func NewInMemoryWorker(queue Queue, rater Rater, store Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue: queue,
		rater: rater,
		store: store,
		locks: newAccountLocks(defaultLockStripes),
		name:  "worker",
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes matches until the queue is drained and closed or ctx is done.
func (w *InMemoryWorker) Run(ctx context.Context) {
	matches := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-matches:
			if !ok {
				return
			}
			if err := w.Process(ctx, m); err != nil {
				w.logger.Error(ctx, "error processing match", logger.String("match_id", m.MatchID), logger.Error(err))
			}
		}
	}
}

// Process rates a single match and persists the outcome. Failures are not retried.
func (w *InMemoryWorker) Process(ctx context.Context, m model.Match) error { //nolint:gocritic // matches travel by value
	start := time.Now()
	w.pool.begin()
	defer func() {
		metrics.RecordWorkerProcessingLatency(msSince(start))
		w.pool.end()
	}()

	err := w.process(ctx, m)
	w.pool.count(err)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", errorKind(err))
		return err
	}
	metrics.RecordMatchRated()
	return nil
}

func (w *InMemoryWorker) process(ctx context.Context, m model.Match) error {
	unlock := w.locks.lock(m.Players())
	defer unlock()
	if l, ok := w.store.(AccountLocker); ok {
		release, err := l.LockAccounts(ctx, m.Players())
		if err != nil {
			return fmt.Errorf("lock accounts: %w", err)
		}
		defer release()
	}

	accounts, err := w.store.Accounts(ctx, m.Players())
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}

	rateStart := time.Now()
	res, err := w.rater.Rate(m, accounts, w.now())
	metrics.RecordRatingLatency(msSince(rateStart))
	if err != nil {
		switch {
		case errors.Is(err, glicko.ErrNonConvergence):
			metrics.RecordSolverFailure()
			metrics.RecordRatingError("glicko")
		case isEloError(err):
			metrics.RecordRatingError("elo")
		default:
			metrics.RecordRatingError("match")
		}
		return fmt.Errorf("rate match %s: %w", m.MatchID, err)
	}

	if err := w.store.SaveAccounts(ctx, res.Accounts); err != nil {
		return fmt.Errorf("save accounts: %w", err)
	}
	if err := w.store.SaveResult(ctx, res); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	w.logger.Debug(ctx, "match rated",
		logger.String("match_id", m.MatchID),
		logger.Int("players", m.TableSize()),
		logger.Bool("rainbow", m.Rainbow),
	)
	return nil
}

func isEloError(err error) bool {
	return errors.Is(err, elo.ErrUnsupportedTableSize) ||
		errors.Is(err, elo.ErrInvalidRating) ||
		errors.Is(err, elo.ErrNoWinners) ||
		errors.Is(err, elo.ErrNoLosers)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, glicko.ErrNonConvergence):
		return "non_convergence"
	case isEloError(err):
		return "elo"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "rate_failed"
	}
}

// Pool manages multiple workers sharing one set of account locks.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	processed atomic.Int64
	failed    atomic.Int64
	active    atomic.Int64

	group  *errgroup.Group
	cancel context.CancelFunc

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one uses runtime.NumCPU().
func NewPool(workerCount int, queue Queue, rater Rater, store Store, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	locks := newAccountLocks(defaultLockStripes)
	for i := range workerCount {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(queue, rater, store, wopts...)
		w.locks = locks
		w.pool = p
		p.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(workerCount)
	return p
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.group, ctx = errgroup.WithContext(ctx)
	for _, w := range p.workers {
		p.group.Go(func() error {
			w.Run(ctx)
			return nil
		})
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue, lets workers drain it and waits for them. If ctx
// expires first the workers are cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	if p.group == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = p.group.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		p.logger.Warn(ctx, "worker shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Stats returns the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
		Active:    p.active.Load(),
		Workers:   len(p.workers),
	}
}

func (p *Pool) begin() {
	if p == nil {
		return
	}
	n := p.active.Add(1)
	metrics.UpdateWorkerActiveCount(int(n))
	metrics.UpdateWorkerIdleCount(len(p.workers) - int(n))
}

func (p *Pool) count(err error) {
	if p == nil {
		return
	}
	if err != nil {
		p.failed.Add(1)
		return
	}
	p.processed.Add(1)
}

func (p *Pool) end() {
	if p == nil {
		return
	}
	n := p.active.Add(-1)
	metrics.UpdateWorkerActiveCount(int(n))
	metrics.UpdateWorkerIdleCount(len(p.workers) - int(n))
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
