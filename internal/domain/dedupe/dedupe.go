// Package dedupe tracks match IDs that were already accepted so a match is
// rated at most once.
package dedupe

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Defaults for NewInMemoryDeduper.
const (
	DefaultMaxSize         = 50000
	DefaultTTL             = 24 * time.Hour
	DefaultCleanupInterval = 10 * time.Minute
)

// Deduper records seen match IDs.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded and records it if not.
	SeenAndRecord(ctx context.Context, id string) bool
	// Unrecord forgets id so a later submission is accepted again.
	Unrecord(ctx context.Context, id string)
	Size() int64
}

type entry struct {
	id  string
	seq uint64
}

// inMemoryDeduper keeps IDs in an expiring cache. When maxSize > 0 the oldest
// recorded IDs are evicted first once the bound is reached.
type inMemoryDeduper struct {
	mu      sync.Mutex
	cache   *gocache.Cache
	order   []entry
	seq     uint64
	maxSize int
	ttl     time.Duration
	cleanup time.Duration
}

// NewInMemoryDeduper creates a deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: DefaultMaxSize,
		ttl:     DefaultTTL,
		cleanup: DefaultCleanupInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.cache = gocache.New(d.ttl, d.cleanup)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if err := d.cache.Add(id, d.seq, gocache.DefaultExpiration); err != nil {
		return true
	}
	if d.maxSize <= 0 {
		return false
	}
	d.order = append(d.order, entry{id: id, seq: d.seq})
	for d.cache.ItemCount() > d.maxSize && len(d.order) > 0 {
		d.evictOldest()
	}
	if len(d.order) > 2*d.maxSize {
		d.compact()
	}
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache.Delete(id)
}

func (d *inMemoryDeduper) Size() int64 {
	return int64(d.cache.ItemCount())
}

// evictOldest drops the head of order. The cached record is removed only if
// it still belongs to that entry.
// Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	e := d.order[0]
	d.order[0] = entry{}
	d.order = d.order[1:]
	if d.live(e) {
		d.cache.Delete(e.id)
	}
}

func (d *inMemoryDeduper) live(e entry) bool {
	v, ok := d.cache.Get(e.id)
	return ok && v.(uint64) == e.seq
}

// compact removes IDs from order that are no longer cached.
// Must be called with d.mu held.
func (d *inMemoryDeduper) compact() {
	kept := make([]entry, 0, d.maxSize)
	for _, e := range d.order {
		if d.live(e) {
			kept = append(kept, e)
		}
	}
	d.order = kept
}
