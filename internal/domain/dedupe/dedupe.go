// Package dedupe tracks which events have already been accepted so that a
// resubmitted event is processed at most once.
package dedupe

import (
	"context"
	"sync"

	"github.com/okian/hltjet/internal/domain/model"
)

// Deduper records seen event keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key model.EventKey) bool

	// Unrecord forgets key so the event can be resubmitted. Used when an
	// accepted event could not be queued.
	Unrecord(ctx context.Context, key model.EventKey)

	Size() int64
}

// inMemoryDeduper keeps a bounded set of keys. When full, the oldest key is
// evicted first. maxSize <= 0 disables eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[model.EventKey]int // key -> slot in ring, -1 when unbounded
	ring    []model.EventKey
	used    []bool
	next    int
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[model.EventKey]int)
	if d.maxSize > 0 {
		d.ring = make([]model.EventKey, d.maxSize)
		d.used = make([]bool, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key model.EventKey) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize <= 0 {
		d.seen[key] = -1
		return false
	}

	// The slot under next always holds the oldest key, if any.
	slot := d.next
	if d.used[slot] {
		delete(d.seen, d.ring[slot])
	}
	d.ring[slot] = key
	d.used[slot] = true
	d.seen[key] = slot
	d.next = (slot + 1) % d.maxSize
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key model.EventKey) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.seen[key]
	if !ok {
		return
	}
	delete(d.seen, key)
	if slot >= 0 {
		d.used[slot] = false
		d.ring[slot] = model.EventKey{}
	}
}

// Size returns the number of keys currently tracked.
func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
