package concurrency

import (
	"sync"

	"github.com/j-raghavan/chronoguard-lite/internal/domain"
	"github.com/j-raghavan/chronoguard-lite/internal/store"
)

// CoarseLockStore wraps a ColumnarAuditStore in a single mutex. Every
// method serializes on the same lock, so throughput under concurrent
// writers is bounded by that one contention point regardless of what
// each goroutine is doing. It exists purely as a benchmark baseline
// against AppendQueue (buffered, background-drained) and StripedMap
// (partitioned locking).
type CoarseLockStore struct {
	mu    sync.Mutex
	store *store.ColumnarAuditStore
}

// NewCoarseLockStore wraps backingStore (or a fresh one if nil).
func NewCoarseLockStore(backingStore *store.ColumnarAuditStore) *CoarseLockStore {
	if backingStore == nil {
		backingStore = store.NewColumnarAuditStore()
	}
	return &CoarseLockStore{store: backingStore}
}

// Append appends under the single lock.
func (c *CoarseLockStore) Append(entry domain.AuditEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Append(entry)
}

// Count returns the entry count under the single lock.
func (c *CoarseLockStore) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Count()
}

// QueryTimeRange queries under the single lock.
func (c *CoarseLockStore) QueryTimeRange(start, end float64) []domain.AuditEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.QueryTimeRange(start, end)
}

// Store returns the backing columnar store, unsynchronized.
func (c *CoarseLockStore) Store() *store.ColumnarAuditStore { return c.store }
