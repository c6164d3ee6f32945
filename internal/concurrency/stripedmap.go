package concurrency

import (
	"github.com/cespare/xxhash/v2"

	"github.com/j-raghavan/chronoguard-lite/internal/apperrors"
)

// StripedMap is a thread-safe string-keyed map partitioned into
// num_stripes independently-locked shards, each guarded by an RWLock.
// A key's shard is hash(key) & (numStripes-1) using xxhash, chosen
// for its speed on the hot lookup path rather than for cryptographic
// properties. With 16 stripes and 16 concurrent goroutines,
// contention drops roughly 16x versus a single lock, since goroutines
// only block each other when they land on the same stripe.
type StripedMap struct {
	numStripes int
	mask       uint64
	stripes    []map[string]any
	locks      []*RWLock
}

// NewStripedMap creates a map with numStripes shards; numStripes must
// be a positive power of two so the mask trick applies.
func NewStripedMap(numStripes int) (*StripedMap, error) {
	if numStripes <= 0 || numStripes&(numStripes-1) != 0 {
		return nil, apperrors.InvalidArgument("num_stripes must be a positive power of 2")
	}
	stripes := make([]map[string]any, numStripes)
	locks := make([]*RWLock, numStripes)
	for i := range stripes {
		stripes[i] = map[string]any{}
		locks[i] = NewRWLock()
	}
	return &StripedMap{
		numStripes: numStripes,
		mask:       uint64(numStripes - 1),
		stripes:    stripes,
		locks:      locks,
	}, nil
}

func (m *StripedMap) stripeIndex(key string) int {
	return int(xxhash.Sum64String(key) & m.mask)
}

// Get reads a value, acquiring only the key's stripe's read lock.
func (m *StripedMap) Get(key string) (any, bool) {
	idx := m.stripeIndex(key)
	m.locks[idx].RLock()
	defer m.locks[idx].RUnlock()
	v, ok := m.stripes[idx][key]
	return v, ok
}

// Put writes a value, acquiring only the key's stripe's write lock.
func (m *StripedMap) Put(key string, value any) {
	idx := m.stripeIndex(key)
	m.locks[idx].Lock()
	defer m.locks[idx].Unlock()
	m.stripes[idx][key] = value
}

// Delete removes a key, returning whether it existed.
func (m *StripedMap) Delete(key string) bool {
	idx := m.stripeIndex(key)
	m.locks[idx].Lock()
	defer m.locks[idx].Unlock()
	_, ok := m.stripes[idx][key]
	delete(m.stripes[idx], key)
	return ok
}

// Contains checks existence under the key's stripe's read lock.
func (m *StripedMap) Contains(key string) bool {
	idx := m.stripeIndex(key)
	m.locks[idx].RLock()
	defer m.locks[idx].RUnlock()
	_, ok := m.stripes[idx][key]
	return ok
}

// Size totals entries across all stripes. Not a point-in-time
// snapshot: concurrent writes during the scan make the total
// approximate. Adequate for monitoring, not for invariants.
func (m *StripedMap) Size() int {
	total := 0
	for i := 0; i < m.numStripes; i++ {
		m.locks[i].RLock()
		total += len(m.stripes[i])
		m.locks[i].RUnlock()
	}
	return total
}

// Keys returns a snapshot of every key, with the same non-atomicity
// caveat as Size.
func (m *StripedMap) Keys() []string {
	var result []string
	for i := 0; i < m.numStripes; i++ {
		m.locks[i].RLock()
		for k := range m.stripes[i] {
			result = append(result, k)
		}
		m.locks[i].RUnlock()
	}
	return result
}

// Update performs an atomic read-modify-write: fn receives the
// current value (or defaultValue if absent) and returns the new
// value, all under the key's stripe's write lock so no other
// goroutine can interleave between the read and the write.
func (m *StripedMap) Update(key string, defaultValue any, fn func(current any) any) any {
	idx := m.stripeIndex(key)
	m.locks[idx].Lock()
	defer m.locks[idx].Unlock()
	current, ok := m.stripes[idx][key]
	if !ok {
		current = defaultValue
	}
	next := fn(current)
	m.stripes[idx][key] = next
	return next
}
