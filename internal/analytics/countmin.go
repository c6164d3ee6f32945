package analytics

import (
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/j-raghavan/chronoguard-lite/internal/apperrors"
)

const (
	defaultCountMinWidth = 2048
	defaultCountMinDepth = 5
)

// hashPair splits a single SHA-256 digest into two 64-bit values,
// used as h1/h2 for double hashing: h_i(x) = h1 + i*h2.
func hashPair(item string) (uint64, uint64) {
	sum := sha256.Sum256([]byte(item))
	h1 := binary.BigEndian.Uint64(sum[:8])
	h2 := binary.BigEndian.Uint64(sum[8:16])
	return h1, h2
}

// CountMinSketch estimates per-item frequency over a stream using a
// width x depth grid of counters, one hash function per row, combined
// via double hashing rather than independent hash functions. Memory:
// width * depth * 4 bytes. With the default 2048x5 that's ~40 KB.
type CountMinSketch struct {
	width  int
	depth  int
	total  uint64
	tables [][]uint32
}

// NewCountMinSketch builds a sketch with width counters per row and
// depth rows.
func NewCountMinSketch(width, depth int) (*CountMinSketch, error) {
	if width < 1 || depth < 1 {
		return nil, apperrors.InvalidArgument("width and depth must be positive")
	}
	tables := make([][]uint32, depth)
	for i := range tables {
		tables[i] = make([]uint32, width)
	}
	return &CountMinSketch{width: width, depth: depth, tables: tables}, nil
}

// NewDefaultCountMinSketch builds a sketch at the standard 2048x5
// sizing (epsilon ~= 0.0013, delta ~= 0.0067).
func NewDefaultCountMinSketch() *CountMinSketch {
	s, _ := NewCountMinSketch(defaultCountMinWidth, defaultCountMinDepth)
	return s
}

// Width returns the sketch's column count.
func (c *CountMinSketch) Width() int { return c.width }

// Depth returns the sketch's row count.
func (c *CountMinSketch) Depth() int { return c.depth }

// Total returns the total number of increment operations.
func (c *CountMinSketch) Total() uint64 { return c.total }

// Add increments item's count by count (default 1 via AddOne).
func (c *CountMinSketch) Add(item string, count uint32) {
	h1, h2 := hashPair(item)
	for i := 0; i < c.depth; i++ {
		idx := (h1 + uint64(i)*h2) % uint64(c.width)
		c.tables[i][idx] += count
	}
	c.total += uint64(count)
}

// AddOne increments item's count by one.
func (c *CountMinSketch) AddOne(item string) { c.Add(item, 1) }

// Estimate returns the minimum counter across all rows for item: this
// is always >= the true count and <= true count + epsilon*total.
func (c *CountMinSketch) Estimate(item string) uint32 {
	h1, h2 := hashPair(item)
	result := c.tables[0][h1%uint64(c.width)]
	for i := 1; i < c.depth; i++ {
		idx := (h1 + uint64(i)*h2) % uint64(c.width)
		if val := c.tables[i][idx]; val < result {
			result = val
		}
	}
	return result
}

// MemoryBytes reports the counter grid's footprint.
func (c *CountMinSketch) MemoryBytes() int { return c.width * c.depth * 4 }

// Epsilon is the error bound: the overestimate is at most epsilon *
// total with probability >= 1-delta.
func (c *CountMinSketch) Epsilon() float64 { return math.E / float64(c.width) }

// Delta is the failure probability bound for Epsilon.
func (c *CountMinSketch) Delta() float64 { return math.Pow(math.E, -float64(c.depth)) }

// Merge folds other's counters into c via elementwise addition.
// Requires equal width and depth.
func (c *CountMinSketch) Merge(other *CountMinSketch) error {
	if c.width != other.width || c.depth != other.depth {
		return apperrors.InvalidArgument("cannot merge CountMinSketches with different dimensions")
	}
	for row := 0; row < c.depth; row++ {
		for col := 0; col < c.width; col++ {
			c.tables[row][col] += other.tables[row][col]
		}
	}
	c.total += other.total
	return nil
}
