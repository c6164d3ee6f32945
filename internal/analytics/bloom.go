package analytics

import (
	"math"
	"math/bits"

	"github.com/j-raghavan/chronoguard-lite/internal/apperrors"
)

// optimalBloomSize computes m = -(n*ln(p)) / ln(2)^2, at least 64.
func optimalBloomSize(expected int, fpRate float64) int {
	m := -(float64(expected) * math.Log(fpRate)) / (math.Ln2 * math.Ln2)
	size := int(math.Ceil(m))
	if size < 64 {
		return 64
	}
	return size
}

// optimalBloomHashes computes k = (m/n) * ln(2), at least 1.
func optimalBloomHashes(m, expected int) int {
	k := int(math.Round((float64(m) / float64(expected)) * math.Ln2))
	if k < 1 {
		return 1
	}
	return k
}

// BloomFilter is a probabilistic set-membership filter: might-contain
// can false-positive but never false-negatives. The bit array auto-
// sizes from expectedElements/fpRate, and k hash functions are derived
// from a single SHA-256 via Kirsch-Mitzenmacher double hashing:
// h_i(x) = h1(x) + i*h2(x) mod m.
type BloomFilter struct {
	expected int
	targetFP float64
	m        int
	k        int
	count    int
	bitWords []uint64
}

// NewBloomFilter sizes a filter for expectedElements items at the
// given target false-positive rate.
func NewBloomFilter(expectedElements int, fpRate float64) (*BloomFilter, error) {
	if expectedElements <= 0 {
		return nil, apperrors.InvalidArgument("expected elements must be positive")
	}
	if fpRate <= 0 || fpRate >= 1 {
		return nil, apperrors.InvalidArgument("fp rate must be in (0, 1)")
	}
	m := optimalBloomSize(expectedElements, fpRate)
	k := optimalBloomHashes(m, expectedElements)
	numWords := (m + 63) / 64
	return &BloomFilter{
		expected: expectedElements,
		targetFP: fpRate,
		m:        m,
		k:        k,
		bitWords: make([]uint64, numWords),
	}, nil
}

// SizeBits returns the bit array length.
func (b *BloomFilter) SizeBits() int { return b.m }

// NumHashes returns the number of hash functions (k).
func (b *BloomFilter) NumHashes() int { return b.k }

// Count returns the number of items added.
func (b *BloomFilter) Count() int { return b.count }

// Add inserts item into the filter.
func (b *BloomFilter) Add(item string) {
	h1, h2 := hashPair(item)
	for i := 0; i < b.k; i++ {
		bitPos := (h1 + uint64(i)*h2) % uint64(b.m)
		wordIdx := bitPos >> 6
		bitIdx := bitPos & 63
		b.bitWords[wordIdx] |= 1 << bitIdx
	}
	b.count++
}

// MightContain reports whether item might be in the set. False means
// definitely not present; true may be a false positive.
func (b *BloomFilter) MightContain(item string) bool {
	h1, h2 := hashPair(item)
	for i := 0; i < b.k; i++ {
		bitPos := (h1 + uint64(i)*h2) % uint64(b.m)
		wordIdx := bitPos >> 6
		bitIdx := bitPos & 63
		if b.bitWords[wordIdx]&(1<<bitIdx) == 0 {
			return false
		}
	}
	return true
}

// FillRatio returns the fraction of bits that are set.
func (b *BloomFilter) FillRatio() float64 {
	setBits := 0
	for _, word := range b.bitWords {
		setBits += bits.OnesCount64(word)
	}
	return float64(setBits) / float64(b.m)
}

// EstimatedFPRate estimates the current false-positive rate from the
// fill ratio (fillRatio^k), more accurate than the theoretical rate
// when actual usage diverges from expectedElements.
func (b *BloomFilter) EstimatedFPRate() float64 {
	fr := b.FillRatio()
	if fr >= 1.0 {
		return 1.0
	}
	return math.Pow(fr, float64(b.k))
}

// MemoryBytes reports the bit array's footprint.
func (b *BloomFilter) MemoryBytes() int { return len(b.bitWords) * 8 }
