package cryptochain

import (
	"fmt"

	"github.com/j-raghavan/chronoguard-lite/internal/apperrors"
)

// VerificationResult is a structured outcome, not an exception:
// callers branch on IsValid rather than catching an error.
type VerificationResult struct {
	IsValid             bool
	EntriesVerified     int
	FirstInvalidSeq     *int
	ExpectedHash        string
	ActualHash          string
	ErrorMessage        string
}

func valid(count int) VerificationResult {
	return VerificationResult{IsValid: true, EntriesVerified: count}
}

// ChainVerifier checks the I2 (chain-link) and I3 (hash-match)
// invariants of an AuditChain.
type ChainVerifier struct {
	chain *AuditChain
}

// NewVerifier wraps a chain for verification.
func NewVerifier(chain *AuditChain) *ChainVerifier {
	return &ChainVerifier{chain: chain}
}

func (v *ChainVerifier) hashFn(entry ChainedEntry) string {
	if v.chain.secretKey != nil {
		return HMACEntry(entry.Entry, entry.PreviousHash, v.chain.secretKey)
	}
	return HashEntry(entry.Entry, entry.PreviousHash)
}

// VerifyFull walks the whole chain from genesis, stopping at the
// first invariant violation.
func (v *ChainVerifier) VerifyFull() VerificationResult {
	v.chain.mu.RLock()
	defer v.chain.mu.RUnlock()
	return v.verifyRangeInternal(0, len(v.chain.entries), GenesisHash)
}

// VerifyRange verifies the half-open interval [start, end). The first
// entry's stored previous_hash is trusted; every subsequent entry in
// the range is checked against both I2 and I3.
func (v *ChainVerifier) VerifyRange(start, end int) (VerificationResult, error) {
	v.chain.mu.RLock()
	defer v.chain.mu.RUnlock()

	n := len(v.chain.entries)
	if start < 0 || end > n || start > end {
		return VerificationResult{}, apperrors.OutOfRange(
			fmt.Sprintf("invalid range [%d, %d) for chain of length %d", start, end, n))
	}
	if start == end {
		return valid(0), nil
	}
	return v.verifyRangeInternal(start, end, v.chain.entries[start].PreviousHash), nil
}

// VerifyEntry checks only I3 for a single entry, using its own stored
// previous_hash. O(1).
func (v *ChainVerifier) VerifyEntry(seq int) (VerificationResult, error) {
	entry, err := v.chain.Get(seq)
	if err != nil {
		return VerificationResult{}, err
	}
	expected := v.hashFn(entry)
	if expected != entry.CurrentHash {
		s := seq
		return VerificationResult{
			IsValid:         false,
			EntriesVerified: 0,
			FirstInvalidSeq: &s,
			ExpectedHash:    expected,
			ActualHash:      entry.CurrentHash,
			ErrorMessage: fmt.Sprintf(
				"Hash mismatch at sequence %d: entry fields have been modified", seq),
		}, nil
	}
	return valid(1), nil
}

// verifyRangeInternal checks I2 then I3, in that order, at each
// position from start to end-1, trusting trustedPreviousHash as the
// predecessor hash for position start.
func (v *ChainVerifier) verifyRangeInternal(start, end int, trustedPreviousHash string) VerificationResult {
	expectedPrevious := trustedPreviousHash
	verified := 0
	for i := start; i < end; i++ {
		entry := v.chain.entries[i]

		// I2: chain link. Reported before I3 when both would fail at
		// the same position -- structural tamper outranks local tamper.
		if entry.PreviousHash != expectedPrevious {
			seq := i
			return VerificationResult{
				IsValid:         false,
				EntriesVerified: verified,
				FirstInvalidSeq: &seq,
				ExpectedHash:    expectedPrevious,
				ActualHash:      entry.PreviousHash,
				ErrorMessage: fmt.Sprintf(
					"Chain link broken at sequence %d: entry may have been deleted or reordered", i),
			}
		}

		// I3: hash match.
		actualHash := v.hashFn(entry)
		if actualHash != entry.CurrentHash {
			seq := i
			return VerificationResult{
				IsValid:         false,
				EntriesVerified: verified,
				FirstInvalidSeq: &seq,
				ExpectedHash:    actualHash,
				ActualHash:      entry.CurrentHash,
				ErrorMessage: fmt.Sprintf(
					"Hash mismatch at sequence %d: entry fields have been modified", i),
			}
		}

		verified++
		expectedPrevious = entry.CurrentHash
	}
	return valid(verified)
}
