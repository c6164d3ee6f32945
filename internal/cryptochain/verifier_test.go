package cryptochain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildChain(t *testing.T, n int) *AuditChain {
	t.Helper()
	chain := NewChain()
	for i := 0; i < n; i++ {
		chain.Append(mkEntry("a.com", "r"))
	}
	return chain
}

func TestVerifyFullOnCleanChain(t *testing.T) {
	chain := buildChain(t, 5)
	result := NewVerifier(chain).VerifyFull()
	assert.True(t, result.IsValid)
	assert.Equal(t, 5, result.EntriesVerified)
}

func TestVerifyFullOnEmptyChain(t *testing.T) {
	chain := NewChain()
	result := NewVerifier(chain).VerifyFull()
	assert.True(t, result.IsValid)
	assert.Equal(t, 0, result.EntriesVerified)
}

func TestVerifyFullDetectsTamperedMiddleEntry(t *testing.T) {
	chain := buildChain(t, 5)
	chain.entries[2].Entry.Reason = "tampered"

	result := NewVerifier(chain).VerifyFull()
	require.False(t, result.IsValid)
	require.NotNil(t, result.FirstInvalidSeq)
	assert.Equal(t, 2, *result.FirstInvalidSeq)
	assert.Equal(t, 2, result.EntriesVerified)
}

func TestVerifyFullDetectsBrokenChainLinkBeforeHashMismatch(t *testing.T) {
	chain := buildChain(t, 5)
	// Break the link: entry 3's stored previous_hash no longer matches
	// entry 2's current_hash. I2 must be reported, not I3, even though
	// the hash at this position will also fail to match.
	chain.entries[3].PreviousHash = "not-the-real-previous-hash-0000000000000000000000000000000000"

	result := NewVerifier(chain).VerifyFull()
	require.False(t, result.IsValid)
	assert.Equal(t, 3, *result.FirstInvalidSeq)
	assert.Contains(t, result.ErrorMessage, "Chain link broken")
}

func TestVerifyRangeRejectsInvalidBounds(t *testing.T) {
	chain := buildChain(t, 5)
	verifier := NewVerifier(chain)

	_, err := verifier.VerifyRange(-1, 3)
	require.Error(t, err)

	_, err = verifier.VerifyRange(0, 10)
	require.Error(t, err)

	_, err = verifier.VerifyRange(3, 1)
	require.Error(t, err)
}

func TestVerifyRangeEmptyIsValid(t *testing.T) {
	chain := buildChain(t, 5)
	result, err := NewVerifier(chain).VerifyRange(2, 2)
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Equal(t, 0, result.EntriesVerified)
}

func TestVerifyRangeTrustsStartBoundaryPreviousHash(t *testing.T) {
	chain := buildChain(t, 5)
	result, err := NewVerifier(chain).VerifyRange(2, 5)
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Equal(t, 3, result.EntriesVerified)
}

func TestVerifyEntrySingleO1Check(t *testing.T) {
	chain := buildChain(t, 5)
	result, err := NewVerifier(chain).VerifyEntry(2)
	require.NoError(t, err)
	assert.True(t, result.IsValid)

	chain.entries[2].Entry.Reason = "tampered"
	result, err = NewVerifier(chain).VerifyEntry(2)
	require.NoError(t, err)
	assert.False(t, result.IsValid)
}

func TestVerifyEntryOutOfRange(t *testing.T) {
	chain := buildChain(t, 2)
	_, err := NewVerifier(chain).VerifyEntry(99)
	require.Error(t, err)
}

func TestVerifyFullWithKeyedChain(t *testing.T) {
	chain, err := NewKeyedChain([]byte("a fixed 32 byte secret key......"))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		chain.Append(mkEntry("a.com", "r"))
	}

	result := NewVerifier(chain).VerifyFull()
	assert.True(t, result.IsValid)
}
