package cryptochain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-raghavan/chronoguard-lite/internal/domain"
)

func TestHashEntryDeterministic(t *testing.T) {
	e := mkEntry("a.com", "r1")
	h1 := HashEntry(e, GenesisHash)
	h2 := HashEntry(e, GenesisHash)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestHashEntryChangesWithAnyField(t *testing.T) {
	base := mkEntry("a.com", "r1")
	h1 := HashEntry(base, GenesisHash)

	changed := base
	changed.Reason = "different"
	h2 := HashEntry(changed, GenesisHash)

	assert.NotEqual(t, h1, h2)
}

func TestHashEntryChangesWithPreviousHash(t *testing.T) {
	e := mkEntry("a.com", "r1")
	h1 := HashEntry(e, GenesisHash)
	h2 := HashEntry(e, "some-other-hash")
	assert.NotEqual(t, h1, h2)
}

func TestHMACEntryDiffersFromPlainHash(t *testing.T) {
	e := mkEntry("a.com", "r1")
	key, err := GenerateSecretKey()
	require.NoError(t, err)

	plain := HashEntry(e, GenesisHash)
	keyed := HMACEntry(e, GenesisHash, key)
	assert.NotEqual(t, plain, keyed)
}

func TestGenerateSecretKeyLengthAndRandomness(t *testing.T) {
	k1, err := GenerateSecretKey()
	require.NoError(t, err)
	k2, err := GenerateSecretKey()
	require.NoError(t, err)

	assert.Len(t, k1, 32)
	assert.Len(t, k2, 32)
	assert.NotEqual(t, k1, k2)
}

func TestCanonicalizeInjectiveOverOptionalFields(t *testing.T) {
	base := mkEntry("a.com", "r1")
	withPolicy := base
	policyID := domain.NewID()
	withPolicy.PolicyID = &policyID

	assert.NotEqual(t, Canonicalize(base, GenesisHash), Canonicalize(withPolicy, GenesisHash))
}
