package cryptochain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-raghavan/chronoguard-lite/internal/domain"
)

func mkEntry(domainName, reason string) domain.AuditEntry {
	return domain.NewAuditEntry(domain.NewID(), domainName, domain.Allow, 1700000000.0, reason)
}

func TestNewChainStartsAtGenesis(t *testing.T) {
	chain := NewChain()
	assert.Equal(t, GenesisHash, chain.HeadHash())
	assert.Equal(t, 0, chain.Len())
}

func TestAppendAdvancesHeadAndSequence(t *testing.T) {
	chain := NewChain()
	first := chain.Append(mkEntry("a.com", "r1"))
	assert.Equal(t, 0, first.SequenceNumber)
	assert.Equal(t, GenesisHash, first.PreviousHash)
	assert.Equal(t, chain.HeadHash(), first.CurrentHash)

	second := chain.Append(mkEntry("b.com", "r2"))
	assert.Equal(t, 1, second.SequenceNumber)
	assert.Equal(t, first.CurrentHash, second.PreviousHash)
	assert.Equal(t, 2, chain.Len())
}

func TestGetOutOfRange(t *testing.T) {
	chain := NewChain()
	chain.Append(mkEntry("a.com", "r1"))

	_, err := chain.Get(5)
	require.Error(t, err)

	entry, err := chain.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "a.com", entry.Entry.Domain)
}

func TestKeyedChainGeneratesKeyWhenNil(t *testing.T) {
	chain, err := NewKeyedChain(nil)
	require.NoError(t, err)
	assert.Len(t, chain.SecretKey(), 32)

	e := mkEntry("a.com", "r1")
	chained := chain.Append(e)
	assert.Equal(t, HMACEntry(e, GenesisHash, chain.SecretKey()), chained.CurrentHash)
}

func TestKeyedChainUsesSuppliedKey(t *testing.T) {
	key := []byte("a fixed 32 byte secret key......")
	chain, err := NewKeyedChain(key)
	require.NoError(t, err)
	assert.Equal(t, key, chain.SecretKey())

	e := mkEntry("a.com", "r1")
	chained := chain.Append(e)
	assert.Equal(t, HMACEntry(e, GenesisHash, key), chained.CurrentHash)
}

func TestPlainChainUsesSHA256NotHMAC(t *testing.T) {
	chain := NewChain()
	e := mkEntry("a.com", "r1")
	chained := chain.Append(e)
	assert.Equal(t, HashEntry(e, GenesisHash), chained.CurrentHash)
}
