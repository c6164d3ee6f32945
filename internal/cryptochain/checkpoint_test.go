package cryptochain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportAndVerifyCheckpointRoundTrip(t *testing.T) {
	chain := NewChain()
	chain.Append(mkEntry("a.com", "r1"))
	chain.Append(mkEntry("b.com", "r2"))

	key := []byte("checkpoint-signing-key")
	token, err := ExportCheckpoint(chain, key)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	seq, headHash, err := VerifyCheckpoint(token, key)
	require.NoError(t, err)
	assert.Equal(t, chain.Len(), seq)
	assert.Equal(t, chain.HeadHash(), headHash)
}

func TestVerifyCheckpointRejectsWrongKey(t *testing.T) {
	chain := NewChain()
	chain.Append(mkEntry("a.com", "r1"))

	token, err := ExportCheckpoint(chain, []byte("key-one"))
	require.NoError(t, err)

	_, _, err = VerifyCheckpoint(token, []byte("key-two"))
	require.Error(t, err)
}

func TestVerifyCheckpointRejectsGarbage(t *testing.T) {
	_, _, err := VerifyCheckpoint("not-a-jwt", []byte("key"))
	require.Error(t, err)
}
