package cryptochain

import (
	"fmt"
	"strings"

	"github.com/j-raghavan/chronoguard-lite/internal/apperrors"
	"github.com/j-raghavan/chronoguard-lite/internal/concurrency"
	"github.com/j-raghavan/chronoguard-lite/internal/domain"
)

// GenesisHash is the chain's pre-origin sentinel: 64 hex zero
// characters. It is deliberately distinct from SHA-256 of any real
// input (SHA-256 of the empty string begins "e3b0c442...").
var GenesisHash = strings.Repeat("0", 64)

// ChainedEntry wraps an AuditEntry with the chain metadata that makes
// tampering detectable: the sequence number, the predecessor's hash,
// and this entry's own hash.
type ChainedEntry struct {
	Entry          domain.AuditEntry
	PreviousHash   string
	CurrentHash    string
	SequenceNumber int
}

// AuditChain is an append-only, strictly serial hash chain. There is
// no delete or update; a correction is a new entry that supersedes an
// earlier one, with the earlier one left in place for auditability.
// Append is the sole mutator; ChainVerifier and the admin surface read
// concurrently from their own goroutines, so mu guards every access.
type AuditChain struct {
	mu *concurrency.RWLock

	entries   []ChainedEntry
	headHash  string
	secretKey []byte // nil => plain SHA-256 mode, immutable after construction
}

// NewChain creates a plain-SHA-256 chain.
func NewChain() *AuditChain {
	return &AuditChain{mu: concurrency.NewRWLock(), headHash: GenesisHash}
}

// NewKeyedChain creates an HMAC-SHA-256 chain. If key is nil, a fresh
// random 32-byte key is generated; store it securely, it is required
// for later verification and cannot be recovered from the chain.
func NewKeyedChain(key []byte) (*AuditChain, error) {
	if key == nil {
		generated, err := GenerateSecretKey()
		if err != nil {
			return nil, err
		}
		key = generated
	}
	return &AuditChain{mu: concurrency.NewRWLock(), headHash: GenesisHash, secretKey: key}, nil
}

// SecretKey returns the HMAC key, or nil in plain mode.
func (c *AuditChain) SecretKey() []byte { return c.secretKey }

// HeadHash returns the hash of the most recent entry (or genesis if
// the chain is empty).
func (c *AuditChain) HeadHash() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headHash
}

// Len returns the number of entries in the chain.
func (c *AuditChain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Append hashes and appends an entry, assigning it the next sequence
// number and advancing the head hash. The append contract is
// infallible given a valid entry: it never returns an error.
func (c *AuditChain) Append(entry domain.AuditEntry) ChainedEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	seq := len(c.entries)
	previous := c.headHash

	var current string
	if c.secretKey != nil {
		current = HMACEntry(entry, previous, c.secretKey)
	} else {
		current = HashEntry(entry, previous)
	}

	chained := ChainedEntry{
		Entry:          entry,
		PreviousHash:   previous,
		CurrentHash:    current,
		SequenceNumber: seq,
	}
	c.entries = append(c.entries, chained)
	c.headHash = current
	return chained
}

// Get retrieves a chained entry by sequence number, returning
// OutOfRange if it is not a valid index.
func (c *AuditChain) Get(sequenceNumber int) (ChainedEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if sequenceNumber < 0 || sequenceNumber >= len(c.entries) {
		return ChainedEntry{}, apperrors.OutOfRange(
			fmt.Sprintf("sequence %d out of range (chain has %d entries)", sequenceNumber, len(c.entries)))
	}
	return c.entries[sequenceNumber], nil
}

// All returns the full chain in sequence order. Callers must not
// mutate the returned slice's backing array.
func (c *AuditChain) All() []ChainedEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries
}
