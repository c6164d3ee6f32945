// Package cryptochain implements the canonical encoder, the plain and
// keyed digests built on it, the append-only hash chain, and its
// verifier.
package cryptochain

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"

	"github.com/j-raghavan/chronoguard-lite/internal/domain"
)

// noneSentinel marks an absent optional UUID field in the canonical
// encoding: a single NUL byte, never a valid length-prefixed 16-byte
// field (whose length prefix is 16, not 1).
var noneSentinel = []byte{0x00}

// lengthPrefixed appends a 4-byte big-endian length followed by the
// payload itself. Composing length-prefixed fields in a fixed order
// makes the overall encoding a total-order injective map: no two
// distinct (entry, previousHash) pairs can produce equal bytes.
func lengthPrefixed(buf []byte, payload []byte) []byte {
	var lenBytes [4]byte
	binary.BigEndian.PutUint32(lenBytes[:], uint32(len(payload)))
	buf = append(buf, lenBytes[:]...)
	buf = append(buf, payload...)
	return buf
}

func formatFloat(f float64) []byte {
	return []byte(strconv.FormatFloat(f, 'g', -1, 64))
}

func optionalUUIDBytes(id *domain.PolicyId) []byte {
	if id == nil {
		return noneSentinel
	}
	b := [16]byte(*id)
	return b[:]
}

// Canonicalize produces the deterministic byte encoding of entry and
// previousHash. Field order: entry_id, agent_id, domain, decision
// name, timestamp, reason, policy_id, rule_id, method, path,
// source_ip, processing_time_ms, previous_hash.
func Canonicalize(entry domain.AuditEntry, previousHash string) []byte {
	buf := make([]byte, 0, 256)

	entryIDBytes := [16]byte(entry.EntryID)
	agentIDBytes := [16]byte(entry.AgentID)

	buf = lengthPrefixed(buf, entryIDBytes[:])
	buf = lengthPrefixed(buf, agentIDBytes[:])
	buf = lengthPrefixed(buf, []byte(entry.Domain))
	buf = lengthPrefixed(buf, []byte(entry.Decision.String()))
	buf = lengthPrefixed(buf, formatFloat(entry.Timestamp))
	buf = lengthPrefixed(buf, []byte(entry.Reason))
	buf = lengthPrefixed(buf, optionalUUIDBytes(entry.PolicyID))
	buf = lengthPrefixed(buf, optionalUUIDBytes(entry.RuleID))
	buf = lengthPrefixed(buf, []byte(entry.RequestMethod))
	buf = lengthPrefixed(buf, []byte(entry.RequestPath))
	buf = lengthPrefixed(buf, []byte(entry.SourceIP))
	buf = lengthPrefixed(buf, formatFloat(entry.ProcessingTimeMs))
	buf = lengthPrefixed(buf, []byte(previousHash))

	return buf
}

// HashEntry returns the 64-character lowercase hex SHA-256 digest of
// the canonical encoding.
func HashEntry(entry domain.AuditEntry, previousHash string) string {
	sum := sha256.Sum256(Canonicalize(entry, previousHash))
	return hex.EncodeToString(sum[:])
}

// HMACEntry returns the 64-character lowercase hex HMAC-SHA-256 digest
// of the canonical encoding, keyed by key.
func HMACEntry(entry domain.AuditEntry, previousHash string, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(Canonicalize(entry, previousHash))
	return hex.EncodeToString(mac.Sum(nil))
}

// GenerateSecretKey draws a fresh 32-byte key from a cryptographic
// source. Once a chain has used a key, it must not change for the
// life of that chain -- doing so invalidates all later verification.
func GenerateSecretKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
