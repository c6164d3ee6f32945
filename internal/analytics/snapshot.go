package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/j-raghavan/chronoguard-lite/internal/apperrors"
)

// snapshotPayload is the JSON-serializable form of an engine's state,
// written to Redis so a restarted process can resume estimation
// without replaying the full audit history.
type snapshotPayload struct {
	HLLPrecision     int               `json:"hll_precision"`
	DomainRegisters  map[string][]byte `json:"domain_registers"`
	CMSWidth         int               `json:"cms_width"`
	CMSDepth         int               `json:"cms_depth"`
	EntriesProcessed int               `json:"entries_processed"`
}

// SnapshotStore persists periodic Engine snapshots to Redis so that
// unique-agent estimates survive a process restart. The
// Bloom filter and Count-Min counters are not round-tripped through
// Redis (they are large and rebuild quickly from live traffic); only
// the per-domain HyperLogLog registers and processed count are saved,
// which covers the two longest-lived estimates.
type SnapshotStore struct {
	client *redis.Client
	keyPrefix string
}

// NewSnapshotStore wraps a Redis client for snapshot persistence under
// keys prefixed by keyPrefix (e.g. "chronoguard:analytics:").
func NewSnapshotStore(client *redis.Client, keyPrefix string) *SnapshotStore {
	return &SnapshotStore{client: client, keyPrefix: keyPrefix}
}

func (s *SnapshotStore) key(name string) string { return s.keyPrefix + name }

// Save serializes the engine's per-domain HyperLogLog registers and
// writes them to Redis under snapshotName with the given TTL.
func (s *SnapshotStore) Save(ctx context.Context, snapshotName string, e *Engine, ttl time.Duration) error {
	e.mu.RLock()
	registers := make(map[string][]byte, len(e.domainHLLs))
	for domainName, hll := range e.domainHLLs {
		registers[domainName] = hll.Marshal()
	}
	payload := snapshotPayload{
		HLLPrecision:     e.hllPrecision,
		DomainRegisters:  registers,
		CMSWidth:         e.cms.Width(),
		CMSDepth:         e.cms.Depth(),
		EntriesProcessed: e.entriesProcessed,
	}
	e.mu.RUnlock()
	data, err := json.Marshal(payload)
	if err != nil {
		return apperrors.IntegrityFailure("failed to marshal analytics snapshot", err.Error())
	}
	if err := s.client.Set(ctx, s.key(snapshotName), data, ttl).Err(); err != nil {
		return apperrors.Unavailable("redis snapshot write failed: " + err.Error())
	}
	return nil
}

// Load restores per-domain HyperLogLog state from a previously saved
// snapshot into a fresh Engine. Count-Min and Bloom state is not
// restored and starts cold, per Save's documented tradeoff.
func (s *SnapshotStore) Load(ctx context.Context, snapshotName string) (*Engine, error) {
	data, err := s.client.Get(ctx, s.key(snapshotName)).Bytes()
	if err == redis.Nil {
		return nil, apperrors.Unavailable("no analytics snapshot found for " + snapshotName)
	}
	if err != nil {
		return nil, apperrors.Unavailable("redis snapshot read failed: " + err.Error())
	}

	var payload snapshotPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, apperrors.IntegrityFailure("failed to unmarshal analytics snapshot", err.Error())
	}

	engine, err := NewEngine(
		WithHLLPrecision(payload.HLLPrecision),
		WithCountMinDimensions(payload.CMSWidth, payload.CMSDepth),
	)
	if err != nil {
		return nil, err
	}
	for domainName, regs := range payload.DomainRegisters {
		hll, err := UnmarshalHyperLogLog(payload.HLLPrecision, regs)
		if err != nil {
			return nil, err
		}
		engine.domainHLLs[domainName] = hll
	}
	engine.entriesProcessed = payload.EntriesProcessed
	return engine, nil
}
