package analytics

import (
	"fmt"

	"github.com/j-raghavan/chronoguard-lite/internal/concurrency"
	"github.com/j-raghavan/chronoguard-lite/internal/domain"
)

const (
	defaultHLLPrecision  = 11
	defaultBloomExpected = 1_000_000
	defaultBloomFPRate   = 0.01
)

// MemoryReport breaks down approximate memory usage per component.
type MemoryReport struct {
	HyperLogLogBytes   int
	HyperLogLogDomains int
	CountMinBytes      int
	BloomBytes         int
	TotalBytes         int
}

// Engine maintains the three probabilistic structures (HyperLogLog
// per domain, one shared Count-Min Sketch, one shared Bloom filter)
// and answers common audit queries in O(1) regardless of how many
// entries have been processed. ProcessEntry is the sole mutator; the
// admin surface reads concurrently from its own goroutines, so every
// method takes mu.
type Engine struct {
	mu *concurrency.RWLock

	hllPrecision     int
	domainHLLs       map[string]*HyperLogLog
	cms              *CountMinSketch
	bloom            *BloomFilter
	entriesProcessed int
}

// EngineOption configures NewEngine.
type EngineOption func(*engineConfig)

type engineConfig struct {
	hllPrecision  int
	cmsWidth      int
	cmsDepth      int
	bloomExpected int
	bloomFPRate   float64
}

// WithHLLPrecision overrides the default HyperLogLog precision (11).
func WithHLLPrecision(p int) EngineOption {
	return func(c *engineConfig) { c.hllPrecision = p }
}

// WithCountMinDimensions overrides the default Count-Min sizing (2048x5).
func WithCountMinDimensions(width, depth int) EngineOption {
	return func(c *engineConfig) { c.cmsWidth = width; c.cmsDepth = depth }
}

// WithBloomSizing overrides the default Bloom filter sizing.
func WithBloomSizing(expected int, fpRate float64) EngineOption {
	return func(c *engineConfig) { c.bloomExpected = expected; c.bloomFPRate = fpRate }
}

// NewEngine creates an engine at the documented defaults, as used by
// the interceptor's ingestion path, overridable via options.
func NewEngine(opts ...EngineOption) (*Engine, error) {
	cfg := engineConfig{
		hllPrecision:  defaultHLLPrecision,
		cmsWidth:      defaultCountMinWidth,
		cmsDepth:      defaultCountMinDepth,
		bloomExpected: defaultBloomExpected,
		bloomFPRate:   defaultBloomFPRate,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	cms, err := NewCountMinSketch(cfg.cmsWidth, cfg.cmsDepth)
	if err != nil {
		return nil, err
	}
	bloom, err := NewBloomFilter(cfg.bloomExpected, cfg.bloomFPRate)
	if err != nil {
		return nil, err
	}

	return &Engine{
		mu:           concurrency.NewRWLock(),
		hllPrecision: cfg.hllPrecision,
		domainHLLs:   map[string]*HyperLogLog{},
		cms:          cms,
		bloom:        bloom,
	}, nil
}

// ProcessEntry updates all three structures from one audit entry.
// This is the main ingestion path; call it once per entry.
func (e *Engine) ProcessEntry(entry domain.AuditEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	agentStr := entry.AgentID.String()

	hll, ok := e.domainHLLs[entry.Domain]
	if !ok {
		hll, _ = NewHyperLogLog(e.hllPrecision)
		e.domainHLLs[entry.Domain] = hll
	}
	hll.Add(agentStr)

	e.cms.AddOne(entry.Domain)

	pairKey := fmt.Sprintf("%s:%s", agentStr, entry.Domain)
	e.bloom.Add(pairKey)

	e.entriesProcessed++
}

// UniqueAgents estimates the number of distinct agents that accessed
// domain. Returns 0 if the domain has never been seen.
func (e *Engine) UniqueAgents(domainName string) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	hll, ok := e.domainHLLs[domainName]
	if !ok {
		return 0
	}
	return hll.Count()
}

// DomainFrequency estimates how many times domain has been accessed.
// Never underestimates the true count.
func (e *Engine) DomainFrequency(domainName string) uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cms.Estimate(domainName)
}

// HasAccessed reports whether agentID has ever accessed domain. True
// may be a false positive; false is always certain.
func (e *Engine) HasAccessed(agentID, domainName string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	pairKey := fmt.Sprintf("%s:%s", agentID, domainName)
	return e.bloom.MightContain(pairKey)
}

// EntriesProcessed returns the number of entries ingested so far.
func (e *Engine) EntriesProcessed() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.entriesProcessed
}

// MemoryReport reports approximate memory usage per component.
func (e *Engine) MemoryReport() MemoryReport {
	e.mu.RLock()
	defer e.mu.RUnlock()

	hllTotal := 0
	for _, h := range e.domainHLLs {
		hllTotal += h.MemoryBytes()
	}
	cmsBytes := e.cms.MemoryBytes()
	bloomBytes := e.bloom.MemoryBytes()
	return MemoryReport{
		HyperLogLogBytes:   hllTotal,
		HyperLogLogDomains: len(e.domainHLLs),
		CountMinBytes:      cmsBytes,
		BloomBytes:         bloomBytes,
		TotalBytes:         hllTotal + cmsBytes + bloomBytes,
	}
}

// DomainNames returns every domain that has an active HyperLogLog,
// for use by the snapshot store.
func (e *Engine) DomainNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.domainHLLs))
	for name := range e.domainHLLs {
		names = append(names, name)
	}
	return names
}

// HLLFor returns the HyperLogLog for a domain, if any, for snapshotting.
func (e *Engine) HLLFor(domainName string) (*HyperLogLog, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.domainHLLs[domainName]
	return h, ok
}
