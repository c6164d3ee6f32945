package store

import (
	"sort"
	"sync"

	"github.com/j-raghavan/chronoguard-lite/internal/apperrors"
	"github.com/j-raghavan/chronoguard-lite/internal/domain"
)

// methodEncoding maps the fixed HTTP verb vocabulary to a single byte.
// An unrecognized verb maps to the reserved byte 0 (GET) on append and
// decodes back to "GET" -- the original vocabulary has no "unknown"
// sentinel string, so round-tripping an unrecognized verb is lossy by
// design, matching the source implementation.
var methodEncoding = map[string]uint8{
	"GET": 0, "POST": 1, "PUT": 2, "DELETE": 3,
	"PATCH": 4, "HEAD": 5, "OPTIONS": 6,
}

var methodDecoding = map[uint8]string{
	0: "GET", 1: "POST", 2: "PUT", 3: "DELETE",
	4: "PATCH", 5: "HEAD", 6: "OPTIONS",
}

// ColumnarAuditStore is a struct-of-arrays store. Appends must be
// chronologically non-decreasing; range queries use binary search on
// the contiguous timestamp column instead of a linear scan.
type ColumnarAuditStore struct {
	mu sync.RWMutex

	timestamps []float64
	agentIDs   [][16]byte
	domains    []string
	decisions  []uint8
	reasons    []string
	policyIDs  []*[16]byte
	ruleIDs    []*[16]byte
	entryIDs   [][16]byte
	methods    []uint8
	paths      []string
	sourceIPs  []string
	latencies  []float32
	count      int
}

// NewColumnarAuditStore creates an empty store.
func NewColumnarAuditStore() *ColumnarAuditStore {
	return &ColumnarAuditStore{}
}

// Append decomposes entry into the column arrays. Returns OutOfOrder
// if entry.Timestamp is strictly less than the last appended
// timestamp; ties are allowed and preserve insertion order.
//
// Append is the store's sole mutator; it and every query method below
// take s.mu so the interceptor's flush goroutine can append
// concurrently with ingest-loop and admin-surface reads.
func (s *ColumnarAuditStore) Append(entry domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := entry.Timestamp
	if s.count > 0 && ts < s.timestamps[s.count-1] {
		return apperrors.OutOfOrder(ts, s.timestamps[s.count-1])
	}

	s.timestamps = append(s.timestamps, ts)
	s.agentIDs = append(s.agentIDs, [16]byte(entry.AgentID))
	s.domains = append(s.domains, entry.Domain)
	s.decisions = append(s.decisions, uint8(entry.Decision))
	s.reasons = append(s.reasons, entry.Reason)
	s.policyIDs = append(s.policyIDs, toUUIDPointer(entry.PolicyID))
	s.ruleIDs = append(s.ruleIDs, toUUIDPointer(entry.RuleID))
	s.entryIDs = append(s.entryIDs, [16]byte(entry.EntryID))
	if code, ok := methodEncoding[entry.RequestMethod]; ok {
		s.methods = append(s.methods, code)
	} else {
		s.methods = append(s.methods, 0)
	}
	s.paths = append(s.paths, entry.RequestPath)
	s.sourceIPs = append(s.sourceIPs, entry.SourceIP)
	s.latencies = append(s.latencies, float32(entry.ProcessingTimeMs))
	s.count++
	return nil
}

func toUUIDPointer(id *domain.PolicyId) *[16]byte {
	if id == nil {
		return nil
	}
	b := [16]byte(*id)
	return &b
}

// QueryTimeRange returns entries whose timestamp falls in [start, end]
// via two binary searches on the timestamp column: O(log n + k).
func (s *ColumnarAuditStore) QueryTimeRange(start, end float64) []domain.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	left := sort.Search(s.count, func(i int) bool { return s.timestamps[i] >= start })
	right := sort.Search(s.count, func(i int) bool { return s.timestamps[i] > end })
	result := make([]domain.AuditEntry, 0, right-left)
	for i := left; i < right; i++ {
		result = append(result, s.reconstruct(i))
	}
	return result
}

// QueryByAgent linearly scans the agent_ids column.
func (s *ColumnarAuditStore) QueryByAgent(agentID domain.AgentId) []domain.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	target := [16]byte(agentID)
	var result []domain.AuditEntry
	for i := 0; i < s.count; i++ {
		if s.agentIDs[i] == target {
			result = append(result, s.reconstruct(i))
		}
	}
	return result
}

// QueryByDomain linearly scans the domains column.
func (s *ColumnarAuditStore) QueryByDomain(domainName domain.DomainName) []domain.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.AuditEntry
	for i := 0; i < s.count; i++ {
		if s.domains[i] == domainName {
			result = append(result, s.reconstruct(i))
		}
	}
	return result
}

// QueryByDecision scans the contiguous decisions byte column.
func (s *ColumnarAuditStore) QueryByDecision(decision domain.AccessDecision) []domain.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val := uint8(decision)
	var result []domain.AuditEntry
	for i := 0; i < s.count; i++ {
		if s.decisions[i] == val {
			result = append(result, s.reconstruct(i))
		}
	}
	return result
}

// Count returns the number of appended entries.
func (s *ColumnarAuditStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

func (s *ColumnarAuditStore) reconstruct(idx int) domain.AuditEntry {
	var policyID *domain.PolicyId
	if b := s.policyIDs[idx]; b != nil {
		id := domain.PolicyId(*b)
		policyID = &id
	}
	var ruleID *domain.RuleId
	if b := s.ruleIDs[idx]; b != nil {
		id := domain.RuleId(*b)
		ruleID = &id
	}
	method, ok := methodDecoding[s.methods[idx]]
	if !ok {
		method = "GET"
	}
	return domain.AuditEntry{
		EntryID:          domain.EntryId(s.entryIDs[idx]),
		AgentID:          domain.AgentId(s.agentIDs[idx]),
		Domain:           s.domains[idx],
		Decision:         domain.AccessDecision(s.decisions[idx]),
		Timestamp:        s.timestamps[idx],
		Reason:           s.reasons[idx],
		PolicyID:         policyID,
		RuleID:           ruleID,
		RequestMethod:    method,
		RequestPath:      s.paths[idx],
		SourceIP:         s.sourceIPs[idx],
		ProcessingTimeMs: float64(s.latencies[idx]),
	}
}

// MemoryUsageBytes approximates the store's in-memory footprint,
// useful for the admin surface's diagnostics endpoint.
func (s *ColumnarAuditStore) MemoryUsageBytes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.timestamps)*8 + len(s.decisions) + len(s.methods) + len(s.latencies)*4
	total += len(s.agentIDs)*16 + len(s.entryIDs)*16
	for _, p := range s.policyIDs {
		if p != nil {
			total += 16
		}
	}
	for _, r := range s.ruleIDs {
		if r != nil {
			total += 16
		}
	}
	for _, d := range s.domains {
		total += len(d)
	}
	for _, r := range s.reasons {
		total += len(r)
	}
	for _, p := range s.paths {
		total += len(p)
	}
	for _, ip := range s.sourceIPs {
		total += len(ip)
	}
	return total
}
