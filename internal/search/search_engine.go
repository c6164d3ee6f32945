package search

import (
	"sort"
	"strconv"
	"strings"

	"github.com/j-raghavan/chronoguard-lite/internal/apperrors"
	"github.com/j-raghavan/chronoguard-lite/internal/concurrency"
	"github.com/j-raghavan/chronoguard-lite/internal/domain"
)

type clause struct {
	field string
	value string
}

// Engine wraps an InvertedIndex with a small query language:
// "field:value [AND field:value ...]", where one clause may be
// "time:start-end" for a timestamp range. Clauses are ANDed together.
// IndexEntry is the sole mutator; the admin surface searches
// concurrently from its own goroutines, so every method takes mu.
type Engine struct {
	mu *concurrency.RWLock

	index   *InvertedIndex
	entries []domain.AuditEntry
}

// NewEngine creates an empty search engine.
func NewEngine() *Engine {
	return &Engine{mu: concurrency.NewRWLock(), index: NewInvertedIndex()}
}

// EntryCount returns the number of entries indexed.
func (e *Engine) EntryCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index.EntryCount()
}

// IndexEntry adds an entry to the search index.
func (e *Engine) IndexEntry(entry domain.AuditEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.index.AddEntry(entry)
	e.entries = append(e.entries, entry)
}

// Search parses and executes a query, returning matching entry
// indices in ascending order.
func (e *Engine) Search(query string) ([]int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.searchLocked(query)
}

func (e *Engine) searchLocked(query string) ([]int, error) {
	clauses, err := e.parse(query)
	if err != nil {
		return nil, err
	}
	if len(clauses) == 0 {
		return []int{}, nil
	}

	var fieldClauses []FieldValueClause
	var timeSets []map[int]struct{}

	for _, c := range clauses {
		if c.field == "time" {
			start, end, err := parseTimeRange(c.value)
			if err != nil {
				return nil, err
			}
			timeSets = append(timeSets, e.index.SearchTimeRange(start, end))
			continue
		}
		fieldClauses = append(fieldClauses, FieldValueClause{Field: c.field, Value: c.value})
	}

	var result map[int]struct{}
	switch {
	case len(fieldClauses) > 0:
		result = e.index.SearchAnd(fieldClauses)
	case len(timeSets) > 0:
		result = timeSets[0]
		timeSets = timeSets[1:]
	default:
		return []int{}, nil
	}

	for _, ts := range timeSets {
		next := map[int]struct{}{}
		for k := range result {
			if _, ok := ts[k]; ok {
				next[k] = struct{}{}
			}
		}
		result = next
		if len(result) == 0 {
			return []int{}, nil
		}
	}

	out := make([]int, 0, len(result))
	for k := range result {
		out = append(out, k)
	}
	sort.Ints(out)
	return out, nil
}

// SearchEntries searches and returns the matching AuditEntry values.
func (e *Engine) SearchEntries(query string) ([]domain.AuditEntry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	indices, err := e.searchLocked(query)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AuditEntry, 0, len(indices))
	for _, i := range indices {
		out = append(out, e.entries[i])
	}
	return out, nil
}

// parse splits query on " AND " (case-sensitive), then each clause on
// the first ":" into field and value.
func (e *Engine) parse(query string) ([]clause, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	parts := strings.Split(query, " AND ")
	clauses := make([]clause, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		idx := strings.Index(part, ":")
		if idx < 0 {
			return nil, apperrors.QueryParseError(part)
		}
		field := strings.TrimSpace(part[:idx])
		value := strings.TrimSpace(part[idx+1:])
		if field == "" || value == "" {
			return nil, apperrors.QueryParseError(part)
		}
		clauses = append(clauses, clause{field: field, value: value})
	}
	return clauses, nil
}

func parseTimeRange(value string) (start, end float64, err error) {
	parts := strings.SplitN(value, "-", 2)
	if len(parts) != 2 {
		return 0, 0, apperrors.QueryParseError("time:" + value)
	}
	start, errStart := strconv.ParseFloat(parts[0], 64)
	end, errEnd := strconv.ParseFloat(parts[1], 64)
	if errStart != nil || errEnd != nil {
		return 0, 0, apperrors.QueryParseError("time:" + value)
	}
	return start, end, nil
}

// NaiveSearch is a brute-force linear scan over all indexed entries,
// for benchmarking against Search's inverted-index path.
func (e *Engine) NaiveSearch(query string) ([]int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	clauses, err := e.parse(query)
	if err != nil {
		return nil, err
	}
	if len(clauses) == 0 {
		return []int{}, nil
	}

	var results []int
	for i, entry := range e.entries {
		ok, err := entryMatchesAll(entry, clauses)
		if err != nil {
			return nil, err
		}
		if ok {
			results = append(results, i)
		}
	}
	if results == nil {
		results = []int{}
	}
	return results, nil
}

func entryMatchesAll(entry domain.AuditEntry, clauses []clause) (bool, error) {
	for _, c := range clauses {
		switch c.field {
		case "domain":
			if !strings.Contains(strings.ToLower(entry.Domain), strings.ToLower(c.value)) {
				return false, nil
			}
		case "agent_id":
			if !strings.Contains(entry.AgentID.String(), c.value) {
				return false, nil
			}
		case "decision":
			if strings.ToUpper(c.value) != entry.Decision.String() {
				return false, nil
			}
		case "reason":
			if !strings.Contains(strings.ToLower(entry.Reason), strings.ToLower(c.value)) {
				return false, nil
			}
		case "time":
			start, end, err := parseTimeRange(c.value)
			if err != nil {
				return false, err
			}
			if entry.Timestamp < start || entry.Timestamp > end {
				return false, nil
			}
		default:
			return false, nil
		}
	}
	return true, nil
}
