// Package search implements a field-scoped inverted index over audit
// entries and a small query grammar ("field:value AND field:value")
// for combining lookups, plus a naive brute-force scanner used to
// cross-check the index's results.
package search

import (
	"sort"
	"strings"

	"github.com/j-raghavan/chronoguard-lite/internal/domain"
)

const (
	fieldDomain   = "domain"
	fieldAgentID  = "agent_id"
	fieldDecision = "decision"
	fieldReason   = "reason"
)

const reasonTrimCutset = ".,;:!?()[]"

// InvertedIndex maps, per field, a term to the set of entry indices
// containing it. Domain is tokenized by "." (plus the full domain
// string, for exact match); agent_id is the full UUID string;
// decision is the enum name; reason is tokenized by whitespace,
// lowercased, with surrounding punctuation stripped. Entry indices
// are 0-based and match insertion order. Querying is O(k) in the
// smallest posting list touched, the speedup over a linear scan.
type InvertedIndex struct {
	postings   map[string]map[string]map[int]struct{}
	timestamps []float64
	count      int
}

// NewInvertedIndex creates an empty index.
func NewInvertedIndex() *InvertedIndex {
	return &InvertedIndex{
		postings: map[string]map[string]map[int]struct{}{
			fieldDomain:   {},
			fieldAgentID:  {},
			fieldDecision: {},
			fieldReason:   {},
		},
	}
}

// EntryCount returns the number of entries indexed.
func (idx *InvertedIndex) EntryCount() int { return idx.count }

// AddEntry indexes entry at the next sequential index (self.count).
func (idx *InvertedIndex) AddEntry(entry domain.AuditEntry) {
	i := idx.count

	for _, token := range strings.Split(entry.Domain, ".") {
		idx.post(fieldDomain, strings.ToLower(token), i)
	}
	idx.post(fieldDomain, strings.ToLower(entry.Domain), i)

	idx.post(fieldAgentID, entry.AgentID.String(), i)

	idx.post(fieldDecision, entry.Decision.String(), i)

	for _, word := range strings.Fields(entry.Reason) {
		w := strings.Trim(strings.ToLower(word), reasonTrimCutset)
		if w == "" {
			continue
		}
		idx.post(fieldReason, w, i)
	}

	idx.timestamps = append(idx.timestamps, entry.Timestamp)
	idx.count++
}

func (idx *InvertedIndex) post(field, term string, i int) {
	posting := idx.postings[field]
	set, ok := posting[term]
	if !ok {
		set = map[int]struct{}{}
		posting[term] = set
	}
	set[i] = struct{}{}
}

// SearchField looks up a single term in a single field. field and
// term are matched case-insensitively (decision terms are upper-cased
// to match the stored enum names; everything else is lower-cased).
// Returns an empty, non-nil set if the field or term is unknown.
func (idx *InvertedIndex) SearchField(field, term string) map[int]struct{} {
	fieldLower := strings.ToLower(field)
	if fieldLower == fieldDecision {
		term = strings.ToUpper(term)
	} else {
		term = strings.ToLower(term)
	}
	posting, ok := idx.postings[fieldLower]
	if !ok {
		return map[int]struct{}{}
	}
	set, ok := posting[term]
	if !ok {
		return map[int]struct{}{}
	}
	out := make(map[int]struct{}, len(set))
	for k := range set {
		out[k] = struct{}{}
	}
	return out
}

// FieldValueClause is one field:value pair in an AND query.
type FieldValueClause struct {
	Field string
	Value string
}

// SearchAnd intersects posting lists for several (field, term)
// clauses, smallest list first, short-circuiting to empty as soon as
// any clause's list (or the running intersection) is empty.
func (idx *InvertedIndex) SearchAnd(clauses []FieldValueClause) map[int]struct{} {
	if len(clauses) == 0 {
		return map[int]struct{}{}
	}

	lists := make([]map[int]struct{}, 0, len(clauses))
	for _, c := range clauses {
		s := idx.SearchField(c.Field, c.Value)
		if len(s) == 0 {
			return map[int]struct{}{}
		}
		lists = append(lists, s)
	}
	sort.Slice(lists, func(i, j int) bool { return len(lists[i]) < len(lists[j]) })

	result := lists[0]
	for _, other := range lists[1:] {
		next := map[int]struct{}{}
		for k := range result {
			if _, ok := other[k]; ok {
				next[k] = struct{}{}
			}
		}
		result = next
		if len(result) == 0 {
			return map[int]struct{}{}
		}
	}
	return result
}

// SearchTimeRange returns entry indices whose timestamp falls in
// [start, end], via a linear scan (entries are stored in insertion
// order, not necessarily timestamp order).
func (idx *InvertedIndex) SearchTimeRange(start, end float64) map[int]struct{} {
	result := map[int]struct{}{}
	for i, ts := range idx.timestamps {
		if ts >= start && ts <= end {
			result[i] = struct{}{}
		}
	}
	return result
}

// TermCount returns the number of distinct terms indexed for field.
func (idx *InvertedIndex) TermCount(field string) int {
	return len(idx.postings[field])
}

// MemoryEstimateBytes approximates the posting lists' footprint using
// the same rough per-entry overhead constants as a reference scripting
// runtime's set/dict implementation, to make results comparable.
func (idx *InvertedIndex) MemoryEstimateBytes() int {
	total := 0
	for _, fieldPostings := range idx.postings {
		total += len(fieldPostings) * 64
		for _, set := range fieldPostings {
			total += len(set) * 28
		}
	}
	total += len(idx.timestamps) * 8
	return total
}
