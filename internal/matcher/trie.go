// Package matcher implements two cooperative structures for matching
// a domain name against a set of dot-segment wildcard patterns: a
// reversed-segment trie (one domain against many patterns, O(depth)
// per lookup) and a segment-level multi-pattern automaton modeled on
// Aho-Corasick (single-pass multi-pattern matching). Both must agree
// with each other and with a naive scan, as multisets, for every
// (pattern set, domain) pair.
package matcher

import "strings"

// trieNode is one node of the reversed-segment trie. children maps a
// segment string (or the literal "*") to the next node; patterns
// holds the original pattern strings terminating exactly here.
type trieNode struct {
	children map[string]*trieNode
	patterns []string
}

func newTrieNode() *trieNode {
	return &trieNode{children: map[string]*trieNode{}}
}

// DomainTrie matches patterns like "api.openai.com", "*.openai.com",
// "api.*.internal", or "*.*.internal" against a domain. Each "*"
// matches exactly one segment -- no globstar semantics.
type DomainTrie struct {
	root         *trieNode
	patternCount int
}

// NewDomainTrie creates an empty trie.
func NewDomainTrie() *DomainTrie {
	return &DomainTrie{root: newTrieNode()}
}

// PatternCount returns the number of patterns inserted.
func (t *DomainTrie) PatternCount() int { return t.patternCount }

// Insert adds a pattern, split on "." and reversed so the TLD comes
// first, sharing the common suffix across patterns.
func (t *DomainTrie) Insert(pattern string) {
	segments := strings.Split(pattern, ".")
	reverseStrings(segments)
	node := t.root
	for _, seg := range segments {
		child, ok := node.children[seg]
		if !ok {
			child = newTrieNode()
			node.children[seg] = child
		}
		node = child
	}
	node.patterns = append(node.patterns, pattern)
	t.patternCount++
}

// Match returns every pattern matching domain, walking both the
// literal-segment child and the "*" child at each depth.
func (t *DomainTrie) Match(domain string) []string {
	segments := strings.Split(domain, ".")
	reverseStrings(segments)
	var results []string
	t.walk(t.root, segments, 0, &results)
	return results
}

func (t *DomainTrie) walk(node *trieNode, segments []string, depth int, results *[]string) {
	if depth == len(segments) {
		*results = append(*results, node.patterns...)
		return
	}
	seg := segments[depth]
	if child, ok := node.children[seg]; ok {
		t.walk(child, segments, depth+1, results)
	}
	if wild, ok := node.children["*"]; ok {
		t.walk(wild, segments, depth+1, results)
	}
}

// NodeCount counts the trie's nodes, for memory diagnostics.
func (t *DomainTrie) NodeCount() int {
	count := 0
	stack := []*trieNode{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		for _, child := range n.children {
			stack = append(stack, child)
		}
	}
	return count
}

func reverseStrings(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
