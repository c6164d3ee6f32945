package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAhoCorasickExactMatch(t *testing.T) {
	ac := NewAhoCorasick()
	ac.AddPattern("api.openai.com")
	ac.Build()
	assert.ElementsMatch(t, []string{"api.openai.com"}, ac.Search("api.openai.com"))
	assert.Empty(t, ac.Search("other.openai.com"))
}

func TestAhoCorasickWildcardSegment(t *testing.T) {
	ac := NewAhoCorasick()
	ac.AddPattern("*.openai.com")
	ac.Build()
	assert.ElementsMatch(t, []string{"*.openai.com"}, ac.Search("api.openai.com"))
	assert.Empty(t, ac.Search("openai.com"))
}

func TestAhoCorasickMultiplePatternsSinglePass(t *testing.T) {
	ac := NewAhoCorasick()
	ac.AddPattern("api.openai.com")
	ac.AddPattern("*.openai.com")
	ac.AddPattern("api.anthropic.com")
	ac.Build()

	matches := ac.Search("api.openai.com")
	assert.ElementsMatch(t, []string{"api.openai.com", "*.openai.com"}, matches)

	matches = ac.Search("api.anthropic.com")
	assert.ElementsMatch(t, []string{"api.anthropic.com"}, matches)
}

func TestAhoCorasickBuildsLazilyOnSearch(t *testing.T) {
	ac := NewAhoCorasick()
	ac.AddPattern("a.b.c")
	// no explicit Build() call
	assert.ElementsMatch(t, []string{"a.b.c"}, ac.Search("a.b.c"))
}

func TestAhoCorasickFiltersCrossDepthFalseHits(t *testing.T) {
	ac := NewAhoCorasick()
	ac.AddPattern("a.b")
	ac.Build()
	assert.Empty(t, ac.Search("x.a.b"))
}

func TestAhoCorasickNodeCountGrowsWithDistinctSegments(t *testing.T) {
	ac := NewAhoCorasick()
	before := ac.NodeCount()
	ac.AddPattern("a.b.c")
	assert.Greater(t, ac.NodeCount(), before)
}

func TestAhoCorasickAgreesWithTrieAsMultiset(t *testing.T) {
	patterns := []string{"api.openai.com", "*.openai.com", "api.*.internal", "chat.openai.com"}
	domains := []string{"api.openai.com", "chat.openai.com", "web.prod.internal", "unmatched.xyz"}

	trie := NewDomainTrie()
	ac := NewAhoCorasick()
	for _, p := range patterns {
		trie.Insert(p)
		ac.AddPattern(p)
	}
	ac.Build()

	for _, d := range domains {
		assert.ElementsMatch(t, trie.Match(d), ac.Search(d), "mismatch for domain %s", d)
	}
}
