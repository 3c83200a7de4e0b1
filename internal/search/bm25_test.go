package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corpus() []Document {
	return []Document{
		{Key: "acme-ai", Text: "acme ai Acme Ai ai-ml machine learning platform ashby"},
		{Key: "payflow", Text: "payflow Payflow fintech payments infrastructure greenhouse"},
		{Key: "healthbase", Text: "healthbase Healthbase healthtech clinical data workable"},
		{Key: "zeta", Text: "zeta Zeta general ashby"},
	}
}

func TestSearchRanksRelevantFirst(t *testing.T) {
	idx := NewIndex(corpus())

	hits := idx.Search("fintech payments", 10)
	require.NotEmpty(t, hits)
	assert.Equal(t, "payflow", hits[0].Key)

	hits = idx.Search("machine learning", 10)
	require.NotEmpty(t, hits)
	assert.Equal(t, "acme-ai", hits[0].Key)
}

func TestSearchFiltersZeroScores(t *testing.T) {
	idx := NewIndex(corpus())

	hits := idx.Search("kubernetes", 10)
	assert.Empty(t, hits)
}

func TestSearchTruncates(t *testing.T) {
	idx := NewIndex(corpus())

	hits := idx.Search("ashby", 1)
	assert.Len(t, hits, 1)
}

func TestSearchEmptyQuery(t *testing.T) {
	idx := NewIndex(corpus())
	assert.Empty(t, idx.Search("", 5))
	assert.Empty(t, idx.Search("a", 5))
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := NewIndex(nil)
	assert.Empty(t, idx.Search("anything", 5))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"acme", "labs", "ai", "ml"}, Tokenize("Acme-Labs ai/ml"))
	assert.Empty(t, Tokenize("a b c"))
}
