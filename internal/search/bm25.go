// Package search ranks the board corpus with Okapi BM25. The index is
// small enough to rebuild per query batch; no inverted-file persistence.
package search

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

const (
	k1 = 1.5
	b  = 0.75
)

// Document is one searchable board.
type Document struct {
	Key  string
	Text string
}

// Hit is one ranked result.
type Hit struct {
	Key   string  `json:"key"`
	Score float64 `json:"score"`
}

// Index is a BM25 index over a fixed document set.
type Index struct {
	keys   []string
	terms  []map[string]int
	df     map[string]int
	avgLen float64
}

// NewIndex builds an index over docs.
func NewIndex(docs []Document) *Index {
	idx := &Index{
		df: make(map[string]int),
	}
	totalLen := 0
	for _, doc := range docs {
		counts := make(map[string]int)
		tokens := Tokenize(doc.Text)
		for _, tok := range tokens {
			counts[tok]++
		}
		for term := range counts {
			idx.df[term]++
		}
		idx.keys = append(idx.keys, doc.Key)
		idx.terms = append(idx.terms, counts)
		totalLen += len(tokens)
	}
	if len(docs) > 0 {
		idx.avgLen = float64(totalLen) / float64(len(docs))
	}
	return idx
}

// Tokenize lowercases and splits on non-alphanumeric runes, dropping
// single-character tokens.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Search ranks documents against the query, returning at most topN hits
// with positive scores, best first.
func (idx *Index) Search(query string, topN int) []Hit {
	queryTerms := Tokenize(query)
	if len(queryTerms) == 0 || len(idx.keys) == 0 {
		return nil
	}

	n := float64(len(idx.keys))
	var hits []Hit
	for i, counts := range idx.terms {
		docLen := 0
		for _, c := range counts {
			docLen += c
		}

		score := 0.0
		for _, term := range queryTerms {
			tf := float64(counts[term])
			if tf == 0 {
				continue
			}
			df := float64(idx.df[term])
			idf := math.Log((n-df+0.5)/(df+0.5) + 1)
			norm := tf * (k1 + 1) / (tf + k1*(1-b+b*float64(docLen)/idx.avgLen))
			score += idf * norm
		}
		if score > 0 {
			hits = append(hits, Hit{Key: idx.keys[i], Score: score})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Key < hits[j].Key
	})
	if topN > 0 && len(hits) > topN {
		hits = hits[:topN]
	}
	return hits
}
