package store

import (
	"context"
	"strings"

	"github.com/catherinevee/boardmgr/internal/search"
)

// SearchDocuments flattens the corpus for BM25: the board token, the
// display name, enrichment tags, captured URL segments, and the provider
// name all become searchable text.
func (s *Store) SearchDocuments(ctx context.Context) ([]search.Document, error) {
	rows, err := s.query(ctx, `
		SELECT c.key, COALESCE(c.name, ''), COALESCE(c.ashby_industry_tags, ''),
			COALESCE(c.ats_provider, 'ashby'), COALESCE(b.url_segments, '')
		FROM companies c
		LEFT JOIN ashby_boards b ON b.slug = c.key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []search.Document
	for rows.Next() {
		var key, name, tags, atsProvider, segments string
		if err := rows.Scan(&key, &name, &tags, &atsProvider, &segments); err != nil {
			return nil, err
		}
		text := strings.Join([]string{
			strings.NewReplacer("-", " ", "_", " ").Replace(key),
			name,
			tags,
			segments,
			atsProvider,
		}, " ")
		docs = append(docs, search.Document{Key: key, Text: text})
	}
	return docs, rows.Err()
}
