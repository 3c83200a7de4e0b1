package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/catherinevee/boardmgr/internal/apperrors"
	"github.com/catherinevee/boardmgr/internal/enrichment"
)

// EnrichmentCandidate is one company as fed into the enrichment pipeline.
type EnrichmentCandidate struct {
	Key       string
	URL       string
	Timestamp string
}

// CompanyForEnrichment loads one company by key.
func (s *Store) CompanyForEnrichment(ctx context.Context, key string) (EnrichmentCandidate, bool, error) {
	var c EnrichmentCandidate
	err := s.queryRow(ctx, `
		SELECT key, COALESCE(last_seen_source_url, ''), COALESCE(last_seen_capture_timestamp, '')
		FROM companies WHERE key = ?`, key).
		Scan(&c.Key, &c.URL, &c.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return EnrichmentCandidate{}, false, nil
	}
	if err != nil {
		return EnrichmentCandidate{}, false, err
	}
	return c, true, nil
}

// CompaniesForEnrichment returns up to limit companies that have never
// been enriched.
func (s *Store) CompaniesForEnrichment(ctx context.Context, limit int) ([]EnrichmentCandidate, error) {
	rows, err := s.query(ctx, `
		SELECT key, COALESCE(last_seen_source_url, ''), COALESCE(last_seen_capture_timestamp, '')
		FROM companies WHERE ashby_enriched_at IS NULL
		ORDER BY key LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EnrichmentCandidate
	for rows.Next() {
		var c EnrichmentCandidate
		if err := rows.Scan(&c.Key, &c.URL, &c.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveEnrichment persists a pipeline result: classification columns on the
// company row, board-shape columns on the tracker row when one exists.
func (s *Store) SaveEnrichment(ctx context.Context, key string, result enrichment.Result) error {
	const op = "store.SaveEnrichment"

	industries, err := json.Marshal(result.Metadata.Industries)
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, op, err)
	}
	tech, err := json.Marshal(result.Metadata.TechSignals)
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, op, err)
	}
	segments, err := json.Marshal(result.URLSegments)
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, op, err)
	}

	stmts := []Statement{
		{
			SQL: `UPDATE companies SET
				ashby_industry_tags = ?,
				ashby_tech_signals = ?,
				ashby_size_signal = ?,
				ashby_enriched_at = datetime('now'),
				updated_at = datetime('now')
			WHERE key = ?`,
			Args: []interface{}{string(industries), string(tech), result.Metadata.SizeSignal, key},
		},
		{
			SQL: `UPDATE ashby_boards SET
				normalized_slug = ?,
				url_segments = ?,
				has_job_postings = ?,
				recency_score = ?,
				enriched_at = datetime('now'),
				updated_at = datetime('now')
			WHERE slug = ?`,
			Args: []interface{}{result.NormalizedSlug, string(segments), result.HasJobPostings, result.RecencyScore, key},
		},
	}
	return s.ExecBatch(ctx, stmts)
}
