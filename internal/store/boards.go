package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/catherinevee/boardmgr/internal/archive"
	"github.com/catherinevee/boardmgr/internal/provider"
)

// companyUpsertSQL merges a discovered board into companies. The WHERE
// guard keeps replays and out-of-order batches from moving last_seen
// backwards; a hand-edited name is never clobbered by the derived one.
const companyUpsertSQL = `
INSERT INTO companies (key, name, website, category, score, last_seen_crawl_id, last_seen_capture_timestamp, last_seen_source_url, ats_provider)
VALUES (?, ?, ?, 'PRODUCT', 0.5, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	name = COALESCE(NULLIF(companies.name, ''), excluded.name),
	website = excluded.website,
	last_seen_crawl_id = excluded.last_seen_crawl_id,
	last_seen_capture_timestamp = excluded.last_seen_capture_timestamp,
	last_seen_source_url = excluded.last_seen_source_url,
	ats_provider = COALESCE(excluded.ats_provider, companies.ats_provider),
	updated_at = datetime('now')
WHERE excluded.last_seen_capture_timestamp >= COALESCE(companies.last_seen_capture_timestamp, '')`

// NameFromToken derives a display name from a board token: split on
// hyphens and underscores, title-case each word. All-digit tokens carry no
// name.
func NameFromToken(token string) string {
	digitsOnly := true
	for _, r := range token {
		if r < '0' || r > '9' {
			digitsOnly = false
			break
		}
	}
	if digitsOnly {
		return ""
	}

	words := strings.FieldsFunc(token, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// UpsertDiscoveredBoards merges one provider's deduplicated discoveries
// into companies. Returns the number of boards written.
func (s *Store) UpsertDiscoveredBoards(ctx context.Context, p provider.Provider, crawlID string, boards []archive.DiscoveredBoard) (int, error) {
	stmts := make([]Statement, 0, len(boards))
	for _, b := range boards {
		website := fmt.Sprintf("https://%s/%s", p.Host(), b.Token)
		stmts = append(stmts, Statement{
			SQL: companyUpsertSQL,
			Args: []interface{}{
				b.Token, NameFromToken(b.Token), website,
				crawlID, b.Timestamp, b.URL, p.String(),
			},
		})
	}
	if err := s.ExecBatch(ctx, stmts); err != nil {
		return 0, err
	}
	return len(boards), nil
}

// UnsyncedBoards returns up to limit company keys for a provider that have
// never been job-synced. Rows written before the provider column existed
// default to ashby.
func (s *Store) UnsyncedBoards(ctx context.Context, p provider.Provider, limit int) ([]string, error) {
	providerFilter := "c.ats_provider = ?"
	if p == provider.Ashby {
		providerFilter = "(c.ats_provider = ? OR c.ats_provider IS NULL)"
	}
	q := fmt.Sprintf(`
		SELECT c.key FROM companies c
		LEFT JOIN %s t ON t.%s = c.key
		WHERE %s AND t.last_synced_at IS NULL
		ORDER BY c.key LIMIT ?`,
		p.TrackerTable(), p.TrackerKeyColumn(), providerFilter)

	rows, err := s.query(ctx, q, p.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// trackerUpsertStatement marks a board synced in its provider tracker.
func trackerUpsertStatement(p provider.Provider, token string, jobCount int) Statement {
	q := fmt.Sprintf(`
		INSERT INTO %s (%s, url, first_seen, last_seen, crawl_id, last_synced_at, job_count, is_active)
		VALUES (?, ?, datetime('now'), datetime('now'), 'job-sync', datetime('now'), ?, 1)
		ON CONFLICT(%s) DO UPDATE SET
			last_synced_at = datetime('now'),
			job_count = ?,
			is_active = 1,
			updated_at = datetime('now')`,
		p.TrackerTable(), p.TrackerKeyColumn(), p.TrackerKeyColumn())
	return Statement{
		SQL:  q,
		Args: []interface{}{token, fmt.Sprintf("https://%s/%s", p.Host(), token), jobCount, jobCount},
	}
}

// companyNameStatement fills in a company's display name from provider
// data, but only when the stored name is still a placeholder: empty, the
// raw key, or the name discovery derived from the token. A hand-edited
// name stays.
func companyNameStatement(key, name string) Statement {
	if name == "" {
		return Statement{
			SQL:  `UPDATE companies SET updated_at = datetime('now') WHERE key = ?`,
			Args: []interface{}{key},
		}
	}
	return Statement{
		SQL: `UPDATE companies SET name = ?, updated_at = datetime('now')
			WHERE key = ? AND (name IS NULL OR name = '' OR name = key OR name = ?)`,
		Args: []interface{}{name, key, NameFromToken(key)},
	}
}

// Board is one company row as served by the API.
type Board struct {
	Key           string  `json:"key"`
	Name          string  `json:"name"`
	Website       string  `json:"website"`
	ATSProvider   string  `json:"ats_provider"`
	LastSeenCrawl string  `json:"last_seen_crawl_id"`
	IndustryTags  *string `json:"industry_tags"`
	TechSignals   *string `json:"tech_signals"`
	SizeSignal    *string `json:"size_signal"`
	JobCount      int     `json:"job_count"`
}

// ListBoards pages through companies, optionally filtering by a substring
// of the key or name.
func (s *Store) ListBoards(ctx context.Context, search string, limit, offset int) ([]Board, error) {
	q := `
		SELECT c.key, COALESCE(c.name, ''), COALESCE(c.website, ''),
			COALESCE(c.ats_provider, 'ashby'), COALESCE(c.last_seen_crawl_id, ''),
			c.ashby_industry_tags, c.ashby_tech_signals, c.ashby_size_signal,
			(SELECT COUNT(*) FROM jobs j WHERE j.company_key = c.key)
		FROM companies c`
	args := []interface{}{}
	if search != "" {
		q += ` WHERE c.key LIKE ? OR c.name LIKE ?`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}
	q += ` ORDER BY c.key LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []Board
	for rows.Next() {
		var b Board
		if err := rows.Scan(&b.Key, &b.Name, &b.Website, &b.ATSProvider, &b.LastSeenCrawl,
			&b.IndustryTags, &b.TechSignals, &b.SizeSignal, &b.JobCount); err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

// Stats summarises the corpus.
type Stats struct {
	Companies           int            `json:"companies"`
	Jobs                int            `json:"jobs"`
	CompaniesByProvider map[string]int `json:"companies_by_provider"`
	SyncedBoards        map[string]int `json:"synced_boards"`
	EnrichedCompanies   int            `json:"enriched_companies"`
}

// GetStats aggregates corpus counts.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	stats := Stats{
		CompaniesByProvider: map[string]int{},
		SyncedBoards:        map[string]int{},
	}

	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM companies`).Scan(&stats.Companies); err != nil {
		return stats, err
	}
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&stats.Jobs); err != nil {
		return stats, err
	}
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM companies WHERE ashby_enriched_at IS NOT NULL`).Scan(&stats.EnrichedCompanies); err != nil {
		return stats, err
	}

	rows, err := s.query(ctx, `SELECT COALESCE(ats_provider, 'ashby'), COUNT(*) FROM companies GROUP BY 1`)
	if err != nil {
		return stats, err
	}
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			rows.Close()
			return stats, err
		}
		stats.CompaniesByProvider[name] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return stats, err
	}
	rows.Close()

	for _, p := range provider.Syncable() {
		var count int
		q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE last_synced_at IS NOT NULL`, p.TrackerTable())
		if err := s.queryRow(ctx, q).Scan(&count); err != nil {
			continue
		}
		stats.SyncedBoards[p.String()] = count
	}
	return stats, nil
}
