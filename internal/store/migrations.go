package store

import (
	"context"
	"strings"

	"github.com/catherinevee/boardmgr/internal/apperrors"
	"github.com/catherinevee/boardmgr/internal/logger"
)

type migration struct {
	name string
	sql  string
}

// migrations is the forward-only list, applied in this exact order. Names
// are not sorted before running; the list order is the history. Individual
// statement failures are swallowed so that re-shaped databases (a column
// that already exists, a table created by an older build) converge instead
// of wedging.
var migrations = []migration{
	{
		name: "0002_enrichment",
		sql: `
ALTER TABLE ashby_boards ADD COLUMN normalized_slug TEXT;
ALTER TABLE ashby_boards ADD COLUMN url_segments TEXT;
ALTER TABLE ashby_boards ADD COLUMN has_job_postings INTEGER;
ALTER TABLE ashby_boards ADD COLUMN recency_score REAL;
ALTER TABLE ashby_boards ADD COLUMN enriched_at TEXT;
`,
	},
	{
		name: "0005_companies_ashby_enrichment",
		sql: `
ALTER TABLE companies ADD COLUMN ashby_industry_tags TEXT;
ALTER TABLE companies ADD COLUMN ashby_tech_signals TEXT;
ALTER TABLE companies ADD COLUMN ashby_size_signal TEXT;
ALTER TABLE companies ADD COLUMN ashby_enriched_at TEXT;
`,
	},
	{
		name: "0003_jobs_external_id_unique",
		sql: `
CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_external_id ON jobs(external_id);
`,
	},
	{
		name: "0004_ashby_boards_sync",
		sql: `
ALTER TABLE ashby_boards ADD COLUMN last_synced_at TEXT;
ALTER TABLE ashby_boards ADD COLUMN job_count INTEGER;
ALTER TABLE ashby_boards ADD COLUMN is_active INTEGER;
`,
	},
	{
		name: "0006_dedup_and_unique_external_id",
		sql: `
DELETE FROM jobs WHERE id NOT IN (SELECT MIN(id) FROM jobs GROUP BY external_id);
DROP INDEX IF EXISTS idx_jobs_external_id;
CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_external_id ON jobs(external_id);
`,
	},
	{
		name: "0007_greenhouse_boards",
		sql: `
CREATE TABLE IF NOT EXISTS greenhouse_boards (
	board_token TEXT PRIMARY KEY,
	url TEXT,
	first_seen TEXT,
	last_seen TEXT,
	crawl_id TEXT,
	last_synced_at TEXT,
	job_count INTEGER,
	is_active INTEGER,
	created_at TEXT DEFAULT (datetime('now')),
	updated_at TEXT DEFAULT (datetime('now'))
);
ALTER TABLE companies ADD COLUMN ats_provider TEXT DEFAULT 'ashby';
ALTER TABLE jobs ADD COLUMN absolute_url TEXT;
ALTER TABLE jobs ADD COLUMN internal_job_id INTEGER;
ALTER TABLE jobs ADD COLUMN requisition_id TEXT;
ALTER TABLE jobs ADD COLUMN departments TEXT;
ALTER TABLE jobs ADD COLUMN offices TEXT;
ALTER TABLE jobs ADD COLUMN metadata TEXT;
ALTER TABLE jobs ADD COLUMN data_compliance TEXT;
`,
	},
	{
		name: "0008_gh_external_id_to_url",
		sql: `
UPDATE jobs SET external_id = absolute_url WHERE provider = 'greenhouse' AND absolute_url IS NOT NULL AND absolute_url != '';
`,
	},
	{
		name: "0011_workable_boards",
		sql: `
CREATE TABLE IF NOT EXISTS workable_boards (
	shortcode TEXT PRIMARY KEY,
	url TEXT,
	first_seen TEXT,
	last_seen TEXT,
	crawl_id TEXT,
	last_synced_at TEXT,
	job_count INTEGER,
	is_active INTEGER,
	created_at TEXT DEFAULT (datetime('now')),
	updated_at TEXT DEFAULT (datetime('now'))
);
`,
	},
	{
		name: "0010_strip_querystring_from_external_id",
		sql: `
DELETE FROM jobs WHERE provider = 'greenhouse' AND instr(external_id, '?') > 0 AND substr(external_id, 1, instr(external_id, '?') - 1) IN (SELECT external_id FROM jobs);
UPDATE jobs SET external_id = substr(external_id, 1, instr(external_id, '?') - 1) WHERE provider = 'greenhouse' AND instr(external_id, '?') > 0;
`,
	},
	{
		name: "0012_lever_boards",
		sql: `
CREATE TABLE IF NOT EXISTS lever_boards (
	site TEXT PRIMARY KEY,
	url TEXT,
	first_seen TEXT,
	last_seen TEXT,
	crawl_id TEXT,
	last_synced_at TEXT,
	job_count INTEGER,
	is_active INTEGER,
	created_at TEXT DEFAULT (datetime('now')),
	updated_at TEXT DEFAULT (datetime('now'))
);
ALTER TABLE jobs ADD COLUMN opening TEXT;
ALTER TABLE jobs ADD COLUMN opening_plain TEXT;
ALTER TABLE jobs ADD COLUMN description_body TEXT;
ALTER TABLE jobs ADD COLUMN description_body_plain TEXT;
ALTER TABLE jobs ADD COLUMN additional TEXT;
ALTER TABLE jobs ADD COLUMN additional_plain TEXT;
ALTER TABLE jobs ADD COLUMN lists TEXT;
`,
	},
}

// Migrate applies every unapplied migration in list order. The
// _migrations insert is the commit fence: a migration is retried on the
// next run until its name lands in the table.
func (s *Store) Migrate(ctx context.Context) error {
	const op = "store.Migrate"

	if _, err := s.exec(ctx, `CREATE TABLE IF NOT EXISTS _migrations (
		name TEXT PRIMARY KEY,
		applied_at TEXT DEFAULT (datetime('now'))
	)`); err != nil {
		return apperrors.Wrap(apperrors.Upsert, op, err)
	}

	for _, m := range migrations {
		var applied int
		err := s.queryRow(ctx, `SELECT COUNT(*) FROM _migrations WHERE name = ?`, m.name).Scan(&applied)
		if err != nil {
			return apperrors.Wrap(apperrors.Upsert, op, err)
		}
		if applied > 0 {
			continue
		}

		for _, stmt := range strings.Split(m.sql, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := s.exec(ctx, stmt); err != nil {
				s.log.Debug("migration statement skipped",
					logger.String("migration", m.name),
					logger.Error(err))
			}
		}

		if _, err := s.exec(ctx, `INSERT OR IGNORE INTO _migrations (name) VALUES (?)`, m.name); err != nil {
			return apperrors.Wrap(apperrors.Upsert, op, err)
		}
		s.log.Info("migration applied", logger.String("migration", m.name))
	}
	return nil
}

// AppliedMigrations returns the names recorded in _migrations.
func (s *Store) AppliedMigrations(ctx context.Context) ([]string, error) {
	rows, err := s.query(ctx, `SELECT name FROM _migrations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
