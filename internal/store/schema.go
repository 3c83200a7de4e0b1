package store

// baseSchema is the original table layout. Everything added since lives in
// the ordered migration list (migrations.go); on a fresh database the base
// schema plus all migrations produce the current layout.
const baseSchema = `
CREATE TABLE IF NOT EXISTS companies (
	key TEXT PRIMARY KEY,
	name TEXT,
	website TEXT,
	category TEXT,
	score REAL,
	last_seen_crawl_id TEXT,
	last_seen_capture_timestamp TEXT,
	last_seen_source_url TEXT,
	created_at TEXT DEFAULT (datetime('now')),
	updated_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS jobs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	company_key TEXT NOT NULL,
	provider TEXT,
	external_id TEXT,
	title TEXT,
	url TEXT,
	description TEXT,
	location TEXT,
	workplace_type TEXT,
	employment_type TEXT,
	department TEXT,
	team TEXT,
	categories TEXT,
	ashby_secondary_locations TEXT,
	ashby_compensation TEXT,
	ashby_address TEXT,
	ashby_is_remote INTEGER,
	ashby_is_listed INTEGER,
	posted_at TEXT,
	ats_created_at TEXT,
	first_published TEXT,
	created_at TEXT DEFAULT (datetime('now')),
	updated_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_jobs_company_key ON jobs(company_key);

CREATE TABLE IF NOT EXISTS ashby_boards (
	slug TEXT PRIMARY KEY,
	url TEXT,
	first_seen TEXT,
	last_seen TEXT,
	crawl_id TEXT,
	created_at TEXT DEFAULT (datetime('now')),
	updated_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS crawl_progress (
	crawl_id TEXT PRIMARY KEY,
	current_page INTEGER DEFAULT 0,
	total_pages INTEGER DEFAULT 0,
	boards_found INTEGER DEFAULT 0,
	status TEXT DEFAULT 'running',
	started_at TEXT DEFAULT (datetime('now')),
	finished_at TEXT,
	updated_at TEXT DEFAULT (datetime('now'))
);
`
