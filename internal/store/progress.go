package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/catherinevee/boardmgr/internal/apperrors"
)

// Progress states.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusError   = "error"
)

// Progress is one discovery cursor, keyed "{collection}:{provider}".
type Progress struct {
	CrawlID     string  `json:"crawl_id"`
	CurrentPage int     `json:"current_page"`
	TotalPages  int     `json:"total_pages"`
	BoardsFound int     `json:"boards_found"`
	Status      string  `json:"status"`
	StartedAt   string  `json:"started_at"`
	FinishedAt  *string `json:"finished_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// SaveProgress upserts a cursor. finished_at is stamped only when the
// status transitions to done.
func (s *Store) SaveProgress(ctx context.Context, p Progress) error {
	_, err := s.exec(ctx, `
		INSERT INTO crawl_progress (crawl_id, current_page, total_pages, boards_found, status, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, datetime('now'), datetime('now'))
		ON CONFLICT(crawl_id) DO UPDATE SET
			current_page = excluded.current_page,
			total_pages = excluded.total_pages,
			boards_found = excluded.boards_found,
			status = excluded.status,
			finished_at = CASE WHEN excluded.status = 'done' THEN datetime('now') ELSE finished_at END,
			updated_at = datetime('now')`,
		p.CrawlID, p.CurrentPage, p.TotalPages, p.BoardsFound, p.Status)
	return apperrors.Wrap(apperrors.Upsert, "store.SaveProgress", err)
}

// GetProgress loads a cursor; found is false when none exists.
func (s *Store) GetProgress(ctx context.Context, crawlID string) (Progress, bool, error) {
	var p Progress
	err := s.queryRow(ctx, `
		SELECT crawl_id, current_page, total_pages, boards_found, status, started_at, finished_at, updated_at
		FROM crawl_progress WHERE crawl_id = ?`, crawlID).
		Scan(&p.CrawlID, &p.CurrentPage, &p.TotalPages, &p.BoardsFound, &p.Status, &p.StartedAt, &p.FinishedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Progress{}, false, nil
	}
	if err != nil {
		return Progress{}, false, err
	}
	return p, true, nil
}

// ListProgress returns every cursor, most recently updated first.
func (s *Store) ListProgress(ctx context.Context) ([]Progress, error) {
	rows, err := s.query(ctx, `
		SELECT crawl_id, current_page, total_pages, boards_found, status, started_at, finished_at, updated_at
		FROM crawl_progress ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Progress
	for rows.Next() {
		var p Progress
		if err := rows.Scan(&p.CrawlID, &p.CurrentPage, &p.TotalPages, &p.BoardsFound, &p.Status, &p.StartedAt, &p.FinishedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteProgress removes a cursor so the next batch restarts that
// collection/provider pair from page zero.
func (s *Store) DeleteProgress(ctx context.Context, crawlID string) (bool, error) {
	res, err := s.exec(ctx, `DELETE FROM crawl_progress WHERE crawl_id = ?`, crawlID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
