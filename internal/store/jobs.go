package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/catherinevee/boardmgr/internal/ats"
	"github.com/catherinevee/boardmgr/internal/logger"
	"github.com/catherinevee/boardmgr/internal/provider"
)

// ashbyJobUpsertSQL normalises one Ashby posting. external_id is the
// canonical posting URL, so replays and re-crawls land on the same row.
// Empty strings are folded to NULL on the way in; COALESCE on the way out
// keeps an older non-null value when a re-sync arrives without one.
const ashbyJobUpsertSQL = `
INSERT INTO jobs (company_key, provider, external_id, title, url, description, location,
	workplace_type, employment_type, department, team, categories,
	ashby_secondary_locations, ashby_compensation, ashby_address, ashby_is_remote, ashby_is_listed,
	posted_at, ats_created_at, first_published)
VALUES (?, 'ashby', ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''),
	NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''),
	?, ?, ?, ?, ?,
	COALESCE(NULLIF(?, ''), datetime('now')), NULLIF(?, ''), NULLIF(?, ''))
ON CONFLICT(external_id) DO UPDATE SET
	title = excluded.title,
	url = excluded.url,
	description = COALESCE(excluded.description, description),
	location = COALESCE(excluded.location, location),
	workplace_type = COALESCE(excluded.workplace_type, workplace_type),
	employment_type = COALESCE(excluded.employment_type, employment_type),
	department = COALESCE(excluded.department, department),
	team = COALESCE(excluded.team, team),
	categories = COALESCE(excluded.categories, categories),
	ashby_secondary_locations = COALESCE(excluded.ashby_secondary_locations, ashby_secondary_locations),
	ashby_compensation = COALESCE(excluded.ashby_compensation, ashby_compensation),
	ashby_address = COALESCE(excluded.ashby_address, ashby_address),
	ashby_is_remote = COALESCE(excluded.ashby_is_remote, ashby_is_remote),
	ashby_is_listed = COALESCE(excluded.ashby_is_listed, ashby_is_listed),
	posted_at = COALESCE(excluded.posted_at, posted_at),
	ats_created_at = COALESCE(excluded.ats_created_at, ats_created_at),
	first_published = COALESCE(excluded.first_published, first_published),
	updated_at = datetime('now')`

// UpsertAshbyJobs writes one Ashby board's postings and marks the board
// synced. The board title backfills the company display name. Returns the
// number of postings written.
func (s *Store) UpsertAshbyJobs(ctx context.Context, slug string, board *ats.AshbyBoard) (int, error) {
	stmts := make([]Statement, 0, len(board.Jobs)+2)
	for _, job := range board.Jobs {
		url := job.JobURL
		if url == "" {
			url = job.ApplyURL
		}
		if url == "" {
			s.log.Warn("posting dropped: no url",
				logger.String("provider", "ashby"),
				logger.String("token", slug),
				logger.String("posting_id", job.ID))
			continue
		}

		description := job.DescriptionHTML
		if description == "" {
			description = job.DescriptionPlain
		}
		location := job.LocationName
		if location == "" {
			location = job.Location
		}

		var workplaceType string
		if job.IsRemote != nil {
			if *job.IsRemote {
				workplaceType = "remote"
			} else {
				workplaceType = "office"
			}
		}

		categories := jsonObject(map[string]interface{}{
			"department":   job.Department,
			"team":         job.Team,
			"location":     location,
			"allLocations": rawString(job.AllLocations),
		})

		stmts = append(stmts, Statement{
			SQL: ashbyJobUpsertSQL,
			Args: []interface{}{
				slug, url, job.Title, url, description, location,
				workplaceType, job.EmploymentType, job.Department, job.Team, categories,
				rawString(job.SecondaryLocations), rawString(job.Compensation), rawString(job.Address),
				boolColumn(job.IsRemote), boolColumn(job.IsListed),
				job.PublishedAt, job.PublishedAt, job.PublishedAt,
			},
		})
	}
	count := len(stmts)
	stmts = append(stmts, trackerUpsertStatement(provider.Ashby, slug, count))
	stmts = append(stmts, companyNameStatement(slug, board.Title))

	if err := s.ExecBatch(ctx, stmts); err != nil {
		return 0, err
	}
	return count, nil
}

const greenhouseJobUpsertSQL = `
INSERT INTO jobs (company_key, provider, external_id, title, url, absolute_url, internal_job_id,
	requisition_id, description, location, departments, offices, metadata, data_compliance,
	posted_at, ats_created_at, first_published)
VALUES (?, 'greenhouse', ?, ?, ?, ?, ?,
	NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?, ?,
	COALESCE(NULLIF(?, ''), datetime('now')), NULLIF(?, ''), NULLIF(?, ''))
ON CONFLICT(external_id) DO UPDATE SET
	title = excluded.title,
	url = excluded.url,
	absolute_url = excluded.absolute_url,
	internal_job_id = excluded.internal_job_id,
	requisition_id = COALESCE(excluded.requisition_id, requisition_id),
	description = COALESCE(excluded.description, description),
	location = COALESCE(excluded.location, location),
	departments = COALESCE(excluded.departments, departments),
	offices = COALESCE(excluded.offices, offices),
	metadata = COALESCE(excluded.metadata, metadata),
	data_compliance = COALESCE(excluded.data_compliance, data_compliance),
	posted_at = COALESCE(excluded.posted_at, posted_at),
	ats_created_at = COALESCE(excluded.ats_created_at, ats_created_at),
	first_published = COALESCE(excluded.first_published, first_published),
	updated_at = datetime('now')`

// StripQuery removes the query string from a URL.
func StripQuery(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}

// UpsertGreenhouseJobs writes one Greenhouse board's postings. The company
// display name is backfilled from the posting payload when the stored name
// is still the derived placeholder.
func (s *Store) UpsertGreenhouseJobs(ctx context.Context, token string, board *ats.GreenhouseBoard) (int, error) {
	stmts := make([]Statement, 0, len(board.Jobs)+2)
	companyName := ""
	for _, job := range board.Jobs {
		if job.AbsoluteURL == "" {
			s.log.Warn("posting dropped: no url",
				logger.String("provider", "greenhouse"),
				logger.String("token", token),
				logger.Int64("posting_id", job.ID))
			continue
		}
		if companyName == "" {
			companyName = job.CompanyName
		}
		externalID := StripQuery(job.AbsoluteURL)

		stmts = append(stmts, Statement{
			SQL: greenhouseJobUpsertSQL,
			Args: []interface{}{
				token, externalID, job.Title, job.AbsoluteURL, job.AbsoluteURL, job.InternalJobID,
				job.RequisitionID, job.Content, job.Location.Name,
				rawString(job.Departments), rawString(job.Offices),
				rawString(job.Metadata), rawString(job.DataCompliance),
				job.FirstPublished, job.UpdatedAt, job.FirstPublished,
			},
		})
	}
	count := len(stmts)
	stmts = append(stmts, trackerUpsertStatement(provider.Greenhouse, token, count))
	stmts = append(stmts, companyNameStatement(token, companyName))

	if err := s.ExecBatch(ctx, stmts); err != nil {
		return 0, err
	}
	return count, nil
}

const workableJobUpsertSQL = `
INSERT INTO jobs (company_key, provider, external_id, title, url, description, location,
	workplace_type, employment_type, department, categories,
	posted_at, ats_created_at, first_published)
VALUES (?, 'workable', ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''),
	NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''),
	COALESCE(NULLIF(?, ''), datetime('now')), NULLIF(?, ''), NULLIF(?, ''))
ON CONFLICT(external_id) DO UPDATE SET
	title = excluded.title,
	url = excluded.url,
	description = COALESCE(excluded.description, description),
	location = COALESCE(excluded.location, location),
	workplace_type = COALESCE(excluded.workplace_type, workplace_type),
	employment_type = COALESCE(excluded.employment_type, employment_type),
	department = COALESCE(excluded.department, department),
	categories = COALESCE(excluded.categories, categories),
	posted_at = COALESCE(excluded.posted_at, posted_at),
	ats_created_at = COALESCE(excluded.ats_created_at, ats_created_at),
	first_published = COALESCE(excluded.first_published, first_published),
	updated_at = datetime('now')`

// UpsertWorkableJobs writes one Workable account's postings. The account
// display name backfills the company row.
func (s *Store) UpsertWorkableJobs(ctx context.Context, shortcode string, board *ats.WorkableBoard) (int, error) {
	stmts := make([]Statement, 0, len(board.Jobs)+2)
	for _, job := range board.Jobs {
		if job.URL == "" {
			s.log.Warn("posting dropped: no url",
				logger.String("provider", "workable"),
				logger.String("token", shortcode),
				logger.String("posting_id", job.Shortcode))
			continue
		}

		location := job.City
		if job.Country != "" {
			if location != "" {
				location += ", "
			}
			location += job.Country
		}

		workplaceType := "on-site"
		if job.Telecommuting {
			workplaceType = "remote"
		}

		categories := jsonObject(map[string]interface{}{
			"employment_type": job.EmploymentType,
			"experience":      job.Experience,
			"function":        job.Function,
			"industry":        job.Industry,
			"education":       job.Education,
		})

		posted := job.PublishedOn
		if posted == "" {
			posted = job.CreatedAt
		}

		stmts = append(stmts, Statement{
			SQL: workableJobUpsertSQL,
			Args: []interface{}{
				shortcode, job.URL, job.Title, job.URL, "", location,
				workplaceType, job.EmploymentType, job.Department, categories,
				posted, job.CreatedAt, posted,
			},
		})
	}
	count := len(stmts)
	stmts = append(stmts, trackerUpsertStatement(provider.Workable, shortcode, count))
	stmts = append(stmts, companyNameStatement(shortcode, board.Name))

	if err := s.ExecBatch(ctx, stmts); err != nil {
		return 0, err
	}
	return count, nil
}

const leverJobUpsertSQL = `
INSERT INTO jobs (company_key, provider, external_id, title, url, description, location,
	workplace_type, employment_type, department, team, categories,
	opening, opening_plain, description_body, description_body_plain, additional, additional_plain, lists,
	posted_at, ats_created_at, first_published)
VALUES (?, 'lever', ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''),
	NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''),
	NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?,
	COALESCE(NULLIF(?, ''), datetime('now')), NULLIF(?, ''), NULLIF(?, ''))
ON CONFLICT(external_id) DO UPDATE SET
	title = excluded.title,
	url = excluded.url,
	description = COALESCE(excluded.description, description),
	location = COALESCE(excluded.location, location),
	workplace_type = COALESCE(excluded.workplace_type, workplace_type),
	employment_type = COALESCE(excluded.employment_type, employment_type),
	department = COALESCE(excluded.department, department),
	team = COALESCE(excluded.team, team),
	categories = COALESCE(excluded.categories, categories),
	opening = COALESCE(excluded.opening, opening),
	opening_plain = COALESCE(excluded.opening_plain, opening_plain),
	description_body = COALESCE(excluded.description_body, description_body),
	description_body_plain = COALESCE(excluded.description_body_plain, description_body_plain),
	additional = COALESCE(excluded.additional, additional),
	additional_plain = COALESCE(excluded.additional_plain, additional_plain),
	lists = COALESCE(excluded.lists, lists),
	posted_at = COALESCE(excluded.posted_at, posted_at),
	ats_created_at = COALESCE(excluded.ats_created_at, ats_created_at),
	first_published = COALESCE(excluded.first_published, first_published),
	updated_at = datetime('now')`

// UpsertLeverJobs writes one Lever site's postings. Lever's postings API
// carries no account name, so the company name falls back to the one
// derived from the site token.
func (s *Store) UpsertLeverJobs(ctx context.Context, site string, postings []ats.LeverPosting) (int, error) {
	stmts := make([]Statement, 0, len(postings)+2)
	for _, posting := range postings {
		if posting.HostedURL == "" {
			s.log.Warn("posting dropped: no url",
				logger.String("provider", "lever"),
				logger.String("token", site),
				logger.String("posting_id", posting.ID))
			continue
		}

		created := ""
		if posting.CreatedAt > 0 {
			created = time.UnixMilli(posting.CreatedAt).UTC().Format(time.RFC3339)
		}

		categories := jsonObject(map[string]interface{}{
			"commitment": posting.Categories.Commitment,
			"department": posting.Categories.Department,
			"location":   posting.Categories.Location,
			"team":       posting.Categories.Team,
		})

		stmts = append(stmts, Statement{
			SQL: leverJobUpsertSQL,
			Args: []interface{}{
				site, posting.HostedURL, posting.Text, posting.HostedURL,
				posting.DescriptionPlain, posting.Categories.Location,
				posting.WorkplaceType, posting.Categories.Commitment,
				posting.Categories.Department, posting.Categories.Team, categories,
				posting.Opening, posting.OpeningPlain,
				posting.DescriptionBody, posting.DescriptionPlain,
				posting.Additional, posting.AdditionalPlain, rawString(posting.Lists),
				created, created, created,
			},
		})
	}
	count := len(stmts)
	stmts = append(stmts, trackerUpsertStatement(provider.Lever, site, count))
	stmts = append(stmts, companyNameStatement(site, NameFromToken(site)))

	if err := s.ExecBatch(ctx, stmts); err != nil {
		return 0, err
	}
	return count, nil
}

// jsonObject marshals a map for a TEXT column; nil on failure.
func jsonObject(m map[string]interface{}) interface{} {
	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return string(data)
}

// rawString converts a raw JSON blob to a TEXT value, nil when absent.
func rawString(raw json.RawMessage) interface{} {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return string(raw)
}

// boolColumn maps an optional bool onto 0/1/NULL.
func boolColumn(b *bool) interface{} {
	if b == nil {
		return nil
	}
	if *b {
		return 1
	}
	return 0
}
