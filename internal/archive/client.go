package archive

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/catherinevee/boardmgr/internal/apperrors"
	"github.com/catherinevee/boardmgr/internal/logger"
	"github.com/catherinevee/boardmgr/internal/provider"
)

// maxParseWarningsPerPage caps how many malformed index lines are logged
// for a single page.
const maxParseWarningsPerPage = 3

// Client queries the CDX index. Requests are rate-limited to stay polite
// with the shared index servers.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     logger.Logger
}

// NewClient creates an index client.
func NewClient(baseURL string, requestsPerSecond float64, timeout time.Duration) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		log:     logger.New("archive"),
	}
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.http.Do(req)
}

// ListCollections returns the available crawl collections, newest first.
func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	const op = "archive.ListCollections"
	resp, err := c.get(ctx, c.baseURL+"/collinfo.json")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ArchiveUnavailable, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.ArchiveUnavailable, op, "status %d", resp.StatusCode)
	}

	var collections []Collection
	if err := json.NewDecoder(resp.Body).Decode(&collections); err != nil {
		return nil, apperrors.Wrap(apperrors.ArchiveUnavailable, op, err)
	}
	return collections, nil
}

// PageCount returns how many index pages exist for a provider's board URL
// pattern in the given collection.
func (c *Client) PageCount(ctx context.Context, collection string, p provider.Provider) (int, error) {
	const op = "archive.PageCount"
	url := fmt.Sprintf("%s/%s-index?url=%s&output=json&showNumPages=true",
		c.baseURL, collection, p.ArchivePattern())

	resp, err := c.get(ctx, url)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ArchiveUnavailable, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, apperrors.New(apperrors.ArchiveUnavailable, op, "status %d for %s/%s", resp.StatusCode, collection, p)
	}

	var body struct {
		Pages int `json:"pages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, apperrors.Wrap(apperrors.ArchiveUnavailable, op, err)
	}
	return body.Pages, nil
}

// FetchPage fetches one NDJSON index page. Lines that fail to decode are
// skipped; only the first few per page are logged.
func (c *Client) FetchPage(ctx context.Context, collection string, p provider.Provider, page int) (PageResult, error) {
	const op = "archive.FetchPage"
	url := fmt.Sprintf("%s/%s-index?url=%s&output=json&filter=statuscode:200&pageSize=100&page=%d",
		c.baseURL, collection, p.ArchivePattern(), page)

	resp, err := c.get(ctx, url)
	if err != nil {
		return PageResult{Page: page}, apperrors.Wrap(apperrors.PageFetch, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return PageResult{Page: page}, apperrors.New(apperrors.PageFetch, op, "status %d for %s/%s page %d", resp.StatusCode, collection, p, page)
	}

	var records []CdxRecord
	parseErrors := 0
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec CdxRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			parseErrors++
			if parseErrors <= maxParseWarningsPerPage {
				c.log.Warn("skipping malformed index line",
					logger.String("collection", collection),
					logger.String("provider", p.String()),
					logger.Int("page", page),
					logger.Error(apperrors.Wrap(apperrors.CdxParse, op, err)))
			}
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return PageResult{Page: page}, apperrors.Wrap(apperrors.PageFetch, op, err)
	}

	if parseErrors > maxParseWarningsPerPage {
		c.log.Warn("malformed index lines suppressed",
			logger.Int("page", page),
			logger.Int("total", parseErrors))
	}
	return PageResult{Page: page, Records: records}, nil
}
