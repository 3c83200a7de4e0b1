package ats

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/catherinevee/boardmgr/internal/apperrors"
	"github.com/catherinevee/boardmgr/internal/logger"
	"github.com/catherinevee/boardmgr/internal/provider"
)

// Client fetches provider board APIs. Board URL templates come from the
// provider registry; override baseURL only in tests.
type Client struct {
	http   *http.Client
	log    logger.Logger
	urlFor func(p provider.Provider, token string) string
}

// Option configures a Client.
type Option func(*Client)

// WithURLBuilder overrides board URL construction. Used by tests to point
// at a local server.
func WithURLBuilder(f func(p provider.Provider, token string) string) Option {
	return func(c *Client) { c.urlFor = f }
}

// NewClient creates a provider API client.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		http: &http.Client{Timeout: timeout},
		log:  logger.New("ats"),
		urlFor: func(p provider.Provider, token string) string {
			return p.BoardURL(token)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// fetch performs the shared request cycle: 404 means an empty board (the
// token exists in the archive but the board is gone), any other non-200 is
// a provider outage, and a decode failure is a schema mismatch. Returns
// (body, found, err); found is false on 404.
func (c *Client) fetch(ctx context.Context, p provider.Provider, token string) ([]byte, bool, error) {
	const op = "ats.fetch"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.urlFor(p, token), nil)
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.ProviderUnavailable, op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.ProviderUnavailable, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.log.Debug("board not found",
			logger.String("provider", p.String()),
			logger.String("token", token))
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, apperrors.New(apperrors.ProviderUnavailable, op,
			"status %d for %s board %q", resp.StatusCode, p, token)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.ProviderUnavailable, op, err)
	}
	return body, true, nil
}

// FetchAshby fetches an Ashby board by slug.
func (c *Client) FetchAshby(ctx context.Context, slug string) (*AshbyBoard, error) {
	body, found, err := c.fetch(ctx, provider.Ashby, slug)
	if err != nil {
		return nil, err
	}
	if !found {
		return &AshbyBoard{}, nil
	}
	var board AshbyBoard
	if err := json.Unmarshal(body, &board); err != nil {
		return nil, apperrors.Wrap(apperrors.ProviderSchema, "ats.FetchAshby", err)
	}
	return &board, nil
}

// FetchGreenhouse fetches a Greenhouse board by token.
func (c *Client) FetchGreenhouse(ctx context.Context, token string) (*GreenhouseBoard, error) {
	body, found, err := c.fetch(ctx, provider.Greenhouse, token)
	if err != nil {
		return nil, err
	}
	if !found {
		return &GreenhouseBoard{}, nil
	}
	var board GreenhouseBoard
	if err := json.Unmarshal(body, &board); err != nil {
		return nil, apperrors.Wrap(apperrors.ProviderSchema, "ats.FetchGreenhouse", err)
	}
	return &board, nil
}

// FetchWorkable fetches a Workable account by shortcode.
func (c *Client) FetchWorkable(ctx context.Context, shortcode string) (*WorkableBoard, error) {
	body, found, err := c.fetch(ctx, provider.Workable, shortcode)
	if err != nil {
		return nil, err
	}
	if !found {
		return &WorkableBoard{}, nil
	}
	var board WorkableBoard
	if err := json.Unmarshal(body, &board); err != nil {
		return nil, apperrors.Wrap(apperrors.ProviderSchema, "ats.FetchWorkable", err)
	}
	return &board, nil
}

// FetchLever fetches Lever postings by site.
func (c *Client) FetchLever(ctx context.Context, site string) ([]LeverPosting, error) {
	body, found, err := c.fetch(ctx, provider.Lever, site)
	if err != nil {
		return nil, err
	}
	if !found {
		return []LeverPosting{}, nil
	}
	var postings []LeverPosting
	if err := json.Unmarshal(body, &postings); err != nil {
		return nil, apperrors.Wrap(apperrors.ProviderSchema, "ats.FetchLever", err)
	}
	return postings, nil
}
