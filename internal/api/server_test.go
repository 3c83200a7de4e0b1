package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catherinevee/boardmgr/internal/archive"
	"github.com/catherinevee/boardmgr/internal/ats"
	"github.com/catherinevee/boardmgr/internal/orchestrator"
	"github.com/catherinevee/boardmgr/internal/provider"
	"github.com/catherinevee/boardmgr/internal/store"
)

type stubArchive struct {
	collections []archive.Collection
}

func (a *stubArchive) ListCollections(ctx context.Context) ([]archive.Collection, error) {
	return a.collections, nil
}

func (a *stubArchive) PageCount(ctx context.Context, collection string, p provider.Provider) (int, error) {
	return 0, nil
}

func (a *stubArchive) FetchPage(ctx context.Context, collection string, p provider.Provider, page int) (archive.PageResult, error) {
	return archive.PageResult{Page: page}, nil
}

type stubBoards struct{}

func (stubBoards) FetchAshby(ctx context.Context, slug string) (*ats.AshbyBoard, error) {
	return &ats.AshbyBoard{Jobs: []ats.AshbyJob{{Title: "Engineer", JobURL: "https://jobs.ashbyhq.com/" + slug + "/j1"}}}, nil
}

func (stubBoards) FetchGreenhouse(ctx context.Context, token string) (*ats.GreenhouseBoard, error) {
	return &ats.GreenhouseBoard{}, nil
}

func (stubBoards) FetchWorkable(ctx context.Context, shortcode string) (*ats.WorkableBoard, error) {
	return &ats.WorkableBoard{}, nil
}

func (stubBoards) FetchLever(ctx context.Context, site string) ([]ats.LeverPosting, error) {
	return []ats.LeverPosting{}, nil
}

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))

	arch := &stubArchive{collections: []archive.Collection{{ID: "CC-MAIN-2025-30", Name: "July 2025"}}}
	srv := New(s, arch, stubBoards{}, orchestrator.Options{
		PagesPerProvider:   3,
		BoardsPerProvider:  10,
		SyncConcurrency:    2,
		FallbackCollection: "CC-MAIN-FALLBACK",
	})
	return srv, s
}

func doRequest(t *testing.T, srv *Server, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func seedCompany(t *testing.T, s *store.Store, p provider.Provider, token string) {
	t.Helper()
	_, err := s.UpsertDiscoveredBoards(context.Background(), p, "c1", []archive.DiscoveredBoard{
		{Token: token, URL: "https://" + p.Host() + "/" + token, Timestamp: "20250101000000"},
	})
	require.NoError(t, err)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec, env := doRequest(t, srv, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.OK)
}

func TestBoardsAndStats(t *testing.T) {
	srv, s := newTestServer(t)
	seedCompany(t, s, provider.Ashby, "acme")
	seedCompany(t, s, provider.Greenhouse, "zeta")

	rec, env := doRequest(t, srv, http.MethodGet, "/boards?search=acm")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.OK)
	boards, ok := env.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, boards, 1)

	_, env = doRequest(t, srv, http.MethodGet, "/stats")
	require.True(t, env.OK)
	stats := env.Data.(map[string]interface{})
	assert.EqualValues(t, 2, stats["companies"])
}

func TestSyncJobsEndpoint(t *testing.T) {
	srv, s := newTestServer(t)
	seedCompany(t, s, provider.Ashby, "acme")

	rec, env := doRequest(t, srv, http.MethodGet, "/sync-jobs?provider=ashby&limit=5&concurrency=2")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.OK)
	report := env.Data.(map[string]interface{})
	assert.EqualValues(t, 1, report["boards_synced"])
	assert.EqualValues(t, 1, report["jobs_upserted"])
}

func TestSyncJobsRejectsUnknownProvider(t *testing.T) {
	srv, _ := newTestServer(t)
	rec, env := doRequest(t, srv, http.MethodGet, "/sync-jobs?provider=taleo")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.OK)
	assert.NotEmpty(t, env.Error)
}

func TestCrawlEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rec, env := doRequest(t, srv, http.MethodGet, "/crawl?pages_per_run=1")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.OK)
	report := env.Data.(map[string]interface{})
	assert.Equal(t, "CC-MAIN-2025-30", report["collection"])
}

func TestCrawlProviderFilter(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, env := doRequest(t, srv, http.MethodGet, "/crawl?pages_per_run=1&provider=greenhouse")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.OK)
	report := env.Data.(map[string]interface{})
	providers := report["providers"].(map[string]interface{})
	require.Len(t, providers, 1)
	assert.Contains(t, providers, "greenhouse")

	rec, env = doRequest(t, srv, http.MethodGet, "/crawl?provider=taleo")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.OK)
}

func TestBatchEndpointsRejectOverlap(t *testing.T) {
	srv, _ := newTestServer(t)
	require.True(t, srv.batchSem.TryAcquire())

	rec, env := doRequest(t, srv, http.MethodGet, "/crawl?pages_per_run=1")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.OK)

	rec, _ = doRequest(t, srv, http.MethodGet, "/sync-jobs?provider=ashby")
	assert.Equal(t, http.StatusConflict, rec.Code)

	srv.batchSem.Release()
	rec, _ = doRequest(t, srv, http.MethodGet, "/crawl?pages_per_run=1")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProgressEndpoints(t *testing.T) {
	srv, s := newTestServer(t)
	require.NoError(t, s.SaveProgress(context.Background(), store.Progress{
		CrawlID: "CC-MAIN-2025-30:ashby", TotalPages: 10, Status: store.StatusRunning,
	}))

	_, env := doRequest(t, srv, http.MethodGet, "/progress")
	require.True(t, env.OK)
	cursors := env.Data.([]interface{})
	assert.Len(t, cursors, 1)

	_, env = doRequest(t, srv, http.MethodDelete, "/progress?crawl_id=CC-MAIN-2025-30:ashby")
	require.True(t, env.OK)

	_, env = doRequest(t, srv, http.MethodGet, "/progress")
	require.True(t, env.OK)
	assert.Nil(t, env.Data)

	rec, env := doRequest(t, srv, http.MethodDelete, "/progress")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.OK)
}

func TestIndexesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	_, env := doRequest(t, srv, http.MethodGet, "/indexes")
	require.True(t, env.OK)
	collections := env.Data.([]interface{})
	require.Len(t, collections, 1)
}

func TestEnrichEndpoints(t *testing.T) {
	srv, s := newTestServer(t)
	seedCompany(t, s, provider.Ashby, "healthpay")

	rec, env := doRequest(t, srv, http.MethodGet, "/enrich?slug=healthpay")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.OK)

	var tags string
	require.NoError(t, s.DB().QueryRow(`SELECT ashby_industry_tags FROM companies WHERE key = 'healthpay'`).Scan(&tags))
	assert.Contains(t, tags, "healthtech")
	assert.Contains(t, tags, "fintech")

	rec, env = doRequest(t, srv, http.MethodGet, "/enrich?slug=missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.OK)

	rec, env = doRequest(t, srv, http.MethodGet, "/enrich")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.OK)
}

func TestEnrichFailureSavesNothing(t *testing.T) {
	srv, s := newTestServer(t)
	// No capture timestamp, so the pipeline aborts at recency scoring.
	_, err := s.UpsertDiscoveredBoards(context.Background(), provider.Ashby, "c1", []archive.DiscoveredBoard{
		{Token: "acme", URL: "https://jobs.ashbyhq.com/acme", Timestamp: ""},
	})
	require.NoError(t, err)

	rec, env := doRequest(t, srv, http.MethodGet, "/enrich?slug=acme")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.False(t, env.OK)
	assert.Contains(t, env.Error, "score_recency")

	var enrichedAt *string
	require.NoError(t, s.DB().QueryRow(`SELECT ashby_enriched_at FROM companies WHERE key = 'acme'`).Scan(&enrichedAt))
	assert.Nil(t, enrichedAt)

	_, env = doRequest(t, srv, http.MethodGet, "/enrich-all?limit=10")
	require.True(t, env.OK)
	data := env.Data.(map[string]interface{})
	assert.EqualValues(t, 0, data["enriched"])
	assert.EqualValues(t, 1, data["failed"])
}

func TestEnrichAllEndpoint(t *testing.T) {
	srv, s := newTestServer(t)
	seedCompany(t, s, provider.Ashby, "acme")
	seedCompany(t, s, provider.Ashby, "payco")

	_, env := doRequest(t, srv, http.MethodGet, "/enrich-all?limit=10")
	require.True(t, env.OK)
	data := env.Data.(map[string]interface{})
	assert.EqualValues(t, 2, data["enriched"])

	industries := data["industries"].(map[string]interface{})
	assert.EqualValues(t, 1, industries["fintech"])

	// Already-enriched companies drop out of the candidate set.
	_, env = doRequest(t, srv, http.MethodGet, "/enrich-all?limit=10")
	require.True(t, env.OK)
	data = env.Data.(map[string]interface{})
	assert.EqualValues(t, 0, data["enriched"])
}

func TestSearchEndpoint(t *testing.T) {
	srv, s := newTestServer(t)
	seedCompany(t, s, provider.Ashby, "acme-payments")
	seedCompany(t, s, provider.Ashby, "zeta")

	_, env := doRequest(t, srv, http.MethodGet, "/search?q=payments&top_n=5")
	require.True(t, env.OK)
	data := env.Data.(map[string]interface{})
	hits := data["hits"].([]interface{})
	require.Len(t, hits, 1)
	hit := hits[0].(map[string]interface{})
	assert.Equal(t, "acme-payments", hit["key"])

	rec, env := doRequest(t, srv, http.MethodGet, "/search")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.OK)
}
