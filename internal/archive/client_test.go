package archive

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catherinevee/boardmgr/internal/apperrors"
	"github.com/catherinevee/boardmgr/internal/provider"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 100, 5*time.Second)
}

func TestListCollections(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collinfo.json", r.URL.Path)
		fmt.Fprint(w, `[{"id":"CC-MAIN-2025-30","name":"July 2025"},{"id":"CC-MAIN-2025-26","name":"June 2025"}]`)
	})

	collections, err := client.ListCollections(context.Background())
	require.NoError(t, err)
	require.Len(t, collections, 2)
	assert.Equal(t, "CC-MAIN-2025-30", collections[0].ID)
}

func TestListCollectionsServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.ListCollections(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.ArchiveUnavailable))
}

func TestPageCount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/CC-MAIN-2025-30-index", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("showNumPages"))
		fmt.Fprint(w, `{"pages": 42, "pageSize": 5, "blocks": 210}`)
	})

	pages, err := client.PageCount(context.Background(), "CC-MAIN-2025-30", provider.Ashby)
	require.NoError(t, err)
	assert.Equal(t, 42, pages)
}

func TestFetchPage(t *testing.T) {
	lines := []string{
		`{"url":"https://jobs.ashbyhq.com/acme","timestamp":"20250101000000","status":"200"}`,
		`not json at all`,
		`{"url":"https://jobs.ashbyhq.com/zeta","timestamp":"20250102000000","status":"200"}`,
		``,
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "statuscode:200", q.Get("filter"))
		assert.Equal(t, "100", q.Get("pageSize"))
		assert.Equal(t, "3", q.Get("page"))
		fmt.Fprint(w, strings.Join(lines, "\n"))
	})

	result, err := client.FetchPage(context.Background(), "CC-MAIN-2025-30", provider.Ashby, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Page)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "https://jobs.ashbyhq.com/acme", result.Records[0].URL)
}

func TestFetchPageServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	result, err := client.FetchPage(context.Background(), "CC-MAIN-2025-30", provider.Ashby, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.PageFetch))
	assert.Equal(t, 0, result.Page)
}
