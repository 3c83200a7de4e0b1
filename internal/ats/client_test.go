package ats

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
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
	return NewClient(5*time.Second, WithURLBuilder(func(p provider.Provider, token string) string {
		return fmt.Sprintf("%s/%s/%s", srv.URL, p, token)
	}))
}

func TestFetchAshby(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ashby/acme", r.URL.Path)
		fmt.Fprint(w, `{"jobs":[{"id":"j1","title":"Platform Engineer","isRemote":true,"publishedAt":"2025-06-01T00:00:00Z","jobUrl":"https://jobs.ashbyhq.com/acme/j1"}]}`)
	})

	board, err := client.FetchAshby(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, board.Jobs, 1)
	assert.Equal(t, "Platform Engineer", board.Jobs[0].Title)
	require.NotNil(t, board.Jobs[0].IsRemote)
	assert.True(t, *board.Jobs[0].IsRemote)
}

func TestFetchNotFoundIsEmptyBoard(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	board, err := client.FetchAshby(context.Background(), "gone")
	require.NoError(t, err)
	assert.Empty(t, board.Jobs)

	postings, err := client.FetchLever(context.Background(), "gone")
	require.NoError(t, err)
	assert.Empty(t, postings)
}

func TestFetchServerErrorIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.FetchGreenhouse(context.Background(), "acme")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.ProviderUnavailable))
}

func TestFetchBadJSONIsSchemaError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>maintenance</html>`)
	})

	_, err := client.FetchWorkable(context.Background(), "acme")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.ProviderSchema))
}

func TestFetchGreenhouse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jobs":[{"id":123,"internal_job_id":456,"title":"SRE","absolute_url":"https://job-boards.greenhouse.io/acme/jobs/123?gh_jid=123","company_name":"Acme Inc","location":{"name":"Berlin"}}],"meta":{"total":1}}`)
	})

	board, err := client.FetchGreenhouse(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, board.Jobs, 1)
	assert.Equal(t, int64(123), board.Jobs[0].ID)
	assert.Equal(t, "Acme Inc", board.Jobs[0].CompanyName)
	assert.Equal(t, "Berlin", board.Jobs[0].Location.Name)
	assert.Equal(t, 1, board.Meta.Total)
}

func TestFetchWorkable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"Acme","jobs":[{"title":"Designer","shortcode":"DE1","telecommuting":true,"city":"Lisbon","country":"Portugal","published_on":"2025-05-01"}]}`)
	})

	board, err := client.FetchWorkable(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", board.Name)
	require.Len(t, board.Jobs, 1)
	assert.True(t, board.Jobs[0].Telecommuting)
}

func TestFetchLever(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"p1","text":"Backend Engineer","hostedUrl":"https://jobs.lever.co/acme/p1","createdAt":1717200000000,"categories":{"location":"Remote"}}]`)
	})

	postings, err := client.FetchLever(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, postings, 1)
	assert.Equal(t, "Backend Engineer", postings[0].Text)
	assert.Equal(t, "Remote", postings[0].Categories.Location)
}
