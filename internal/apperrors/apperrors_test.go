package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(Upsert, "store.UpsertBoards", nil))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "direct",
			err:  New(PageFetch, "archive.FetchPage", "page %d", 3),
			want: PageFetch,
		},
		{
			name: "wrapped with fmt",
			err:  fmt.Errorf("batch: %w", New(ProviderUnavailable, "ats.Fetch", "status 503")),
			want: ProviderUnavailable,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: Internal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := Wrap(CdxParse, "archive.decode", errors.New("unexpected EOF"))
	require.Error(t, err)
	assert.Equal(t, "archive.decode: cdx_parse: unexpected EOF", err.Error())
	assert.True(t, IsKind(err, CdxParse))
	assert.False(t, IsKind(err, PageFetch))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(Upsert, "store.flush", cause)
	assert.True(t, errors.Is(err, cause))
}
