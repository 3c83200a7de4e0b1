package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catherinevee/boardmgr/internal/apperrors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Provider
		wantErr bool
	}{
		{name: "ashby", input: "ashby", want: Ashby},
		{name: "mixed case", input: "AshBy", want: Ashby},
		{name: "greenhouse", input: "greenhouse", want: Greenhouse},
		{name: "greenhouse alias", input: "gh", want: Greenhouse},
		{name: "workable", input: "workable", want: Workable},
		{name: "lever", input: "lever", want: Lever},
		{name: "lever alias", input: "lv", want: Lever},
		{name: "padded", input: "  workable ", want: Workable},
		{name: "unknown", input: "taleo", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsKind(err, apperrors.InvalidProvider))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllIsDiscoveryRotation(t *testing.T) {
	assert.Equal(t, []Provider{Ashby, Greenhouse, Workable}, All())
	assert.Contains(t, Syncable(), Lever)
}

func TestHosts(t *testing.T) {
	assert.Equal(t, "jobs.ashbyhq.com", Ashby.Host())
	assert.Equal(t, "job-boards.greenhouse.io", Greenhouse.Host())
	assert.Equal(t, "apply.workable.com", Workable.Host())
	assert.Equal(t, "jobs.lever.co", Lever.Host())
}

func TestArchivePattern(t *testing.T) {
	assert.Equal(t, "jobs.ashbyhq.com%2F*", Ashby.ArchivePattern())
	assert.Equal(t, "job-boards.greenhouse.io%2F*", Greenhouse.ArchivePattern())
	assert.Equal(t, "apply.workable.com%2F*", Workable.ArchivePattern())
}

func TestBoardURL(t *testing.T) {
	assert.Equal(t,
		"https://api.ashbyhq.com/posting-api/job-board/acme?includeCompensation=true",
		Ashby.BoardURL("acme"))
	assert.Equal(t,
		"https://boards-api.greenhouse.io/v1/boards/acme/jobs?content=true",
		Greenhouse.BoardURL("acme"))
	assert.Equal(t,
		"https://apply.workable.com/api/v1/widget/accounts/acme",
		Workable.BoardURL("acme"))
	assert.Equal(t,
		"https://api.lever.co/v0/postings/acme?mode=json",
		Lever.BoardURL("acme"))
}

func TestCursorKey(t *testing.T) {
	assert.Equal(t, "CC-MAIN-2025-30:ashby", Ashby.CursorKey("CC-MAIN-2025-30"))
}

func TestTrackerColumns(t *testing.T) {
	tests := []struct {
		p     Provider
		table string
		col   string
	}{
		{Ashby, "ashby_boards", "slug"},
		{Greenhouse, "greenhouse_boards", "board_token"},
		{Workable, "workable_boards", "shortcode"},
		{Lever, "lever_boards", "site"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.table, tt.p.TrackerTable())
		assert.Equal(t, tt.col, tt.p.TrackerKeyColumn())
	}
}
