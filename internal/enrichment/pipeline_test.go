package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineRun(t *testing.T) {
	p := NewPipeline(nil)

	result, err := p.Run(Input{
		Slug:      "healthdata-ai-2",
		URL:       "https://jobs.ashbyhq.com/healthdata-ai-2/some-posting",
		Timestamp: "20250601000000",
	})

	require.NoError(t, err)
	assert.Equal(t, "healthdata-ai", result.NormalizedSlug)
	assert.Equal(t, []string{"healthdata-ai-2", "some-posting"}, result.URLSegments)
	assert.True(t, result.HasJobPostings)
	assert.InDelta(t, 0.20250601, result.RecencyScore, 1e-9)
	assert.Contains(t, result.Metadata.Industries, "ai-ml")
	assert.Contains(t, result.Metadata.Industries, "healthtech")
	assert.Contains(t, result.Metadata.Industries, "data")
}

func TestPipelineStopsAtFirstFailingStep(t *testing.T) {
	p := NewPipeline(nil)

	result, err := p.Run(Input{
		Slug:      "acme",
		URL:       "https://jobs.ashbyhq.com/acme",
		Timestamp: "not-a-number",
	})

	require.Error(t, err)
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "score_recency", stepErr.Step)
	assert.Zero(t, result.RecencyScore)
	// extract_metadata never ran.
	assert.Empty(t, result.Metadata.CompanyName)
	assert.Zero(t, result.Metadata.TokenCount)

	_, err = p.Run(Input{Slug: "acme", URL: "https://jobs.ashbyhq.com/acme"})
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "score_recency", stepErr.Step)
}

func TestPipelineBoardRootHasNoPostings(t *testing.T) {
	p := NewPipeline(nil)

	result, _ := p.Run(Input{
		Slug:      "acme",
		URL:       "https://jobs.ashbyhq.com/acme",
		Timestamp: "20250101000000",
	})

	assert.Equal(t, []string{"acme"}, result.URLSegments)
	assert.False(t, result.HasJobPostings)
}

func TestExtractorIndustries(t *testing.T) {
	e := NewSlugExtractor(nil, nil)

	tests := []struct {
		slug string
		want []string
	}{
		{"paymentsco", []string{"fintech"}},
		{"infosec-data", []string{"cybersecurity", "data"}},
		{"zenco", []string{"general"}},
		{"golang-tools", nil},
	}
	for _, tt := range tests {
		meta := e.Extract(tt.slug)
		if tt.want != nil {
			assert.Equal(t, tt.want, meta.Industries, tt.slug)
		}
	}

	meta := e.Extract("golang-tools")
	assert.Contains(t, meta.TechSignals, "go")
}

func TestExtractorSizeBuckets(t *testing.T) {
	e := NewSlugExtractor(nil, nil)

	assert.Equal(t, "startup", e.Extract("acme").SizeSignal)
	assert.Equal(t, "startup", e.Extract("12345678").SizeSignal)
	assert.Equal(t, "mid", e.Extract("123456789").SizeSignal)
	assert.Equal(t, "mid", e.Extract("1234567890123456").SizeSignal)
	assert.Equal(t, "large", e.Extract("12345678901234567").SizeSignal)
}

func TestExtractorOrderedDictionaries(t *testing.T) {
	// "medpay" hits healthtech before fintech; dictionary order is the
	// output order.
	e := NewSlugExtractor(nil, nil)
	meta := e.Extract("medpay")
	require.Len(t, meta.Industries, 2)
	assert.Equal(t, []string{"healthtech", "fintech"}, meta.Industries)
}

func TestExtractorCompanyName(t *testing.T) {
	e := NewSlugExtractor(nil, nil)
	assert.Equal(t, "Acme Labs", e.Extract("acme-labs").CompanyName)
	assert.Equal(t, 2, e.Extract("acme_labs").TokenCount)
}
