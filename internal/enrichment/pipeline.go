package enrichment

import (
	"strconv"
	"strings"

	"github.com/catherinevee/boardmgr/internal/apperrors"
	"github.com/catherinevee/boardmgr/internal/logger"
)

// Input is one board as discovered: its slug plus the capture it was last
// seen in.
type Input struct {
	Slug      string
	URL       string
	Timestamp string
}

// Result carries everything the pipeline derived.
type Result struct {
	Slug           string   `json:"slug"`
	NormalizedSlug string   `json:"normalized_slug"`
	URLSegments    []string `json:"url_segments"`
	HasJobPostings bool     `json:"has_job_postings"`
	RecencyScore   float64  `json:"recency_score"`
	Metadata       Metadata `json:"metadata"`
}

// Step is one named, fallible stage.
type Step struct {
	Name  string
	Apply func(in Input, out *Result) error
}

// StepError reports which stage broke the run.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return e.Step + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Pipeline runs its steps in order and stops at the first failure.
type Pipeline struct {
	steps []Step
	log   logger.Logger
}

// NewPipeline builds the standard four-step pipeline.
func NewPipeline(extractor *SlugExtractor) *Pipeline {
	if extractor == nil {
		extractor = NewSlugExtractor(nil, nil)
	}
	return &Pipeline{
		log: logger.New("enrichment"),
		steps: []Step{
			{Name: "normalize_slug", Apply: normalizeSlug},
			{Name: "extract_segments", Apply: extractSegments},
			{Name: "score_recency", Apply: scoreRecency},
			{Name: "extract_metadata", Apply: extractMetadata(extractor)},
		},
	}
}

// Run applies the steps in order and stops at the first failure. The
// returned error names the step that failed; partial results from earlier
// steps are never persisted by callers.
func (p *Pipeline) Run(in Input) (Result, error) {
	out := Result{Slug: in.Slug}
	for _, step := range p.steps {
		if err := step.Apply(in, &out); err != nil {
			p.log.Warn("enrichment aborted",
				logger.String("step", step.Name),
				logger.String("slug", in.Slug),
				logger.Error(err))
			return out, &StepError{Step: step.Name, Err: err}
		}
	}
	return out, nil
}

// normalizeSlug strips trailing digits and hyphens, so "acme-2" and "acme"
// normalise to the same base.
func normalizeSlug(in Input, out *Result) error {
	out.NormalizedSlug = strings.TrimRight(in.Slug, "0123456789-")
	return nil
}

// extractSegments splits the capture URL into its meaningful path
// segments. More than one segment means the capture was a posting page,
// not just the board root.
func extractSegments(in Input, out *Result) error {
	var segments []string
	for _, seg := range strings.Split(in.URL, "/") {
		if seg == "" || seg == "https:" || seg == "http:" || strings.Contains(seg, ".") {
			continue
		}
		segments = append(segments, seg)
	}
	out.URLSegments = segments
	out.HasJobPostings = len(segments) > 1
	return nil
}

// scoreRecency maps the 14-digit capture timestamp onto (0, 1]; newer
// captures score higher.
func scoreRecency(in Input, out *Result) error {
	if in.Timestamp == "" {
		return apperrors.New(apperrors.Internal, "enrichment.scoreRecency", "empty timestamp")
	}
	ts, err := strconv.ParseFloat(in.Timestamp, 64)
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "enrichment.scoreRecency", err)
	}
	out.RecencyScore = ts / 1e14
	return nil
}

func extractMetadata(extractor *SlugExtractor) func(Input, *Result) error {
	return func(in Input, out *Result) error {
		out.Metadata = extractor.Extract(in.Slug)
		return nil
	}
}
