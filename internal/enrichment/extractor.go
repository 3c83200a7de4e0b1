// Package enrichment derives lightweight company metadata from board slugs
// and capture data: industry tags, tech signals, a size bucket, and board
// URL features. It is keyword-driven and deliberately cheap; no outbound
// calls.
package enrichment

import "strings"

// DictEntry maps a tag to the keywords that imply it. Matching is ordered:
// dictionaries are scanned top to bottom so broader tags never shadow the
// specific ones listed above them.
type DictEntry struct {
	Tag      string   `yaml:"tag"`
	Keywords []string `yaml:"keywords"`
}

// DefaultIndustries is the built-in industry dictionary.
func DefaultIndustries() []DictEntry {
	return []DictEntry{
		{Tag: "ai-ml", Keywords: []string{"ai", "ml", "llm", "deep", "neural", "gpt", "rag"}},
		{Tag: "healthtech", Keywords: []string{"health", "med", "bio", "pharma", "clinic", "care"}},
		{Tag: "fintech", Keywords: []string{"fin", "pay", "bank", "invest", "trade", "credit"}},
		{Tag: "edtech", Keywords: []string{"edu", "learn", "school", "course", "tutor", "academy"}},
		{Tag: "cybersecurity", Keywords: []string{"security", "cyber", "infosec", "soc", "vault"}},
		{Tag: "devtools", Keywords: []string{"dev", "code", "eng", "platform", "sdk", "api"}},
		{Tag: "data", Keywords: []string{"data", "analytics", "insight", "metric", "lake"}},
		{Tag: "infrastructure", Keywords: []string{"cloud", "infra", "ops", "deploy", "k8s"}},
		{Tag: "martech", Keywords: []string{"market", "growth", "seo", "crm", "sales"}},
		{Tag: "legaltech", Keywords: []string{"legal", "law", "contract", "compliance", "gdpr"}},
		{Tag: "hrtech", Keywords: []string{"hr", "recruit", "talent", "people", "payroll"}},
	}
}

// DefaultTechSignals is the built-in technology dictionary.
func DefaultTechSignals() []DictEntry {
	return []DictEntry{
		{Tag: "rust", Keywords: []string{"rust"}},
		{Tag: "go", Keywords: []string{"golang", "golangci"}},
		{Tag: "python", Keywords: []string{"python", "django", "fastapi"}},
		{Tag: "javascript", Keywords: []string{"node", "next", "react", "vue"}},
		{Tag: "jvm", Keywords: []string{"java", "spring", "kotlin"}},
		{Tag: "ml-frameworks", Keywords: []string{"torch", "tensor", "cuda"}},
		{Tag: "containers", Keywords: []string{"k8s", "kube", "docker", "helm"}},
		{Tag: "databases", Keywords: []string{"postgres", "mongo", "redis"}},
	}
}

// Metadata is what the extractor derives from one slug.
type Metadata struct {
	Slug        string   `json:"slug"`
	CompanyName string   `json:"company_name"`
	Industries  []string `json:"industries"`
	TechSignals []string `json:"tech_signals"`
	SizeSignal  string   `json:"size_signal"`
	TokenCount  int      `json:"token_count"`
	Keywords    []string `json:"keywords"`
}

// SlugExtractor classifies board slugs against keyword dictionaries.
type SlugExtractor struct {
	industries []DictEntry
	tech       []DictEntry
}

// NewSlugExtractor builds an extractor; nil dictionaries fall back to the
// built-in ones.
func NewSlugExtractor(industries, tech []DictEntry) *SlugExtractor {
	if industries == nil {
		industries = DefaultIndustries()
	}
	if tech == nil {
		tech = DefaultTechSignals()
	}
	return &SlugExtractor{industries: industries, tech: tech}
}

// Extract classifies one slug. Companies with no industry keyword hit get
// the catch-all "general" tag.
func (e *SlugExtractor) Extract(slug string) Metadata {
	lower := strings.ToLower(slug)
	tokens := splitTokens(lower)

	meta := Metadata{
		Slug:        slug,
		CompanyName: titleCase(tokens),
		TokenCount:  len(tokens),
	}

	var keywords []string
	for _, entry := range e.industries {
		for _, kw := range entry.Keywords {
			if strings.Contains(lower, kw) {
				meta.Industries = append(meta.Industries, entry.Tag)
				keywords = append(keywords, kw)
				break
			}
		}
	}
	if len(meta.Industries) == 0 {
		meta.Industries = []string{"general"}
	}

	for _, entry := range e.tech {
		for _, kw := range entry.Keywords {
			if strings.Contains(lower, kw) {
				meta.TechSignals = append(meta.TechSignals, entry.Tag)
				keywords = append(keywords, kw)
				break
			}
		}
	}

	meta.Keywords = keywords
	meta.SizeSignal = sizeBucket(len(lower))
	return meta
}

func sizeBucket(slugLen int) string {
	switch {
	case slugLen <= 8:
		return "startup"
	case slugLen <= 16:
		return "mid"
	default:
		return "large"
	}
}

func splitTokens(slug string) []string {
	return strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_'
	})
}

func titleCase(tokens []string) string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		out = append(out, strings.ToUpper(t[:1])+t[1:])
	}
	return strings.Join(out, " ")
}
