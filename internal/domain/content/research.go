package content

import "time"

const (
	SourceKindNews         = "news"
	SourceKindDeepResearch = "deep_research"
	SourceKindCrawledPage  = "crawled_page"
	SourceKindKGEdge       = "knowledge_graph_edge"
)

// RawSource is a single retrieved document before curation. Not persisted.
type RawSource struct {
	SourceID       string     `json:"source_id"`
	SourceKind     string     `json:"source_kind"`
	URL            string     `json:"url,omitempty"`
	Title          string     `json:"title,omitempty"`
	ContentText    string     `json:"content_text"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	RelevanceScore float64    `json:"relevance_score,omitempty"`
	Author         string     `json:"author,omitempty"`
}

// CuratedSource is one ranked entry of the curation output, re-joined to its
// RawSource so downstream consumers see the full text.
type CuratedSource struct {
	SourceID       string  `json:"source_id"`
	SourceKind     string  `json:"source_kind"`
	URL            string  `json:"url,omitempty"`
	Title          string  `json:"title,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`
	Summary        string  `json:"summary"`
	KeyQuote       string  `json:"key_quote,omitempty"`
	FullContent    string  `json:"full_content"`
}

// CuratedSet is the curation result carried through a workflow run.
type CuratedSet struct {
	Sources         []CuratedSource `json:"sources"`
	KeyFacts        []string        `json:"key_facts,omitempty"`
	Perspectives    []string        `json:"perspectives,omitempty"`
	DuplicateGroups [][]string      `json:"duplicate_groups,omitempty"`
	CurationFailed  bool            `json:"curation_failed,omitempty"`
}

// ResearchResult is the full output of the research phase.
type ResearchResult struct {
	Curated          CuratedSet              `json:"curated"`
	RawCountsBySrc   map[string]int          `json:"raw_counts_by_source"`
	SkippedPaywalled []string                `json:"skipped_paywalled,omitempty"`
	DataSources      map[string]*ServiceStat `json:"data_sources,omitempty"`
	TotalCostUSD     float64                 `json:"total_cost"`
}
