package pipeline

import (
	types "github.com/yungbote/pressroom-backend/internal/domain"
)

// Workflow and activity registration names.
const (
	WorkflowArticle      = "ArticleCreationWorkflow"
	WorkflowNewsMonitor  = "NewsMonitorWorkflow"
	WorkflowCountryGuide = "CountryGuideWorkflow"
	WorkflowCompany      = "CompanyProfileWorkflow"
	WorkflowSegmentVideo = "SegmentVideoWorkflow"
	WorkflowTopicCluster = "TopicClusterWorkflow"

	ActivityResearch          = "Research"
	ActivityGenerateNarrative = "GenerateNarrative"
	ActivityClassifySections  = "ClassifySections"
	ActivityGenerateVideo     = "GenerateVideo"
	ActivityGenerateImages    = "GenerateImages"
	ActivityPersistArticle    = "PersistArticle"
	ActivityPersistHub        = "PersistHub"
	ActivityPersistCompany    = "PersistCompany"
	ActivityGetRecentArticles = "GetRecentArticles"
	ActivityGetArticle        = "GetArticle"
	ActivityGetCompanyBySlug  = "GetCompanyBySlug"
	ActivitySearchNews        = "SearchNews"
	ActivityAssessRelevance   = "AssessRelevance"
	ActivityAmbiguityCheck    = "AmbiguityCheck"
	ActivityCrawlSite         = "CrawlSite"
	ActivityExtractLogo       = "ExtractLogo"
	ActivityDiscoverKeywords  = "DiscoverKeywords"
	ActivitySegmentBeats      = "GenerateSegmentBeats"
	ActivitySyncKnowledge     = "SyncKnowledge"
	ActivityAppendScrapeNote  = "AppendScrapeNote"
	ActivityPublishProgress   = "PublishProgress"
)

// QueryPhase exposes a running pipeline's current phase to pollers.
// SignalMonitorStop asks a news monitor to wind down without spawning children.
const (
	QueryPhase        = "phase"
	SignalMonitorStop = "stop-monitor"
)

type ResearchInput struct {
	Topic        string `json:"topic"`
	App          string `json:"app"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
}

type NarrativeInput struct {
	Topic           string           `json:"topic"`
	ArticleType     string           `json:"article_type"`
	App             string           `json:"app"`
	TargetWordCount int              `json:"target_word_count,omitempty"`
	Jurisdiction    string           `json:"jurisdiction,omitempty"`
	FourAct         bool             `json:"four_act,omitempty"`
	CompanyProfile  bool             `json:"company_profile,omitempty"`
	Curated         types.CuratedSet `json:"curated"`
}

type NarrativeOutput struct {
	Payload *types.NarrativePayload `json:"payload"`
	CostUSD float64                 `json:"cost_usd"`
}

type ClassifyInput struct {
	SectionTitles   []string            `json:"section_titles"`
	Beats           []types.FourActBeat `json:"beats"`
	DurationSeconds float64             `json:"duration_seconds"`
}

type VideoInput struct {
	App               string              `json:"app"`
	Beats             []types.FourActBeat `json:"beats"`
	Quality           string              `json:"quality,omitempty"`
	ReferenceImageURL string              `json:"reference_image_url,omitempty"`

	// Passthrough identity for the media host dashboard.
	Title     string `json:"title"`
	Mode      string `json:"mode"`
	Country   string `json:"country,omitempty"`
	ClusterID string `json:"cluster_id,omitempty"`
	ArticleID string `json:"article_id,omitempty"`
}

type VideoOutput struct {
	VideoNarrative *types.VideoNarrative `json:"video_narrative"`
	CostUSD        float64               `json:"cost_usd"`
}

type ImagesInput struct {
	Prompts           []string `json:"prompts"`
	InitialContextURL string   `json:"initial_context_url,omitempty"`
	Folder            string   `json:"folder"`
	Slug              string   `json:"slug"`
	Role              string   `json:"role"`
}

type ImagesOutput struct {
	Images  []types.ContentImage `json:"images"`
	CostUSD float64              `json:"cost_usd"`
}

type PersistArticleInput struct {
	Payload     *types.NarrativePayload `json:"payload"`
	ArticleType string                  `json:"article_type,omitempty"`
	Status      string                  `json:"status"`
	CountryCode string                  `json:"country_code,omitempty"`
	CountryRole string                  `json:"country_role,omitempty"`
}

type PersistArticleOutput struct {
	ArticleID string `json:"article_id"`
	Slug      string `json:"slug"`
}

type PersistHubInput struct {
	CountryCode     string                  `json:"country_code"`
	LocationName    string                  `json:"location_name"`
	Slug            string                  `json:"slug"`
	Title           string                  `json:"title"`
	MetaDescription string                  `json:"meta_description,omitempty"`
	HubContent      string                  `json:"hub_content,omitempty"`
	Payload         *types.NarrativePayload `json:"payload,omitempty"`
	VideoPlaybackID string                  `json:"video_playback_id,omitempty"`
	Status          string                  `json:"status"`
}

type PersistHubOutput struct {
	HubID string `json:"hub_id"`
	Slug  string `json:"slug"`
}

type PersistCompanyInput struct {
	Slug       string                  `json:"slug"`
	Name       string                  `json:"name"`
	App        string                  `json:"app"`
	WebsiteURL string                  `json:"website_url,omitempty"`
	Category   string                  `json:"category,omitempty"`
	LogoURL    string                  `json:"logo_url,omitempty"`
	Payload    *types.NarrativePayload `json:"payload,omitempty"`
	Status     string                  `json:"status"`
}

type PersistCompanyOutput struct {
	CompanyID string `json:"company_id"`
	Slug      string `json:"slug"`
}

type RecentArticlesInput struct {
	App   string `json:"app"`
	Days  int    `json:"days,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

type RecentArticle struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	PublishedAt string `json:"published_at,omitempty"`
}

type SearchNewsInput struct {
	App      string   `json:"app"`
	Keywords []string `json:"keywords"`
	Region   string   `json:"region,omitempty"`
	Days     int      `json:"days,omitempty"`
}

type SearchNewsOutput struct {
	Stories []types.RawSource `json:"stories"`
	CostUSD float64           `json:"cost_usd"`
}

type AssessRelevanceInput struct {
	App            string            `json:"app"`
	Stories        []types.RawSource `json:"stories"`
	RecentArticles []RecentArticle   `json:"recent_articles"`
	MinRelevance   float64           `json:"min_relevance,omitempty"`
}

type AssessedStory struct {
	Title          string  `json:"title"`
	URL            string  `json:"url,omitempty"`
	Priority       string  `json:"priority"` // high | medium | low
	RelevanceScore float64 `json:"relevance_score"`
	Rationale      string  `json:"rationale,omitempty"`
}

type AmbiguityInput struct {
	CompanyName string           `json:"company_name"`
	URL         string           `json:"url"`
	Curated     types.CuratedSet `json:"curated"`
}

type AmbiguityOutput struct {
	Confidence   float64 `json:"confidence"`
	RefinedQuery string  `json:"refined_query,omitempty"`
}

type CrawlSiteInput struct {
	URL     string `json:"url"`
	MaxURLs int    `json:"max_urls,omitempty"`
}

type CrawlSiteOutput struct {
	Title   string           `json:"title,omitempty"`
	Content string           `json:"content,omitempty"`
	Links   []DiscoveredLink `json:"links,omitempty"`
}

type DiscoveredLink struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

type ExtractLogoInput struct {
	SiteURL     string `json:"site_url"`
	CompanyName string `json:"company_name"`
	Slug        string `json:"slug"`
}

type ExtractLogoOutput struct {
	LogoURL   string  `json:"logo_url,omitempty"`
	Generated bool    `json:"generated,omitempty"`
	CostUSD   float64 `json:"cost_usd,omitempty"`
}

type DiscoverKeywordsInput struct {
	CountryName string `json:"country_name"`
	App         string `json:"app"`
	MaxKeywords int    `json:"max_keywords,omitempty"`
}

type DiscoveredKeyword struct {
	Keyword      string `json:"keyword"`
	Volume       int    `json:"volume,omitempty"`
	PlanningType string `json:"planning_type,omitempty"`
}

type SegmentBeatsInput struct {
	CountryName string `json:"country_name"`
	Segment     string `json:"segment"`
	App         string `json:"app"`
}

type SyncKnowledgeInput struct {
	App       string `json:"app"`
	ContentID string `json:"content_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
}

type ScrapeNoteInput struct {
	BoardID    string `json:"board_id,omitempty"`
	Status     string `json:"status"`
	Found      int    `json:"found"`
	DurationMs int64  `json:"duration_ms"`
}

type ProgressInput struct {
	WorkflowID string  `json:"workflow_id"`
	App        string  `json:"app"`
	Phase      string  `json:"phase"`
	Message    string  `json:"message,omitempty"`
	Percent    float64 `json:"percent,omitempty"`
	CostUSD    float64 `json:"cost_usd,omitempty"`
}
