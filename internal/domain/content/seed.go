package content

// Seeds are the triggering inputs to the pipelines. They are owned by the
// workflow run and discarded after completion.

type ArticleSeed struct {
	Topic           string `json:"topic"`
	ArticleType     string `json:"article_type"`
	App             string `json:"app"`
	TargetWordCount int    `json:"target_word_count,omitempty"`
	Jurisdiction    string `json:"jurisdiction,omitempty"`
	GenerateImages  bool   `json:"generate_images,omitempty"`

	// Cluster placement for children spawned by the country-guide pipeline.
	ArticleMode string `json:"article_mode,omitempty"`
	ClusterID   string `json:"cluster_id,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	SkipVideo   bool   `json:"skip_video,omitempty"`
}

type CompanySeed struct {
	URL      string `json:"url"`
	App      string `json:"app"`
	Category string `json:"category,omitempty"`
}

type CountryGuideSeed struct {
	CountryName  string `json:"country_name"`
	CountryCode  string `json:"country_code"`
	App          string `json:"app"`
	VideoQuality string `json:"video_quality,omitempty"`
}

type MonitorSeed struct {
	App       string `json:"app"`
	Scheduled bool   `json:"scheduled"`
}

type SegmentVideoSeed struct {
	CountryName           string        `json:"country_name"`
	Segment               string        `json:"segment"`
	ArticleID             string        `json:"article_id,omitempty"`
	VideoQuality          string        `json:"video_quality,omitempty"`
	FourActContent        []FourActBeat `json:"four_act_content,omitempty"`
	CharacterReferenceURL string        `json:"character_reference_url,omitempty"`
	App                   string        `json:"app"`
}

type TopicClusterSeed struct {
	Topic                string        `json:"topic"`
	App                  string        `json:"app"`
	CountryCode          string        `json:"country_code,omitempty"`
	ParentID             string        `json:"parent_id"`
	ClusterID            string        `json:"cluster_id"`
	ParentPlaybackID     string        `json:"parent_playback_id"`
	ParentFourActContent []FourActBeat `json:"parent_four_act_content,omitempty"`
	TargetKeyword        string        `json:"target_keyword"`
	KeywordVolume        int           `json:"keyword_volume,omitempty"`
	PlanningType         string        `json:"planning_type,omitempty"`
}

// Run statuses reported by every workflow.
const (
	RunCreated             = "created"
	RunCreatedWithWarnings = "created_with_warnings"
	RunFailed              = "failed"
)

// RunResult is the final output of the article-producing workflows.
type RunResult struct {
	Status          string                  `json:"status"`
	ArticleID       string                  `json:"article_id,omitempty"`
	Slug            string                  `json:"slug,omitempty"`
	WordCount       int                     `json:"word_count,omitempty"`
	VideoPlaybackID string                  `json:"video_playback_id,omitempty"`
	ClusterID       string                  `json:"cluster_id,omitempty"`
	FourActContent  []FourActBeat           `json:"four_act_content,omitempty"`
	HeroThumbURL    string                  `json:"hero_thumb_url,omitempty"`
	DuplicateGroups [][]string              `json:"duplicate_groups,omitempty"`
	DataSources     map[string]*ServiceStat `json:"data_sources,omitempty"`
	TotalCostUSD    float64                 `json:"total_cost"`
	Errors          []string                `json:"errors,omitempty"`
}

// SegmentVideoResult is returned by the segment-video child workflow.
type SegmentVideoResult struct {
	Segment        string          `json:"segment"`
	VideoNarrative *VideoNarrative `json:"video_narrative,omitempty"`
	HeroThumbURL   string          `json:"hero_thumb_url,omitempty"`
	CostUSD        float64         `json:"cost"`
	Errors         []string        `json:"errors,omitempty"`
}

// MonitorResult summarizes one scheduled news sweep.
type MonitorResult struct {
	App             string   `json:"app"`
	StoriesSeen     int      `json:"stories_seen"`
	StoriesSelected int      `json:"stories_selected"`
	ArticlesCreated []string `json:"articles_created"`
	SkippedDupes    int      `json:"skipped_dupes"`
	Errors          []string `json:"errors,omitempty"`
}

// GuideResult is the country-guide parent output.
type GuideResult struct {
	Status          string   `json:"status"`
	HubID           string   `json:"hub_id,omitempty"`
	HubSlug         string   `json:"hub_slug,omitempty"`
	HeroArticleID   string   `json:"hero_article_id,omitempty"`
	SegmentsDone    int      `json:"segments_done"`
	TopicsDone      int      `json:"topics_done"`
	VideoPlaybackID string   `json:"video_playback_id,omitempty"`
	TotalCostUSD    float64  `json:"total_cost"`
	Errors          []string `json:"errors,omitempty"`
}

// CompanyResult is the company-profile workflow output.
type CompanyResult struct {
	Status       string   `json:"status"`
	CompanyID    string   `json:"company_id,omitempty"`
	Slug         string   `json:"slug,omitempty"`
	NeedsReview  bool     `json:"needs_review,omitempty"`
	Confidence   float64  `json:"confidence,omitempty"`
	LogoURL      string   `json:"logo_url,omitempty"`
	TotalCostUSD float64  `json:"total_cost"`
	Errors       []string `json:"errors,omitempty"`
}
