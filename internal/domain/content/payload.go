package content

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	MaxMetaDescription = 160
	MaxExcerpt         = 400
)

// Section is one h2-delimited block of the article body.
type Section struct {
	Index               int    `json:"index"`
	Title               string `json:"title"`
	Content             string `json:"content"`
	WordCount           int    `json:"word_count"`
	Sentiment           string `json:"sentiment,omitempty"`
	VisualMoment        string `json:"visual_moment,omitempty"`
	ShouldGenerateImage bool   `json:"should_generate_image,omitempty"`
}

// FourActBeat describes one 3-second act of a generated video. VisualHint must
// be purely visual; no on-screen text.
type FourActBeat struct {
	Title      string `json:"title"`
	Hint       string `json:"hint"`
	Factoid    string `json:"factoid"`
	VisualHint string `json:"visual_hint"`
}

// SourceRef is a citation carried on the persisted payload.
type SourceRef struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// ServiceStat records per-external-service usage for one run. Cost figures are
// reporting-only estimates, never billing data.
type ServiceStat struct {
	Count   int     `json:"count"`
	CostUSD float64 `json:"cost"`
	Success bool    `json:"success"`
}

// NarrativePayload is the full content object produced by the narrative
// generator and enriched by the media phase. It round-trips losslessly
// through the articles.payload JSONB column.
type NarrativePayload struct {
	Title           string   `json:"title"`
	Slug            string   `json:"slug"`
	Excerpt         string   `json:"excerpt"`
	MetaDescription string   `json:"meta_description"`
	Tags            []string `json:"tags,omitempty"`
	TargetKeywords  []string `json:"target_keywords,omitempty"`
	WordCount       int      `json:"word_count"`
	ReadingTimeMin  int      `json:"reading_time_minutes"`

	Content  string    `json:"content"`
	Sections []Section `json:"sections"`

	FeaturedImagePrompt string        `json:"featured_image_prompt,omitempty"`
	SectionImagePrompts []string      `json:"section_image_prompts,omitempty"`
	FourActContent      []FourActBeat `json:"four_act_content,omitempty"`

	VideoPlaybackID  string            `json:"video_playback_id,omitempty"`
	VideoAssetID     string            `json:"video_asset_id,omitempty"`
	HeroAssetURL     string            `json:"hero_asset_url,omitempty"`
	FeaturedAssetURL string            `json:"featured_asset_url,omitempty"`
	ContentImages    []ContentImage    `json:"content_images,omitempty"`
	VideoNarrative   *VideoNarrative   `json:"video_narrative,omitempty"`
	DuplicateGroups  [][]string        `json:"duplicate_groups,omitempty"`
	DataSources      map[string]*ServiceStat `json:"data_sources,omitempty"`

	App               string  `json:"app"`
	ArticleFormat     string  `json:"article_format,omitempty"`
	ArticleMode       string  `json:"article_mode"`
	ClusterID         string  `json:"cluster_id,omitempty"`
	ParentID          string  `json:"parent_id,omitempty"`
	TargetKeyword     string  `json:"target_keyword,omitempty"`
	KeywordVolume     int     `json:"keyword_volume,omitempty"`
	KeywordDifficulty int     `json:"keyword_difficulty,omitempty"`
	Jurisdiction      string  `json:"jurisdiction,omitempty"`
	ResearchCostUSD   float64 `json:"research_cost"`

	Sources []SourceRef `json:"sources,omitempty"`

	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

type ContentImage struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// inlineURLRe matches URLs referenced inside markup (href attributes and bare
// markdown links).
var inlineURLRe = regexp.MustCompile(`href="(https?://[^"]+)"|\]\((https?://[^)\s]+)\)`)

// Validate enforces the payload invariants. The section word budget tolerance
// is ±5% of the total.
func (p *NarrativePayload) Validate() error {
	if p == nil {
		return fmt.Errorf("payload: nil")
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("payload: empty title")
	}
	if !slugRe.MatchString(p.Slug) {
		return fmt.Errorf("payload: slug %q is not url-safe", p.Slug)
	}
	if strings.TrimSpace(p.App) == "" {
		return fmt.Errorf("payload: empty app")
	}
	if strings.TrimSpace(p.Content) == "" {
		return fmt.Errorf("payload: empty content")
	}
	if len(p.MetaDescription) > MaxMetaDescription {
		return fmt.Errorf("payload: meta_description %d chars exceeds %d", len(p.MetaDescription), MaxMetaDescription)
	}
	if len(p.Excerpt) > MaxExcerpt {
		return fmt.Errorf("payload: excerpt %d chars exceeds %d", len(p.Excerpt), MaxExcerpt)
	}

	if got := CountWords(StripMarkup(p.Content)); p.WordCount != got {
		return fmt.Errorf("payload: word_count %d does not match content (%d)", p.WordCount, got)
	}

	sum := 0
	for i, s := range p.Sections {
		if s.Index != i {
			return fmt.Errorf("payload: sections[%d].index == %d, want dense 0-based sequence", i, s.Index)
		}
		sum += s.WordCount
	}
	if len(p.Sections) > 0 && p.WordCount > 0 {
		tolerance := p.WordCount / 20
		if diff := sum - p.WordCount; diff > tolerance || diff < -tolerance {
			return fmt.Errorf("payload: section word counts sum to %d, outside ±5%% of %d", sum, p.WordCount)
		}
	}

	if err := p.validateInlineSources(); err != nil {
		return err
	}

	if p.VideoPlaybackID != "" {
		if p.HeroAssetURL == "" && p.FeaturedAssetURL == "" && len(p.ContentImages) == 0 {
			return fmt.Errorf("payload: video_playback_id set but no thumbnail-derived asset URL")
		}
	}
	if p.ParentID != "" && p.ClusterID == "" {
		return fmt.Errorf("payload: parent_id set without cluster_id")
	}
	return nil
}

func (p *NarrativePayload) validateInlineSources() error {
	known := make(map[string]bool, len(p.Sources))
	for _, s := range p.Sources {
		known[NormalizeURL(s.URL)] = true
	}
	for _, m := range inlineURLRe.FindAllStringSubmatch(p.Content, -1) {
		u := m[1]
		if u == "" {
			u = m[2]
		}
		if u == "" {
			continue
		}
		// Media-host and CDN assets are bindings, not citations.
		if strings.Contains(u, "image.mux.com") || strings.Contains(u, "stream.mux.com") || strings.Contains(u, "res.cloudinary.com") {
			continue
		}
		if !known[NormalizeURL(u)] {
			return fmt.Errorf("payload: inline url %s missing from sources", u)
		}
	}
	return nil
}
