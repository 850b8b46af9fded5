package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/pressroom-backend/internal/domain"
	"github.com/yungbote/pressroom-backend/internal/platform/fault"
	"github.com/yungbote/pressroom-backend/internal/platform/openai"
)

// PersistArticle maps the payload onto the articles row and upserts it on
// (slug, app). Re-running it with the same payload is a no-op apart from
// updated_at.
func (a *Activities) PersistArticle(ctx context.Context, in PersistArticleInput) (*PersistArticleOutput, error) {
	p := in.Payload
	if p == nil {
		return nil, fault.AsActivityError(fault.New(fault.KindParse, "persist", "nil payload"))
	}
	p.Status = in.Status
	if in.Status == "published" && p.PublishedAt == nil {
		now := time.Now().UTC()
		p.PublishedAt = &now
	}

	payloadJSON, err := json.Marshal(p)
	if err != nil {
		return nil, fault.AsActivityError(fault.New(fault.KindParse, "persist", "marshal payload: "+err.Error()))
	}

	row := &types.Article{
		Slug:             p.Slug,
		App:              p.App,
		ArticleType:      in.ArticleType,
		ArticleMode:      p.ArticleMode,
		ClusterID:        parseUUIDPtr(p.ClusterID),
		ParentID:         parseUUIDPtr(p.ParentID),
		Title:            p.Title,
		Content:          p.Content,
		Excerpt:          p.Excerpt,
		MetaDescription:  p.MetaDescription,
		Payload:          datatypes.JSON(payloadJSON),
		Status:           in.Status,
		FeaturedAssetURL: p.FeaturedAssetURL,
		HeroAssetURL:     p.HeroAssetURL,
		VideoPlaybackID:  p.VideoPlaybackID,
		VideoAssetID:     p.VideoAssetID,
		TargetKeyword:    p.TargetKeyword,
		KeywordVolume:    p.KeywordVolume,
		PublishedAt:      p.PublishedAt,
	}
	if p.VideoNarrative != nil {
		if vnJSON, err := json.Marshal(p.VideoNarrative); err == nil {
			row.VideoNarrative = datatypes.JSON(vnJSON)
		}
	}

	id, err := a.Articles.Upsert(ctx, nil, row)
	if err != nil {
		return nil, fault.AsActivityError(err)
	}

	if in.CountryCode != "" {
		role := in.CountryRole
		if role == "" {
			role = "cluster"
		}
		if err := a.Countries.LinkArticle(ctx, nil, id, strings.ToUpper(in.CountryCode), role); err != nil {
			return nil, fault.AsActivityError(err)
		}
	}
	return &PersistArticleOutput{ArticleID: id.String(), Slug: p.Slug}, nil
}

func (a *Activities) PersistHub(ctx context.Context, in PersistHubInput) (*PersistHubOutput, error) {
	row := &types.CountryHub{
		CountryCode:     strings.ToUpper(in.CountryCode),
		LocationName:    in.LocationName,
		Slug:            in.Slug,
		Title:           in.Title,
		MetaDescription: in.MetaDescription,
		HubContent:      in.HubContent,
		VideoPlaybackID: in.VideoPlaybackID,
		Status:          in.Status,
	}
	if in.Payload != nil {
		payloadJSON, err := json.Marshal(in.Payload)
		if err != nil {
			return nil, fault.AsActivityError(fault.New(fault.KindParse, "persist", "marshal hub payload: "+err.Error()))
		}
		row.Payload = datatypes.JSON(payloadJSON)
	}

	id, err := a.Hubs.Upsert(ctx, nil, row)
	if err != nil {
		return nil, fault.AsActivityError(err)
	}
	return &PersistHubOutput{HubID: id.String(), Slug: in.Slug}, nil
}

// PersistCompany upserts the company and links it to recent articles that
// mention it by name, so the profile page can surface coverage.
func (a *Activities) PersistCompany(ctx context.Context, in PersistCompanyInput) (*PersistCompanyOutput, error) {
	row := &types.Company{
		Slug:             in.Slug,
		Name:             in.Name,
		App:              in.App,
		WebsiteURL:       in.WebsiteURL,
		Category:         in.Category,
		FeaturedImageURL: in.LogoURL,
		Status:           in.Status,
	}
	if in.Payload != nil {
		row.MetaDescription = in.Payload.MetaDescription
		payloadJSON, err := json.Marshal(in.Payload)
		if err != nil {
			return nil, fault.AsActivityError(fault.New(fault.KindParse, "persist", "marshal company payload: "+err.Error()))
		}
		row.Payload = datatypes.JSON(payloadJSON)
	}

	id, err := a.Companies.Upsert(ctx, nil, row)
	if err != nil {
		return nil, fault.AsActivityError(err)
	}

	since := time.Now().UTC().AddDate(0, 0, -30)
	recent, err := a.Articles.GetRecentByApp(ctx, nil, in.App, since, 50)
	if err != nil {
		a.Log.Warn("company article linking skipped", "company", in.Slug, "error", err)
		return &PersistCompanyOutput{CompanyID: id.String(), Slug: in.Slug}, nil
	}
	name := strings.ToLower(in.Name)
	for _, art := range recent {
		relevance := 0.0
		if strings.Contains(strings.ToLower(art.Title), name) {
			relevance = 0.8
		} else if strings.Contains(strings.ToLower(art.Content), name) {
			relevance = 0.4
		}
		if relevance == 0 {
			continue
		}
		if err := a.Companies.LinkArticle(ctx, nil, art.ID, id, relevance); err != nil {
			a.Log.Warn("company article link failed", "article", art.ID, "error", err)
		}
	}
	return &PersistCompanyOutput{CompanyID: id.String(), Slug: in.Slug}, nil
}

func (a *Activities) GetRecentArticles(ctx context.Context, in RecentArticlesInput) ([]RecentArticle, error) {
	days := in.Days
	if days <= 0 {
		days = 7
	}
	limit := in.Limit
	if limit <= 0 {
		limit = 50
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := a.Articles.GetRecentByApp(ctx, nil, in.App, since, limit)
	if err != nil {
		return nil, fault.AsActivityError(err)
	}
	out := make([]RecentArticle, 0, len(rows))
	for _, r := range rows {
		item := RecentArticle{ID: r.ID.String(), Title: r.Title, Slug: r.Slug}
		if r.PublishedAt != nil {
			item.PublishedAt = r.PublishedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, item)
	}
	return out, nil
}

// GetArticle loads the persisted payload of one article.
func (a *Activities) GetArticle(ctx context.Context, articleID string) (*types.NarrativePayload, error) {
	id, err := parseUUID(articleID)
	if err != nil {
		return nil, fault.AsActivityError(fault.New(fault.KindParse, "persist", "bad article id"))
	}
	row, err := a.Articles.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fault.AsActivityError(err)
	}
	if row == nil {
		return nil, nil
	}
	var p types.NarrativePayload
	if err := json.Unmarshal(row.Payload, &p); err != nil {
		return nil, fault.AsActivityError(fault.New(fault.KindParse, "persist", "unmarshal payload: "+err.Error()))
	}
	return &p, nil
}

// GetCompanyBySlug returns nil when the company does not exist.
func (a *Activities) GetCompanyBySlug(ctx context.Context, slug string) (*PersistCompanyOutput, error) {
	row, err := a.Companies.GetBySlug(ctx, nil, slug)
	if err != nil {
		return nil, fault.AsActivityError(err)
	}
	if row == nil {
		return nil, nil
	}
	return &PersistCompanyOutput{CompanyID: row.ID.String(), Slug: row.Slug}, nil
}

// SearchNews runs both the keyword query and the joined-topic query and
// merges them, deduped on normalized URL.
func (a *Activities) SearchNews(ctx context.Context, in SearchNewsInput) (*SearchNewsOutput, error) {
	if a.News == nil {
		return nil, fault.AsActivityError(fault.New(fault.KindConfigMissing, "newsapi", "news search not configured"))
	}
	days := in.Days
	if days <= 0 {
		days = 2
	}

	out := &SearchNewsOutput{}
	seen := map[string]bool{}
	add := func(items []types.RawSource) {
		for _, item := range items {
			key := types.NormalizeURL(item.URL)
			if key == "" {
				key = strings.ToLower(strings.TrimSpace(item.Title))
			}
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out.Stories = append(out.Stories, item)
		}
	}

	keyword, kwCost, kwErr := a.News.Search(ctx, in.Keywords, in.Region, days)
	out.CostUSD += kwCost
	if kwErr == nil {
		add(keyword)
	}

	topical, tpCost, tpErr := a.News.SearchTopic(ctx, strings.Join(in.Keywords, " "), in.Region, 25)
	out.CostUSD += tpCost
	if tpErr == nil {
		add(topical)
	}

	if kwErr != nil && tpErr != nil {
		return nil, fault.AsActivityError(kwErr)
	}
	return out, nil
}

// AssessRelevance scores monitor stories against the app's beat and the
// articles already published, so the monitor skips covered ground.
func (a *Activities) AssessRelevance(ctx context.Context, in AssessRelevanceInput) ([]AssessedStory, error) {
	if a.AI == nil {
		return nil, fault.AsActivityError(fault.New(fault.KindConfigMissing, "monitor", "assessment model not configured"))
	}
	minRelevance := in.MinRelevance
	if minRelevance <= 0 {
		minRelevance = 0.5
	}

	var sb strings.Builder
	sb.WriteString("CANDIDATE STORIES:\n")
	for i, s := range in.Stories {
		fmt.Fprintf(&sb, "%d. %s (%s)\n", i, s.Title, s.URL)
	}
	sb.WriteString("\nALREADY PUBLISHED:\n")
	for _, r := range in.RecentArticles {
		fmt.Fprintf(&sb, "- %s\n", r.Title)
	}

	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"stories"},
		"properties": map[string]any{
			"stories": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"index", "priority", "relevance_score", "rationale"},
					"properties": map[string]any{
						"index":           map[string]any{"type": "integer"},
						"priority":        map[string]any{"type": "string", "enum": []any{"high", "medium", "low"}},
						"relevance_score": map[string]any{"type": "number"},
						"rationale":       map[string]any{"type": "string"},
					},
				},
			},
		},
	}
	system := fmt.Sprintf(
		"You are the news editor for a %s publication. Score each candidate story 0-1 for "+
			"relevance to the beat and assign a priority. Stories already covered by a published "+
			"article score 0.", in.App)

	obj, err := a.AI.GenerateJSON(ctx, system, sb.String(), "story_assessment", schema)
	if err != nil {
		return nil, fault.AsActivityError(err)
	}

	var out []AssessedStory
	items, _ := obj["stories"].([]any)
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		idxF, _ := m["index"].(float64)
		idx := int(idxF)
		if idx < 0 || idx >= len(in.Stories) {
			continue
		}
		score, _ := m["relevance_score"].(float64)
		if score < minRelevance {
			continue
		}
		priority, _ := m["priority"].(string)
		rationale, _ := m["rationale"].(string)
		out = append(out, AssessedStory{
			Title:          in.Stories[idx].Title,
			URL:            in.Stories[idx].URL,
			Priority:       priority,
			RelevanceScore: score,
			Rationale:      rationale,
		})
	}
	return out, nil
}

// AmbiguityCheck estimates how confident the research is that all sources
// describe the same company as the seed URL.
func (a *Activities) AmbiguityCheck(ctx context.Context, in AmbiguityInput) (*AmbiguityOutput, error) {
	if a.AI == nil {
		// Without a model we cannot tell; assume unambiguous.
		return &AmbiguityOutput{Confidence: 1}, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Company: %s\nWebsite: %s\n\nSOURCES:\n", in.CompanyName, in.URL)
	for _, s := range in.Curated.Sources {
		fmt.Fprintf(&sb, "- %s: %s\n", s.Title, s.Summary)
	}

	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"confidence", "refined_query"},
		"properties": map[string]any{
			"confidence":    map[string]any{"type": "number"},
			"refined_query": map[string]any{"type": "string"},
		},
	}
	system := "Judge whether the sources all describe the company behind the given website, " +
		"or mix in same-named entities. Return confidence 0-1 and, when below 1, a refined " +
		"search query that would disambiguate."

	obj, err := a.AI.GenerateJSON(ctx, system, sb.String(), "company_ambiguity", schema)
	if err != nil {
		return nil, fault.AsActivityError(err)
	}
	out := &AmbiguityOutput{}
	out.Confidence, _ = obj["confidence"].(float64)
	out.RefinedQuery, _ = obj["refined_query"].(string)
	if out.Confidence < 0 {
		out.Confidence = 0
	}
	if out.Confidence > 1 {
		out.Confidence = 1
	}
	return out, nil
}

func (a *Activities) CrawlSite(ctx context.Context, in CrawlSiteInput) (*CrawlSiteOutput, error) {
	if a.Crawler == nil {
		return nil, fault.AsActivityError(fault.New(fault.KindConfigMissing, "crawler", "crawler not configured"))
	}
	page, err := a.Crawler.CrawlOne(ctx, in.URL)
	if err != nil && !page.Paywalled {
		return nil, fault.AsActivityError(err)
	}
	out := &CrawlSiteOutput{Title: page.Title, Content: page.Content}

	maxURLs := in.MaxURLs
	if maxURLs <= 0 {
		maxURLs = 20
	}
	links, err := a.Crawler.Discover(ctx, in.URL, maxURLs)
	if err != nil {
		a.Log.Warn("link discovery failed", "url", in.URL, "error", err)
	}
	for _, l := range links {
		out.Links = append(out.Links, DiscoveredLink{URL: l.URL, Title: l.Title})
	}
	return out, nil
}

// ExtractLogo tries the site's favicon through the CDN fetch path first; if
// that fails it generates a brand mark instead.
func (a *Activities) ExtractLogo(ctx context.Context, in ExtractLogoInput) (*ExtractLogoOutput, error) {
	if a.CDN == nil {
		return &ExtractLogoOutput{}, nil
	}

	base := strings.TrimRight(in.SiteURL, "/")
	for _, path := range []string{"/apple-touch-icon.png", "/favicon.ico"} {
		url, err := a.CDN.UploadURL(ctx, base+path, "logos", in.Slug+"_logo")
		if err == nil && url != "" {
			return &ExtractLogoOutput{LogoURL: url}, nil
		}
	}

	if a.AI == nil {
		return &ExtractLogoOutput{}, nil
	}
	gen, err := a.AI.GenerateImage(ctx, "Minimalist abstract brand mark for a company named "+in.CompanyName+", flat design, solid background, no text", openai.ImageOptions{AspectRatio: "1:1"})
	if err != nil {
		a.Log.Warn("logo generation failed", "company", in.CompanyName, "error", err)
		return &ExtractLogoOutput{}, nil
	}
	url, err := a.CDN.UploadBytes(ctx, gen.Bytes, gen.MimeType, "logos", in.Slug+"_logo")
	if err != nil {
		return &ExtractLogoOutput{}, nil
	}
	return &ExtractLogoOutput{LogoURL: url, Generated: true, CostUSD: 0.04}, nil
}

// DiscoverKeywords plans the topic cluster for a location guide.
func (a *Activities) DiscoverKeywords(ctx context.Context, in DiscoverKeywordsInput) ([]DiscoveredKeyword, error) {
	if a.AI == nil {
		return nil, fault.AsActivityError(fault.New(fault.KindConfigMissing, "keywords", "model not configured"))
	}
	maxKeywords := in.MaxKeywords
	if maxKeywords <= 0 {
		maxKeywords = 8
	}

	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"keywords"},
		"properties": map[string]any{
			"keywords": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"keyword", "volume", "planning_type"},
					"properties": map[string]any{
						"keyword":       map[string]any{"type": "string"},
						"volume":        map[string]any{"type": "integer"},
						"planning_type": map[string]any{"type": "string", "enum": []any{"visa", "cost", "housing", "schools", "healthcare", "tax", "lifestyle", "jobs"}},
					},
				},
			},
		},
	}
	system := fmt.Sprintf(
		"You plan SEO topic clusters for a %s publication. Propose up to %d long-tail keywords "+
			"people search before moving to the given country, with estimated monthly volume.",
		in.App, maxKeywords)

	obj, err := a.AI.GenerateJSON(ctx, system, "Country: "+in.CountryName, "keyword_plan", schema)
	if err != nil {
		return nil, fault.AsActivityError(err)
	}

	var out []DiscoveredKeyword
	items, _ := obj["keywords"].([]any)
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		kw := DiscoveredKeyword{}
		kw.Keyword, _ = m["keyword"].(string)
		if v, ok := m["volume"].(float64); ok {
			kw.Volume = int(v)
		}
		kw.PlanningType, _ = m["planning_type"].(string)
		if strings.TrimSpace(kw.Keyword) == "" {
			continue
		}
		out = append(out, kw)
		if len(out) >= maxKeywords {
			break
		}
	}
	return out, nil
}

func (a *Activities) AppendScrapeNote(ctx context.Context, in ScrapeNoteInput) error {
	var boardID *uuid.UUID
	if in.BoardID != "" {
		if id, err := parseUUID(in.BoardID); err == nil {
			boardID = &id
		}
	}
	if err := a.History.Append(ctx, nil, boardID, in.Status, in.Found, time.Duration(in.DurationMs)*time.Millisecond); err != nil {
		return fault.AsActivityError(err)
	}
	if boardID != nil {
		if err := a.Boards.TouchScraped(ctx, nil, *boardID, time.Now().UTC()); err != nil {
			return fault.AsActivityError(err)
		}
	}
	return nil
}

func parseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(s))
}

func parseUUIDPtr(s string) *uuid.UUID {
	id, err := parseUUID(s)
	if err != nil || id == uuid.Nil {
		return nil
	}
	return &id
}
