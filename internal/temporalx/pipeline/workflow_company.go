package pipeline

import (
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	types "github.com/yungbote/pressroom-backend/internal/domain"
)

// Confidence thresholds for the identity gate. Below the review floor the
// profile is persisted as a draft flagged for human review.
const (
	companyConfidenceOK     = 0.7
	companyConfidenceReview = 0.5
)

// CompanyProfile builds a researched profile for the company behind a URL.
// Same-named entities are the hazard here: an ambiguity gate sits between
// research and generation, with one refinement pass before giving up.
func CompanyProfile(ctx workflow.Context, seed types.CompanySeed) (*types.CompanyResult, error) {
	log := workflow.GetLogger(ctx)
	result := &types.CompanyResult{Status: types.RunCreated}
	phases := trackPhase(ctx)

	siteURL := types.NormalizeURL(seed.URL)
	name, slug := companyIdentityFromURL(siteURL)
	if slug == "" {
		result.Status = types.RunFailed
		result.Errors = append(result.Errors, "unusable company url")
		return result, temporal.NewNonRetryableApplicationError("unusable company url", "parse", nil)
	}
	result.Slug = slug

	var existing *PersistCompanyOutput
	if err := workflow.ExecuteActivity(withOpts(ctx, 30*time.Second, 3), ActivityGetCompanyBySlug, slug).Get(ctx, &existing); err == nil && existing != nil {
		result.CompanyID = existing.CompanyID
		return result, nil
	}

	phases.advance(ctx, seed.App, "crawl", 5, 0)

	var site CrawlSiteOutput
	if err := workflow.ExecuteActivity(withOpts(ctx, 2*time.Minute, 2), ActivityCrawlSite, CrawlSiteInput{
		URL:     siteURL,
		MaxURLs: 20,
	}).Get(ctx, &site); err != nil {
		log.Warn("site crawl failed; researching from name only", "error", err)
		result.Errors = append(result.Errors, "crawl: "+err.Error())
	}
	if t := strings.TrimSpace(site.Title); t != "" && len(t) < 80 {
		name = t
	}

	phases.advance(ctx, seed.App, "research", 15, 0)

	res, confidence, err := researchWithAmbiguityGate(ctx, seed.App, name, siteURL)
	if err != nil {
		result.Status = types.RunFailed
		result.Errors = append(result.Errors, "research: "+err.Error())
		return result, err
	}
	result.Confidence = confidence
	result.TotalCostUSD += res.TotalCostUSD

	status := types.StatusPublished
	if confidence < companyConfidenceReview {
		result.NeedsReview = true
		status = types.StatusDraft
	}

	phases.advance(ctx, seed.App, "narrative", 55, result.TotalCostUSD)

	var narr NarrativeOutput
	if err := workflow.ExecuteActivity(withOpts(ctx, 3*time.Minute, 2), ActivityGenerateNarrative, NarrativeInput{
		Topic:          name,
		ArticleType:    "company_profile",
		App:            seed.App,
		CompanyProfile: true,
		Curated:        res.Curated,
	}).Get(ctx, &narr); err != nil {
		result.Status = types.RunFailed
		result.Errors = append(result.Errors, "narrative: "+err.Error())
		return result, err
	}
	result.TotalCostUSD += narr.CostUSD

	var logo ExtractLogoOutput
	if err := workflow.ExecuteActivity(withOpts(ctx, 2*time.Minute, 2), ActivityExtractLogo, ExtractLogoInput{
		SiteURL:     siteURL,
		CompanyName: name,
		Slug:        slug,
	}).Get(ctx, &logo); err != nil {
		log.Warn("logo extraction failed", "error", err)
	}
	result.LogoURL = logo.LogoURL
	result.TotalCostUSD += logo.CostUSD

	phases.advance(ctx, seed.App, "publish", 85, result.TotalCostUSD)

	var out PersistCompanyOutput
	if err := workflow.ExecuteActivity(withOpts(ctx, 30*time.Second, 3), ActivityPersistCompany, PersistCompanyInput{
		Slug:       slug,
		Name:       name,
		App:        seed.App,
		WebsiteURL: siteURL,
		Category:   seed.Category,
		LogoURL:    logo.LogoURL,
		Payload:    narr.Payload,
		Status:     status,
	}).Get(ctx, &out); err != nil {
		result.Status = types.RunFailed
		result.Errors = append(result.Errors, "persist: "+err.Error())
		return result, err
	}
	result.CompanyID = out.CompanyID

	if err := workflow.ExecuteActivity(withOpts(ctx, 2*time.Minute, 1), ActivitySyncKnowledge, SyncKnowledgeInput{
		App:       seed.App,
		ContentID: out.CompanyID,
		Title:     name,
		Body:      narr.Payload.Content,
	}).Get(ctx, nil); err != nil {
		log.Warn("knowledge sync failed", "error", err)
		result.Errors = append(result.Errors, "kg: "+err.Error())
	}

	phases.advance(ctx, seed.App, "done", 100, result.TotalCostUSD)
	return result, nil
}

// researchWithAmbiguityGate researches the company and checks whether the
// sources agree on its identity. Confidence in the review band earns one
// refined re-run; the better of the two passes wins.
func researchWithAmbiguityGate(ctx workflow.Context, app, name, siteURL string) (*types.ResearchResult, float64, error) {
	run := func(topic string) (*types.ResearchResult, *AmbiguityOutput, error) {
		var res types.ResearchResult
		if err := workflow.ExecuteActivity(withOpts(ctx, 12*time.Minute, 2), ActivityResearch, ResearchInput{
			Topic: topic,
			App:   app,
		}).Get(ctx, &res); err != nil {
			return nil, nil, err
		}
		var amb AmbiguityOutput
		if err := workflow.ExecuteActivity(withOpts(ctx, time.Minute, 2), ActivityAmbiguityCheck, AmbiguityInput{
			CompanyName: name,
			URL:         siteURL,
			Curated:     res.Curated,
		}).Get(ctx, &amb); err != nil {
			// An unreachable gate should not sink the run; treat as unambiguous.
			amb = AmbiguityOutput{Confidence: 1}
		}
		return &res, &amb, nil
	}

	res, amb, err := run(name + " company")
	if err != nil {
		return nil, 0, err
	}
	if amb.Confidence >= companyConfidenceOK || amb.RefinedQuery == "" {
		return res, amb.Confidence, nil
	}
	if amb.Confidence >= companyConfidenceReview {
		res2, amb2, err := run(amb.RefinedQuery)
		if err == nil && amb2.Confidence > amb.Confidence {
			res2.TotalCostUSD += res.TotalCostUSD
			return res2, amb2.Confidence, nil
		}
	}
	return res, amb.Confidence, nil
}

// companyIdentityFromURL derives a display name and slug from the site's
// registrable domain: "https://acme-capital.com/" becomes ("Acme Capital",
// "acme-capital").
func companyIdentityFromURL(u string) (name, slug string) {
	host := u
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", ""
	}
	label := host
	if i := strings.Index(label, "."); i >= 0 {
		label = label[:i]
	}
	if label == "" {
		return "", ""
	}
	words := strings.Split(label, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " "), types.Slugify(label)
}
