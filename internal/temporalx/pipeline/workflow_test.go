package pipeline

import (
	"context"
	"strings"
	"testing"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	types "github.com/yungbote/pressroom-backend/internal/domain"
	"github.com/yungbote/pressroom-backend/internal/media"
)

func testBeats() []types.FourActBeat {
	return []types.FourActBeat{
		{Title: "hook", VisualHint: "skyline at dawn"},
		{Title: "context", VisualHint: "busy street"},
		{Title: "evidence", VisualHint: "office interior"},
		{Title: "resolution", VisualHint: "sunset harbor"},
	}
}

func testPayload(fourAct bool) *types.NarrativePayload {
	p := &types.NarrativePayload{
		Title:   "Test Article",
		Slug:    "test-article",
		Content: "<p>intro</p><h2>Alpha</h2><p>a</p><h2>Beta</h2><p>b</p>",
		App:     "relocation",
		Sections: []types.Section{
			{Index: 0, Title: "Alpha", WordCount: 1},
			{Index: 1, Title: "Beta", WordCount: 1},
		},
		WordCount: 4,
	}
	if fourAct {
		p.FourActContent = testBeats()
	}
	return p
}

func registerStub[I any, O any](env *testsuite.TestWorkflowEnvironment, name string, fn func(ctx context.Context, in I) (O, error)) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func registerCommonStubs(env *testsuite.TestWorkflowEnvironment, persisted *[]PersistArticleInput, fourAct bool) {
	registerStub(env, ActivityResearch, func(ctx context.Context, in ResearchInput) (*types.ResearchResult, error) {
		return &types.ResearchResult{
			Curated: types.CuratedSet{
				Sources: []types.CuratedSource{{SourceID: "news_0", Summary: "s"}},
			},
			TotalCostUSD: 0.26,
		}, nil
	})
	registerStub(env, ActivityGenerateNarrative, func(ctx context.Context, in NarrativeInput) (*NarrativeOutput, error) {
		return &NarrativeOutput{Payload: testPayload(fourAct), CostUSD: 0.05}, nil
	})
	registerStub(env, ActivityClassifySections, func(ctx context.Context, in ClassifyInput) ([]float64, error) {
		return media.EvenSectionTimes(in.DurationSeconds, len(in.SectionTitles)), nil
	})
	registerStub(env, ActivityPersistArticle, func(ctx context.Context, in PersistArticleInput) (*PersistArticleOutput, error) {
		*persisted = append(*persisted, in)
		return &PersistArticleOutput{ArticleID: "11111111-1111-1111-1111-111111111111", Slug: in.Payload.Slug}, nil
	})
	registerStub(env, ActivitySyncKnowledge, func(ctx context.Context, in SyncKnowledgeInput) (struct{}, error) {
		return struct{}{}, nil
	})
	registerStub(env, ActivityPublishProgress, func(ctx context.Context, in ProgressInput) (struct{}, error) {
		return struct{}{}, nil
	})
}

func TestArticleCreationPublishesWithVideo(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	var persisted []PersistArticleInput
	registerCommonStubs(env, &persisted, true)
	registerStub(env, ActivityGenerateVideo, func(ctx context.Context, in VideoInput) (*VideoOutput, error) {
		return &VideoOutput{
			VideoNarrative: media.BuildVideoNarrative("pb1", "asset1", in.Beats, "prompt", "four_act", false),
			CostUSD:        0.6,
		}, nil
	})

	env.ExecuteWorkflow(ArticleCreation, types.ArticleSeed{
		Topic: "visa rules", ArticleType: "news", App: "relocation",
	})
	if !env.IsWorkflowCompleted() || env.GetWorkflowError() != nil {
		t.Fatalf("workflow did not complete cleanly: %v", env.GetWorkflowError())
	}

	var result types.RunResult
	if err := env.GetWorkflowResult(&result); err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.Status != types.RunCreated {
		t.Fatalf("status = %q, want created", result.Status)
	}
	if result.VideoPlaybackID != "pb1" {
		t.Fatalf("playback id = %q", result.VideoPlaybackID)
	}
	if len(persisted) != 2 {
		t.Fatalf("expected draft + publish persists, got %d", len(persisted))
	}
	if persisted[0].Status != types.StatusDraft || persisted[1].Status != types.StatusPublished {
		t.Fatalf("persist statuses = %q, %q", persisted[0].Status, persisted[1].Status)
	}
	final := persisted[1].Payload
	if final.VideoPlaybackID != "pb1" || final.VideoNarrative == nil {
		t.Fatalf("final payload missing video binding")
	}
	if !strings.Contains(final.Content, "<figure") {
		t.Fatalf("section images not injected:\n%s", final.Content)
	}
	if final.HeroAssetURL == "" {
		t.Fatalf("hero asset url not set")
	}

	qr, err := env.QueryWorkflow(QueryPhase)
	if err != nil {
		t.Fatalf("phase query: %v", err)
	}
	var phase string
	if err := qr.Get(&phase); err != nil {
		t.Fatalf("phase decode: %v", err)
	}
	if phase != "done" {
		t.Fatalf("phase = %q, want done", phase)
	}
}

func TestArticleCreationVideoFailureDowngrades(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	var persisted []PersistArticleInput
	registerCommonStubs(env, &persisted, true)
	registerStub(env, ActivityGenerateVideo, func(ctx context.Context, in VideoInput) (*VideoOutput, error) {
		return nil, temporal.NewNonRetryableApplicationError("provider rejected prompt", "upstream_4xx", nil)
	})

	env.ExecuteWorkflow(ArticleCreation, types.ArticleSeed{
		Topic: "visa rules", ArticleType: "news", App: "relocation",
	})
	if !env.IsWorkflowCompleted() || env.GetWorkflowError() != nil {
		t.Fatalf("video failure must not fail the run: %v", env.GetWorkflowError())
	}

	var result types.RunResult
	if err := env.GetWorkflowResult(&result); err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.Status != types.RunCreatedWithWarnings {
		t.Fatalf("status = %q, want created_with_warnings", result.Status)
	}
	if result.VideoPlaybackID != "" {
		t.Fatalf("playback id leaked: %q", result.VideoPlaybackID)
	}
	if len(persisted) != 2 || persisted[1].Status != types.StatusPublished {
		t.Fatalf("text-only article must still publish: %+v", persisted)
	}
	if persisted[1].Payload.VideoPlaybackID != "" {
		t.Fatalf("payload must stay video-free")
	}
}

func TestTopicClusterReusesParentVideo(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	// GenerateVideo deliberately unregistered: a topic child calling it is a bug.
	var persisted []PersistArticleInput
	registerCommonStubs(env, &persisted, false)

	env.ExecuteWorkflow(TopicCluster, types.TopicClusterSeed{
		Topic:                "cost of living in Singapore",
		App:                  "relocation",
		CountryCode:          "SG",
		ParentID:             "22222222-2222-2222-2222-222222222222",
		ClusterID:            "33333333-3333-3333-3333-333333333333",
		ParentPlaybackID:     "pb9",
		ParentFourActContent: testBeats(),
		TargetKeyword:        "cost of living singapore",
	})
	if !env.IsWorkflowCompleted() || env.GetWorkflowError() != nil {
		t.Fatalf("workflow failed: %v", env.GetWorkflowError())
	}

	var result types.RunResult
	if err := env.GetWorkflowResult(&result); err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.VideoPlaybackID != "pb9" {
		t.Fatalf("parent playback not reused: %q", result.VideoPlaybackID)
	}
	if len(persisted) != 1 {
		t.Fatalf("expected a single publish, got %d", len(persisted))
	}
	p := persisted[0].Payload
	if p.VideoPlaybackID != "pb9" || p.VideoNarrative == nil || !p.VideoNarrative.ReusedFromParent {
		t.Fatalf("payload must carry the reused parent video")
	}
	if p.ArticleMode != types.ModeTopic || p.ParentID == "" || p.ClusterID == "" {
		t.Fatalf("cluster placement wrong: mode=%q parent=%q cluster=%q", p.ArticleMode, p.ParentID, p.ClusterID)
	}
}

func TestNewsMonitorSkipsCoveredAndSpawnsChildren(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	env.RegisterWorkflowWithOptions(func(ctx workflow.Context, seed types.ArticleSeed) (*types.RunResult, error) {
		return &types.RunResult{Status: types.RunCreated, ArticleID: "child-" + types.Slugify(seed.Topic)}, nil
	}, workflow.RegisterOptions{Name: WorkflowArticle})

	registerStub(env, ActivitySearchNews, func(ctx context.Context, in SearchNewsInput) (*SearchNewsOutput, error) {
		return &SearchNewsOutput{Stories: []types.RawSource{
			{Title: "Fund Closes At Record", URL: "https://a.example/1"},
			{Title: "Already Covered Story", URL: "https://a.example/2"},
			{Title: "New Buyout Announced", URL: "https://a.example/3"},
		}}, nil
	})
	registerStub(env, ActivityGetRecentArticles, func(ctx context.Context, in RecentArticlesInput) ([]RecentArticle, error) {
		return []RecentArticle{{ID: "r1", Title: "Already Covered Story", Slug: "already-covered-story"}}, nil
	})
	registerStub(env, ActivityAssessRelevance, func(ctx context.Context, in AssessRelevanceInput) ([]AssessedStory, error) {
		if len(in.Stories) != 2 {
			t.Errorf("assessor saw %d stories, want 2 after dedupe", len(in.Stories))
		}
		return []AssessedStory{
			{Title: in.Stories[1].Title, Priority: "medium", RelevanceScore: 0.9},
			{Title: in.Stories[0].Title, Priority: "high", RelevanceScore: 0.7},
		}, nil
	})
	registerStub(env, ActivityAppendScrapeNote, func(ctx context.Context, in ScrapeNoteInput) (struct{}, error) {
		return struct{}{}, nil
	})

	env.ExecuteWorkflow(NewsMonitor, types.MonitorSeed{App: "placement", Scheduled: true})
	if !env.IsWorkflowCompleted() || env.GetWorkflowError() != nil {
		t.Fatalf("workflow failed: %v", env.GetWorkflowError())
	}

	var result types.MonitorResult
	if err := env.GetWorkflowResult(&result); err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.StoriesSeen != 3 {
		t.Fatalf("stories seen = %d", result.StoriesSeen)
	}
	if result.SkippedDupes != 1 {
		t.Fatalf("skipped dupes = %d, want 1", result.SkippedDupes)
	}
	if result.StoriesSelected != 2 || len(result.ArticlesCreated) != 2 {
		t.Fatalf("selected=%d created=%d", result.StoriesSelected, len(result.ArticlesCreated))
	}
	// High priority outranks the higher raw score.
	if result.ArticlesCreated[0] != "child-fund-closes-at-record" {
		t.Fatalf("priority ordering wrong: %v", result.ArticlesCreated)
	}
}

func TestNewsMonitorStopSignal(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	registerStub(env, ActivitySearchNews, func(ctx context.Context, in SearchNewsInput) (*SearchNewsOutput, error) {
		return &SearchNewsOutput{Stories: []types.RawSource{
			{Title: "Fund Closes At Record", URL: "https://a.example/1"},
		}}, nil
	})
	registerStub(env, ActivityGetRecentArticles, func(ctx context.Context, in RecentArticlesInput) ([]RecentArticle, error) {
		return nil, nil
	})
	registerStub(env, ActivityAssessRelevance, func(ctx context.Context, in AssessRelevanceInput) ([]AssessedStory, error) {
		return []AssessedStory{{Title: in.Stories[0].Title, Priority: "high", RelevanceScore: 0.9}}, nil
	})
	registerStub(env, ActivityAppendScrapeNote, func(ctx context.Context, in ScrapeNoteInput) (struct{}, error) {
		return struct{}{}, nil
	})

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(SignalMonitorStop, nil)
	}, 0)

	env.ExecuteWorkflow(NewsMonitor, types.MonitorSeed{App: "placement", Scheduled: true})
	if !env.IsWorkflowCompleted() || env.GetWorkflowError() != nil {
		t.Fatalf("workflow failed: %v", env.GetWorkflowError())
	}

	var result types.MonitorResult
	if err := env.GetWorkflowResult(&result); err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.StoriesSelected != 0 || len(result.ArticlesCreated) != 0 {
		t.Fatalf("stopped monitor must not spawn children: %+v", result)
	}
}

func TestSegmentVideoGeneratesBeatsWhenMissing(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	registerStub(env, ActivitySegmentBeats, func(ctx context.Context, in SegmentBeatsInput) ([]types.FourActBeat, error) {
		if in.Segment != "family" {
			t.Errorf("segment = %q", in.Segment)
		}
		return testBeats(), nil
	})
	registerStub(env, ActivityGenerateVideo, func(ctx context.Context, in VideoInput) (*VideoOutput, error) {
		if in.ReferenceImageURL != "https://image.mux.com/hero/thumbnail.jpg?time=1.5&width=800" {
			t.Errorf("character reference not forwarded: %q", in.ReferenceImageURL)
		}
		return &VideoOutput{
			VideoNarrative: media.BuildVideoNarrative("pb-seg", "asset-seg", in.Beats, "p", "four_act", false),
			CostUSD:        0.6,
		}, nil
	})

	env.ExecuteWorkflow(SegmentVideo, types.SegmentVideoSeed{
		CountryName:           "Singapore",
		Segment:               "family",
		App:                   "relocation",
		CharacterReferenceURL: "https://image.mux.com/hero/thumbnail.jpg?time=1.5&width=800",
	})
	if !env.IsWorkflowCompleted() || env.GetWorkflowError() != nil {
		t.Fatalf("workflow failed: %v", env.GetWorkflowError())
	}

	var result types.SegmentVideoResult
	if err := env.GetWorkflowResult(&result); err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.VideoNarrative == nil || result.VideoNarrative.PlaybackID != "pb-seg" {
		t.Fatalf("segment video missing: %+v", result.VideoNarrative)
	}
}

func TestCountryGuideAssemblesHub(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	env.RegisterWorkflowWithOptions(func(ctx workflow.Context, seed types.ArticleSeed) (*types.RunResult, error) {
		return &types.RunResult{
			Status:          types.RunCreated,
			ArticleID:       "55555555-5555-5555-5555-555555555555",
			VideoPlaybackID: "pbh",
			FourActContent:  testBeats(),
			TotalCostUSD:    1.1,
		}, nil
	}, workflow.RegisterOptions{Name: WorkflowArticle})

	var segRefs []string
	env.RegisterWorkflowWithOptions(func(ctx workflow.Context, seed types.SegmentVideoSeed) (*types.SegmentVideoResult, error) {
		segRefs = append(segRefs, seed.CharacterReferenceURL)
		res := &types.SegmentVideoResult{Segment: seed.Segment, CostUSD: 0.6}
		if seed.Segment == "hero" {
			res.HeroThumbURL = "https://image.mux.com/pb-hero-seg/thumbnail.jpg"
		}
		return res, nil
	}, workflow.RegisterOptions{Name: WorkflowSegmentVideo})

	var topicSeeds []types.TopicClusterSeed
	env.RegisterWorkflowWithOptions(func(ctx workflow.Context, seed types.TopicClusterSeed) (*types.RunResult, error) {
		topicSeeds = append(topicSeeds, seed)
		return &types.RunResult{Status: types.RunCreated}, nil
	}, workflow.RegisterOptions{Name: WorkflowTopicCluster})

	registerStub(env, ActivityDiscoverKeywords, func(ctx context.Context, in DiscoverKeywordsInput) ([]DiscoveredKeyword, error) {
		return []DiscoveredKeyword{
			{Keyword: "visa requirements", Volume: 900, PlanningType: "visa"},
			{Keyword: "international schools", Volume: 400, PlanningType: "schools"},
		}, nil
	})
	registerStub(env, ActivityGetArticle, func(ctx context.Context, id string) (*types.NarrativePayload, error) {
		return testPayload(true), nil
	})
	var hub PersistHubInput
	registerStub(env, ActivityPersistHub, func(ctx context.Context, in PersistHubInput) (*PersistHubOutput, error) {
		hub = in
		return &PersistHubOutput{HubID: "66666666-6666-6666-6666-666666666666", Slug: in.Slug}, nil
	})

	env.ExecuteWorkflow(CountryGuide, types.CountryGuideSeed{
		CountryName: "Singapore", CountryCode: "SG", App: "relocation",
	})
	if !env.IsWorkflowCompleted() || env.GetWorkflowError() != nil {
		t.Fatalf("workflow failed: %v", env.GetWorkflowError())
	}

	var result types.GuideResult
	if err := env.GetWorkflowResult(&result); err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.Status != types.RunCreated {
		t.Fatalf("status = %q", result.Status)
	}
	if result.SegmentsDone != len(guideSegments) {
		t.Fatalf("segments done = %d", result.SegmentsDone)
	}
	if result.TopicsDone != 2 {
		t.Fatalf("topics done = %d", result.TopicsDone)
	}
	if len(segRefs) != len(guideSegments) {
		t.Fatalf("segment children = %d, want %d", len(segRefs), len(guideSegments))
	}
	if !strings.Contains(segRefs[0], "pbh") {
		t.Errorf("hero segment missed the article character reference: %q", segRefs[0])
	}
	for _, ref := range segRefs[1:] {
		if ref != "https://image.mux.com/pb-hero-seg/thumbnail.jpg" {
			t.Errorf("segment did not chain off the hero segment: %q", ref)
		}
	}
	for _, tseed := range topicSeeds {
		if tseed.ParentPlaybackID != "pbh" || tseed.ClusterID == "" || len(tseed.ParentFourActContent) != 4 {
			t.Errorf("topic seed not wired to the hero: %+v", tseed)
		}
	}
	if hub.Slug != "singapore" || hub.VideoPlaybackID != "pbh" || hub.Status != types.StatusPublished {
		t.Fatalf("hub input wrong: %+v", hub)
	}
	if result.HubSlug != "singapore" {
		t.Fatalf("hub slug = %q", result.HubSlug)
	}
}

func TestCompanyProfileFlagsLowConfidence(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()

	registerStub(env, ActivityGetCompanyBySlug, func(ctx context.Context, slug string) (*PersistCompanyOutput, error) {
		return nil, nil
	})
	registerStub(env, ActivityCrawlSite, func(ctx context.Context, in CrawlSiteInput) (*CrawlSiteOutput, error) {
		return &CrawlSiteOutput{Title: "Acme Capital", Content: "We invest."}, nil
	})
	registerStub(env, ActivityResearch, func(ctx context.Context, in ResearchInput) (*types.ResearchResult, error) {
		return &types.ResearchResult{Curated: types.CuratedSet{Sources: []types.CuratedSource{{SourceID: "news_0"}}}}, nil
	})
	registerStub(env, ActivityAmbiguityCheck, func(ctx context.Context, in AmbiguityInput) (*AmbiguityOutput, error) {
		return &AmbiguityOutput{Confidence: 0.3}, nil
	})
	registerStub(env, ActivityGenerateNarrative, func(ctx context.Context, in NarrativeInput) (*NarrativeOutput, error) {
		if !in.CompanyProfile {
			t.Errorf("company profile flag not set")
		}
		return &NarrativeOutput{Payload: testPayload(false)}, nil
	})
	registerStub(env, ActivityExtractLogo, func(ctx context.Context, in ExtractLogoInput) (*ExtractLogoOutput, error) {
		return &ExtractLogoOutput{}, nil
	})
	var persistedStatus string
	registerStub(env, ActivityPersistCompany, func(ctx context.Context, in PersistCompanyInput) (*PersistCompanyOutput, error) {
		persistedStatus = in.Status
		return &PersistCompanyOutput{CompanyID: "44444444-4444-4444-4444-444444444444", Slug: in.Slug}, nil
	})
	registerStub(env, ActivitySyncKnowledge, func(ctx context.Context, in SyncKnowledgeInput) (struct{}, error) {
		return struct{}{}, nil
	})
	registerStub(env, ActivityPublishProgress, func(ctx context.Context, in ProgressInput) (struct{}, error) {
		return struct{}{}, nil
	})

	env.ExecuteWorkflow(CompanyProfile, types.CompanySeed{URL: "https://acme-capital.com", App: "placement"})
	if !env.IsWorkflowCompleted() || env.GetWorkflowError() != nil {
		t.Fatalf("workflow failed: %v", env.GetWorkflowError())
	}

	var result types.CompanyResult
	if err := env.GetWorkflowResult(&result); err != nil {
		t.Fatalf("result: %v", err)
	}
	if !result.NeedsReview {
		t.Fatalf("low confidence must flag review")
	}
	if persistedStatus != types.StatusDraft {
		t.Fatalf("low-confidence profile persisted as %q, want draft", persistedStatus)
	}
	if result.Slug != "acme-capital" {
		t.Fatalf("slug = %q", result.Slug)
	}
}

func TestCompanyIdentityFromURL(t *testing.T) {
	cases := []struct {
		in   string
		name string
		slug string
	}{
		{"https://www.acme-capital.com/about", "Acme Capital", "acme-capital"},
		{"https://borealis.io", "Borealis", "borealis"},
		{"", "", ""},
	}
	for _, tc := range cases {
		name, slug := companyIdentityFromURL(tc.in)
		if name != tc.name || slug != tc.slug {
			t.Fatalf("companyIdentityFromURL(%q) = (%q, %q), want (%q, %q)", tc.in, name, slug, tc.name, tc.slug)
		}
	}
}
