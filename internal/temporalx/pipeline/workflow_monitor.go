package pipeline

import (
	"sort"
	"time"

	"go.temporal.io/sdk/workflow"

	types "github.com/yungbote/pressroom-backend/internal/domain"
)

const monitorMaxArticles = 3

// monitorKeywords is each app's standing news beat.
func monitorKeywords(app string) []string {
	switch app {
	case "placement", "pe_news", "finance":
		return []string{"private equity", "fund close", "leveraged buyout", "M&A advisory"}
	case "jobs", "recruiter":
		return []string{"hiring surge", "layoffs", "labor market", "remote work policy"}
	case "relocation":
		return []string{"visa changes", "immigration policy", "digital nomad", "cost of living"}
	default:
		return []string{app + " news"}
	}
}

func priorityRank(p string) int {
	switch p {
	case "high":
		return 0
	case "medium":
		return 1
	default:
		return 2
	}
}

// NewsMonitor is the scheduled sweep: search the beat, drop stories already
// covered, score the rest, and spawn article pipelines for the top picks.
func NewsMonitor(ctx workflow.Context, seed types.MonitorSeed) (*types.MonitorResult, error) {
	log := workflow.GetLogger(ctx)
	result := &types.MonitorResult{App: seed.App}
	started := workflow.Now(ctx)
	stop := workflow.GetSignalChannel(ctx, SignalMonitorStop)

	var news SearchNewsOutput
	if err := workflow.ExecuteActivity(withOpts(ctx, 2*time.Minute, 2), ActivitySearchNews, SearchNewsInput{
		App:      seed.App,
		Keywords: monitorKeywords(seed.App),
		Days:     2,
	}).Get(ctx, &news); err != nil {
		result.Errors = append(result.Errors, "search: "+err.Error())
		return result, err
	}
	result.StoriesSeen = len(news.Stories)

	var recent []RecentArticle
	if err := workflow.ExecuteActivity(withOpts(ctx, 30*time.Second, 3), ActivityGetRecentArticles, RecentArticlesInput{
		App:   seed.App,
		Days:  7,
		Limit: 50,
	}).Get(ctx, &recent); err != nil {
		result.Errors = append(result.Errors, "recent: "+err.Error())
		return result, err
	}

	// Cheap pre-filter before the model sees anything: a story whose slugified
	// title matches a recent article is already covered.
	recentSlugs := make(map[string]bool, len(recent))
	for _, r := range recent {
		recentSlugs[r.Slug] = true
	}
	fresh := news.Stories[:0]
	for _, s := range news.Stories {
		if recentSlugs[types.Slugify(s.Title)] {
			result.SkippedDupes++
			continue
		}
		fresh = append(fresh, s)
	}

	if len(fresh) == 0 {
		appendScrapeNote(ctx, "no_new_stories", 0, workflow.Now(ctx).Sub(started))
		return result, nil
	}

	var assessed []AssessedStory
	if err := workflow.ExecuteActivity(withOpts(ctx, 2*time.Minute, 2), ActivityAssessRelevance, AssessRelevanceInput{
		App:            seed.App,
		Stories:        fresh,
		RecentArticles: recent,
		MinRelevance:   0.5,
	}).Get(ctx, &assessed); err != nil {
		result.Errors = append(result.Errors, "assess: "+err.Error())
		return result, err
	}

	sort.SliceStable(assessed, func(i, j int) bool {
		if pi, pj := priorityRank(assessed[i].Priority), priorityRank(assessed[j].Priority); pi != pj {
			return pi < pj
		}
		return assessed[i].RelevanceScore > assessed[j].RelevanceScore
	})
	if len(assessed) > monitorMaxArticles {
		assessed = assessed[:monitorMaxArticles]
	}
	result.StoriesSelected = len(assessed)

	// A stop signal received any time before this point cancels the sweep
	// without spawning article pipelines.
	if stop.ReceiveAsync(nil) {
		result.StoriesSelected = 0
		appendScrapeNote(ctx, "stopped", 0, workflow.Now(ctx).Sub(started))
		return result, nil
	}

	info := workflow.GetInfo(ctx)
	var futures []workflow.ChildWorkflowFuture
	for _, story := range assessed {
		cctx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID:               info.WorkflowExecution.ID + "-article-" + types.Slugify(story.Title),
			WorkflowExecutionTimeout: time.Hour,
		})
		futures = append(futures, workflow.ExecuteChildWorkflow(cctx, WorkflowArticle, types.ArticleSeed{
			Topic:       story.Title,
			ArticleType: "news",
			App:         seed.App,
		}))
	}
	for _, f := range futures {
		var child types.RunResult
		if err := f.Get(ctx, &child); err != nil {
			log.Warn("monitor child failed", "error", err)
			result.Errors = append(result.Errors, "child: "+err.Error())
			continue
		}
		result.ArticlesCreated = append(result.ArticlesCreated, child.ArticleID)
	}

	appendScrapeNote(ctx, "completed", len(result.ArticlesCreated), workflow.Now(ctx).Sub(started))
	return result, nil
}

func appendScrapeNote(ctx workflow.Context, status string, found int, took time.Duration) {
	if err := workflow.ExecuteActivity(withOpts(ctx, 15*time.Second, 2), ActivityAppendScrapeNote, ScrapeNoteInput{
		Status:     status,
		Found:      found,
		DurationMs: took.Milliseconds(),
	}).Get(ctx, nil); err != nil {
		workflow.GetLogger(ctx).Warn("scrape history append failed", "error", err)
	}
}
