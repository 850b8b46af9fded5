package pipeline

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	types "github.com/yungbote/pressroom-backend/internal/domain"
	"github.com/yungbote/pressroom-backend/internal/media"
)

func withOpts(ctx workflow.Context, timeout time.Duration, attempts int32) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    attempts,
		},
	})
}

// phaseTracker backs the phase query handler. advance moves the phase and
// emits the matching progress event.
type phaseTracker struct {
	phase string
}

func trackPhase(ctx workflow.Context) *phaseTracker {
	t := &phaseTracker{phase: "starting"}
	if err := workflow.SetQueryHandler(ctx, QueryPhase, func() (string, error) {
		return t.phase, nil
	}); err != nil {
		workflow.GetLogger(ctx).Warn("phase query registration failed", "error", err)
	}
	return t
}

func (t *phaseTracker) advance(ctx workflow.Context, app, phase string, percent, cost float64) {
	t.phase = phase
	publishProgress(ctx, app, phase, percent, cost)
}

func publishProgress(ctx workflow.Context, app, phase string, percent, cost float64) {
	pctx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	_ = workflow.ExecuteActivity(pctx, ActivityPublishProgress, ProgressInput{
		WorkflowID: workflow.GetInfo(ctx).WorkflowExecution.ID,
		App:        app,
		Phase:      phase,
		Percent:    percent,
		CostUSD:    cost,
	}).Get(pctx, nil)
}

// ArticleCreation is the core pipeline: research, narrative, video, section
// imagery, and persistence. A video failure downgrades the run to a text-only
// publish instead of failing it.
func ArticleCreation(ctx workflow.Context, seed types.ArticleSeed) (*types.RunResult, error) {
	log := workflow.GetLogger(ctx)
	result := &types.RunResult{Status: types.RunCreated}
	phases := trackPhase(ctx)

	mode := seed.ArticleMode
	if mode == "" {
		mode = types.ModeStory
	}

	phases.advance(ctx, seed.App, "research", 5, 0)

	var res types.ResearchResult
	if err := workflow.ExecuteActivity(withOpts(ctx, 12*time.Minute, 2), ActivityResearch, ResearchInput{
		Topic:        seed.Topic,
		App:          seed.App,
		Jurisdiction: seed.Jurisdiction,
	}).Get(ctx, &res); err != nil {
		result.Status = types.RunFailed
		result.Errors = append(result.Errors, "research: "+err.Error())
		return result, err
	}
	cost := res.TotalCostUSD
	result.DataSources = res.DataSources
	result.DuplicateGroups = res.Curated.DuplicateGroups

	phases.advance(ctx, seed.App, "narrative", 35, cost)

	fourAct := !seed.SkipVideo
	var narr NarrativeOutput
	if err := workflow.ExecuteActivity(withOpts(ctx, 3*time.Minute, 2), ActivityGenerateNarrative, NarrativeInput{
		Topic:           seed.Topic,
		ArticleType:     seed.ArticleType,
		App:             seed.App,
		TargetWordCount: seed.TargetWordCount,
		Jurisdiction:    seed.Jurisdiction,
		FourAct:         fourAct,
		Curated:         res.Curated,
	}).Get(ctx, &narr); err != nil {
		result.Status = types.RunFailed
		result.Errors = append(result.Errors, "narrative: "+err.Error())
		return result, err
	}
	cost += narr.CostUSD

	p := narr.Payload
	p.ArticleMode = mode
	p.ClusterID = seed.ClusterID
	p.ParentID = seed.ParentID
	p.ResearchCostUSD = res.TotalCostUSD
	p.DuplicateGroups = res.Curated.DuplicateGroups
	p.DataSources = res.DataSources

	// Draft checkpoint before the expensive media phase.
	var draft PersistArticleOutput
	if err := workflow.ExecuteActivity(withOpts(ctx, 30*time.Second, 3), ActivityPersistArticle, PersistArticleInput{
		Payload:     p,
		ArticleType: seed.ArticleType,
		Status:      types.StatusDraft,
		CountryCode: seed.CountryCode,
	}).Get(ctx, &draft); err != nil {
		result.Status = types.RunFailed
		result.Errors = append(result.Errors, "persist draft: "+err.Error())
		return result, err
	}
	result.ArticleID = draft.ArticleID
	result.Slug = draft.Slug

	if fourAct && len(p.FourActContent) == 4 {
		phases.advance(ctx, seed.App, "video", 55, cost)

		vctx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
			StartToCloseTimeout: 15 * time.Minute,
			HeartbeatTimeout:    30 * time.Second,
			RetryPolicy: &temporal.RetryPolicy{
				InitialInterval:    5 * time.Second,
				BackoffCoefficient: 2,
				MaximumAttempts:    2,
			},
		})
		var vid VideoOutput
		if err := workflow.ExecuteActivity(vctx, ActivityGenerateVideo, VideoInput{
			App:       seed.App,
			Beats:     p.FourActContent,
			Title:     p.Title,
			Mode:      mode,
			Country:   seed.CountryCode,
			ClusterID: seed.ClusterID,
			ArticleID: draft.ArticleID,
		}).Get(ctx, &vid); err != nil {
			log.Warn("video generation failed; publishing text-only", "error", err)
			result.Status = types.RunCreatedWithWarnings
			result.Errors = append(result.Errors, "video_generation_failed: "+err.Error())
		} else {
			cost += vid.CostUSD
			bindVideo(ctx, p, vid.VideoNarrative)
			result.VideoPlaybackID = vid.VideoNarrative.PlaybackID
			result.HeroThumbURL = vid.VideoNarrative.MuxURLs.HeroThumb
		}
	} else if seed.GenerateImages && len(p.SectionImagePrompts) > 0 {
		phases.advance(ctx, seed.App, "images", 55, cost)

		var imgs ImagesOutput
		if err := workflow.ExecuteActivity(withOpts(ctx, 5*time.Minute, 2), ActivityGenerateImages, ImagesInput{
			Prompts: p.SectionImagePrompts,
			Folder:  seed.App,
			Slug:    p.Slug,
			Role:    "section",
		}).Get(ctx, &imgs); err != nil {
			result.Status = types.RunCreatedWithWarnings
			result.Errors = append(result.Errors, "images: "+err.Error())
		} else {
			cost += imgs.CostUSD
			p.ContentImages = imgs.Images
			if len(imgs.Images) > 0 {
				p.FeaturedAssetURL = imgs.Images[0].URL
			}
		}
	}

	phases.advance(ctx, seed.App, "publish", 85, cost)

	var final PersistArticleOutput
	if err := workflow.ExecuteActivity(withOpts(ctx, 30*time.Second, 3), ActivityPersistArticle, PersistArticleInput{
		Payload:     p,
		ArticleType: seed.ArticleType,
		Status:      types.StatusPublished,
		CountryCode: seed.CountryCode,
	}).Get(ctx, &final); err != nil {
		result.Status = types.RunFailed
		result.Errors = append(result.Errors, "persist publish: "+err.Error())
		return result, err
	}

	// Knowledge sync is best effort; a graph outage never blocks publishing.
	if err := workflow.ExecuteActivity(withOpts(ctx, 2*time.Minute, 1), ActivitySyncKnowledge, SyncKnowledgeInput{
		App:       seed.App,
		ContentID: final.ArticleID,
		Title:     p.Title,
		Body:      p.Content,
	}).Get(ctx, nil); err != nil {
		log.Warn("knowledge sync failed", "error", err)
		result.Errors = append(result.Errors, "kg: "+err.Error())
	}

	result.WordCount = p.WordCount
	result.ClusterID = p.ClusterID
	result.FourActContent = p.FourActContent
	result.TotalCostUSD = cost

	phases.advance(ctx, seed.App, "done", 100, cost)
	return result, nil
}

// bindVideo attaches the playback descriptor to the payload and injects one
// act thumbnail per section into the body. Section timing goes through the
// classifier when available and falls back to an even spread.
func bindVideo(ctx workflow.Context, p *types.NarrativePayload, vn *types.VideoNarrative) {
	titles := make([]string, len(p.Sections))
	for i, s := range p.Sections {
		titles[i] = s.Title
	}

	var times []float64
	if len(titles) > 0 {
		if err := workflow.ExecuteActivity(withOpts(ctx, 30*time.Second, 2), ActivityClassifySections, ClassifyInput{
			SectionTitles:   titles,
			Beats:           p.FourActContent,
			DurationSeconds: vn.DurationSeconds,
		}).Get(ctx, &times); err != nil || len(times) != len(titles) {
			times = media.EvenSectionTimes(vn.DurationSeconds, len(titles))
		}
		p.Content = media.InjectSectionImages(p.Content, vn.PlaybackID, times)
	}

	p.VideoPlaybackID = vn.PlaybackID
	p.VideoAssetID = vn.AssetID
	p.VideoNarrative = vn
	p.HeroAssetURL = vn.MuxURLs.HeroThumb
	p.FeaturedAssetURL = vn.MuxURLs.HeroThumb
}
