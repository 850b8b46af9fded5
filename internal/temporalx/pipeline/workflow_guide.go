package pipeline

import (
	"time"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/workflow"

	muxclient "github.com/yungbote/pressroom-backend/internal/clients/mux"
	types "github.com/yungbote/pressroom-backend/internal/domain"
	"github.com/yungbote/pressroom-backend/internal/media"
)

// guideSegments are the per-audience videos every location guide carries. The
// hero segment renders first so the rest can chain off its cast.
var guideSegments = []string{"hero", "family", "finance", "daily", "yolo"}

// CountryGuide orchestrates a full location cluster: the hero guide article
// with its video, one video per audience segment, a fan-out of supporting
// topic articles, and the hub row that ties them together.
func CountryGuide(ctx workflow.Context, seed types.CountryGuideSeed) (*types.GuideResult, error) {
	log := workflow.GetLogger(ctx)
	result := &types.GuideResult{Status: types.RunCreated}
	info := workflow.GetInfo(ctx)

	var clusterID string
	if err := workflow.SideEffect(ctx, func(workflow.Context) interface{} {
		return uuid.NewString()
	}).Get(&clusterID); err != nil {
		result.Status = types.RunFailed
		return result, err
	}

	// Hero guide article, video included.
	heroCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID:               info.WorkflowExecution.ID + "-hero",
		WorkflowExecutionTimeout: time.Hour,
	})
	var hero types.RunResult
	if err := workflow.ExecuteChildWorkflow(heroCtx, WorkflowArticle, types.ArticleSeed{
		Topic:        "The complete guide to living in " + seed.CountryName,
		ArticleType:  "guide",
		App:          seed.App,
		Jurisdiction: seed.CountryCode,
		ArticleMode:  types.ModeGuide,
		ClusterID:    clusterID,
		CountryCode:  seed.CountryCode,
	}).Get(ctx, &hero); err != nil {
		result.Status = types.RunFailed
		result.Errors = append(result.Errors, "hero: "+err.Error())
		return result, err
	}
	result.HeroArticleID = hero.ArticleID
	result.VideoPlaybackID = hero.VideoPlaybackID
	result.TotalCostUSD += hero.TotalCostUSD
	if hero.Status == types.RunCreatedWithWarnings {
		result.Status = types.RunCreatedWithWarnings
		result.Errors = append(result.Errors, hero.Errors...)
	}

	// The hero article's opening-act thumbnail seeds the cast.
	characterRef := ""
	if hero.VideoPlaybackID != "" {
		characterRef = muxclient.ThumbnailURL(hero.VideoPlaybackID, types.ActMidpoint(0), media.ThumbWidth, 0)
	}

	segmentSeed := func(segment, ref string) types.SegmentVideoSeed {
		return types.SegmentVideoSeed{
			CountryName:           seed.CountryName,
			Segment:               segment,
			ArticleID:             hero.ArticleID,
			VideoQuality:          seed.VideoQuality,
			CharacterReferenceURL: ref,
			App:                   seed.App,
		}
	}
	segmentOpts := func(segment string) workflow.Context {
		return workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID:               info.WorkflowExecution.ID + "-segment-" + segment,
			WorkflowExecutionTimeout: 30 * time.Minute,
		})
	}

	// Hero segment first; its result carries the reference the rest chain on.
	var heroSeg types.SegmentVideoResult
	if err := workflow.ExecuteChildWorkflow(segmentOpts(guideSegments[0]),
		WorkflowSegmentVideo, segmentSeed(guideSegments[0], characterRef)).Get(ctx, &heroSeg); err != nil {
		log.Warn("segment video failed", "segment", guideSegments[0], "error", err)
		result.Status = types.RunCreatedWithWarnings
		result.Errors = append(result.Errors, "segment "+guideSegments[0]+": "+err.Error())
	} else {
		result.SegmentsDone++
		result.TotalCostUSD += heroSeg.CostUSD
		if heroSeg.HeroThumbURL != "" {
			characterRef = heroSeg.HeroThumbURL
		}
	}

	rest := guideSegments[1:]
	var segFutures []workflow.ChildWorkflowFuture
	for _, segment := range rest {
		segFutures = append(segFutures, workflow.ExecuteChildWorkflow(
			segmentOpts(segment), WorkflowSegmentVideo, segmentSeed(segment, characterRef)))
	}
	for i, f := range segFutures {
		var seg types.SegmentVideoResult
		if err := f.Get(ctx, &seg); err != nil {
			log.Warn("segment video failed", "segment", rest[i], "error", err)
			result.Status = types.RunCreatedWithWarnings
			result.Errors = append(result.Errors, "segment "+rest[i]+": "+err.Error())
			continue
		}
		result.SegmentsDone++
		result.TotalCostUSD += seg.CostUSD
	}

	// Topic fan-out runs detached; the hub publishes without waiting for it.
	var keywords []DiscoveredKeyword
	if err := workflow.ExecuteActivity(withOpts(ctx, 2*time.Minute, 2), ActivityDiscoverKeywords, DiscoverKeywordsInput{
		CountryName: seed.CountryName,
		App:         seed.App,
		MaxKeywords: 8,
	}).Get(ctx, &keywords); err != nil {
		log.Warn("keyword discovery failed; skipping topic fan-out", "error", err)
		result.Errors = append(result.Errors, "keywords: "+err.Error())
	}
	for _, kw := range keywords {
		tctx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID:               info.WorkflowExecution.ID + "-topic-" + types.Slugify(kw.Keyword),
			WorkflowExecutionTimeout: time.Hour,
			ParentClosePolicy:        enumspb.PARENT_CLOSE_POLICY_ABANDON,
		})
		f := workflow.ExecuteChildWorkflow(tctx, WorkflowTopicCluster, types.TopicClusterSeed{
			Topic:                kw.Keyword + " in " + seed.CountryName,
			App:                  seed.App,
			CountryCode:          seed.CountryCode,
			ParentID:             hero.ArticleID,
			ClusterID:            clusterID,
			ParentPlaybackID:     hero.VideoPlaybackID,
			ParentFourActContent: hero.FourActContent,
			TargetKeyword:        kw.Keyword,
			KeywordVolume:        kw.Volume,
			PlanningType:         kw.PlanningType,
		})
		if err := f.GetChildWorkflowExecution().Get(ctx, nil); err != nil {
			log.Warn("topic child failed to start", "keyword", kw.Keyword, "error", err)
			continue
		}
		result.TopicsDone++
	}

	// Hub assembly from the persisted hero payload.
	var heroPayload *types.NarrativePayload
	if err := workflow.ExecuteActivity(withOpts(ctx, 30*time.Second, 3), ActivityGetArticle, hero.ArticleID).Get(ctx, &heroPayload); err != nil || heroPayload == nil {
		result.Status = types.RunCreatedWithWarnings
		result.Errors = append(result.Errors, "hub: hero payload unavailable")
		return result, nil
	}

	var hub PersistHubOutput
	if err := workflow.ExecuteActivity(withOpts(ctx, 30*time.Second, 3), ActivityPersistHub, PersistHubInput{
		CountryCode:     seed.CountryCode,
		LocationName:    seed.CountryName,
		Slug:            types.Slugify(seed.CountryName),
		Title:           heroPayload.Title,
		MetaDescription: heroPayload.MetaDescription,
		HubContent:      heroPayload.Content,
		Payload:         heroPayload,
		VideoPlaybackID: hero.VideoPlaybackID,
		Status:          types.StatusPublished,
	}).Get(ctx, &hub); err != nil {
		result.Status = types.RunFailed
		result.Errors = append(result.Errors, "hub: "+err.Error())
		return result, err
	}
	result.HubID = hub.HubID
	result.HubSlug = hub.Slug

	return result, nil
}
