package pipeline

import (
	"time"

	"go.temporal.io/sdk/workflow"

	types "github.com/yungbote/pressroom-backend/internal/domain"
	"github.com/yungbote/pressroom-backend/internal/media"
)

// TopicCluster produces one supporting article of a guide cluster. It never
// generates video: the parent guide's playback id is reused for all section
// imagery, which makes topic children an order of magnitude cheaper.
func TopicCluster(ctx workflow.Context, seed types.TopicClusterSeed) (*types.RunResult, error) {
	log := workflow.GetLogger(ctx)
	result := &types.RunResult{Status: types.RunCreated, ClusterID: seed.ClusterID}
	phases := trackPhase(ctx)

	phases.advance(ctx, seed.App, "research", 5, 0)

	var res types.ResearchResult
	if err := workflow.ExecuteActivity(withOpts(ctx, 12*time.Minute, 2), ActivityResearch, ResearchInput{
		Topic:        seed.Topic,
		App:          seed.App,
		Jurisdiction: seed.CountryCode,
	}).Get(ctx, &res); err != nil {
		result.Status = types.RunFailed
		result.Errors = append(result.Errors, "research: "+err.Error())
		return result, err
	}
	cost := res.TotalCostUSD
	result.DataSources = res.DataSources

	phases.advance(ctx, seed.App, "narrative", 40, cost)

	var narr NarrativeOutput
	if err := workflow.ExecuteActivity(withOpts(ctx, 3*time.Minute, 2), ActivityGenerateNarrative, NarrativeInput{
		Topic:        seed.Topic,
		ArticleType:  "topic",
		App:          seed.App,
		Jurisdiction: seed.CountryCode,
		Curated:      res.Curated,
	}).Get(ctx, &narr); err != nil {
		result.Status = types.RunFailed
		result.Errors = append(result.Errors, "narrative: "+err.Error())
		return result, err
	}
	cost += narr.CostUSD

	p := narr.Payload
	p.ArticleMode = types.ModeTopic
	p.ClusterID = seed.ClusterID
	p.ParentID = seed.ParentID
	p.TargetKeyword = seed.TargetKeyword
	p.KeywordVolume = seed.KeywordVolume
	p.ResearchCostUSD = res.TotalCostUSD
	p.DataSources = res.DataSources

	// Reuse the parent's video wholesale; only the thumbnail times differ.
	if seed.ParentPlaybackID != "" && len(seed.ParentFourActContent) == 4 {
		vn := media.BuildVideoNarrative(seed.ParentPlaybackID, "", seed.ParentFourActContent, "", "four_act", true)
		p.FourActContent = seed.ParentFourActContent
		bindVideo(ctx, p, vn)
		result.VideoPlaybackID = vn.PlaybackID
		result.HeroThumbURL = vn.MuxURLs.HeroThumb
	}

	phases.advance(ctx, seed.App, "publish", 85, cost)

	var out PersistArticleOutput
	if err := workflow.ExecuteActivity(withOpts(ctx, 30*time.Second, 3), ActivityPersistArticle, PersistArticleInput{
		Payload:     p,
		ArticleType: "topic",
		Status:      types.StatusPublished,
		CountryCode: seed.CountryCode,
		CountryRole: "topic",
	}).Get(ctx, &out); err != nil {
		result.Status = types.RunFailed
		result.Errors = append(result.Errors, "persist: "+err.Error())
		return result, err
	}
	result.ArticleID = out.ArticleID
	result.Slug = out.Slug
	result.WordCount = p.WordCount
	result.FourActContent = p.FourActContent
	result.TotalCostUSD = cost

	if err := workflow.ExecuteActivity(withOpts(ctx, 2*time.Minute, 1), ActivitySyncKnowledge, SyncKnowledgeInput{
		App:       seed.App,
		ContentID: out.ArticleID,
		Title:     p.Title,
		Body:      p.Content,
	}).Get(ctx, nil); err != nil {
		log.Warn("knowledge sync failed", "error", err)
		result.Errors = append(result.Errors, "kg: "+err.Error())
	}

	phases.advance(ctx, seed.App, "done", 100, cost)
	return result, nil
}
