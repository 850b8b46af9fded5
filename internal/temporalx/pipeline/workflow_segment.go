package pipeline

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	types "github.com/yungbote/pressroom-backend/internal/domain"
)

// SegmentVideo produces one audience-segment video for a location guide. When
// the seed carries no storyboard, one is generated. The character reference
// URL chains segments off the hero video so the guide's cast stays coherent.
func SegmentVideo(ctx workflow.Context, seed types.SegmentVideoSeed) (*types.SegmentVideoResult, error) {
	result := &types.SegmentVideoResult{Segment: seed.Segment}

	beats := seed.FourActContent
	if len(beats) != 4 {
		if err := workflow.ExecuteActivity(withOpts(ctx, 2*time.Minute, 2), ActivitySegmentBeats, SegmentBeatsInput{
			CountryName: seed.CountryName,
			Segment:     seed.Segment,
			App:         seed.App,
		}).Get(ctx, &beats); err != nil {
			result.Errors = append(result.Errors, "beats: "+err.Error())
			return result, err
		}
	}

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
		App:               seed.App,
		Beats:             beats,
		Quality:           seed.VideoQuality,
		ReferenceImageURL: seed.CharacterReferenceURL,
		Title:             seed.CountryName + " " + seed.Segment,
		Mode:              types.ModeGuide,
		Country:           seed.CountryName,
		ArticleID:         seed.ArticleID,
	}).Get(ctx, &vid); err != nil {
		result.Errors = append(result.Errors, "video: "+err.Error())
		return result, err
	}

	result.VideoNarrative = vid.VideoNarrative
	result.HeroThumbURL = vid.VideoNarrative.MuxURLs.HeroThumb
	result.CostUSD = vid.CostUSD
	return result, nil
}
