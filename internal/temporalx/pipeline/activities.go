package pipeline

import (
	"context"
	"strings"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/yungbote/pressroom-backend/internal/clients/cloudinary"
	"github.com/yungbote/pressroom-backend/internal/clients/crawler"
	"github.com/yungbote/pressroom-backend/internal/clients/mux"
	"github.com/yungbote/pressroom-backend/internal/clients/newsapi"
	"github.com/yungbote/pressroom-backend/internal/clients/redis"
	"github.com/yungbote/pressroom-backend/internal/clients/videogen"
	repos "github.com/yungbote/pressroom-backend/internal/data/repos/content"
	types "github.com/yungbote/pressroom-backend/internal/domain"
	"github.com/yungbote/pressroom-backend/internal/kg"
	"github.com/yungbote/pressroom-backend/internal/media"
	"github.com/yungbote/pressroom-backend/internal/narrative"
	"github.com/yungbote/pressroom-backend/internal/platform/fault"
	"github.com/yungbote/pressroom-backend/internal/platform/logger"
	"github.com/yungbote/pressroom-backend/internal/platform/openai"
	"github.com/yungbote/pressroom-backend/internal/research"
)

// Activities bundles every external dependency the pipelines touch. All I/O
// happens here; the workflows stay deterministic.
type Activities struct {
	Log       *logger.Logger
	Articles  repos.ArticleRepo
	Hubs      repos.HubRepo
	Companies repos.CompanyRepo
	Countries repos.CountryRepo
	Boards    repos.BoardRepo
	History   repos.ScrapeHistoryRepo

	Researcher *research.Researcher
	Generator  *narrative.Generator
	Images     *media.ImageChainer

	AI      openai.Client
	Video   videogen.Client
	Media   mux.Client
	CDN     cloudinary.Client
	Crawler crawler.Client
	News    newsapi.Client
	KG      *kg.Syncer

	Progress redis.ProgressBus
}

func (a *Activities) Research(ctx context.Context, in ResearchInput) (*types.ResearchResult, error) {
	res, err := a.Researcher.Research(ctx, research.Seed{
		Topic:        in.Topic,
		App:          in.App,
		Jurisdiction: in.Jurisdiction,
	})
	if err != nil {
		return nil, fault.AsActivityError(err)
	}
	return res, nil
}

func (a *Activities) GenerateNarrative(ctx context.Context, in NarrativeInput) (*NarrativeOutput, error) {
	payload, cost, err := a.Generator.Generate(ctx, narrative.Request{
		Topic:           in.Topic,
		ArticleType:     in.ArticleType,
		App:             in.App,
		TargetWordCount: in.TargetWordCount,
		Jurisdiction:    in.Jurisdiction,
		FourAct:         in.FourAct,
		CompanyProfile:  in.CompanyProfile,
		Curated:         in.Curated,
	})
	if err != nil {
		return nil, fault.AsActivityError(err)
	}
	return &NarrativeOutput{Payload: payload, CostUSD: cost}, nil
}

// ClassifySections never fails hard: the classifier falls back to an even
// distribution internally.
func (a *Activities) ClassifySections(ctx context.Context, in ClassifyInput) ([]float64, error) {
	return media.ClassifySectionTimes(ctx, a.AI, a.Log, in.SectionTitles, in.Beats, in.DurationSeconds), nil
}

// GenerateVideo runs the full text-to-video leg: prompt assembly, generation,
// and ingestion into the media host. The host poll loop heartbeats so the
// workflow can distinguish a slow encode from a dead worker.
func (a *Activities) GenerateVideo(ctx context.Context, in VideoInput) (*VideoOutput, error) {
	if len(in.Beats) < 4 {
		return nil, fault.AsActivityError(fault.New(fault.KindSchemaValidation, "video", "need 4 act beats"))
	}

	prompt := media.BuildVideoPrompt(in.App, in.Beats)
	tier := "fast"
	if strings.EqualFold(in.Quality, "quality") {
		tier = "quality"
	}

	gen, err := a.Video.Generate(ctx, videogen.GenerateRequest{
		Prompt:            prompt,
		DurationSeconds:   media.VideoDurationSeconds(len(in.Beats)),
		Resolution:        "1080p",
		AspectRatio:       "16:9",
		ModelTier:         tier,
		ReferenceImageURL: in.ReferenceImageURL,
	})
	if err != nil {
		return nil, fault.AsActivityError(err)
	}

	passthrough := media.BuildPassthrough(in.Title, in.Mode, in.Country, in.App, in.ClusterID, in.ArticleID)
	asset, err := a.Media.Upload(ctx, gen.VideoURL, passthrough, map[string]string{"app": in.App}, func() {
		activity.RecordHeartbeat(ctx, "media-host-ingest")
	})
	if err != nil {
		return nil, fault.AsActivityError(err)
	}

	vn := media.BuildVideoNarrative(asset.PlaybackID, asset.AssetID, in.Beats, prompt, "four_act", false)
	return &VideoOutput{VideoNarrative: vn, CostUSD: gen.CostUSD}, nil
}

func (a *Activities) GenerateImages(ctx context.Context, in ImagesInput) (*ImagesOutput, error) {
	images, cost, err := a.Images.Chain(ctx, in.Prompts, in.InitialContextURL, in.Folder, in.Slug, in.Role)
	if err != nil {
		// Partial chains are still usable; surface what we have.
		if len(images) > 0 {
			a.Log.Warn("image chain broke partway", "got", len(images), "want", len(in.Prompts), "error", err)
			return &ImagesOutput{Images: images, CostUSD: cost}, nil
		}
		return nil, fault.AsActivityError(err)
	}
	return &ImagesOutput{Images: images, CostUSD: cost}, nil
}

// GenerateSegmentBeats asks the model for a four-act storyboard of one
// audience segment of a location guide.
func (a *Activities) GenerateSegmentBeats(ctx context.Context, in SegmentBeatsInput) ([]types.FourActBeat, error) {
	if a.AI == nil {
		return nil, fault.AsActivityError(fault.New(fault.KindConfigMissing, "segment_beats", "model not configured"))
	}

	beatSchema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"title", "hint", "factoid", "visual_hint"},
		"properties": map[string]any{
			"title":       map[string]any{"type": "string"},
			"hint":        map[string]any{"type": "string"},
			"factoid":     map[string]any{"type": "string"},
			"visual_hint": map[string]any{"type": "string"},
		},
	}
	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"beats"},
		"properties": map[string]any{
			"beats": map[string]any{
				"type":     "array",
				"minItems": 4,
				"maxItems": 4,
				"items":    beatSchema,
			},
		},
	}

	system := "You storyboard a 12-second video in exactly 4 acts of 3 seconds each. " +
		"visual_hint must be purely visual with no on-screen text."
	user := "Location: " + in.CountryName + "\nAudience segment: " + in.Segment

	obj, err := a.AI.GenerateJSON(ctx, system, user, "segment_beats", schema)
	if err != nil {
		return nil, fault.AsActivityError(err)
	}

	raw, _ := obj["beats"].([]any)
	var beats []types.FourActBeat
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		b := types.FourActBeat{}
		b.Title, _ = m["title"].(string)
		b.Hint, _ = m["hint"].(string)
		b.Factoid, _ = m["factoid"].(string)
		b.VisualHint, _ = m["visual_hint"].(string)
		beats = append(beats, b)
	}
	if len(beats) != 4 {
		return nil, fault.AsActivityError(fault.New(fault.KindSchemaValidation, "segment_beats", "model returned wrong act count"))
	}
	return beats, nil
}

func (a *Activities) SyncKnowledge(ctx context.Context, in SyncKnowledgeInput) error {
	if a.KG == nil || !a.KG.Enabled() {
		return nil
	}
	id, err := parseUUID(in.ContentID)
	if err != nil {
		return fault.AsActivityError(fault.New(fault.KindParse, "kg", "bad content id"))
	}
	if err := a.KG.SyncContent(ctx, in.App, id, in.Title, in.Body); err != nil {
		return fault.AsActivityError(err)
	}
	return nil
}

func (a *Activities) PublishProgress(ctx context.Context, in ProgressInput) error {
	if a.Progress == nil {
		return nil
	}
	err := a.Progress.Publish(ctx, redis.ProgressEvent{
		WorkflowID: in.WorkflowID,
		App:        in.App,
		Phase:      in.Phase,
		Message:    in.Message,
		Percent:    in.Percent,
		CostUSD:    in.CostUSD,
		At:         time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		// Progress is observability only; never fail a run over it.
		a.Log.Warn("progress publish failed", "phase", in.Phase, "error", err)
	}
	return nil
}
