package media

import (
	"context"
	"fmt"

	"github.com/yungbote/pressroom-backend/internal/clients/cloudinary"
	types "github.com/yungbote/pressroom-backend/internal/domain"
	"github.com/yungbote/pressroom-backend/internal/platform/logger"
	"github.com/yungbote/pressroom-backend/internal/platform/openai"
)

const imageCostUSD = 0.04

// ImagePublicID builds the deterministic CDN key for a generated image, so
// retries overwrite instead of accumulating.
func ImagePublicID(slug, role string, index int) string {
	return fmt.Sprintf("%s_%s_%d", slug, role, index)
}

// ImageChainer generates stand-alone images with context chaining: the first
// prompt is unconditioned, each later prompt is conditioned on the previous
// output so character and style stay consistent.
type ImageChainer struct {
	ai  openai.Client
	cdn cloudinary.Client
	log *logger.Logger
}

func NewImageChainer(ai openai.Client, cdn cloudinary.Client, baseLog *logger.Logger) *ImageChainer {
	return &ImageChainer{
		ai:  ai,
		cdn: cdn,
		log: baseLog.With("service", "ImageChainer"),
	}
}

// Chain runs the prompts in order and returns one CDN image per prompt.
// initialContextURL, when set, seeds the chain (a character reference from a
// prior run). A failing link breaks the chain for continuity; images already
// produced are returned alongside the error.
func (c *ImageChainer) Chain(ctx context.Context, prompts []string, initialContextURL, folder, slug, role string) ([]types.ContentImage, float64, error) {
	if c.ai == nil || c.cdn == nil {
		return nil, 0, nil
	}

	var out []types.ContentImage
	cost := 0.0
	contextURL := initialContextURL

	for i, prompt := range prompts {
		gen, err := c.ai.GenerateImage(ctx, prompt, openai.ImageOptions{
			AspectRatio:     "16:9",
			ContextImageURL: contextURL,
		})
		cost += imageCostUSD
		if err != nil {
			return out, cost, err
		}

		secureURL, err := c.cdn.UploadBytes(ctx, gen.Bytes, gen.MimeType, folder, ImagePublicID(slug, role, i))
		if err != nil {
			return out, cost, err
		}

		out = append(out, types.ContentImage{URL: secureURL, Alt: prompt})
		contextURL = secureURL
	}
	return out, cost, nil
}
