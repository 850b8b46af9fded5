package media

import (
	"fmt"
	"strings"

	muxclient "github.com/yungbote/pressroom-backend/internal/clients/mux"
	"github.com/yungbote/pressroom-backend/internal/clients/videogen"
	types "github.com/yungbote/pressroom-backend/internal/domain"
)

const (
	ThumbWidth     = 800
	HeroThumbWidth = 1200
	GIFWidth       = 480
	GIFFPS         = 15
)

// noTextRule opens every video prompt; the generators otherwise like to
// hallucinate captions.
const noTextRule = "Absolutely no text, captions, subtitles, logos, or UI elements anywhere in the frame."

// appStyleDirective is the per-app look applied to generated video.
func appStyleDirective(app string) string {
	switch app {
	case "relocation":
		return "Cinematic travel documentary style, warm natural light, handheld feel."
	case "placement", "pe_news", "finance":
		return "Clean corporate documentary style, glass and steel, muted palette."
	case "jobs", "recruiter":
		return "Modern workplace documentary style, natural office light, candid framing."
	default:
		return "Cinematic documentary style, natural light."
	}
}

// BuildVideoPrompt combines the no-text rule, the app style, and the act
// beats labelled with their time windows. The result is capped at the
// provider prompt limit.
func BuildVideoPrompt(app string, beats []types.FourActBeat) string {
	var sb strings.Builder
	sb.WriteString(noTextRule)
	sb.WriteString(" ")
	sb.WriteString(appStyleDirective(app))
	sb.WriteString("\n")
	for k, b := range beats {
		start := float64(k) * types.ActSeconds
		end := float64(k+1) * types.ActSeconds
		fmt.Fprintf(&sb, "ACT %d (%.0f s - %.0f s): %s\n", k, start, end, b.VisualHint)
	}
	return videogen.TruncatePrompt(sb.String())
}

// VideoDurationSeconds is 3 seconds per act.
func VideoDurationSeconds(actCount int) float64 {
	if actCount <= 0 {
		actCount = 4
	}
	return float64(actCount) * types.ActSeconds
}

// BuildPassthrough packs run identity into the media host's 255-char
// passthrough field.
func BuildPassthrough(title, mode, country, app, clusterID, articleID string) string {
	if len(title) > 80 {
		title = title[:80]
	}
	if len(clusterID) > 8 {
		clusterID = clusterID[:8]
	}
	s := fmt.Sprintf("%s | %s | %s | app:%s | cluster:%s | id:%s", title, mode, country, app, clusterID, articleID)
	if len(s) > 255 {
		s = s[:255]
	}
	return s
}

// BuildVideoNarrative derives the full playback descriptor from the act
// beats and the uploaded asset. All URLs are pure functions of playback_id.
func BuildVideoNarrative(playbackID, assetID string, beats []types.FourActBeat, promptUsed, templateName string, reused bool) *types.VideoNarrative {
	duration := VideoDurationSeconds(len(beats))

	acts := make([]types.Act, len(beats))
	thumbs := make([]string, len(beats))
	for k, b := range beats {
		acts[k] = types.Act{
			Index:      k,
			StartS:     float64(k) * types.ActSeconds,
			EndS:       float64(k+1) * types.ActSeconds,
			Title:      b.Title,
			VisualHint: b.VisualHint,
		}
		thumbs[k] = muxclient.ThumbnailURL(playbackID, types.ActMidpoint(k), ThumbWidth, 0)
	}

	heroTime := types.ActMidpoint(len(beats) - 1)
	if len(beats) == 0 {
		heroTime = duration / 2
	}

	return &types.VideoNarrative{
		PlaybackID:      playbackID,
		AssetID:         assetID,
		DurationSeconds: duration,
		Acts:            acts,
		MuxURLs: types.MuxURLs{
			Stream:       muxclient.StreamURL(playbackID),
			HeroThumb:    muxclient.ThumbnailURL(playbackID, heroTime, HeroThumbWidth, 0),
			GIF:          muxclient.AnimatedURL(playbackID, 0, duration, GIFWidth, GIFFPS),
			PerActThumbs: thumbs,
		},
		PromptUsed:       promptUsed,
		TemplateName:     templateName,
		ReusedFromParent: reused,
	}
}
