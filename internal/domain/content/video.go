package content

// ActSeconds is the fixed length of one video act.
const ActSeconds = 3.0

// Act is one aligned segment of a generated video.
type Act struct {
	Index      int     `json:"index"`
	StartS     float64 `json:"start_s"`
	EndS       float64 `json:"end_s"`
	Title      string  `json:"title"`
	VisualHint string  `json:"visual_hint"`
}

// MuxURLs are the deterministic playback-derived URLs for a video asset.
type MuxURLs struct {
	Stream       string   `json:"stream"`
	HeroThumb    string   `json:"hero_thumb"`
	GIF          string   `json:"gif"`
	PerActThumbs []string `json:"per_act_thumb,omitempty"`
}

// VideoNarrative is the immutable descriptor of a generated video and its act
// structure. Once persisted it is never rewritten.
type VideoNarrative struct {
	PlaybackID       string  `json:"playback_id"`
	AssetID          string  `json:"asset_id"`
	DurationSeconds  float64 `json:"duration_seconds"`
	Acts             []Act   `json:"acts"`
	MuxURLs          MuxURLs `json:"mux_urls"`
	PromptUsed       string  `json:"prompt_used"`
	TemplateName     string  `json:"template_name,omitempty"`
	ReusedFromParent bool    `json:"reused_from_parent,omitempty"`
}

// ActMidpoint returns the thumbnail time for act k.
func ActMidpoint(k int) float64 {
	return float64(k)*ActSeconds + ActSeconds/2
}
