package media

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	muxclient "github.com/yungbote/pressroom-backend/internal/clients/mux"
	types "github.com/yungbote/pressroom-backend/internal/domain"
	"github.com/yungbote/pressroom-backend/internal/platform/logger"
	"github.com/yungbote/pressroom-backend/internal/platform/openai"
)

// SectionMargin keeps evenly distributed thumbnails off the video's first
// and last frames.
const SectionMargin = 0.5

var h2Re = regexp.MustCompile(`(?is)<h2[^>]*>(.*?)</h2>`)

// SplitSections breaks h2-structured markup into a preamble and one block
// per header. Blocks keep their header markup.
type SectionBlock struct {
	Title string
	HTML  string
}

func SplitSections(content string) (preamble string, sections []SectionBlock) {
	locs := h2Re.FindAllStringSubmatchIndex(content, -1)
	if len(locs) == 0 {
		return content, nil
	}
	preamble = content[:locs[0][0]]
	for i, loc := range locs {
		end := len(content)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		title := types.StripMarkup(content[loc[2]:loc[3]])
		sections = append(sections, SectionBlock{
			Title: title,
			HTML:  content[loc[0]:end],
		})
	}
	return preamble, sections
}

// EvenSectionTimes distributes thumbnail times across the video with a
// margin at both ends: t_i = margin + step*i + step/2.
func EvenSectionTimes(durationSeconds float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	usable := durationSeconds - 2*SectionMargin
	if usable <= 0 {
		usable = durationSeconds
	}
	step := usable / float64(n)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = SectionMargin + step*float64(i) + step/2
	}
	return out
}

// ClassifySectionTimes asks a small model to map each section onto the most
// fitting act midpoint. Acts may be reused; out-of-range picks are clamped.
// Any failure falls back to even distribution.
func ClassifySectionTimes(ctx context.Context, ai openai.Client, log *logger.Logger, sectionTitles []string, beats []types.FourActBeat, durationSeconds float64) []float64 {
	n := len(sectionTitles)
	if n == 0 {
		return nil
	}
	if ai == nil || len(beats) < 4 {
		return EvenSectionTimes(durationSeconds, n)
	}

	var acts strings.Builder
	for k, b := range beats {
		fmt.Fprintf(&acts, "Act %d: %s - %s\n", k, b.Title, b.VisualHint)
	}
	var secs strings.Builder
	for i, t := range sectionTitles {
		fmt.Fprintf(&secs, "Section %d: %s\n", i, t)
	}

	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"act_indices"},
		"properties": map[string]any{
			"act_indices": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "integer"},
			},
		},
	}
	system := "Match each article section to the video act whose imagery fits it best. Return one act index per section, in section order. Acts may repeat."
	user := fmt.Sprintf("VIDEO ACTS:\n%s\nSECTIONS:\n%s", acts.String(), secs.String())

	obj, err := ai.GenerateJSON(ctx, system, user, "section_act_match", schema)
	if err != nil {
		if log != nil {
			log.Warn("section classifier failed, using even distribution", "error", err)
		}
		return EvenSectionTimes(durationSeconds, n)
	}

	raw, ok := obj["act_indices"].([]any)
	if !ok || len(raw) != n {
		if log != nil {
			log.Warn("section classifier returned wrong arity, using even distribution",
				"want", n, "got", len(raw))
		}
		return EvenSectionTimes(durationSeconds, n)
	}

	out := make([]float64, n)
	for i, v := range raw {
		idx := 0
		if f, ok := v.(float64); ok {
			idx = int(f)
		}
		if idx < 0 {
			idx = 0
		}
		if idx >= len(beats) {
			idx = len(beats) - 1
		}
		out[i] = types.ActMidpoint(idx)
	}
	return out
}

// InjectSectionImages inserts one figure per section immediately after its
// h2 header. The preamble receives no image. times must have one entry per
// section.
func InjectSectionImages(content, playbackID string, times []float64) string {
	preamble, sections := SplitSections(content)
	if len(sections) == 0 || playbackID == "" {
		return content
	}

	var sb strings.Builder
	sb.WriteString(preamble)
	for i, sec := range sections {
		html := sec.HTML
		if i < len(times) {
			figure := sectionFigure(playbackID, times[i], sec.Title)
			if loc := h2Re.FindStringIndex(html); loc != nil {
				html = html[:loc[1]] + "\n" + figure + html[loc[1]:]
			}
		}
		sb.WriteString(html)
	}
	return sb.String()
}

func sectionFigure(playbackID string, timeSeconds float64, alt string) string {
	u := muxclient.ThumbnailURL(playbackID, timeSeconds, ThumbWidth, 0)
	return fmt.Sprintf(
		`<figure class="section-image aspect-video"><img src="%s" alt="%s" loading="lazy"></figure>`,
		u, htmlEscape(alt))
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
