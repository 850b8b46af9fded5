package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	types "github.com/yungbote/pressroom-backend/internal/domain"
	"github.com/yungbote/pressroom-backend/internal/platform/envutil"
	"github.com/yungbote/pressroom-backend/internal/platform/fault"
	"github.com/yungbote/pressroom-backend/internal/platform/logger"
	"github.com/yungbote/pressroom-backend/internal/platform/openai"
)

const (
	defaultMaxContextChars = 80000
	schemaRetries          = 2
	generationCostUSD      = 0.05
)

// Request is one narrative generation job.
type Request struct {
	Topic           string
	ArticleType     string
	App             string
	TargetWordCount int
	Jurisdiction    string

	// FourAct requests exactly four video beats alongside the article.
	FourAct bool
	// CompanyProfile switches to the profile schema variant.
	CompanyProfile bool

	Curated types.CuratedSet
}

// Generator turns curated research into a validated NarrativePayload. Schema
// failures are retried with feedback before giving up.
type Generator struct {
	ai              openai.Client
	log             *logger.Logger
	maxContextChars int
}

func NewGenerator(ai openai.Client, baseLog *logger.Logger) *Generator {
	log := baseLog.With("service", "NarrativeGenerator")
	return &Generator{
		ai:              ai,
		log:             log,
		maxContextChars: envutil.GetEnvAsInt("NARRATIVE_MAX_CONTEXT_CHARS", defaultMaxContextChars, log),
	}
}

func (g *Generator) Generate(ctx context.Context, req Request) (*types.NarrativePayload, float64, error) {
	if g.ai == nil {
		return nil, 0, fault.New(fault.KindConfigMissing, "narrative", "generation model not configured")
	}
	if strings.TrimSpace(req.Topic) == "" {
		return nil, 0, fault.New(fault.KindParse, "narrative", "empty topic")
	}
	if req.TargetWordCount <= 0 {
		req.TargetWordCount = 1500
	}

	system := g.systemPrompt(req)
	user := g.userPrompt(req)
	schema := payloadSchema(req)

	cost := 0.0
	var feedback string
	for attempt := 0; attempt <= schemaRetries; attempt++ {
		prompt := user
		if feedback != "" {
			prompt = user + "\n\nYour previous response failed schema check because: " + feedback + "\nFix that and respond again."
		}

		obj, err := g.ai.GenerateJSON(ctx, system, prompt, "narrative_payload", schema)
		cost += generationCostUSD
		if err != nil {
			if fault.KindOf(err) == fault.KindSchemaValidation && attempt < schemaRetries {
				feedback = err.Error()
				continue
			}
			return nil, cost, err
		}

		payload, err := decodePayload(obj)
		if err != nil {
			feedback = err.Error()
			if attempt < schemaRetries {
				g.log.Warn("narrative payload rejected, retrying with feedback", "attempt", attempt+1, "error", err)
				continue
			}
			return nil, cost, fault.Wrap(fault.KindSchemaValidation, "narrative", "payload failed validation after retries", err)
		}

		Normalize(payload, req)

		if err := validateVariant(payload, req); err != nil {
			feedback = err.Error()
			if attempt < schemaRetries {
				g.log.Warn("narrative variant check failed, retrying with feedback", "attempt", attempt+1, "error", err)
				continue
			}
			return nil, cost, fault.Wrap(fault.KindSchemaValidation, "narrative", "payload failed validation after retries", err)
		}
		return payload, cost, nil
	}
	return nil, cost, fault.New(fault.KindSchemaValidation, "narrative", "generation retries exhausted")
}

// appVoice selects the editorial register per app.
func appVoice(app string) string {
	switch app {
	case "placement", "pe_news", "finance":
		return "an institutional finance publication: precise, sourced, no hype, figures in USD unless quoting"
	case "relocation":
		return "a practical relocation guide: direct second person, concrete costs in local currency, no filler"
	case "jobs", "recruiter":
		return "a careers publication: actionable, plain language, salary ranges where known"
	default:
		return "a professional publication: clear, factual, well-sourced"
	}
}

func (g *Generator) systemPrompt(req Request) string {
	var sb strings.Builder
	sb.WriteString("You write publishable long-form content for ")
	sb.WriteString(appVoice(req.App))
	sb.WriteString(". Structure the body with <h2> section headers. ")
	sb.WriteString("Cite only URLs present in the research context. ")
	fmt.Fprintf(&sb, "Target %d words across coherent sections. ", req.TargetWordCount)
	if req.Jurisdiction != "" {
		fmt.Fprintf(&sb, "Jurisdiction focus: %s. ", req.Jurisdiction)
	}
	if req.FourAct {
		sb.WriteString("Also produce exactly 4 four_act_content beats for a 12-second video; each visual_hint must describe purely visual imagery with no on-screen text. ")
	}
	if req.CompanyProfile {
		sb.WriteString("This is a company profile: cover what the company does, market position, key people, and recent developments. ")
	}
	return sb.String()
}

func (g *Generator) userPrompt(req Request) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic: %s\nArticle type: %s\n\nRESEARCH CONTEXT:\n", req.Topic, req.ArticleType)
	sb.WriteString(SerializeContext(req.Curated, g.maxContextChars))
	return sb.String()
}

// SerializeContext renders curated research with per-source delimiters,
// bounded to maxChars. Key facts and perspectives always fit first.
func SerializeContext(set types.CuratedSet, maxChars int) string {
	if maxChars <= 0 {
		maxChars = defaultMaxContextChars
	}
	var sb strings.Builder

	if len(set.KeyFacts) > 0 {
		sb.WriteString("KEY FACTS:\n")
		for _, f := range set.KeyFacts {
			sb.WriteString("- " + f + "\n")
		}
		sb.WriteString("\n")
	}
	if len(set.Perspectives) > 0 {
		sb.WriteString("PERSPECTIVES:\n")
		for _, p := range set.Perspectives {
			sb.WriteString("- " + p + "\n")
		}
		sb.WriteString("\n")
	}

	for _, s := range set.Sources {
		var block strings.Builder
		fmt.Fprintf(&block, "=== SOURCE %s (%s, relevance %.1f) ===\n", s.SourceID, s.SourceKind, s.RelevanceScore)
		if s.Title != "" {
			fmt.Fprintf(&block, "Title: %s\n", s.Title)
		}
		if s.URL != "" {
			fmt.Fprintf(&block, "URL: %s\n", s.URL)
		}
		if s.Summary != "" {
			fmt.Fprintf(&block, "Summary: %s\n", s.Summary)
		}
		if s.KeyQuote != "" {
			fmt.Fprintf(&block, "Quote: %s\n", s.KeyQuote)
		}
		block.WriteString(s.FullContent)
		block.WriteString("\n\n")

		if sb.Len()+block.Len() > maxChars {
			remaining := maxChars - sb.Len()
			if remaining > 0 {
				sb.WriteString(block.String()[:remaining])
			}
			break
		}
		sb.WriteString(block.String())
	}
	return sb.String()
}

// Normalize recomputes the derived fields the model is allowed to get wrong.
func Normalize(p *types.NarrativePayload, req Request) {
	p.App = req.App
	p.Jurisdiction = req.Jurisdiction

	p.WordCount = types.CountWords(types.StripMarkup(p.Content))
	p.ReadingTimeMin = types.ReadingTimeMinutes(p.WordCount)

	if p.Slug == "" || !isSlug(p.Slug) {
		p.Slug = types.Slugify(p.Title)
	}
	if p.FeaturedImagePrompt == "" {
		p.FeaturedImagePrompt = fmt.Sprintf("Editorial illustration for an article titled %q, professional, no text", p.Title)
	}
	if len(p.MetaDescription) > types.MaxMetaDescription {
		p.MetaDescription = p.MetaDescription[:types.MaxMetaDescription]
	}
	if len(p.Excerpt) > types.MaxExcerpt {
		p.Excerpt = p.Excerpt[:types.MaxExcerpt]
	}
	for i := range p.Sections {
		p.Sections[i].Index = i
		if p.Sections[i].WordCount == 0 {
			p.Sections[i].WordCount = types.CountWords(types.StripMarkup(p.Sections[i].Content))
		}
	}
}

func validateVariant(p *types.NarrativePayload, req Request) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if req.FourAct {
		if len(p.FourActContent) != 4 {
			return fmt.Errorf("four_act_content has %d beats, want exactly 4", len(p.FourActContent))
		}
		for i, b := range p.FourActContent {
			if strings.TrimSpace(b.VisualHint) == "" {
				return fmt.Errorf("four_act_content[%d] missing visual_hint", i)
			}
		}
	}
	return nil
}

func isSlug(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return false
		}
	}
	return !strings.HasPrefix(s, "-") && !strings.HasSuffix(s, "-") && !strings.Contains(s, "--")
}

func decodePayload(obj map[string]any) (*types.NarrativePayload, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var p types.NarrativePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("payload shape: %w", err)
	}
	return &p, nil
}

func payloadSchema(req Request) map[string]any {
	sectionSchema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"index", "title", "content", "word_count"},
		"properties": map[string]any{
			"index":      map[string]any{"type": "integer"},
			"title":      map[string]any{"type": "string"},
			"content":    map[string]any{"type": "string"},
			"word_count": map[string]any{"type": "integer"},
		},
	}
	sourceSchema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"url", "title"},
		"properties": map[string]any{
			"url":   map[string]any{"type": "string"},
			"title": map[string]any{"type": "string"},
		},
	}

	props := map[string]any{
		"title":                 map[string]any{"type": "string"},
		"slug":                  map[string]any{"type": "string"},
		"excerpt":               map[string]any{"type": "string"},
		"meta_description":      map[string]any{"type": "string"},
		"tags":                  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"content":               map[string]any{"type": "string"},
		"sections":              map[string]any{"type": "array", "items": sectionSchema},
		"featured_image_prompt": map[string]any{"type": "string"},
		"sources":               map[string]any{"type": "array", "items": sourceSchema},
	}
	required := []any{"title", "slug", "excerpt", "meta_description", "tags", "content", "sections", "featured_image_prompt", "sources"}

	if req.FourAct {
		props["four_act_content"] = map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []any{"title", "hint", "factoid", "visual_hint"},
				"properties": map[string]any{
					"title":       map[string]any{"type": "string"},
					"hint":        map[string]any{"type": "string"},
					"factoid":     map[string]any{"type": "string"},
					"visual_hint": map[string]any{"type": "string"},
				},
			},
		}
		required = append(required, "four_act_content")
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             required,
		"properties":           props,
	}
}
