package narrative

import (
	"strings"
	"testing"

	types "github.com/yungbote/pressroom-backend/internal/domain"
)

func TestSerializeContextBounded(t *testing.T) {
	set := types.CuratedSet{
		KeyFacts: []string{"fact one"},
		Sources: []types.CuratedSource{
			{SourceID: "crawl_0", SourceKind: types.SourceKindCrawledPage, FullContent: strings.Repeat("x", 5000)},
			{SourceID: "crawl_1", SourceKind: types.SourceKindCrawledPage, FullContent: strings.Repeat("y", 5000)},
		},
	}
	out := SerializeContext(set, 6000)
	if len(out) > 6000 {
		t.Fatalf("context %d chars exceeds cap", len(out))
	}
	if !strings.Contains(out, "KEY FACTS") {
		t.Fatalf("key facts missing from context")
	}
	if !strings.Contains(out, "SOURCE crawl_0") {
		t.Fatalf("first source missing from context")
	}
}

func TestNormalizeRecomputesDerivedFields(t *testing.T) {
	p := &types.NarrativePayload{
		Title:   "A Story About Markets",
		Slug:    "NOT A SLUG!",
		Content: "<h2>One</h2><p>" + strings.Repeat("word ", 400) + "</p>",
		Sections: []types.Section{
			{Index: 5, Title: "One", Content: strings.Repeat("word ", 400)},
		},
	}
	Normalize(p, Request{Topic: "t", App: "finance", TargetWordCount: 400})

	if p.Slug != "a-story-about-markets" {
		t.Fatalf("slug not regenerated: %q", p.Slug)
	}
	if p.WordCount == 0 {
		t.Fatalf("word_count not computed")
	}
	if p.ReadingTimeMin != (p.WordCount+199)/200 {
		t.Fatalf("reading time %d wrong for %d words", p.ReadingTimeMin, p.WordCount)
	}
	if p.Sections[0].Index != 0 {
		t.Fatalf("section index not reset: %d", p.Sections[0].Index)
	}
	if p.Sections[0].WordCount == 0 {
		t.Fatalf("section word count not computed")
	}
	if p.FeaturedImagePrompt == "" {
		t.Fatalf("default featured image prompt not set")
	}
	if p.App != "finance" {
		t.Fatalf("app not stamped")
	}
}

func TestValidateVariantFourAct(t *testing.T) {
	words := strings.Repeat("word ", 200)
	p := &types.NarrativePayload{
		Title:   "Guide",
		Content: "<h2>One</h2><p>" + words + "</p>",
		Sections: []types.Section{
			{Title: "One", Content: words},
		},
	}
	Normalize(p, Request{Topic: "t", App: "relocation", TargetWordCount: 200})

	req := Request{App: "relocation", FourAct: true}
	if err := validateVariant(p, req); err == nil {
		t.Fatalf("expected four-act validation to fail with no beats")
	}

	p.FourActContent = []types.FourActBeat{
		{Title: "a", VisualHint: "city skyline at dawn"},
		{Title: "b", VisualHint: "family in a park"},
		{Title: "c", VisualHint: "office interior"},
		{Title: "d", VisualHint: "harbor at dusk"},
	}
	if err := validateVariant(p, req); err != nil {
		t.Fatalf("four-act validation failed: %v", err)
	}

	p.FourActContent[2].VisualHint = ""
	if err := validateVariant(p, req); err == nil {
		t.Fatalf("expected missing visual_hint to fail")
	}
}

func TestIsSlug(t *testing.T) {
	valid := []string{"a", "abc-def", "a1-b2-c3"}
	invalid := []string{"", "-abc", "abc-", "a--b", "Hello", "a b"}
	for _, s := range valid {
		if !isSlug(s) {
			t.Fatalf("isSlug(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if isSlug(s) {
			t.Fatalf("isSlug(%q) = true, want false", s)
		}
	}
}
