package media

import (
	"math"
	"strings"
	"testing"

	types "github.com/yungbote/pressroom-backend/internal/domain"
)

func TestSplitSections(t *testing.T) {
	content := `<p>intro paragraph</p><h2>First</h2><p>one</p><h2>Second</h2><p>two</p>`
	preamble, sections := SplitSections(content)

	if !strings.Contains(preamble, "intro paragraph") {
		t.Fatalf("preamble lost: %q", preamble)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].Title != "First" || sections[1].Title != "Second" {
		t.Fatalf("titles wrong: %+v", sections)
	}
	if !strings.Contains(sections[1].HTML, "<p>two</p>") {
		t.Fatalf("section body lost: %q", sections[1].HTML)
	}
}

func TestSplitSectionsNoHeaders(t *testing.T) {
	content := "<p>just a body</p>"
	preamble, sections := SplitSections(content)
	if preamble != content || len(sections) != 0 {
		t.Fatalf("headerless content must come back whole")
	}
}

func TestEvenSectionTimes(t *testing.T) {
	times := EvenSectionTimes(12, 4)
	if len(times) != 4 {
		t.Fatalf("expected 4 times, got %d", len(times))
	}
	// duration 12, margin 0.5 -> usable 11, step 2.75, first = 0.5+1.375
	want := []float64{1.875, 4.625, 7.375, 10.125}
	for i := range want {
		if math.Abs(times[i]-want[i]) > 1e-9 {
			t.Fatalf("times[%d] = %v, want %v", i, times[i], want[i])
		}
	}
	for i, ts := range times {
		if ts <= 0 || ts >= 12 {
			t.Fatalf("times[%d] = %v out of bounds", i, ts)
		}
	}
}

func TestInjectSectionImages(t *testing.T) {
	content := `<p>intro</p><h2>Alpha</h2><p>a</p><h2>Beta</h2><p>b</p>`
	out := InjectSectionImages(content, "pb123", []float64{1.5, 4.5})

	if strings.Count(out, `<figure class="section-image`) != 2 {
		t.Fatalf("expected 2 figures, got:\n%s", out)
	}
	if !strings.Contains(out, `loading="lazy"`) {
		t.Fatalf("figures must be lazy loaded")
	}
	// Preamble stays image-free.
	introIdx := strings.Index(out, "intro")
	figIdx := strings.Index(out, "<figure")
	if figIdx < introIdx {
		t.Fatalf("preamble received an image:\n%s", out)
	}
	// Figure lands right after its header.
	alphaIdx := strings.Index(out, "</h2>")
	if !strings.HasPrefix(strings.TrimSpace(out[alphaIdx+len("</h2>"):]), "<figure") {
		t.Fatalf("figure not directly after header:\n%s", out)
	}
	if !strings.Contains(out, "time=1.5") || !strings.Contains(out, "time=4.5") {
		t.Fatalf("thumbnail times wrong:\n%s", out)
	}
}

func TestBuildVideoPrompt(t *testing.T) {
	beats := []types.FourActBeat{
		{Title: "a", VisualHint: "skyline"},
		{Title: "b", VisualHint: "park"},
		{Title: "c", VisualHint: "office"},
		{Title: "d", VisualHint: "harbor"},
	}
	p := BuildVideoPrompt("relocation", beats)

	if !strings.Contains(p, "no text") && !strings.Contains(p, "No text") && !strings.Contains(p, "no-text") {
		if !strings.Contains(strings.ToLower(p), "no text") {
			t.Fatalf("prompt missing no-text rule:\n%s", p)
		}
	}
	if !strings.Contains(p, "ACT 0 (0 s - 3 s): skyline") {
		t.Fatalf("act labels wrong:\n%s", p)
	}
	if !strings.Contains(p, "ACT 3 (9 s - 12 s): harbor") {
		t.Fatalf("last act label wrong:\n%s", p)
	}
	if len(p) > 2000 {
		t.Fatalf("prompt over the provider cap: %d", len(p))
	}
}

func TestBuildVideoPromptTruncates(t *testing.T) {
	beats := []types.FourActBeat{
		{VisualHint: strings.Repeat("long visual description ", 50)},
		{VisualHint: strings.Repeat("another long description ", 50)},
		{VisualHint: strings.Repeat("yet more description ", 50)},
		{VisualHint: strings.Repeat("final description ", 50)},
	}
	p := BuildVideoPrompt("finance", beats)
	if len(p) > 2000 {
		t.Fatalf("prompt not truncated: %d chars", len(p))
	}
}

func TestBuildVideoNarrative(t *testing.T) {
	beats := []types.FourActBeat{
		{Title: "a", VisualHint: "one"},
		{Title: "b", VisualHint: "two"},
		{Title: "c", VisualHint: "three"},
		{Title: "d", VisualHint: "four"},
	}
	vn := BuildVideoNarrative("pb1", "asset1", beats, "prompt", "four_act", false)

	if vn.DurationSeconds != 12 {
		t.Fatalf("duration = %v, want 12", vn.DurationSeconds)
	}
	if len(vn.Acts) != 4 {
		t.Fatalf("acts = %d, want 4", len(vn.Acts))
	}
	for k, act := range vn.Acts {
		if act.StartS != float64(k)*3 || act.EndS != float64(k+1)*3 {
			t.Fatalf("act %d window [%v,%v] wrong", k, act.StartS, act.EndS)
		}
	}
	if !strings.Contains(vn.MuxURLs.HeroThumb, "time=10.5") {
		t.Fatalf("hero thumb must sit at the last act midpoint: %s", vn.MuxURLs.HeroThumb)
	}
	if !strings.Contains(vn.MuxURLs.GIF, "start=0") || !strings.Contains(vn.MuxURLs.GIF, "end=12") {
		t.Fatalf("gif must span the full video: %s", vn.MuxURLs.GIF)
	}
	if len(vn.MuxURLs.PerActThumbs) != 4 {
		t.Fatalf("per-act thumbs = %d", len(vn.MuxURLs.PerActThumbs))
	}
	if !strings.Contains(vn.MuxURLs.PerActThumbs[1], "time=4.5") {
		t.Fatalf("act 1 thumb must sit at 4.5s: %s", vn.MuxURLs.PerActThumbs[1])
	}
}

func TestBuildPassthrough(t *testing.T) {
	long := strings.Repeat("t", 120)
	got := BuildPassthrough(long, "guide", "SG", "relocation", "0123456789abcdef", "art-1")
	if len(got) > 255 {
		t.Fatalf("passthrough %d chars exceeds 255", len(got))
	}
	if !strings.Contains(got, "cluster:01234567") {
		t.Fatalf("cluster id not truncated to 8: %s", got)
	}
	if !strings.Contains(got, "app:relocation") {
		t.Fatalf("app tag missing: %s", got)
	}
}

func TestImagePublicID(t *testing.T) {
	if got := ImagePublicID("my-slug", "section", 2); got != "my-slug_section_2" {
		t.Fatalf("ImagePublicID = %q", got)
	}
}
