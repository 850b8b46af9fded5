package content

import (
	"strings"
	"testing"
)

func validPayload() *NarrativePayload {
	content := "<p>Moving abroad takes planning.</p>" +
		"<h2>Alpha</h2><p>alpha body text goes right here</p>" +
		"<h2>Beta</h2><p>beta body text goes right here</p>"
	wc := CountWords(StripMarkup(content))
	return &NarrativePayload{
		Title:     "Test Article",
		Slug:      "test-article",
		App:       "relocation",
		Content:   content,
		WordCount: wc,
		Sections: []Section{
			{Index: 0, Title: "Alpha", WordCount: wc / 2},
			{Index: 1, Title: "Beta", WordCount: wc - wc/2},
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := validPayload().Validate(); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}
}

func TestValidateRejectsBadSlug(t *testing.T) {
	p := validPayload()
	p.Slug = "Bad Slug!"
	if err := p.Validate(); err == nil {
		t.Fatalf("slug %q accepted", p.Slug)
	}
}

func TestValidateRejectsWordCountMismatch(t *testing.T) {
	p := validPayload()
	p.WordCount += 100
	if err := p.Validate(); err == nil {
		t.Fatalf("word count mismatch accepted")
	}
}

func TestValidateRejectsSparseSectionIndex(t *testing.T) {
	p := validPayload()
	p.Sections[1].Index = 5
	if err := p.Validate(); err == nil {
		t.Fatalf("sparse section index accepted")
	}
}

func TestValidateInlineSources(t *testing.T) {
	p := validPayload()
	p.Content = strings.Replace(p.Content,
		"alpha body text goes right here",
		`alpha body <a href="https://gov.example/visa">text</a> goes right here`, 1)
	if err := p.Validate(); err == nil {
		t.Fatalf("uncited inline url accepted")
	}

	p.Sources = []SourceRef{{URL: "https://gov.example/visa"}}
	if err := p.Validate(); err != nil {
		t.Fatalf("cited inline url rejected: %v", err)
	}
}

func TestValidateIgnoresAssetURLs(t *testing.T) {
	p := validPayload()
	p.Content = strings.Replace(p.Content,
		"beta body text goes right here",
		`beta body <a href="https://image.mux.com/pb/thumbnail.jpg?time=1.5">text</a> goes right here`, 1)
	if err := p.Validate(); err != nil {
		t.Fatalf("media asset url treated as citation: %v", err)
	}
}

func TestValidateVideoNeedsThumbnail(t *testing.T) {
	p := validPayload()
	p.VideoPlaybackID = "pb1"
	if err := p.Validate(); err == nil {
		t.Fatalf("playback id without thumbnail accepted")
	}
	p.HeroAssetURL = "https://image.mux.com/pb1/thumbnail.jpg"
	if err := p.Validate(); err != nil {
		t.Fatalf("video binding rejected: %v", err)
	}
}

func TestValidateParentNeedsCluster(t *testing.T) {
	p := validPayload()
	p.ParentID = "11111111-1111-1111-1111-111111111111"
	if err := p.Validate(); err == nil {
		t.Fatalf("parent without cluster accepted")
	}
	p.ClusterID = "22222222-2222-2222-2222-222222222222"
	if err := p.Validate(); err != nil {
		t.Fatalf("cluster placement rejected: %v", err)
	}
}

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://WWW.Example.com/Path/?utm_source=x&q=1#frag", "https://example.com/Path/?q=1"},
		{"http://example.com/", "http://example.com"},
		{"https://example.com/a?fbclid=abc", "https://example.com/a"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeURL(tc.in); got != tc.want {
			t.Fatalf("NormalizeURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	urls := []string{
		"https://www.example.com/a/b?utm_campaign=x&keep=1#top",
		"HTTP://News.Example.org/story/",
		"not a url at all/",
	}
	for _, u := range urls {
		once := NormalizeURL(u)
		if twice := NormalizeURL(once); twice != once {
			t.Fatalf("not idempotent for %q: %q then %q", u, once, twice)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Cyprus Digital Nomad Visa 2025", "cyprus-digital-nomad-visa-2025"},
		{"  Fund Closes -- At Record!  ", "fund-closes-at-record"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestReadingTimeMinutes(t *testing.T) {
	if got := ReadingTimeMinutes(0); got != 1 {
		t.Fatalf("zero words = %d minutes", got)
	}
	if got := ReadingTimeMinutes(200); got != 1 {
		t.Fatalf("200 words = %d minutes", got)
	}
	if got := ReadingTimeMinutes(201); got != 2 {
		t.Fatalf("201 words = %d minutes", got)
	}
}

func TestStripMarkup(t *testing.T) {
	in := `<p>Read the <a href="https://x.example">**official** [guide](https://x.example)</a>.</p>`
	got := StripMarkup(in)
	if strings.Contains(got, "<") || strings.Contains(got, "*") || strings.Contains(got, "](") {
		t.Fatalf("markup survived: %q", got)
	}
	if !strings.Contains(got, "official guide") {
		t.Fatalf("text lost: %q", got)
	}
}
