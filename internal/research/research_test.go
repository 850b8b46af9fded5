package research

import (
	"testing"

	"github.com/yungbote/pressroom-backend/internal/clients/crawler"
	"github.com/yungbote/pressroom-backend/internal/clients/deepresearch"
	types "github.com/yungbote/pressroom-backend/internal/domain"
)

func TestSelectURLs(t *testing.T) {
	news := []types.RawSource{
		{URL: "https://www.example.com/story?utm_source=feed"},
		{URL: "https://example.com/story"}, // dupe after normalization
		{URL: "https://www.wsj.com/article"},
		{URL: "https://other.com/a"},
	}
	outputs := []deepresearch.TaskOutput{
		{URL: "https://deep.com/page"},
		{URL: ""},
	}

	got := SelectURLs(news, outputs, []string{"wsj.com"}, 30)
	want := []string{"https://example.com/story", "https://other.com/a", "https://deep.com/page"}
	if len(got) != len(want) {
		t.Fatalf("SelectURLs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SelectURLs[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSelectURLsTopK(t *testing.T) {
	var news []types.RawSource
	for i := 0; i < 50; i++ {
		news = append(news, types.RawSource{URL: fmtURL(i)})
	}
	got := SelectURLs(news, nil, nil, 30)
	if len(got) != 30 {
		t.Fatalf("expected 30 urls, got %d", len(got))
	}
}

func fmtURL(i int) string {
	return "https://site" + string(rune('a'+i%26)) + ".com/page" + string(rune('0'+i%10))
}

func TestAssembleRawSourcesStableIDs(t *testing.T) {
	news := []types.RawSource{{URL: "https://n.com/1", ContentText: "n1"}}
	pages := []crawler.PageResult{
		{URL: "https://c.com/ok", Content: "crawled text", OK: true},
		{URL: "https://c.com/paywalled", Paywalled: true},
		{URL: "https://c.com/ok2", Content: "more", OK: true},
	}
	deep := deepresearch.Result{
		Content:     "synthesis",
		TaskOutputs: []deepresearch.TaskOutput{{Kind: "summary", Text: "finding"}},
	}

	got := AssembleRawSources(news, pages, deep)

	ids := make([]string, len(got))
	for i, s := range got {
		ids[i] = s.SourceID
	}
	want := []string{"news_0", "crawl_0", "crawl_1", "research_0", "research_1"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
	if got[1].SourceKind != types.SourceKindCrawledPage {
		t.Fatalf("crawl_0 kind = %q", got[1].SourceKind)
	}
}

func TestOrderCurated(t *testing.T) {
	sources := []types.CuratedSource{
		{SourceID: "a", SourceKind: types.SourceKindNews, RelevanceScore: 8, URL: "https://x.com/aa"},
		{SourceID: "b", SourceKind: types.SourceKindCrawledPage, RelevanceScore: 8, URL: "https://x.com/bbbb"},
		{SourceID: "c", SourceKind: types.SourceKindDeepResearch, RelevanceScore: 9},
		{SourceID: "d", SourceKind: types.SourceKindNews, RelevanceScore: 8, URL: "https://x.com/d"},
	}
	OrderCurated(sources)

	// 9 first; among the 8s: crawled beats the rest, then news ties break on
	// shorter URL.
	wantOrder := []string{"c", "b", "d", "a"}
	for i, want := range wantOrder {
		if sources[i].SourceID != want {
			t.Fatalf("position %d = %q, want %q (full: %+v)", i, sources[i].SourceID, want, sources)
		}
	}
}

func TestResolveDuplicatesKeepsLongest(t *testing.T) {
	sources := []types.CuratedSource{
		{SourceID: "a", FullContent: "short"},
		{SourceID: "b", FullContent: "a much longer body of content"},
		{SourceID: "c", FullContent: "unrelated"},
	}
	out := ResolveDuplicates(sources, [][]string{{"a", "b"}})
	if len(out) != 2 {
		t.Fatalf("expected 2 sources after dedupe, got %d", len(out))
	}
	for _, s := range out {
		if s.SourceID == "a" {
			t.Fatalf("shorter duplicate survived dedupe")
		}
	}
}

func TestFallbackCuration(t *testing.T) {
	var raw []types.RawSource
	for i := 0; i < 25; i++ {
		raw = append(raw, types.RawSource{SourceID: fmtURL(i), ContentText: "text"})
	}
	set := FallbackCuration(raw, 20)
	if !set.CurationFailed {
		t.Fatalf("fallback must set curation_failed")
	}
	if len(set.Sources) != 20 {
		t.Fatalf("expected 20 fallback sources, got %d", len(set.Sources))
	}
}
