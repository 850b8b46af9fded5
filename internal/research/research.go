package research

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/pressroom-backend/internal/clients/crawler"
	"github.com/yungbote/pressroom-backend/internal/clients/deepresearch"
	"github.com/yungbote/pressroom-backend/internal/clients/newsapi"
	types "github.com/yungbote/pressroom-backend/internal/domain"
	"github.com/yungbote/pressroom-backend/internal/kg"
	"github.com/yungbote/pressroom-backend/internal/platform/envutil"
	"github.com/yungbote/pressroom-backend/internal/platform/fault"
	"github.com/yungbote/pressroom-backend/internal/platform/logger"
	"github.com/yungbote/pressroom-backend/internal/platform/openai"
)

const (
	defaultTopKURLs   = 30
	defaultMaxCurated = 20
	curationCostUSD   = 0.01
)

// defaultPaywallDomains are never crawled; their text would come back short
// and get discarded anyway.
var defaultPaywallDomains = []string{
	"wsj.com", "ft.com", "bloomberg.com", "economist.com",
	"nytimes.com", "telegraph.co.uk", "thetimes.co.uk",
}

type Seed struct {
	Topic        string
	App          string
	Jurisdiction string
}

// Researcher runs the research fan-out: news search, deep research, and
// knowledge-graph context in parallel, then crawl, assembly, and curation.
// Individual adapter failures degrade the result; only a total blank is
// fatal.
type Researcher struct {
	news  newsapi.Client
	deep  deepresearch.Client
	crawl crawler.Client
	kgs   *kg.Syncer
	ai    openai.Client
	log   *logger.Logger

	topKURLs     int
	maxCurated   int
	crawlWorkers int
	crawlDelay   time.Duration
	blocklist    []string
}

func NewResearcher(
	news newsapi.Client,
	deep deepresearch.Client,
	crawl crawler.Client,
	kgs *kg.Syncer,
	ai openai.Client,
	baseLog *logger.Logger,
) *Researcher {
	log := baseLog.With("service", "Researcher")

	blocklist := append([]string{}, defaultPaywallDomains...)
	if extra := strings.TrimSpace(envutil.GetEnv("RESEARCH_PAYWALL_DOMAINS", "", log)); extra != "" {
		for _, d := range strings.Split(extra, ",") {
			if d = strings.TrimSpace(d); d != "" {
				blocklist = append(blocklist, d)
			}
		}
	}

	return &Researcher{
		news:         news,
		deep:         deep,
		crawl:        crawl,
		kgs:          kgs,
		ai:           ai,
		log:          log,
		topKURLs:     envutil.GetEnvAsInt("RESEARCH_TOP_K_URLS", defaultTopKURLs, log),
		maxCurated:   envutil.GetEnvAsInt("RESEARCH_MAX_CURATED", defaultMaxCurated, log),
		crawlWorkers: envutil.GetEnvAsInt("CRAWL_PARALLELISM", crawler.DefaultParallelism, log),
		crawlDelay:   time.Duration(envutil.GetEnvAsInt("CRAWL_DELAY_MS", 500, log)) * time.Millisecond,
		blocklist:    blocklist,
	}
}

func (r *Researcher) Research(ctx context.Context, seed Seed) (*types.ResearchResult, error) {
	if strings.TrimSpace(seed.Topic) == "" {
		return nil, fault.New(fault.KindParse, "research", "empty topic")
	}

	result := &types.ResearchResult{
		RawCountsBySrc: map[string]int{},
		DataSources:    map[string]*types.ServiceStat{},
	}

	// Phase 1: fan out news, deep research, and KG context. Each leg fails
	// independently.
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		newsItems  []types.RawSource
		deepResult deepresearch.Result
		deepErr    error
		newsErr    error
		kgSources  []types.RawSource
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		if r.news == nil {
			newsErr = fault.New(fault.KindConfigMissing, "newsapi", "news search not configured")
			return
		}
		region := newsapi.RegionForCountry(seed.Jurisdiction)
		items, cost, err := r.news.SearchTopic(ctx, seed.Topic, region, 25)
		mu.Lock()
		defer mu.Unlock()
		result.DataSources["news"] = &types.ServiceStat{Count: len(items), CostUSD: cost, Success: err == nil}
		result.TotalCostUSD += cost
		newsItems, newsErr = items, err
	}()
	go func() {
		defer wg.Done()
		if r.deep == nil {
			deepErr = fault.New(fault.KindConfigMissing, "deepresearch", "deep research not configured")
			return
		}
		instructions := fmt.Sprintf("Research the topic %q for a %s publication. Find primary sources, recent developments, and concrete figures.", seed.Topic, seed.App)
		res, err := r.deep.Research(ctx, instructions, 8*time.Minute)
		mu.Lock()
		defer mu.Unlock()
		result.DataSources["deep_research"] = &types.ServiceStat{Count: len(res.TaskOutputs), CostUSD: res.CostUSD, Success: err == nil}
		result.TotalCostUSD += res.CostUSD
		deepResult, deepErr = res, err
	}()
	go func() {
		defer wg.Done()
		if r.kgs == nil || !r.kgs.Enabled() {
			return
		}
		edges, err := r.kgs.SearchFacts(ctx, seed.App, seed.Topic, 10)
		mu.Lock()
		defer mu.Unlock()
		result.DataSources["knowledge_graph"] = &types.ServiceStat{Count: len(edges), Success: err == nil}
		if err != nil {
			r.log.Warn("kg context query failed", "error", err)
			return
		}
		for i, e := range edges {
			kgSources = append(kgSources, types.RawSource{
				SourceID:    fmt.Sprintf("kg_%d", i),
				SourceKind:  types.SourceKindKGEdge,
				ContentText: e.Fact,
			})
		}
	}()
	wg.Wait()

	if newsErr != nil {
		r.log.Warn("news search degraded", "error", newsErr)
	}
	if deepErr != nil {
		r.log.Warn("deep research degraded", "error", deepErr)
	}

	// Phase 2+3: pick URLs and crawl them.
	urls := SelectURLs(newsItems, deepResult.TaskOutputs, r.blocklist, r.topKURLs)
	var pages []crawler.PageResult
	if len(urls) > 0 && r.crawl != nil {
		crawled, err := r.crawl.CrawlMany(ctx, urls, r.crawlWorkers, r.crawlDelay)
		if err != nil {
			return nil, err
		}
		pages = crawled
		ok := 0
		for _, p := range pages {
			if p.OK {
				ok++
			}
			if p.Paywalled {
				result.SkippedPaywalled = append(result.SkippedPaywalled, p.URL)
			}
		}
		result.DataSources["crawler"] = &types.ServiceStat{Count: ok, Success: ok > 0}
	}

	// Phase 4: assemble raw sources with stable within-run ids.
	raw := AssembleRawSources(newsItems, pages, deepResult)
	raw = append(raw, kgSources...)
	for _, s := range raw {
		result.RawCountsBySrc[s.SourceKind]++
	}
	if len(raw) == 0 {
		return nil, fault.New(fault.KindUpstream5xx, "research", "all research adapters failed")
	}

	// Phase 5+6: curate and re-join full content.
	curated, err := r.curate(ctx, seed, raw)
	result.DataSources["curation"] = &types.ServiceStat{Count: len(curated.Sources), CostUSD: curationCostUSD, Success: err == nil}
	result.TotalCostUSD += curationCostUSD
	if err != nil || len(curated.Sources) == 0 {
		if err != nil {
			r.log.Warn("curation failed, falling back to raw sources", "error", err)
		}
		curated = FallbackCuration(raw, r.maxCurated)
	}
	curated.Sources = ResolveDuplicates(curated.Sources, curated.DuplicateGroups)
	OrderCurated(curated.Sources)

	result.Curated = curated
	return result, nil
}

// SelectURLs collects candidate URLs from news items and research outputs,
// normalizes and dedupes them, drops blocklisted domains, and keeps the
// first topK in arrival order (news first).
func SelectURLs(news []types.RawSource, outputs []deepresearch.TaskOutput, blocklist []string, topK int) []string {
	if topK <= 0 {
		topK = defaultTopKURLs
	}
	seen := map[string]bool{}
	var out []string

	add := func(raw string) {
		u := types.NormalizeURL(raw)
		if u == "" || seen[u] {
			return
		}
		for _, domain := range blocklist {
			if strings.Contains(u, domain) {
				return
			}
		}
		seen[u] = true
		if len(out) < topK {
			out = append(out, u)
		}
	}

	for _, n := range news {
		add(n.URL)
	}
	for _, o := range outputs {
		if o.URL != "" {
			add(o.URL)
		}
	}
	return out
}

// AssembleRawSources gives every retrieved document a stable within-run id:
// news_i, crawl_i, research_i in input order.
func AssembleRawSources(news []types.RawSource, pages []crawler.PageResult, deep deepresearch.Result) []types.RawSource {
	var out []types.RawSource

	for i, n := range news {
		src := n
		src.SourceID = fmt.Sprintf("news_%d", i)
		src.SourceKind = types.SourceKindNews
		out = append(out, src)
	}

	crawlIdx := 0
	for _, p := range pages {
		if !p.OK {
			continue
		}
		out = append(out, types.RawSource{
			SourceID:    fmt.Sprintf("crawl_%d", crawlIdx),
			SourceKind:  types.SourceKindCrawledPage,
			URL:         p.URL,
			Title:       p.Title,
			ContentText: p.Content,
		})
		crawlIdx++
	}

	researchIdx := 0
	if strings.TrimSpace(deep.Content) != "" {
		out = append(out, types.RawSource{
			SourceID:    fmt.Sprintf("research_%d", researchIdx),
			SourceKind:  types.SourceKindDeepResearch,
			ContentText: deep.Content,
		})
		researchIdx++
	}
	for _, t := range deep.TaskOutputs {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		out = append(out, types.RawSource{
			SourceID:    fmt.Sprintf("research_%d", researchIdx),
			SourceKind:  types.SourceKindDeepResearch,
			URL:         t.URL,
			Title:       t.Title,
			ContentText: t.Text,
		})
		researchIdx++
	}
	return out
}

// FallbackCuration returns the first maxN raw sources verbatim with the
// curation_failed flag set.
func FallbackCuration(raw []types.RawSource, maxN int) types.CuratedSet {
	if maxN <= 0 {
		maxN = defaultMaxCurated
	}
	set := types.CuratedSet{CurationFailed: true}
	for _, s := range raw {
		if len(set.Sources) >= maxN {
			break
		}
		set.Sources = append(set.Sources, types.CuratedSource{
			SourceID:       s.SourceID,
			SourceKind:     s.SourceKind,
			URL:            s.URL,
			Title:          s.Title,
			RelevanceScore: s.RelevanceScore,
			Summary:        firstN(s.ContentText, 300),
			FullContent:    s.ContentText,
		})
	}
	return set
}

// kindPriority orders tie-broken curated sources: crawled pages carry the
// most signal, then deep research, then headlines.
func kindPriority(kind string) int {
	switch kind {
	case types.SourceKindCrawledPage:
		return 3
	case types.SourceKindDeepResearch:
		return 2
	case types.SourceKindNews:
		return 1
	default:
		return 0
	}
}

// OrderCurated sorts in place: relevance descending, then kind priority,
// then shorter URL.
func OrderCurated(sources []types.CuratedSource) {
	sort.SliceStable(sources, func(i, j int) bool {
		a, b := sources[i], sources[j]
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		if pa, pb := kindPriority(a.SourceKind), kindPriority(b.SourceKind); pa != pb {
			return pa > pb
		}
		return len(a.URL) < len(b.URL)
	})
}

// ResolveDuplicates keeps, within each duplicate group, only the entry with
// the longest full content.
func ResolveDuplicates(sources []types.CuratedSource, groups [][]string) []types.CuratedSource {
	if len(groups) == 0 {
		return sources
	}
	drop := map[string]bool{}
	byID := map[string]types.CuratedSource{}
	for _, s := range sources {
		byID[s.SourceID] = s
	}
	for _, group := range groups {
		bestID := ""
		bestLen := -1
		for _, id := range group {
			s, ok := byID[id]
			if !ok {
				continue
			}
			if len(s.FullContent) > bestLen {
				bestID, bestLen = id, len(s.FullContent)
			}
		}
		for _, id := range group {
			if id != bestID {
				drop[id] = true
			}
		}
	}
	out := sources[:0]
	for _, s := range sources {
		if !drop[s.SourceID] {
			out = append(out, s)
		}
	}
	return out
}

func (r *Researcher) curate(ctx context.Context, seed Seed, raw []types.RawSource) (types.CuratedSet, error) {
	var set types.CuratedSet
	if r.ai == nil {
		return set, fault.New(fault.KindConfigMissing, "research", "curation model not configured")
	}

	var sb strings.Builder
	for _, s := range raw {
		fmt.Fprintf(&sb, "=== SOURCE %s (%s) ===\n", s.SourceID, s.SourceKind)
		if s.Title != "" {
			fmt.Fprintf(&sb, "Title: %s\n", s.Title)
		}
		if s.URL != "" {
			fmt.Fprintf(&sb, "URL: %s\n", s.URL)
		}
		sb.WriteString(firstN(s.ContentText, 4000))
		sb.WriteString("\n\n")
	}

	system := fmt.Sprintf(
		"You curate research sources for a %s publication. Select at most %d sources, "+
			"score each for relevance to the topic on a 0-10 scale, and summarize it. "+
			"Reference sources only by their given source_id. Also extract key facts, "+
			"distinct perspectives, and groups of source_ids covering the same story.",
		seed.App, r.maxCurated)
	user := fmt.Sprintf("Topic: %s\n\n%s", seed.Topic, sb.String())

	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"sources", "key_facts", "perspectives", "duplicate_groups"},
		"properties": map[string]any{
			"sources": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"source_id", "relevance_score", "summary", "key_quote"},
					"properties": map[string]any{
						"source_id":       map[string]any{"type": "string"},
						"relevance_score": map[string]any{"type": "number"},
						"summary":         map[string]any{"type": "string"},
						"key_quote":       map[string]any{"type": "string"},
					},
				},
			},
			"key_facts":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"perspectives": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"duplicate_groups": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
		},
	}

	obj, err := r.ai.GenerateJSON(ctx, system, user, "source_curation", schema)
	if err != nil {
		return set, err
	}

	byID := map[string]types.RawSource{}
	for _, s := range raw {
		byID[s.SourceID] = s
	}

	if items, ok := obj["sources"].([]any); ok {
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			id, _ := m["source_id"].(string)
			orig, ok := byID[id]
			if !ok {
				continue
			}
			score, _ := m["relevance_score"].(float64)
			if score < 0 {
				score = 0
			}
			if score > 10 {
				score = 10
			}
			summary, _ := m["summary"].(string)
			quote, _ := m["key_quote"].(string)
			set.Sources = append(set.Sources, types.CuratedSource{
				SourceID:       id,
				SourceKind:     orig.SourceKind,
				URL:            orig.URL,
				Title:          orig.Title,
				RelevanceScore: score,
				Summary:        summary,
				KeyQuote:       quote,
				FullContent:    orig.ContentText,
			})
			if len(set.Sources) >= r.maxCurated {
				break
			}
		}
	}
	set.KeyFacts = stringList(obj["key_facts"])
	set.Perspectives = stringList(obj["perspectives"])
	if groups, ok := obj["duplicate_groups"].([]any); ok {
		for _, g := range groups {
			ids := stringList(g)
			if len(ids) > 1 {
				set.DuplicateGroups = append(set.DuplicateGroups, ids)
			}
		}
	}
	return set, nil
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
