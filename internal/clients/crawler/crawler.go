package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/pressroom-backend/internal/platform/envutil"
	"github.com/yungbote/pressroom-backend/internal/platform/fault"
	"github.com/yungbote/pressroom-backend/internal/platform/logger"
)

const (
	DefaultParallelism    = 5
	DefaultDelayBetween   = 500 * time.Millisecond
	defaultPaywallMinimum = 500
)

// PageResult is one crawl outcome. Paywalled pages are flagged, not errored:
// upstream filtering decides what to do with them.
type PageResult struct {
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	Content   string `json:"content,omitempty"`
	OK        bool   `json:"ok"`
	Paywalled bool   `json:"paywalled,omitempty"`
	Error     string `json:"error,omitempty"`
}

// DiscoveredLink is a candidate page found on a listing/board page.
type DiscoveredLink struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type Client interface {
	CrawlOne(ctx context.Context, pageURL string) (PageResult, error)
	CrawlMany(ctx context.Context, urls []string, parallelism int, delayBetween time.Duration) ([]PageResult, error)
	Discover(ctx context.Context, boardURL string, maxURLs int) ([]DiscoveredLink, error)
}

type client struct {
	log        *logger.Logger
	httpClient *http.Client
	userAgent  string
	minChars   int
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	minChars := envutil.GetEnvAsInt("CRAWL_PAYWALL_MIN_CHARS", defaultPaywallMinimum, log)
	return &client{
		log:        log.With("service", "CrawlerClient"),
		httpClient: &http.Client{Timeout: 20 * time.Second},
		userAgent:  "Mozilla/5.0 (compatible; pressroom-crawler/1.0)",
		minChars:   minChars,
	}, nil
}

func (c *client) CrawlOne(ctx context.Context, pageURL string) (PageResult, error) {
	res := PageResult{URL: pageURL}

	doc, err := c.fetchDoc(ctx, pageURL)
	if err != nil {
		res.Error = err.Error()
		return res, err
	}

	res.Title = strings.TrimSpace(doc.Find("title").First().Text())
	res.Content = extractText(doc)

	if len(res.Content) < c.minChars {
		res.Paywalled = true
		return res, nil
	}
	res.OK = true
	return res, nil
}

// CrawlMany fetches urls with bounded parallelism and an inter-request delay
// per worker. Per-URL failures land in the result slice; the call itself only
// errors on a cancelled context.
func (c *client) CrawlMany(ctx context.Context, urls []string, parallelism int, delayBetween time.Duration) ([]PageResult, error) {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	if delayBetween < 0 {
		delayBetween = DefaultDelayBetween
	}

	results := make([]PageResult, len(urls))
	var g errgroup.Group
	g.SetLimit(parallelism)

	for i, u := range urls {
		if ctx.Err() != nil {
			break
		}
		idx, pageURL := i, u
		g.Go(func() error {
			res, err := c.CrawlOne(ctx, pageURL)
			if err != nil {
				res = PageResult{URL: pageURL, Error: err.Error()}
			}
			results[idx] = res

			if delayBetween > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(delayBetween):
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, fault.Wrap(fault.KindTimeout, "crawler", "context done", err)
	}
	return results, nil
}

// Discover pulls candidate article/job links from a listing page, resolved
// against the board URL and deduplicated in document order.
func (c *client) Discover(ctx context.Context, boardURL string, maxURLs int) ([]DiscoveredLink, error) {
	if maxURLs <= 0 {
		maxURLs = 50
	}
	base, err := url.Parse(boardURL)
	if err != nil {
		return nil, fault.Wrap(fault.KindParse, "crawler", "bad board url", err)
	}

	doc, err := c.fetchDoc(ctx, boardURL)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var out []DiscoveredLink
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return true
		}
		key := abs.String()
		if seen[key] {
			return true
		}
		seen[key] = true

		title := strings.TrimSpace(s.Text())
		if title == "" {
			title, _ = s.Attr("title")
			title = strings.TrimSpace(title)
		}
		out = append(out, DiscoveredLink{URL: key, Title: title})
		return len(out) < maxURLs
	})
	return out, nil
}

func (c *client) fetchDoc(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, fault.Wrap(fault.KindParse, "crawler", "bad url", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fault.Wrap(fault.KindTimeout, "crawler", "context done", ctx.Err())
		}
		return nil, fault.Wrap(fault.KindUpstream5xx, "crawler", "fetch failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fault.FromHTTPStatus("crawler", resp.StatusCode, pageURL)
	}
	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "html") && !strings.Contains(ct, "xml") {
		return nil, fault.New(fault.KindParse, "crawler", "non-html content type "+ct)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fault.Wrap(fault.KindParse, "crawler", "parse html", err)
	}
	return doc, nil
}

// extractText prefers article/main containers, stripping nav and script
// noise, and falls back to the whole body.
func extractText(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, aside, noscript, iframe").Remove()

	for _, sel := range []string{"article", "main", "[role=main]", ".article-body", ".post-content"} {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if text := collapseWhitespace(node.Text()); len(text) > 0 {
				return text
			}
		}
	}
	return collapseWhitespace(doc.Find("body").Text())
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
