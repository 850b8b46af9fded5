package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	types "github.com/yungbote/pressroom-backend/internal/domain"
	"github.com/yungbote/pressroom-backend/internal/platform/fault"
	"github.com/yungbote/pressroom-backend/internal/platform/httpx"
	"github.com/yungbote/pressroom-backend/internal/platform/logger"
)

// CostPerRequestUSD is a flat estimate used for run-level cost reporting.
const CostPerRequestUSD = 0.001

// RegionForCountry maps a jurisdiction to the search region parameter.
func RegionForCountry(country string) string {
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "UK", "GB":
		return "uk"
	case "US":
		return "us"
	case "SG":
		return "sg"
	case "EU", "DE":
		return "de"
	case "AU":
		return "au"
	case "CA":
		return "ca"
	default:
		return "us"
	}
}

// Client wraps a keyword news search API. Results come back as raw sources
// with ISO timestamps when the provider supplies them.
type Client interface {
	Search(ctx context.Context, keywords []string, region string, freshnessDays int) ([]types.RawSource, float64, error)
	SearchTopic(ctx context.Context, query, region string, limit int) ([]types.RawSource, float64, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(os.Getenv("NEWSAPI_API_KEY"))
	if apiKey == "" {
		return nil, fault.New(fault.KindConfigMissing, "newsapi", "missing NEWSAPI_API_KEY")
	}
	baseURL := strings.TrimSpace(os.Getenv("NEWSAPI_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://newsapi.org"
	}
	return &client{
		log:        log.With("service", "NewsAPIClient"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
	}, nil
}

type newsAPIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *newsAPIHTTPError) Error() string {
	return fmt.Sprintf("newsapi http %d: %s", e.StatusCode, e.Body)
}

func (e *newsAPIHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type searchResponse struct {
	Status       string `json:"status"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Content     string `json:"content"`
	} `json:"articles"`
}

func (c *client) Search(ctx context.Context, keywords []string, region string, freshnessDays int) ([]types.RawSource, float64, error) {
	query := strings.Join(keywords, " OR ")
	if strings.TrimSpace(query) == "" {
		return nil, 0, fault.New(fault.KindParse, "newsapi", "no keywords")
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("sortBy", "publishedAt")
	if region != "" {
		params.Set("region", region)
	}
	if freshnessDays > 0 {
		params.Set("from", time.Now().UTC().AddDate(0, 0, -freshnessDays).Format("2006-01-02"))
	}
	return c.search(ctx, params)
}

func (c *client) SearchTopic(ctx context.Context, query, region string, limit int) ([]types.RawSource, float64, error) {
	if strings.TrimSpace(query) == "" {
		return nil, 0, fault.New(fault.KindParse, "newsapi", "empty query")
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("sortBy", "relevancy")
	if region != "" {
		params.Set("region", region)
	}
	if limit > 0 {
		params.Set("pageSize", fmt.Sprintf("%d", limit))
	}
	return c.search(ctx, params)
}

func (c *client) search(ctx context.Context, params url.Values) ([]types.RawSource, float64, error) {
	var resp searchResponse
	if err := c.do(ctx, "/v2/everything?"+params.Encode(), &resp); err != nil {
		// Pricing is per request, success or not.
		return nil, CostPerRequestUSD, err
	}

	out := make([]types.RawSource, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if strings.TrimSpace(a.URL) == "" {
			continue
		}
		src := types.RawSource{
			SourceKind:  types.SourceKindNews,
			URL:         a.URL,
			Title:       a.Title,
			ContentText: strings.TrimSpace(strings.Join([]string{a.Description, a.Content}, "\n\n")),
			Author:      a.Author,
		}
		if ts, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			src.PublishedAt = &ts
		}
		out = append(out, src)
	}
	return out, CostPerRequestUSD, nil
}

func (c *client) do(ctx context.Context, path string, out any) error {
	backoff := 1 * time.Second
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return fault.Wrap(fault.KindTimeout, "newsapi", "context done", ctx.Err())
		}

		req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
		if err != nil {
			return err
		}
		req.Header.Set("X-Api-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err == nil {
			raw, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if readErr != nil {
				err = readErr
			} else if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				err = &newsAPIHTTPError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 400)}
			} else {
				if uErr := json.Unmarshal(raw, out); uErr != nil {
					return fault.Wrap(fault.KindParse, "newsapi", "decode response", uErr)
				}
				return nil
			}
		}
		lastErr = err

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			break
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("news search retrying", "attempt", attempt+1, "sleep", sleepFor.String(), "error", err)
		select {
		case <-ctx.Done():
			return fault.Wrap(fault.KindTimeout, "newsapi", "context done", ctx.Err())
		case <-time.After(sleepFor):
		}
		backoff *= 2
	}
	return classify(lastErr)
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var httpErr *newsAPIHTTPError
	if errors.As(err, &httpErr) {
		return fault.FromHTTPStatus("newsapi", httpErr.StatusCode, httpErr.Body)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fault.Wrap(fault.KindTimeout, "newsapi", "request timed out", err)
	}
	return fault.Wrap(fault.KindUpstream5xx, "newsapi", "request failed", err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
