package videogen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/yungbote/pressroom-backend/internal/platform/fault"
	"github.com/yungbote/pressroom-backend/internal/platform/httpx"
	"github.com/yungbote/pressroom-backend/internal/platform/logger"
)

const (
	// MaxPromptChars is the provider's hard prompt limit; longer prompts are
	// truncated before submission.
	MaxPromptChars = 2000

	// CostPerSecondUSD is a flat per-second estimate for cost reporting.
	CostPerSecondUSD = 0.05

	defaultPollAttempts = 60
	defaultPollInterval = 2 * time.Second
)

type GenerateRequest struct {
	Prompt            string
	DurationSeconds   float64
	Resolution        string // "720p" | "1080p"
	AspectRatio       string // "16:9" | "9:16" | "1:1"
	ModelTier         string // "fast" | "quality"
	ReferenceImageURL string
}

type Generation struct {
	VideoURL string  `json:"video_url"`
	JobID    string  `json:"job_id"`
	CostUSD  float64 `json:"cost_usd"`
}

// Client submits a text-to-video job and polls it to completion. The poll
// loop is bounded; exceeding it surfaces as a timeout.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (Generation, error)
}

type client struct {
	log          *logger.Logger
	baseURL      string
	apiKey       string
	fastModel    string
	qualityModel string
	httpClient   *http.Client
	pollAttempts int
	pollInterval time.Duration
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(os.Getenv("VIDEOGEN_API_KEY"))
	if apiKey == "" {
		return nil, fault.New(fault.KindConfigMissing, "videogen", "missing VIDEOGEN_API_KEY")
	}
	baseURL := strings.TrimSpace(os.Getenv("VIDEOGEN_API_URL"))
	if baseURL == "" {
		return nil, fault.New(fault.KindConfigMissing, "videogen", "missing VIDEOGEN_API_URL")
	}
	fastModel := strings.TrimSpace(os.Getenv("VIDEOGEN_FAST_MODEL"))
	if fastModel == "" {
		fastModel = "video-fast-1"
	}
	qualityModel := strings.TrimSpace(os.Getenv("VIDEOGEN_QUALITY_MODEL"))
	if qualityModel == "" {
		qualityModel = "video-quality-1"
	}
	return &client{
		log:          log.With("service", "VideoGenClient"),
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		fastModel:    fastModel,
		qualityModel: qualityModel,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		pollAttempts: defaultPollAttempts,
		pollInterval: defaultPollInterval,
	}, nil
}

// TruncatePrompt enforces the provider prompt cap on a rune-safe boundary.
func TruncatePrompt(prompt string) string {
	if len(prompt) <= MaxPromptChars {
		return prompt
	}
	runes := []rune(prompt)
	out := make([]rune, 0, MaxPromptChars)
	size := 0
	for _, r := range runes {
		size += len(string(r))
		if size > MaxPromptChars {
			break
		}
		out = append(out, r)
	}
	return string(out)
}

type submitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type jobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"` // queued | processing | succeeded | failed
	Video  *struct {
		URL string `json:"url"`
	} `json:"video,omitempty"`
	Error string `json:"error,omitempty"`
}

func (c *client) Generate(ctx context.Context, req GenerateRequest) (Generation, error) {
	out := Generation{}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return out, fault.New(fault.KindParse, "videogen", "empty prompt")
	}
	prompt = TruncatePrompt(prompt)

	duration := req.DurationSeconds
	if duration <= 0 {
		duration = 12
	}
	out.CostUSD = duration * CostPerSecondUSD

	model := c.fastModel
	if req.ModelTier == "quality" {
		model = c.qualityModel
	}
	resolution := req.Resolution
	if resolution == "" {
		resolution = "720p"
	}
	aspect := req.AspectRatio
	if aspect == "" {
		aspect = "16:9"
	}

	body := map[string]any{
		"model":            model,
		"prompt":           prompt,
		"duration_seconds": duration,
		"resolution":       resolution,
		"aspect_ratio":     aspect,
	}
	if ref := strings.TrimSpace(req.ReferenceImageURL); ref != "" {
		body["reference_image_url"] = ref
	}

	var submitted submitResponse
	if err := c.do(ctx, "POST", "/v1/videos", body, &submitted); err != nil {
		return out, err
	}
	if submitted.ID == "" {
		return out, fault.New(fault.KindParse, "videogen", "no job id in submit response")
	}
	out.JobID = submitted.ID

	for attempt := 0; attempt < c.pollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return out, fault.Wrap(fault.KindTimeout, "videogen", "context done", ctx.Err())
		case <-time.After(c.pollInterval):
		}

		var job jobResponse
		if err := c.do(ctx, "GET", "/v1/videos/"+submitted.ID, nil, &job); err != nil {
			if fault.Retryable(err) {
				continue
			}
			return out, err
		}

		switch job.Status {
		case "succeeded":
			if job.Video == nil || job.Video.URL == "" {
				return out, fault.New(fault.KindParse, "videogen", "succeeded job missing video url")
			}
			out.VideoURL = job.Video.URL
			return out, nil
		case "failed":
			return out, fault.New(fault.KindUpstream5xx, "videogen", "generation failed: "+job.Error)
		}
	}
	return out, fault.New(fault.KindTimeout, "videogen", fmt.Sprintf("job %s not ready after %d polls", submitted.ID, c.pollAttempts))
}

type vgHTTPError struct {
	StatusCode int
	Body       string
}

func (e *vgHTTPError) Error() string {
	return fmt.Sprintf("videogen http %d: %s", e.StatusCode, e.Body)
}

func (e *vgHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	backoff := 1 * time.Second
	var lastErr error
	for attempt := 0; attempt <= 3; attempt++ {
		if ctx.Err() != nil {
			return fault.Wrap(fault.KindTimeout, "videogen", "context done", ctx.Err())
		}

		var buf bytes.Buffer
		if body != nil {
			if err := json.NewEncoder(&buf).Encode(body); err != nil {
				return err
			}
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err == nil {
			raw, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if readErr != nil {
				err = readErr
			} else if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				err = &vgHTTPError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 400)}
			} else {
				if out == nil {
					return nil
				}
				if uErr := json.Unmarshal(raw, out); uErr != nil {
					return fault.Wrap(fault.KindParse, "videogen", "decode response", uErr)
				}
				return nil
			}
		}
		lastErr = err

		if !httpx.IsRetryableError(err) || attempt == 3 {
			break
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("videogen request retrying", "path", path, "attempt", attempt+1, "sleep", sleepFor.String(), "error", err)
		select {
		case <-ctx.Done():
			return fault.Wrap(fault.KindTimeout, "videogen", "context done", ctx.Err())
		case <-time.After(sleepFor):
		}
		backoff *= 2
	}

	var httpErr *vgHTTPError
	if errors.As(lastErr, &httpErr) {
		return fault.FromHTTPStatus("videogen", httpErr.StatusCode, httpErr.Body)
	}
	if errors.Is(lastErr, context.DeadlineExceeded) {
		return fault.Wrap(fault.KindTimeout, "videogen", "request timed out", lastErr)
	}
	return fault.Wrap(fault.KindUpstream5xx, "videogen", "request failed", lastErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
