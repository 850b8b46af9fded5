package deepresearch

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

// CostPerRunUSD is a flat estimate for one research run, used only for
// run-level cost reporting.
const CostPerRunUSD = 0.25

// TaskOutput is one intermediate artifact of a research run: a web search
// the model performed or a reasoning/summary block it emitted.
type TaskOutput struct {
	Kind  string `json:"kind"` // "web_search" | "summary"
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
	Text  string `json:"text"`
}

type Result struct {
	ResearchID  string       `json:"research_id"`
	Content     string       `json:"content"`
	TaskOutputs []TaskOutput `json:"task_outputs"`
	Partial     bool         `json:"partial,omitempty"`
	CostUSD     float64      `json:"cost_usd"`
}

// Client runs long-form background research: submit instructions, poll until
// the run settles, and collect whatever arrived. A run that errors mid-way
// still returns its accumulated task outputs as a partial success.
type Client interface {
	Research(ctx context.Context, instructions string, timeout time.Duration) (Result, error)
}

type client struct {
	log          *logger.Logger
	baseURL      string
	apiKey       string
	model        string
	httpClient   *http.Client
	pollInterval time.Duration
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, fault.New(fault.KindConfigMissing, "deepresearch", "missing OPENAI_API_KEY")
	}
	baseURL := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	model := strings.TrimSpace(os.Getenv("DEEPRESEARCH_MODEL"))
	if model == "" {
		model = "o4-mini-deep-research"
	}
	return &client{
		log:          log.With("service", "DeepResearchClient"),
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		model:        model,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		pollInterval: 5 * time.Second,
	}, nil
}

type backgroundResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"` // queued | in_progress | completed | failed | cancelled | incomplete
	Error  *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Output []struct {
		Type   string `json:"type"`
		Role   string `json:"role,omitempty"`
		Action *struct {
			Type  string `json:"type"`
			Query string `json:"query,omitempty"`
			URL   string `json:"url,omitempty"`
		} `json:"action,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
		Summary []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"summary,omitempty"`
	} `json:"output"`
}

func (c *client) Research(ctx context.Context, instructions string, timeout time.Duration) (Result, error) {
	out := Result{CostUSD: CostPerRunUSD}
	if strings.TrimSpace(instructions) == "" {
		return out, fault.New(fault.KindParse, "deepresearch", "empty instructions")
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	body := map[string]any{
		"model":      c.model,
		"background": true,
		"input":      instructions,
		"tools":      []map[string]any{{"type": "web_search_preview"}},
	}

	var created backgroundResponse
	if err := c.do(ctx, "POST", "/v1/responses", body, &created); err != nil {
		return out, err
	}
	if created.ID == "" {
		return out, fault.New(fault.KindParse, "deepresearch", "no response id")
	}
	out.ResearchID = created.ID

	deadline := time.Now().Add(timeout)
	last := created
	for {
		switch last.Status {
		case "completed":
			c.harvest(last, &out)
			return out, nil
		case "failed", "cancelled", "incomplete":
			// Keep whatever task outputs accumulated before the failure.
			c.harvest(last, &out)
			out.Partial = true
			if len(out.TaskOutputs) > 0 || out.Content != "" {
				c.log.Warn("research run ended early, returning partial outputs",
					"research_id", out.ResearchID, "status", last.Status, "outputs", len(out.TaskOutputs))
				return out, nil
			}
			msg := "research run " + last.Status
			if last.Error != nil && last.Error.Message != "" {
				msg += ": " + last.Error.Message
			}
			return out, fault.New(fault.KindUpstream5xx, "deepresearch", msg)
		}

		if time.Now().After(deadline) {
			c.harvest(last, &out)
			out.Partial = true
			if len(out.TaskOutputs) > 0 {
				return out, nil
			}
			return out, fault.New(fault.KindTimeout, "deepresearch", "research run timed out")
		}

		select {
		case <-ctx.Done():
			return out, fault.Wrap(fault.KindTimeout, "deepresearch", "context done", ctx.Err())
		case <-time.After(c.pollInterval):
		}

		var polled backgroundResponse
		if err := c.do(ctx, "GET", "/v1/responses/"+created.ID, nil, &polled); err != nil {
			if fault.Retryable(err) {
				continue
			}
			return out, err
		}
		last = polled
	}
}

func (c *client) harvest(resp backgroundResponse, out *Result) {
	var content strings.Builder
	for _, item := range resp.Output {
		switch item.Type {
		case "web_search_call":
			if item.Action != nil {
				to := TaskOutput{Kind: "web_search", URL: item.Action.URL, Text: item.Action.Query}
				if to.Text != "" || to.URL != "" {
					out.TaskOutputs = append(out.TaskOutputs, to)
				}
			}
		case "reasoning":
			for _, s := range item.Summary {
				if strings.TrimSpace(s.Text) != "" {
					out.TaskOutputs = append(out.TaskOutputs, TaskOutput{Kind: "summary", Text: s.Text})
				}
			}
		case "message":
			for _, cpart := range item.Content {
				if cpart.Type == "output_text" && cpart.Text != "" {
					content.WriteString(cpart.Text)
				}
			}
		}
	}
	if content.Len() > 0 {
		out.Content = content.String()
	}
}

type drHTTPError struct {
	StatusCode int
	Body       string
}

func (e *drHTTPError) Error() string {
	return fmt.Sprintf("deepresearch http %d: %s", e.StatusCode, e.Body)
}

func (e *drHTTPError) HTTPStatusCode() int {
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
			return fault.Wrap(fault.KindTimeout, "deepresearch", "context done", ctx.Err())
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
				err = &drHTTPError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 400)}
			} else {
				if out == nil {
					return nil
				}
				if uErr := json.Unmarshal(raw, out); uErr != nil {
					return fault.Wrap(fault.KindParse, "deepresearch", "decode response", uErr)
				}
				return nil
			}
		}
		lastErr = err

		if !httpx.IsRetryableError(err) || attempt == 3 {
			break
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		select {
		case <-ctx.Done():
			return fault.Wrap(fault.KindTimeout, "deepresearch", "context done", ctx.Err())
		case <-time.After(sleepFor):
		}
		backoff *= 2
	}

	var httpErr *drHTTPError
	if errors.As(lastErr, &httpErr) {
		return fault.FromHTTPStatus("deepresearch", httpErr.StatusCode, httpErr.Body)
	}
	if errors.Is(lastErr, context.DeadlineExceeded) {
		return fault.Wrap(fault.KindTimeout, "deepresearch", "request timed out", lastErr)
	}
	return fault.Wrap(fault.KindUpstream5xx, "deepresearch", "request failed", lastErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
