package mux

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
	streamBase = "https://stream.mux.com"
	imageBase  = "https://image.mux.com"

	defaultReadyAttempts = 60
	defaultReadyInterval = 2 * time.Second
)

// Asset is the subset of the host's asset object the pipelines use.
type Asset struct {
	AssetID         string  `json:"asset_id"`
	PlaybackID      string  `json:"playback_id"`
	DurationSeconds float64 `json:"duration_seconds"`
	Status          string  `json:"status"`
}

// Client ingests videos by pull URL and deletes orphaned assets. URL
// construction is pure and lives on package functions so workflow code can
// build playback URLs without I/O.
type Client interface {
	// Upload creates an asset from a source URL and waits until it is ready.
	// heartbeat, when non-nil, is invoked once per poll so long waits can
	// report liveness.
	Upload(ctx context.Context, videoURL, passthrough string, meta map[string]string, heartbeat func()) (Asset, error)
	Delete(ctx context.Context, assetID string) error
}

type client struct {
	log            *logger.Logger
	baseURL        string
	tokenID        string
	tokenSecret    string
	httpClient     *http.Client
	readyAttempts  int
	readyInterval  time.Duration
	playbackPolicy string
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	tokenID := strings.TrimSpace(os.Getenv("MUX_TOKEN_ID"))
	tokenSecret := strings.TrimSpace(os.Getenv("MUX_TOKEN_SECRET"))
	if tokenID == "" || tokenSecret == "" {
		return nil, fault.New(fault.KindConfigMissing, "mux", "missing MUX_TOKEN_ID / MUX_TOKEN_SECRET")
	}
	baseURL := strings.TrimSpace(os.Getenv("MUX_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.mux.com"
	}
	return &client{
		log:            log.With("service", "MuxClient"),
		baseURL:        strings.TrimRight(baseURL, "/"),
		tokenID:        tokenID,
		tokenSecret:    tokenSecret,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		readyAttempts:  defaultReadyAttempts,
		readyInterval:  defaultReadyInterval,
		playbackPolicy: "public",
	}, nil
}

// -------------------- pure URL builders --------------------

// StreamURL returns the HLS playback URL for a playback id.
func StreamURL(playbackID string) string {
	return fmt.Sprintf("%s/%s.m3u8", streamBase, playbackID)
}

// ThumbnailURL returns a frame grab at the given time. height <= 0 omits the
// height and crop parameters.
func ThumbnailURL(playbackID string, timeSeconds float64, width, height int) string {
	u := fmt.Sprintf("%s/%s/thumbnail.jpg?time=%s&width=%d", imageBase, playbackID, formatSeconds(timeSeconds), width)
	if height > 0 {
		u += fmt.Sprintf("&height=%d&fit_mode=smartcrop", height)
	}
	return u
}

// AnimatedURL returns an animated clip spanning [startSeconds, endSeconds].
func AnimatedURL(playbackID string, startSeconds, endSeconds float64, width, fps int) string {
	return fmt.Sprintf("%s/%s/animated.gif?start=%s&end=%s&width=%d&fps=%d",
		imageBase, playbackID, formatSeconds(startSeconds), formatSeconds(endSeconds), width, fps)
}

func formatSeconds(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	return strings.TrimSuffix(s, ".0")
}

// -------------------- asset lifecycle --------------------

type assetEnvelope struct {
	Data struct {
		ID          string  `json:"id"`
		Status      string  `json:"status"`
		Duration    float64 `json:"duration"`
		PlaybackIDs []struct {
			ID     string `json:"id"`
			Policy string `json:"policy"`
		} `json:"playback_ids"`
		Errors *struct {
			Type     string   `json:"type"`
			Messages []string `json:"messages"`
		} `json:"errors,omitempty"`
	} `json:"data"`
}

func (c *client) Upload(ctx context.Context, videoURL, passthrough string, meta map[string]string, heartbeat func()) (Asset, error) {
	var out Asset
	if strings.TrimSpace(videoURL) == "" {
		return out, fault.New(fault.KindParse, "mux", "empty video url")
	}
	if len(passthrough) > 255 {
		passthrough = passthrough[:255]
	}

	body := map[string]any{
		"input":           []map[string]any{{"url": videoURL}},
		"playback_policy": []string{c.playbackPolicy},
		"passthrough":     passthrough,
	}
	if len(meta) > 0 {
		body["meta"] = meta
	}

	var created assetEnvelope
	if err := c.do(ctx, "POST", "/video/v1/assets", body, &created); err != nil {
		return out, err
	}
	if created.Data.ID == "" {
		return out, fault.New(fault.KindParse, "mux", "no asset id in create response")
	}

	out.AssetID = created.Data.ID
	out.Status = created.Data.Status

	for attempt := 0; attempt < c.readyAttempts; attempt++ {
		if heartbeat != nil {
			heartbeat()
		}
		if out.Status == "ready" {
			break
		}
		if out.Status == "errored" {
			return out, fault.New(fault.KindUpstream5xx, "mux", "asset errored during ingest")
		}

		select {
		case <-ctx.Done():
			return out, fault.Wrap(fault.KindTimeout, "mux", "context done", ctx.Err())
		case <-time.After(c.readyInterval):
		}

		var polled assetEnvelope
		if err := c.do(ctx, "GET", "/video/v1/assets/"+out.AssetID, nil, &polled); err != nil {
			if fault.Retryable(err) {
				continue
			}
			return out, err
		}
		out.Status = polled.Data.Status
		out.DurationSeconds = polled.Data.Duration
		for _, p := range polled.Data.PlaybackIDs {
			if p.Policy == c.playbackPolicy || out.PlaybackID == "" {
				out.PlaybackID = p.ID
			}
		}
	}

	if out.Status != "ready" {
		return out, fault.New(fault.KindTimeout, "mux",
			fmt.Sprintf("asset %s not ready after %d polls", out.AssetID, c.readyAttempts))
	}
	if out.PlaybackID == "" {
		return out, fault.New(fault.KindParse, "mux", "ready asset has no playback id")
	}
	return out, nil
}

func (c *client) Delete(ctx context.Context, assetID string) error {
	if strings.TrimSpace(assetID) == "" {
		return nil
	}
	return c.do(ctx, "DELETE", "/video/v1/assets/"+assetID, nil, nil)
}

type muxHTTPError struct {
	StatusCode int
	Body       string
}

func (e *muxHTTPError) Error() string {
	return fmt.Sprintf("mux http %d: %s", e.StatusCode, e.Body)
}

func (e *muxHTTPError) HTTPStatusCode() int {
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
			return fault.Wrap(fault.KindTimeout, "mux", "context done", ctx.Err())
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
		req.SetBasicAuth(c.tokenID, c.tokenSecret)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err == nil {
			raw, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if readErr != nil {
				err = readErr
			} else if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				err = &muxHTTPError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 400)}
			} else {
				if out == nil {
					return nil
				}
				if uErr := json.Unmarshal(raw, out); uErr != nil {
					return fault.Wrap(fault.KindParse, "mux", "decode response", uErr)
				}
				return nil
			}
		}
		lastErr = err

		if !httpx.IsRetryableError(err) || attempt == 3 {
			break
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("mux request retrying", "path", path, "attempt", attempt+1, "sleep", sleepFor.String(), "error", err)
		select {
		case <-ctx.Done():
			return fault.Wrap(fault.KindTimeout, "mux", "context done", ctx.Err())
		case <-time.After(sleepFor):
		}
		backoff *= 2
	}

	var httpErr *muxHTTPError
	if errors.As(lastErr, &httpErr) {
		return fault.FromHTTPStatus("mux", httpErr.StatusCode, httpErr.Body)
	}
	if errors.Is(lastErr, context.DeadlineExceeded) {
		return fault.Wrap(fault.KindTimeout, "mux", "request timed out", lastErr)
	}
	return fault.Wrap(fault.KindUpstream5xx, "mux", "request failed", lastErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
