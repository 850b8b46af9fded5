package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/yungbote/pressroom-backend/internal/platform/fault"
	"github.com/yungbote/pressroom-backend/internal/platform/logger"
)

// Client uploads images to the CDN. Uploads are keyed on (folder, public_id)
// with overwrite on, so retrying an activity re-writes the same object and
// returns the same secure URL.
type Client interface {
	UploadURL(ctx context.Context, imageURL, folder, publicID string) (string, error)
	UploadBytes(ctx context.Context, data []byte, mimeType, folder, publicID string) (string, error)
}

type client struct {
	log        *logger.Logger
	cloudName  string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cloudName := strings.TrimSpace(os.Getenv("CLOUDINARY_CLOUD_NAME"))
	apiKey := strings.TrimSpace(os.Getenv("CLOUDINARY_API_KEY"))
	apiSecret := strings.TrimSpace(os.Getenv("CLOUDINARY_API_SECRET"))
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fault.New(fault.KindConfigMissing, "cloudinary", "missing CLOUDINARY_CLOUD_NAME / CLOUDINARY_API_KEY / CLOUDINARY_API_SECRET")
	}
	return &client{
		log:        log.With("service", "CloudinaryClient"),
		cloudName:  cloudName,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (c *client) UploadURL(ctx context.Context, imageURL, folder, publicID string) (string, error) {
	if strings.TrimSpace(imageURL) == "" {
		return "", fault.New(fault.KindParse, "cloudinary", "empty image url")
	}
	return c.upload(ctx, imageURL, folder, publicID)
}

func (c *client) UploadBytes(ctx context.Context, data []byte, mimeType, folder, publicID string) (string, error) {
	if len(data) == 0 {
		return "", fault.New(fault.KindParse, "cloudinary", "empty image data")
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	dataURI := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
	return c.upload(ctx, dataURI, folder, publicID)
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *client) upload(ctx context.Context, file, folder, publicID string) (string, error) {
	if strings.TrimSpace(publicID) == "" {
		return "", fault.New(fault.KindParse, "cloudinary", "public_id required")
	}

	params := map[string]string{
		"public_id": publicID,
		"overwrite": "true",
		"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
	}
	if folder != "" {
		params["folder"] = folder
	}
	params["signature"] = signParams(params, c.apiSecret)
	params["api_key"] = c.apiKey
	params["file"] = file

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", c.cloudName)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fault.Wrap(fault.KindTimeout, "cloudinary", "context done", ctx.Err())
		}
		return "", fault.Wrap(fault.KindUpstream5xx, "cloudinary", "upload failed", err)
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return "", readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fault.FromHTTPStatus("cloudinary", resp.StatusCode, truncate(string(raw), 400))
	}

	var parsed uploadResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fault.Wrap(fault.KindParse, "cloudinary", "decode upload response", err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return "", fault.New(fault.KindUpstream4xx, "cloudinary", parsed.Error.Message)
	}
	if parsed.SecureURL == "" {
		return "", fault.New(fault.KindParse, "cloudinary", "upload response missing secure_url")
	}
	return parsed.SecureURL, nil
}

// signParams builds the API signature: sha1 of the sorted signed params
// concatenated with the secret. file and api_key are excluded by contract.
func signParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "&") + secret))
	return hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
