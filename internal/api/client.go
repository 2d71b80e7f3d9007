// Package api provides the HTTP client for the veilmark watermark service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Client talks to the watermark service REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client for the given base URL. An explicit per-request
// timeout applies to every call; reconciliation polling has its own,
// separate schedule.
func New(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("VEILMARK_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the configured service URL.
func (c *Client) BaseURL() string { return c.baseURL }

// SetToken replaces the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) { c.token = token }

// EmbedRequest describes one image embedding call. Strength is the
// frequency-domain embedding strength, typically a sub-1.0 value like 0.1;
// zero leaves it to the server default.
type EmbedRequest struct {
	Path     string
	Strength float64
	Author   string
}

// Embed uploads an image and embeds a fingerprint into it. The file rides
// the multipart field "image"; the server rejects any other field name.
// Business failures arrive in a 200 body and surface as *APIError.
func (c *Client) Embed(ctx context.Context, req EmbedRequest) (*EmbedResult, error) {
	fields := map[string]string{
		"author_name": req.Author,
	}
	if req.Strength > 0 {
		fields["strength"] = strconv.FormatFloat(req.Strength, 'f', -1, 64)
	}
	var result EmbedResult
	if err := c.postMultipart(ctx, "/api/embed", "image", req.Path, fields, &result); err != nil {
		return nil, err
	}
	if err := businessError(result.Success, result.ErrorCode, result.Message, result.QuotaDeducted); err != nil {
		return nil, err
	}
	return &result, nil
}

// EmbedVideo uploads a video (multipart field "video") for frame-level
// fingerprint embedding.
func (c *Client) EmbedVideo(ctx context.Context, path, author string) (*EmbedResult, error) {
	var result EmbedResult
	fields := map[string]string{"author_name": author}
	if err := c.postMultipart(ctx, "/api/embed/video", "video", path, fields, &result); err != nil {
		return nil, err
	}
	if err := businessError(result.Success, result.ErrorCode, result.Message, result.QuotaDeducted); err != nil {
		return nil, err
	}
	return &result, nil
}

// TextEmbedRequest describes a zero-width text watermark call.
type TextEmbedRequest struct {
	Text       string `json:"text"`
	AuthorName string `json:"author_name"`
}

// TextEmbedResult extends EmbedResult with the watermarked text.
type TextEmbedResult struct {
	EmbedResult
	WatermarkedText string `json:"watermarked_text,omitempty"`
}

// EmbedText embeds a zero-width watermark into text content.
func (c *Client) EmbedText(ctx context.Context, req TextEmbedRequest) (*TextEmbedResult, error) {
	var result TextEmbedResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/embed/text", req, &result); err != nil {
		return nil, err
	}
	if err := businessError(result.Success, result.ErrorCode, result.Message, result.QuotaDeducted); err != nil {
		return nil, err
	}
	return &result, nil
}

// Detect uploads an image (multipart field "image") and extracts any
// embedded fingerprint, matching it against the evidence store. Detection
// draws on its own quota; exhaustion arrives as HTTP 402.
func (c *Client) Detect(ctx context.Context, path string) (*DetectionResult, error) {
	var result DetectionResult
	if err := c.postMultipart(ctx, "/api/detect", "image", path, nil, &result); err != nil {
		return nil, err
	}
	return checkDetection(&result)
}

// DetectVideo uploads a video (multipart field "video") for frame-level
// fingerprint extraction.
func (c *Client) DetectVideo(ctx context.Context, path string) (*DetectionResult, error) {
	var result DetectionResult
	if err := c.postMultipart(ctx, "/api/detect/video", "video", path, nil, &result); err != nil {
		return nil, err
	}
	return checkDetection(&result)
}

// TextDetectRequest describes a zero-width text watermark detection call.
type TextDetectRequest struct {
	Text string `json:"text"`
}

// DetectText scans text content for a zero-width watermark.
func (c *Client) DetectText(ctx context.Context, req TextDetectRequest) (*DetectionResult, error) {
	var result DetectionResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/detect/text", req, &result); err != nil {
		return nil, err
	}
	return checkDetection(&result)
}

func checkDetection(res *DetectionResult) (*DetectionResult, error) {
	if !res.Success {
		return nil, &APIError{Kind: KindBusiness, Code: CodeDetectFailed, Message: res.Message}
	}
	return res, nil
}

// AnchorAsset records the asset's fingerprint on chain. The response may
// arrive before the anchor is finalized; callers confirm via Assets.
func (c *Client) AnchorAsset(ctx context.Context, assetID string) (*AnchorResult, error) {
	var result AnchorResult
	path := "/api/anchor/" + url.PathEscape(assetID)
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Assets fetches the authoritative asset list for the current user.
func (c *Client) Assets(ctx context.Context) ([]Asset, error) {
	var assets []Asset
	if err := c.doJSON(ctx, http.MethodGet, "/api/assets", nil, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// Me fetches the current user's profile (plan and quota state).
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.doJSON(ctx, http.MethodGet, "/api/users/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Stats fetches the dashboard counters.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.doJSON(ctx, http.MethodGet, "/api/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Login exchanges credentials for a bearer token and installs it on the
// client.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var result struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := c.do(req, &result); err != nil {
		return "", err
	}
	if result.AccessToken == "" {
		return "", &APIError{Kind: KindAuth, Message: "server returned empty token"}
	}
	c.token = result.AccessToken
	return result.AccessToken, nil
}

// postMultipart uploads filePath under the given multipart field name plus
// any extra form fields, decoding the 2xx body into result. The field name
// matters: the server validates it per endpoint ("image", "video") and
// rejects mismatches before the handler runs.
func (c *Client) postMultipart(ctx context.Context, path, fileField, filePath string, fields map[string]string, result any) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fileField, filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	for key, val := range fields {
		if val == "" {
			continue
		}
		if err := writer.WriteField(key, val); err != nil {
			return fmt.Errorf("write field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(req, result)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, result)
}

// do executes the request and normalizes the transport channel: any non-2xx
// status becomes an *APIError keyed by status class.
func (c *Client) do(req *http.Request, result any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Kind: KindTransport, Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindTransport, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Kind:       statusKind(resp.StatusCode),
			Message:    errorDetail(data, resp.Status),
			HTTPStatus: resp.StatusCode,
		}
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return &APIError{Kind: KindTransport, Message: fmt.Sprintf("unmarshal response: %v", err)}
		}
	}
	return nil
}

// businessError normalizes the body channel: success=false with a stable
// code becomes an *APIError of KindBusiness.
func businessError(success bool, code, message string, quotaDeducted *bool) error {
	if success {
		return nil
	}
	if code == "" {
		code = CodeEmbedFailed
	}
	return &APIError{
		Kind:          KindBusiness,
		Code:          code,
		Message:       message,
		QuotaDeducted: quotaDeducted,
	}
}

// errorDetail extracts FastAPI-style {"detail": "..."} messages.
func errorDetail(body []byte, fallback string) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	if len(body) > 0 && len(body) < 512 {
		return string(body)
	}
	return fallback
}
