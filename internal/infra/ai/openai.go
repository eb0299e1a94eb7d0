package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// OpenAIClient talks the OpenAI wire format (chat completions + images) and
// works against any OpenAI-compatible aggregator base URL.
type OpenAIClient struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func NewOpenAIText(apiKey, baseURL, model string, timeout time.Duration, log *zap.Logger) *OpenAIClient {
	return &OpenAIClient{
		APIKey:     apiKey,
		BaseURL:    normalizeBase(baseURL, "https://api.openai.com/v1"),
		Model:      model,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     log,
	}
}

func NewOpenAIImage(apiKey, baseURL, model string, timeout time.Duration, log *zap.Logger) *OpenAIClient {
	return NewOpenAIText(apiKey, baseURL, model, timeout, log)
}

func normalizeBase(base, fallback string) string {
	b := strings.TrimRight(strings.TrimSpace(base), "/")
	if b == "" {
		return fallback
	}
	if !strings.HasSuffix(b, "/v1") {
		b += "/v1"
	}
	return b
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *OpenAIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":       c.Model,
		"messages":    []chatMessage{{Role: "user", Content: prompt}},
		"temperature": 0.3,
	}

	var resp chatResponse
	if err := c.postJSON(ctx, c.BaseURL+"/chat/completions", body, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", &ProviderError{Provider: "openai", Message: resp.Error.Message}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) Caption(ctx context.Context, image RefImage, prompt string) (string, error) {
	dataURI := fmt.Sprintf("data:%s;base64,%s", image.MIME, base64.StdEncoding.EncodeToString(image.Data))
	content := []map[string]any{
		{"type": "text", "text": prompt},
		{"type": "image_url", "image_url": map[string]string{"url": dataURI}},
	}
	body := map[string]any{
		"model":    c.Model,
		"messages": []chatMessage{{Role: "user", Content: content}},
	}

	var resp chatResponse
	if err := c.postJSON(ctx, c.BaseURL+"/chat/completions", body, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", &ProviderError{Provider: "openai", Message: resp.Error.Message}
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// sizeFor maps aspect ratio + resolution onto the fixed sizes the images
// endpoint accepts. The OpenAI format tops out at 1K.
func sizeFor(aspectRatio string) string {
	switch aspectRatio {
	case "1:1":
		return "1024x1024"
	case "3:4", "2:3", "9:16":
		return "1024x1536"
	case "4:3", "3:2", "16:9":
		return "1536x1024"
	default:
		return "1024x1024"
	}
}

func (c *OpenAIClient) GenerateImage(ctx context.Context, req ImageRequest) (*GeneratedImage, error) {
	body := map[string]any{
		"model":  c.Model,
		"prompt": req.Prompt,
		"size":   sizeFor(req.AspectRatio),
		"n":      1,
	}
	// Reference images ride along as data URIs where the aggregator supports
	// the edits-style "image" field.
	if len(req.RefImages) > 0 {
		uris := make([]string, 0, len(req.RefImages))
		for _, ri := range req.RefImages {
			uris = append(uris, fmt.Sprintf("data:%s;base64,%s", ri.MIME, base64.StdEncoding.EncodeToString(ri.Data)))
		}
		body["image"] = uris
	}

	var resp imageResponse
	if err := c.postJSON(ctx, c.BaseURL+"/images/generations", body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, &ProviderError{Provider: "openai", Message: resp.Error.Message}
	}
	if len(resp.Data) == 0 {
		return nil, ErrEmptyResponse
	}

	if b64 := resp.Data[0].B64JSON; b64 != "" {
		raw, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("decode image payload: %w", err)
		}
		return &GeneratedImage{Data: raw, MIME: "image/png"}, nil
	}
	if u := resp.Data[0].URL; u != "" {
		return c.fetchImage(ctx, u)
	}
	return nil, ErrEmptyResponse
}

func (c *OpenAIClient) fetchImage(ctx context.Context, u string) (*GeneratedImage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch generated image: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: "openai", Status: res.StatusCode, Message: "image download failed"}
	}
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	mime := res.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/png"
	}
	return &GeneratedImage{Data: raw, MIME: mime}, nil
}

func (c *OpenAIClient) postJSON(ctx context.Context, endpoint string, body any, out any) error {
	b, err := sonic.Marshal(body)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if len(msg) > 500 {
			msg = msg[:500]
		}
		c.Logger.Sugar().Warnw("provider request failed",
			"endpoint", endpoint, "status", res.StatusCode)
		return &ProviderError{Provider: "openai", Status: res.StatusCode, Message: msg}
	}

	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
