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

// GeminiClient talks the generativelanguage REST format. Text and image
// models both answer through generateContent; image models return the bytes
// as inlineData parts.
type GeminiClient struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func NewGemini(apiKey, baseURL, model string, timeout time.Duration, log *zap.Logger) *GeminiClient {
	b := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if b == "" {
		b = "https://generativelanguage.googleapis.com"
	}
	return &GeminiClient{
		APIKey:     apiKey,
		BaseURL:    b,
		Model:      model,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     log,
	}
}

type geminiPart struct {
	Text       string `json:"text,omitempty"`
	InlineData *struct {
		MIMEType string `json:"mimeType"`
		Data     string `json:"data"`
	} `json:"inlineData,omitempty"`
}

type geminiRequest struct {
	Contents []struct {
		Parts []geminiPart `json:"parts"`
	} `json:"contents"`
	GenerationConfig map[string]any `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func inlinePart(image RefImage) geminiPart {
	p := geminiPart{}
	p.InlineData = &struct {
		MIMEType string `json:"mimeType"`
		Data     string `json:"data"`
	}{MIMEType: image.MIME, Data: base64.StdEncoding.EncodeToString(image.Data)}
	return p
}

func (c *GeminiClient) generate(ctx context.Context, parts []geminiPart, genCfg map[string]any) (*geminiResponse, error) {
	req := geminiRequest{}
	req.Contents = append(req.Contents, struct {
		Parts []geminiPart `json:"parts"`
	}{Parts: parts})
	req.GenerationConfig = genCfg

	b, err := sonic.Marshal(req)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.BaseURL, c.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.APIKey)

	res, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if len(msg) > 500 {
			msg = msg[:500]
		}
		c.Logger.Sugar().Warnw("provider request failed",
			"model", c.Model, "status", res.StatusCode)
		return nil, &ProviderError{Provider: "gemini", Status: res.StatusCode, Message: msg}
	}

	var resp geminiResponse
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != nil {
		return nil, &ProviderError{Provider: "gemini", Status: resp.Error.Code, Message: resp.Error.Message}
	}
	return &resp, nil
}

func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.generate(ctx, []geminiPart{{Text: prompt}}, nil)
	if err != nil {
		return "", err
	}
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.Text != "" {
				return p.Text, nil
			}
		}
	}
	return "", ErrEmptyResponse
}

func (c *GeminiClient) Caption(ctx context.Context, image RefImage, prompt string) (string, error) {
	resp, err := c.generate(ctx, []geminiPart{{Text: prompt}, inlinePart(image)}, nil)
	if err != nil {
		return "", err
	}
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.Text != "" {
				return strings.TrimSpace(p.Text), nil
			}
		}
	}
	return "", ErrEmptyResponse
}

func (c *GeminiClient) GenerateImage(ctx context.Context, req ImageRequest) (*GeneratedImage, error) {
	parts := []geminiPart{{Text: req.Prompt}}
	for _, ri := range req.RefImages {
		parts = append(parts, inlinePart(ri))
	}

	genCfg := map[string]any{
		"responseModalities": []string{"IMAGE"},
	}
	if req.AspectRatio != "" {
		genCfg["imageConfig"] = map[string]any{
			"aspectRatio":     req.AspectRatio,
			"imageResolution": req.Resolution,
		}
	}

	resp, err := c.generate(ctx, parts, genCfg)
	if err != nil {
		return nil, err
	}
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				raw, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("decode image payload: %w", err)
				}
				mime := p.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return &GeneratedImage{Data: raw, MIME: mime}, nil
			}
		}
	}
	return nil, ErrEmptyResponse
}
