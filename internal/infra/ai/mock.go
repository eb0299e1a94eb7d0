package ai

import (
	"context"
	"sync/atomic"
)

// MockText is a deterministic TextProvider for tests and offline runs.
type MockText struct {
	TextResponse    string
	CaptionResponse string
	Err             error
	Calls           atomic.Int64
}

func (m *MockText) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return "", m.Err
	}
	if m.TextResponse != "" {
		return m.TextResponse, nil
	}
	return `[{"title":"封面","points":["产品主图"]},{"title":"核心卖点","points":["卖点一","卖点二"]},{"title":"使用场景","points":["日常通勤"]}]`, nil
}

func (m *MockText) Caption(ctx context.Context, image RefImage, prompt string) (string, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return "", m.Err
	}
	if m.CaptionResponse != "" {
		return m.CaptionResponse, nil
	}
	return "红色运动鞋，网面材质，适合日常穿着", nil
}

// MockImage is a deterministic ImageProvider for tests.
type MockImage struct {
	Err   error
	Calls atomic.Int64
}

// tiny valid JPEG header, enough for byte-level assertions
var mockImageBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0xFF, 0xD9}

func (m *MockImage) GenerateImage(ctx context.Context, req ImageRequest) (*GeneratedImage, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	return &GeneratedImage{Data: mockImageBytes, MIME: "image/jpeg"}, nil
}
