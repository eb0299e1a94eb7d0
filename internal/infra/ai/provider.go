// Package ai wraps the third-party generative services behind small
// interfaces so the generation services can be exercised against mocks.
package ai

import (
	"context"
	"errors"
	"fmt"
)

// RefImage is an input image passed to a provider call.
type RefImage struct {
	MIME string
	Data []byte
}

// ImageRequest describes one image generation call.
type ImageRequest struct {
	Prompt      string
	AspectRatio string // canonical "W:H"
	Resolution  string // "1K", "2K", "4K"
	RefImages   []RefImage
}

// GeneratedImage is the provider output.
type GeneratedImage struct {
	Data []byte
	MIME string
}

// TextProvider performs one text-model call per invocation.
type TextProvider interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	Caption(ctx context.Context, image RefImage, prompt string) (string, error)
}

// ImageProvider performs one image-model call per invocation.
type ImageProvider interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*GeneratedImage, error)
}

// ErrEmptyResponse is returned when a provider answers without content.
var ErrEmptyResponse = errors.New("provider returned empty response")

// ProviderError wraps an upstream failure with enough context for the task
// error message shown to users.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (http %d)", e.Provider, e.Message, e.Status)
	}
	return e.Provider + ": " + e.Message
}
