package ai

import (
	"strings"
	"time"

	"github.com/xobi-ai/xobi/internal/config"
	"go.uber.org/zap"
)

// Factory builds providers from config. The image provider is selected per
// call because projects may pin their own image model.
type Factory struct {
	cfg *config.Config
	log *zap.Logger
}

func NewFactory(cfg *config.Config, log *zap.Logger) *Factory {
	return &Factory{cfg: cfg, log: log}
}

func (f *Factory) timeout() time.Duration {
	sec := f.cfg.AI.TimeoutSec
	if sec <= 0 {
		sec = 180
	}
	return time.Duration(sec) * time.Second
}

// Text returns the configured text provider.
func (f *Factory) Text() TextProvider {
	if strings.EqualFold(f.cfg.AI.Format, "openai") {
		return NewOpenAIText(f.cfg.AI.APIKey, f.cfg.AI.APIBase, f.cfg.AI.TextModel, f.timeout(), f.log)
	}
	return NewGemini(f.cfg.AI.APIKey, f.cfg.AI.APIBase, f.cfg.AI.TextModel, f.timeout(), f.log)
}

// Captioner returns the provider used for image captioning.
func (f *Factory) Captioner() TextProvider {
	if strings.EqualFold(f.cfg.AI.Format, "openai") {
		return NewOpenAIText(f.cfg.AI.APIKey, f.cfg.AI.APIBase, f.cfg.AI.CaptionModel, f.timeout(), f.log)
	}
	return NewGemini(f.cfg.AI.APIKey, f.cfg.AI.APIBase, f.cfg.AI.CaptionModel, f.timeout(), f.log)
}

// Image returns an image provider for the given model; an empty model falls
// back to the configured default. Seedream models carry their own key when
// one is configured.
func (f *Factory) Image(model string) ImageProvider {
	if model == "" {
		model = f.cfg.AI.ImageModel
	}

	apiKey := f.cfg.AI.APIKey
	if strings.Contains(strings.ToLower(model), "seedream") && f.cfg.AI.SeedreamAPIKey != "" {
		apiKey = f.cfg.AI.SeedreamAPIKey
	}

	if strings.EqualFold(f.cfg.AI.Format, "openai") {
		return NewOpenAIImage(apiKey, f.cfg.AI.APIBase, model, f.timeout(), f.log)
	}
	return NewGemini(apiKey, f.cfg.AI.APIBase, model, f.timeout(), f.log)
}
