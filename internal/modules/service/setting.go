package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/xobi-ai/xobi/internal/config"
	"github.com/xobi-ai/xobi/internal/modules/model"
	"github.com/xobi-ai/xobi/internal/modules/repo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SettingUpdate carries a partial settings edit. Nil fields are left
// untouched; empty strings clear an override so the value falls back to
// the environment.
type SettingUpdate struct {
	AIProviderFormat *string `json:"ai_provider_format"`
	APIBaseURL       *string `json:"api_base_url"`
	APIKey           *string `json:"api_key"`
	SeedreamAPIKey   *string `json:"seedream_api_key"`

	TextModel    *string `json:"text_model"`
	ImageModel   *string `json:"image_model"`
	CaptionModel *string `json:"image_caption_model"`

	OutputLanguage   *string `json:"output_language"`
	ImageResolution  *string `json:"image_resolution"`
	ImageAspectRatio *string `json:"image_aspect_ratio"`

	MaxDescriptionWorkers *int `json:"max_description_workers"`
	MaxImageWorkers       *int `json:"max_image_workers"`
}

type SettingService interface {
	Get(ctx context.Context) (*model.Setting, error)
	Update(ctx context.Context, in SettingUpdate) (*model.Setting, error)
	Reset(ctx context.Context) (*model.Setting, error)
}

type settingService struct {
	cfg  *config.Config
	log  *zap.Logger
	repo repo.SettingRepo

	// Environment values captured at boot, before any stored override is
	// applied. Reset and cleared overrides fall back to these.
	envAI  config.AICfg
	envGen config.GenCfg

	mu sync.Mutex
}

func NewSettingService(cfg *config.Config, log *zap.Logger, r repo.SettingRepo) SettingService {
	return &settingService{cfg: cfg, log: log, repo: r, envAI: cfg.AI, envGen: cfg.Gen}
}

// Get returns the stored settings, seeding the row from the environment on
// first use. Loaded overrides are pushed into the runtime config so they
// survive restarts.
func (s *settingService) Get(ctx context.Context) (*model.Setting, error) {
	set, err := s.repo.Get(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		set = s.defaultRow()
		if err := s.repo.Save(ctx, set); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	s.apply(set)
	return set, nil
}

func (s *settingService) Update(ctx context.Context, in SettingUpdate) (*model.Setting, error) {
	set, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if in.AIProviderFormat != nil {
		format := strings.ToLower(strings.TrimSpace(*in.AIProviderFormat))
		if format != "openai" && format != "gemini" {
			return nil, validationf("ai_provider_format must be %q or %q", "openai", "gemini")
		}
		set.AIProviderFormat = format
	}
	if in.APIBaseURL != nil {
		set.APIBaseURL = optStr(*in.APIBaseURL)
	}
	if in.APIKey != nil {
		set.APIKey = optStr(*in.APIKey)
	}
	if in.SeedreamAPIKey != nil {
		set.SeedreamAPIKey = optStr(*in.SeedreamAPIKey)
	}
	if in.TextModel != nil {
		set.TextModel = optStr(*in.TextModel)
	}
	if in.ImageModel != nil {
		set.ImageModel = optStr(*in.ImageModel)
	}
	if in.CaptionModel != nil {
		set.CaptionModel = optStr(*in.CaptionModel)
	}
	if in.OutputLanguage != nil {
		switch *in.OutputLanguage {
		case "zh", "en", "ja", "auto":
			set.OutputLanguage = *in.OutputLanguage
		default:
			return nil, validationf("output_language must be zh, en, ja or auto")
		}
	}
	if in.ImageResolution != nil {
		switch *in.ImageResolution {
		case "1K", "2K", "4K":
			set.ImageResolution = *in.ImageResolution
		default:
			return nil, validationf("image_resolution must be 1K, 2K or 4K")
		}
	}
	if in.ImageAspectRatio != nil {
		set.ImageAspectRatio = strings.TrimSpace(*in.ImageAspectRatio)
	}
	if in.MaxDescriptionWorkers != nil {
		if *in.MaxDescriptionWorkers < 1 || *in.MaxDescriptionWorkers > 20 {
			return nil, validationf("max_description_workers must be between 1 and 20")
		}
		set.MaxDescriptionWorkers = *in.MaxDescriptionWorkers
	}
	if in.MaxImageWorkers != nil {
		if *in.MaxImageWorkers < 1 || *in.MaxImageWorkers > 20 {
			return nil, validationf("max_image_workers must be between 1 and 20")
		}
		set.MaxImageWorkers = *in.MaxImageWorkers
	}

	// OpenAI-compatible proxies usually expose the JSON API under /v1; a
	// bare domain would serve HTML instead.
	if set.AIProviderFormat == "openai" && set.APIBaseURL != nil {
		if normalized := normalizeOpenAIBase(*set.APIBaseURL); normalized != *set.APIBaseURL {
			s.log.Info("normalized openai api base",
				zap.String("from", *set.APIBaseURL), zap.String("to", normalized))
			set.APIBaseURL = &normalized
		}
	}

	if err := s.repo.Save(ctx, set); err != nil {
		return nil, err
	}
	s.apply(set)
	s.log.Info("settings updated", zap.String("provider", set.AIProviderFormat))
	return set, nil
}

// Reset discards every stored override and returns to the environment
// values.
func (s *settingService) Reset(ctx context.Context) (*model.Setting, error) {
	set := s.defaultRow()
	if err := s.repo.Save(ctx, set); err != nil {
		return nil, err
	}
	s.apply(set)
	s.log.Info("settings reset to defaults")
	return set, nil
}

// defaultRow builds a settings row from the environment snapshot.
func (s *settingService) defaultRow() *model.Setting {
	format := strings.ToLower(s.envAI.Format)
	if format == "" {
		format = "gemini"
	}
	language := s.envAI.OutputLanguage
	if language == "" {
		language = "zh"
	}
	return &model.Setting{
		AIProviderFormat:      format,
		APIBaseURL:            optStr(s.envAI.APIBase),
		APIKey:                optStr(s.envAI.APIKey),
		SeedreamAPIKey:        optStr(s.envAI.SeedreamAPIKey),
		TextModel:             optStr(s.envAI.TextModel),
		ImageModel:            optStr(s.envAI.ImageModel),
		CaptionModel:          optStr(s.envAI.CaptionModel),
		OutputLanguage:        language,
		ImageResolution:       s.envGen.DefaultResolution,
		ImageAspectRatio:      s.envGen.DefaultPageAspectRatio,
		MaxDescriptionWorkers: s.envGen.DescriptionWorkers,
		MaxImageWorkers:       s.envGen.ImageWorkers,
	}
}

// apply pushes the row into the runtime config. Provider factories read the
// config on each call, so saved values take effect on the next generation
// request. Worker counts only size the pools at boot.
func (s *settingService) apply(set *model.Setting) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ai := s.envAI
	if set.AIProviderFormat != "" {
		ai.Format = set.AIProviderFormat
	}
	if set.APIBaseURL != nil {
		ai.APIBase = *set.APIBaseURL
	}
	if set.APIKey != nil {
		ai.APIKey = *set.APIKey
	}
	if set.SeedreamAPIKey != nil {
		ai.SeedreamAPIKey = *set.SeedreamAPIKey
	}
	if set.TextModel != nil {
		ai.TextModel = *set.TextModel
	}
	if set.ImageModel != nil {
		ai.ImageModel = *set.ImageModel
	}
	if set.CaptionModel != nil {
		ai.CaptionModel = *set.CaptionModel
	}
	if set.OutputLanguage != "" {
		ai.OutputLanguage = set.OutputLanguage
	}
	s.cfg.AI = ai

	if set.ImageResolution != "" {
		s.cfg.Gen.DefaultResolution = set.ImageResolution
	}
	if set.ImageAspectRatio != "" {
		s.cfg.Gen.DefaultPageAspectRatio = set.ImageAspectRatio
	}
}

// optStr returns nil for empty or whitespace-only values.
func optStr(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// normalizeOpenAIBase appends /v1 to an absolute base URL when missing.
// Values that do not parse as absolute URLs pass through unchanged.
func normalizeOpenAIBase(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}
	path := strings.TrimRight(u.Path, "/")
	if !strings.HasSuffix(path, "/v1") {
		path += "/v1"
	}
	u.Path = path
	return u.String()
}
