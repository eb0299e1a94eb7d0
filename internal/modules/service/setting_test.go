package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xobi-ai/xobi/internal/config"
	"github.com/xobi-ai/xobi/internal/modules/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// memSettingRepo keeps the singleton row in memory and starts empty, like a
// fresh database.
type memSettingRepo struct {
	mu  sync.Mutex
	row *model.Setting
}

func (r *memSettingRepo) Get(context.Context) (*model.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.row == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r.row
	return &cp, nil
}

func (r *memSettingRepo) Save(_ context.Context, s *model.Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.row = &cp
	return nil
}

func settingFixture() (SettingService, *memSettingRepo, *config.Config) {
	cfg := &config.Config{
		AI: config.AICfg{
			Format:         "gemini",
			APIKey:         "env-key",
			APIBase:        "https://env.example.com",
			OutputLanguage: "zh",
		},
		Gen: config.GenCfg{
			DescriptionWorkers:     3,
			ImageWorkers:           3,
			DefaultPageAspectRatio: "3:4",
			DefaultResolution:      "2K",
		},
	}
	r := &memSettingRepo{}
	return NewSettingService(cfg, zap.NewNop(), r), r, cfg
}

func TestSettingGet_SeedsFromEnvironment(t *testing.T) {
	svc, r, _ := settingFixture()

	set, err := svc.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "gemini", set.AIProviderFormat)
	require.NotNil(t, set.APIKey)
	assert.Equal(t, "env-key", *set.APIKey)
	assert.Equal(t, "2K", set.ImageResolution)
	assert.Equal(t, "3:4", set.ImageAspectRatio)
	assert.Equal(t, 3, set.MaxDescriptionWorkers)

	// The seed row is persisted so later edits start from it.
	assert.NotNil(t, r.row)
}

func TestSettingUpdate_SwitchesProviderAtRuntime(t *testing.T) {
	svc, _, cfg := settingFixture()

	set, err := svc.Update(context.Background(), SettingUpdate{
		AIProviderFormat: strptr("openai"),
		APIKey:           strptr("new-key"),
		TextModel:        strptr("gpt-4o-mini"),
	})
	require.NoError(t, err)

	assert.Equal(t, "openai", set.AIProviderFormat)

	// The factory reads the config per call, so the next generation uses
	// the new provider settings.
	assert.Equal(t, "openai", cfg.AI.Format)
	assert.Equal(t, "new-key", cfg.AI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.TextModel)
}

func TestSettingUpdate_NormalizesOpenAIBase(t *testing.T) {
	svc, _, cfg := settingFixture()

	set, err := svc.Update(context.Background(), SettingUpdate{
		AIProviderFormat: strptr("openai"),
		APIBaseURL:       strptr("https://yunwu.ai"),
	})
	require.NoError(t, err)
	require.NotNil(t, set.APIBaseURL)
	assert.Equal(t, "https://yunwu.ai/v1", *set.APIBaseURL)
	assert.Equal(t, "https://yunwu.ai/v1", cfg.AI.APIBase)

	// Already-suffixed URLs are left alone.
	set, err = svc.Update(context.Background(), SettingUpdate{
		APIBaseURL: strptr("https://proxy.example.com/v1/"),
	})
	require.NoError(t, err)
	require.NotNil(t, set.APIBaseURL)
	assert.Equal(t, "https://proxy.example.com/v1", *set.APIBaseURL)
}

func TestSettingUpdate_EmptyStringClearsOverride(t *testing.T) {
	svc, _, cfg := settingFixture()

	_, err := svc.Update(context.Background(), SettingUpdate{
		APIBaseURL: strptr("https://other.example.com"),
	})
	require.NoError(t, err)

	set, err := svc.Update(context.Background(), SettingUpdate{
		APIBaseURL: strptr(""),
	})
	require.NoError(t, err)
	assert.Nil(t, set.APIBaseURL)
	assert.Equal(t, "https://env.example.com", cfg.AI.APIBase)
}

func TestSettingUpdate_RejectsBadValues(t *testing.T) {
	svc, _, _ := settingFixture()

	bad := []SettingUpdate{
		{AIProviderFormat: strptr("anthropic")},
		{ImageResolution: strptr("8K")},
		{OutputLanguage: strptr("fr")},
		{MaxDescriptionWorkers: intptr(0)},
		{MaxImageWorkers: intptr(21)},
	}
	for _, in := range bad {
		_, err := svc.Update(context.Background(), in)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestSettingReset_RestoresEnvironment(t *testing.T) {
	svc, _, cfg := settingFixture()

	_, err := svc.Update(context.Background(), SettingUpdate{
		AIProviderFormat: strptr("openai"),
		APIKey:           strptr("edited-key"),
		ImageResolution:  strptr("4K"),
	})
	require.NoError(t, err)

	set, err := svc.Reset(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "gemini", set.AIProviderFormat)
	require.NotNil(t, set.APIKey)
	assert.Equal(t, "env-key", *set.APIKey)
	assert.Equal(t, "2K", set.ImageResolution)

	assert.Equal(t, "gemini", cfg.AI.Format)
	assert.Equal(t, "env-key", cfg.AI.APIKey)
	assert.Equal(t, "2K", cfg.Gen.DefaultResolution)
}

func intptr(v int) *int { return &v }
