package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/xobi-ai/xobi/internal/modules/model"
	"github.com/xobi-ai/xobi/internal/modules/service"
)

// MockSettingService is a mock implementation of SettingService
type MockSettingService struct {
	mock.Mock
}

func (m *MockSettingService) Get(ctx context.Context) (*model.Setting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Setting), args.Error(1)
}

func (m *MockSettingService) Update(ctx context.Context, in service.SettingUpdate) (*model.Setting, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Setting), args.Error(1)
}

func (m *MockSettingService) Reset(ctx context.Context) (*model.Setting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Setting), args.Error(1)
}

func setupSettingRouter(svc *MockSettingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewSettingHandler(svc)
	r.GET("/api/settings", h.GetSettings)
	r.PUT("/api/settings", h.UpdateSettings)
	r.POST("/api/settings/reset", h.ResetSettings)
	return r
}

func TestSettingHandler_GetSettings(t *testing.T) {
	svc := new(MockSettingService)
	svc.On("Get", mock.Anything).
		Return(&model.Setting{AIProviderFormat: "gemini", ImageResolution: "2K"}, nil)

	w := httptest.NewRecorder()
	setupSettingRouter(svc).ServeHTTP(w, httptest.NewRequest("GET", "/api/settings", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ai_provider_format":"gemini"`)
	svc.AssertExpectations(t)
}

func TestSettingHandler_UpdateSettings(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setup          func(svc *MockSettingService)
		expectedStatus int
	}{
		{
			name: "edit accepted",
			body: `{"ai_provider_format":"openai","api_key":"k"}`,
			setup: func(svc *MockSettingService) {
				svc.On("Update", mock.Anything, mock.MatchedBy(func(in service.SettingUpdate) bool {
					return in.AIProviderFormat != nil && *in.AIProviderFormat == "openai"
				})).Return(&model.Setting{AIProviderFormat: "openai"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "invalid resolution rejected",
			body: `{"image_resolution":"8K"}`,
			setup: func(svc *MockSettingService) {
				svc.On("Update", mock.Anything, mock.Anything).
					Return(nil, service.ErrValidation)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed body rejected",
			body:           `{"api_key":`,
			setup:          func(svc *MockSettingService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockSettingService)
			tt.setup(svc)

			req := httptest.NewRequest("PUT", "/api/settings", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			setupSettingRouter(svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestSettingHandler_ResetSettings(t *testing.T) {
	svc := new(MockSettingService)
	svc.On("Reset", mock.Anything).
		Return(&model.Setting{AIProviderFormat: "gemini"}, nil)

	w := httptest.NewRecorder()
	setupSettingRouter(svc).ServeHTTP(w, httptest.NewRequest("POST", "/api/settings/reset", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
