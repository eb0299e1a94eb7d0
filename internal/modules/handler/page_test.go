package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/xobi-ai/xobi/internal/modules/model"
	"github.com/xobi-ai/xobi/internal/modules/service"
)

// MockPageService is a mock implementation of PageService
type MockPageService struct {
	mock.Mock
}

func (m *MockPageService) Get(ctx context.Context, projectID, pageID uuid.UUID) (*model.Page, error) {
	args := m.Called(ctx, projectID, pageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page), args.Error(1)
}

func (m *MockPageService) Update(ctx context.Context, projectID, pageID uuid.UUID, in service.UpdatePageInput) (*model.Page, error) {
	args := m.Called(ctx, projectID, pageID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page), args.Error(1)
}

func (m *MockPageService) Insert(ctx context.Context, projectID uuid.UUID, in service.InsertPageInput) (*model.Page, error) {
	args := m.Called(ctx, projectID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page), args.Error(1)
}

func (m *MockPageService) Delete(ctx context.Context, projectID, pageID uuid.UUID) error {
	args := m.Called(ctx, projectID, pageID)
	return args.Error(0)
}

func (m *MockPageService) Reorder(ctx context.Context, projectID uuid.UUID, orderedIDs []uuid.UUID) ([]model.Page, error) {
	args := m.Called(ctx, projectID, orderedIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Page), args.Error(1)
}

func (m *MockPageService) SetCurrentVersion(ctx context.Context, projectID, pageID, versionID uuid.UUID) (*model.Page, error) {
	args := m.Called(ctx, projectID, pageID, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page), args.Error(1)
}

func setupPageRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestPageHandler_UpdatePage(t *testing.T) {
	projectID := uuid.New()
	pageID := uuid.New()
	path := "/api/projects/" + projectID.String() + "/pages/" + pageID.String()

	tests := []struct {
		name           string
		setup          func(svc *MockPageService)
		expectedStatus int
	}{
		{
			name: "edit accepted",
			setup: func(svc *MockPageService) {
				svc.On("Update", mock.Anything, projectID, pageID, mock.Anything).
					Return(&model.Page{ID: pageID, ProjectID: projectID}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "page busy",
			setup: func(svc *MockPageService) {
				svc.On("Update", mock.Anything, projectID, pageID, mock.Anything).
					Return(nil, service.ErrInvalidStatus)
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockPageService{}
			tt.setup(svc)
			h := NewPageHandler(svc, &MockGenerationService{})

			router := setupPageRouter()
			router.PUT("/api/projects/:project_id/pages/:page_id", h.UpdatePage)

			req := httptest.NewRequest("PUT", path, strings.NewReader(`{"part":"卖点"}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestPageHandler_GenerateDescriptions(t *testing.T) {
	projectID := uuid.New()

	t.Run("task accepted", func(t *testing.T) {
		gen := &MockGenerationService{}
		task := createTestTask(projectID, model.TaskTypeGenerateDescriptions)
		gen.On("GenerateDescriptions", mock.Anything, projectID).Return(task, nil)
		h := NewPageHandler(&MockPageService{}, gen)

		router := setupPageRouter()
		router.POST("/api/projects/:project_id/descriptions", h.GenerateDescriptions)

		req := httptest.NewRequest("POST", "/api/projects/"+projectID.String()+"/descriptions", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), task.ID.String())
		gen.AssertExpectations(t)
	})

	t.Run("no eligible pages", func(t *testing.T) {
		gen := &MockGenerationService{}
		gen.On("GenerateDescriptions", mock.Anything, projectID).
			Return(nil, service.ErrInvalidStatus)
		h := NewPageHandler(&MockPageService{}, gen)

		router := setupPageRouter()
		router.POST("/api/projects/:project_id/descriptions", h.GenerateDescriptions)

		req := httptest.NewRequest("POST", "/api/projects/"+projectID.String()+"/descriptions", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		gen.AssertExpectations(t)
	})
}

func TestPageHandler_GenerateImages(t *testing.T) {
	projectID := uuid.New()
	pageID := uuid.New()

	t.Run("page filter forwarded", func(t *testing.T) {
		gen := &MockGenerationService{}
		task := createTestTask(projectID, model.TaskTypeGenerateImages)
		gen.On("GenerateImages", mock.Anything, projectID, []uuid.UUID{pageID}).Return(task, nil)
		h := NewPageHandler(&MockPageService{}, gen)

		router := setupPageRouter()
		router.POST("/api/projects/:project_id/images", h.GenerateImages)

		body := `{"page_ids":["` + pageID.String() + `"]}`
		req := httptest.NewRequest("POST", "/api/projects/"+projectID.String()+"/images", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code)
		gen.AssertExpectations(t)
	})

	t.Run("empty body means all pages", func(t *testing.T) {
		gen := &MockGenerationService{}
		task := createTestTask(projectID, model.TaskTypeGenerateImages)
		gen.On("GenerateImages", mock.Anything, projectID, []uuid.UUID(nil)).Return(task, nil)
		h := NewPageHandler(&MockPageService{}, gen)

		router := setupPageRouter()
		router.POST("/api/projects/:project_id/images", h.GenerateImages)

		req := httptest.NewRequest("POST", "/api/projects/"+projectID.String()+"/images", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code)
		gen.AssertExpectations(t)
	})
}

func TestPageHandler_ReorderPages(t *testing.T) {
	projectID := uuid.New()
	first := uuid.New()
	second := uuid.New()

	t.Run("full permutation applied", func(t *testing.T) {
		svc := &MockPageService{}
		svc.On("Reorder", mock.Anything, projectID, []uuid.UUID{second, first}).
			Return([]model.Page{{ID: second}, {ID: first}}, nil)
		h := NewPageHandler(svc, &MockGenerationService{})

		router := setupPageRouter()
		router.PUT("/api/projects/:project_id/reorder", h.ReorderPages)

		body := `{"page_ids":["` + second.String() + `","` + first.String() + `"]}`
		req := httptest.NewRequest("PUT", "/api/projects/"+projectID.String()+"/reorder", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("missing page_ids rejected", func(t *testing.T) {
		h := NewPageHandler(&MockPageService{}, &MockGenerationService{})

		router := setupPageRouter()
		router.PUT("/api/projects/:project_id/reorder", h.ReorderPages)

		req := httptest.NewRequest("PUT", "/api/projects/"+projectID.String()+"/reorder", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
