package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/xobi-ai/xobi/internal/modules/model"
)

// MockTaskService is a mock implementation of TaskService
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) Create(ctx context.Context, projectID uuid.UUID, taskType string, total int) (*model.Task, error) {
	args := m.Called(ctx, projectID, taskType, total)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskService) Get(ctx context.Context, taskID uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Task, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskService) Start(ctx context.Context, taskID uuid.UUID) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}

func (m *MockTaskService) UpdateProgress(ctx context.Context, taskID uuid.UUID, mutate func(p *model.Progress)) error {
	args := m.Called(ctx, taskID, mutate)
	return args.Error(0)
}

func (m *MockTaskService) Complete(ctx context.Context, taskID uuid.UUID, result map[string]any) error {
	args := m.Called(ctx, taskID, result)
	return args.Error(0)
}

func (m *MockTaskService) Fail(ctx context.Context, taskID uuid.UUID, errMsg string) error {
	args := m.Called(ctx, taskID, errMsg)
	return args.Error(0)
}

func setupTaskRouter(h *TaskHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/tasks/:project_id/:task_id", h.GetTask)
	return r
}

func TestTaskHandler_GetTask(t *testing.T) {
	projectID := uuid.New()
	taskID := uuid.New()

	tests := []struct {
		name           string
		path           string
		setup          func(svc *MockTaskService)
		expectedStatus int
	}{
		{
			name: "project scoped task",
			path: "/api/tasks/" + projectID.String() + "/" + taskID.String(),
			setup: func(svc *MockTaskService) {
				svc.On("Get", mock.Anything, taskID).
					Return(&model.Task{ID: taskID, ProjectID: projectID, Status: model.TaskStatusProcessing}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "global task",
			path: "/api/tasks/global/" + taskID.String(),
			setup: func(svc *MockTaskService) {
				svc.On("Get", mock.Anything, taskID).
					Return(&model.Task{ID: taskID, ProjectID: uuid.Nil, Status: model.TaskStatusCompleted}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "scope mismatch is hidden",
			path: "/api/tasks/" + uuid.New().String() + "/" + taskID.String(),
			setup: func(svc *MockTaskService) {
				svc.On("Get", mock.Anything, taskID).
					Return(&model.Task{ID: taskID, ProjectID: projectID}, nil)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "unknown task",
			path: "/api/tasks/global/" + taskID.String(),
			setup: func(svc *MockTaskService) {
				svc.On("Get", mock.Anything, taskID).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "bad project scope",
			path:           "/api/tasks/not-a-scope/" + taskID.String(),
			setup:          func(svc *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockTaskService{}
			tt.setup(svc)
			router := setupTaskRouter(NewTaskHandler(svc))

			req := httptest.NewRequest("GET", tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}
