package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/xobi-ai/xobi/internal/infra/ai"
	"github.com/xobi-ai/xobi/internal/modules/model"
	"gorm.io/datatypes"
)

type mockProjectRepo struct{ mock.Mock }

func (m *mockProjectRepo) Create(ctx context.Context, p *model.Project) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProjectRepo) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*model.Project); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProjectRepo) GetWithPages(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*model.Project); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProjectRepo) List(ctx context.Context) ([]model.Project, error) {
	args := m.Called(ctx)
	if items, ok := args.Get(0).([]model.Project); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProjectRepo) Update(ctx context.Context, p *model.Project) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProjectRepo) UpdateColumns(ctx context.Context, id uuid.UUID, cols map[string]any) error {
	return m.Called(ctx, id, cols).Error(0)
}

func (m *mockProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockPageRepo struct{ mock.Mock }

func (m *mockPageRepo) CreateBatch(ctx context.Context, pages []model.Page) error {
	return m.Called(ctx, pages).Error(0)
}

func (m *mockPageRepo) ReplaceAll(ctx context.Context, projectID uuid.UUID, pages []model.Page) error {
	return m.Called(ctx, projectID, pages).Error(0)
}

func (m *mockPageRepo) Get(ctx context.Context, projectID, pageID uuid.UUID) (*model.Page, error) {
	args := m.Called(ctx, projectID, pageID)
	if p, ok := args.Get(0).(*model.Page); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPageRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Page, error) {
	args := m.Called(ctx, projectID)
	if items, ok := args.Get(0).([]model.Page); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPageRepo) Update(ctx context.Context, p *model.Page) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPageRepo) UpdateColumns(ctx context.Context, pageID uuid.UUID, cols map[string]any) error {
	return m.Called(ctx, pageID, cols).Error(0)
}

func (m *mockPageRepo) InsertAt(ctx context.Context, p *model.Page) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPageRepo) Delete(ctx context.Context, projectID, pageID uuid.UUID) error {
	return m.Called(ctx, projectID, pageID).Error(0)
}

func (m *mockPageRepo) Reorder(ctx context.Context, projectID uuid.UUID, orderedIDs []uuid.UUID) error {
	return m.Called(ctx, projectID, orderedIDs).Error(0)
}

func (m *mockPageRepo) SetCurrentImage(ctx context.Context, pageID uuid.UUID, imageKey string) (*model.PageImageVersion, error) {
	args := m.Called(ctx, pageID, imageKey)
	if v, ok := args.Get(0).(*model.PageImageVersion); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPageRepo) MarkCurrentVersion(ctx context.Context, pageID, versionID uuid.UUID) error {
	return m.Called(ctx, pageID, versionID).Error(0)
}

type mockTaskRepo struct{ mock.Mock }

func (m *mockTaskRepo) Create(ctx context.Context, t *model.Task) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTaskRepo) Get(ctx context.Context, taskID uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, taskID)
	if t, ok := args.Get(0).(*model.Task); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTaskRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Task, error) {
	args := m.Called(ctx, projectID)
	if items, ok := args.Get(0).([]model.Task); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTaskRepo) Start(ctx context.Context, taskID uuid.UUID) error {
	return m.Called(ctx, taskID).Error(0)
}

func (m *mockTaskRepo) SaveProgress(ctx context.Context, taskID uuid.UUID, p model.Progress) error {
	return m.Called(ctx, taskID, p).Error(0)
}

func (m *mockTaskRepo) Complete(ctx context.Context, taskID uuid.UUID, result map[string]any) error {
	return m.Called(ctx, taskID, result).Error(0)
}

func (m *mockTaskRepo) Fail(ctx context.Context, taskID uuid.UUID, errMsg string) error {
	return m.Called(ctx, taskID, errMsg).Error(0)
}

type mockMaterialRepo struct{ mock.Mock }

func (m *mockMaterialRepo) Create(ctx context.Context, mat *model.Material, projectID *uuid.UUID) error {
	return m.Called(ctx, mat, projectID).Error(0)
}

func (m *mockMaterialRepo) Get(ctx context.Context, id uuid.UUID) (*model.Material, error) {
	args := m.Called(ctx, id)
	if mat, ok := args.Get(0).(*model.Material); ok {
		return mat, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMaterialRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Material, error) {
	args := m.Called(ctx, projectID)
	if items, ok := args.Get(0).([]model.Material); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMaterialRepo) ListUnassociated(ctx context.Context) ([]model.Material, error) {
	args := m.Called(ctx)
	if items, ok := args.Get(0).([]model.Material); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMaterialRepo) ListAll(ctx context.Context) ([]model.Material, error) {
	args := m.Called(ctx)
	if items, ok := args.Get(0).([]model.Material); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMaterialRepo) Associate(ctx context.Context, projectID, materialID uuid.UUID) error {
	return m.Called(ctx, projectID, materialID).Error(0)
}

func (m *mockMaterialRepo) Dissociate(ctx context.Context, projectID, materialID uuid.UUID) error {
	return m.Called(ctx, projectID, materialID).Error(0)
}

func (m *mockMaterialRepo) UpdateCaption(ctx context.Context, id uuid.UUID, caption, status string) error {
	return m.Called(ctx, id, caption, status).Error(0)
}

func (m *mockMaterialRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockReferenceFileRepo struct{ mock.Mock }

func (m *mockReferenceFileRepo) Create(ctx context.Context, f *model.ReferenceFile) error {
	return m.Called(ctx, f).Error(0)
}

func (m *mockReferenceFileRepo) Get(ctx context.Context, id uuid.UUID) (*model.ReferenceFile, error) {
	args := m.Called(ctx, id)
	if f, ok := args.Get(0).(*model.ReferenceFile); ok {
		return f, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReferenceFileRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.ReferenceFile, error) {
	args := m.Called(ctx, projectID)
	if items, ok := args.Get(0).([]model.ReferenceFile); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReferenceFileRepo) UpdateParse(ctx context.Context, id uuid.UUID, status, markdown, errMsg string) error {
	return m.Called(ctx, id, status, markdown, errMsg).Error(0)
}

func (m *mockReferenceFileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// memTasks is an in-memory TaskService double so generation tests can follow
// task state without Postgres or Redis.
type memTasks struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*model.Task
}

func newMemTasks() *memTasks {
	return &memTasks{tasks: map[uuid.UUID]*model.Task{}}
}

func (m *memTasks) Create(ctx context.Context, projectID uuid.UUID, taskType string, total int) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &model.Task{
		ID:        uuid.New(),
		ProjectID: projectID,
		TaskType:  taskType,
		Status:    model.TaskStatusPending,
		Progress:  datatypes.NewJSONType(model.Progress{Total: total}),
	}
	m.tasks[t.ID] = t
	cp := *t
	return &cp, nil
}

func (m *memTasks) Get(ctx context.Context, taskID uuid.UUID) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return nil, context.Canceled
	}
	cp := *t
	return &cp, nil
}

func (m *memTasks) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Task
	for _, t := range m.tasks {
		if t.ProjectID == projectID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTasks) Start(ctx context.Context, taskID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[taskID]; ok && t.Status == model.TaskStatusPending {
		t.Status = model.TaskStatusProcessing
	}
	return nil
}

func (m *memTasks) UpdateProgress(ctx context.Context, taskID uuid.UUID, mutate func(p *model.Progress)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok || t.IsTerminal() {
		return nil
	}
	p := t.Progress.Data()
	mutate(&p)
	t.Progress = datatypes.NewJSONType(p)
	return nil
}

func (m *memTasks) Complete(ctx context.Context, taskID uuid.UUID, result map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok || t.IsTerminal() {
		return nil
	}
	t.Status = model.TaskStatusCompleted
	t.Result = result
	now := time.Now()
	t.CompletedAt = &now
	return nil
}

func (m *memTasks) Fail(ctx context.Context, taskID uuid.UUID, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok || t.IsTerminal() {
		return nil
	}
	t.Status = model.TaskStatusFailed
	t.ErrorMessage = errMsg
	now := time.Now()
	t.CompletedAt = &now
	return nil
}

type stubFactory struct {
	text    ai.TextProvider
	caption ai.TextProvider
	image   ai.ImageProvider
}

func (f stubFactory) Text() ai.TextProvider               { return f.text }
func (f stubFactory) Captioner() ai.TextProvider          { return f.caption }
func (f stubFactory) Image(model string) ai.ImageProvider { return f.image }

// flakyText fails only for prompts containing failSubstr, for mixed-outcome
// batch tests.
type flakyText struct {
	failSubstr string
}

func (f *flakyText) GenerateText(ctx context.Context, prompt string) (string, error) {
	if f.failSubstr != "" && strings.Contains(prompt, f.failSubstr) {
		return "", ai.ErrEmptyResponse
	}
	return "主文案：轻若无物，稳如磐石。画面为产品居中特写。", nil
}

func (f *flakyText) Caption(ctx context.Context, image ai.RefImage, prompt string) (string, error) {
	return "测试描述", nil
}

// panickyText panics for prompts containing panicSubstr, for batch
// accounting tests around the pool's panic recovery.
type panickyText struct {
	panicSubstr string
}

func (f *panickyText) GenerateText(ctx context.Context, prompt string) (string, error) {
	if f.panicSubstr != "" && strings.Contains(prompt, f.panicSubstr) {
		panic("provider client bug")
	}
	return "主文案：轻若无物，稳如磐石。画面为产品居中特写。", nil
}

func (f *panickyText) Caption(ctx context.Context, image ai.RefImage, prompt string) (string, error) {
	return "测试描述", nil
}
