package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xobi-ai/xobi/internal/modules/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// deadRedis returns a client with nothing listening, exercising the
// cache-miss fallback paths.
func deadRedis() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
}

func TestTaskUpdateProgress_TerminalTaskIsNoop(t *testing.T) {
	r := new(mockTaskRepo)
	svc := NewTaskService(r, deadRedis(), zap.NewNop())
	taskID := uuid.New()

	r.On("Get", mock.Anything, taskID).Return(&model.Task{
		ID:       taskID,
		Status:   model.TaskStatusCompleted,
		Progress: datatypes.NewJSONType(model.Progress{Total: 3, Completed: 3}),
	}, nil)

	err := svc.UpdateProgress(context.Background(), taskID, func(p *model.Progress) {
		p.Failed++
	})
	require.NoError(t, err)
	r.AssertNotCalled(t, "SaveProgress", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskUpdateProgress_ClampsOvercount(t *testing.T) {
	r := new(mockTaskRepo)
	svc := NewTaskService(r, deadRedis(), zap.NewNop())
	taskID := uuid.New()

	r.On("Get", mock.Anything, taskID).Return(&model.Task{
		ID:       taskID,
		Status:   model.TaskStatusProcessing,
		Progress: datatypes.NewJSONType(model.Progress{Total: 2, Completed: 1, Failed: 1}),
	}, nil)
	r.On("SaveProgress", mock.Anything, taskID, mock.MatchedBy(func(p model.Progress) bool {
		return p.Completed+p.Failed <= p.Total
	})).Return(nil)

	err := svc.UpdateProgress(context.Background(), taskID, func(p *model.Progress) {
		p.Completed++ // would overshoot total
	})
	require.NoError(t, err)
	r.AssertExpectations(t)
}

func TestTaskGet_FallsBackToRepoOnCacheMiss(t *testing.T) {
	r := new(mockTaskRepo)
	svc := NewTaskService(r, deadRedis(), zap.NewNop())
	taskID := uuid.New()

	r.On("Get", mock.Anything, taskID).Return(&model.Task{
		ID:     taskID,
		Status: model.TaskStatusProcessing,
	}, nil)

	got, err := svc.Get(context.Background(), taskID)
	require.NoError(t, err)
	assert.Equal(t, taskID, got.ID)
	assert.Equal(t, model.TaskStatusProcessing, got.Status)
}

func TestTaskCreate_StartsPendingWithTotal(t *testing.T) {
	r := new(mockTaskRepo)
	svc := NewTaskService(r, deadRedis(), zap.NewNop())
	projectID := uuid.New()

	r.On("Create", mock.Anything, mock.MatchedBy(func(tk *model.Task) bool {
		return tk.Status == model.TaskStatusPending &&
			tk.TaskType == model.TaskTypeGenerateImages &&
			tk.Progress.Data().Total == 5
	})).Return(nil)

	tk, err := svc.Create(context.Background(), projectID, model.TaskTypeGenerateImages, 5)
	require.NoError(t, err)
	assert.Equal(t, projectID, tk.ProjectID)
	r.AssertExpectations(t)
}

// memTaskRepo is a goroutine-safe single-task repo. SaveProgress sleeps
// briefly so an unserialized read-modify-write would lose increments.
type memTaskRepo struct {
	mu sync.Mutex
	t  model.Task
}

func newMemTaskRepo(total int) *memTaskRepo {
	return &memTaskRepo{t: model.Task{
		ID:       uuid.New(),
		Status:   model.TaskStatusProcessing,
		Progress: datatypes.NewJSONType(model.Progress{Total: total}),
	}}
}

func (r *memTaskRepo) Create(ctx context.Context, t *model.Task) error { return nil }

func (r *memTaskRepo) Get(ctx context.Context, taskID uuid.UUID) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := r.t
	return &cp, nil
}

func (r *memTaskRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Task, error) {
	return nil, nil
}

func (r *memTaskRepo) Start(ctx context.Context, taskID uuid.UUID) error { return nil }

func (r *memTaskRepo) SaveProgress(ctx context.Context, taskID uuid.UUID, p model.Progress) error {
	time.Sleep(time.Millisecond)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.t.Progress = datatypes.NewJSONType(p)
	return nil
}

func (r *memTaskRepo) Complete(ctx context.Context, taskID uuid.UUID, result map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.t.Status = model.TaskStatusCompleted
	return nil
}

func (r *memTaskRepo) Fail(ctx context.Context, taskID uuid.UUID, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.t.Status = model.TaskStatusFailed
	r.t.ErrorMessage = errMsg
	return nil
}

func TestTaskUpdateProgress_ConcurrentWorkersKeepEveryIncrement(t *testing.T) {
	const workers = 32
	r := newMemTaskRepo(workers)
	taskID := r.t.ID
	svc := NewTaskService(r, deadRedis(), zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.UpdateProgress(context.Background(), taskID, func(p *model.Progress) {
				p.Completed++
			})
		}()
	}
	wg.Wait()

	got, err := r.Get(context.Background(), taskID)
	require.NoError(t, err)
	p := got.Progress.Data()
	require.Equal(t, workers, p.Completed)
	require.Equal(t, workers, p.Completed+p.Failed)
}
