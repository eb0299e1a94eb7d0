package service

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/xobi-ai/xobi/internal/modules/model"
	"github.com/xobi-ai/xobi/internal/modules/repo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// TaskService is the task record store. Tasks are created by request
// handlers, written by their background job and its pool workers, and read
// by polling clients. Polling hits the Redis mirror first so a 1-2s poll
// loop does not land on Postgres every tick.
type TaskService interface {
	Create(ctx context.Context, projectID uuid.UUID, taskType string, total int) (*model.Task, error)
	Get(ctx context.Context, taskID uuid.UUID) (*model.Task, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Task, error)
	Start(ctx context.Context, taskID uuid.UUID) error
	UpdateProgress(ctx context.Context, taskID uuid.UUID, mutate func(p *model.Progress)) error
	Complete(ctx context.Context, taskID uuid.UUID, result map[string]any) error
	Fail(ctx context.Context, taskID uuid.UUID, errMsg string) error
}

const taskCacheTTL = 30 * time.Second

type taskService struct {
	r   repo.TaskRepo
	rdb *redis.Client
	log *zap.Logger

	// Serializes progress read-modify-write cycles. Batch tasks receive
	// updates from several pool workers at once.
	progressMu sync.Mutex
}

func NewTaskService(r repo.TaskRepo, rdb *redis.Client, log *zap.Logger) TaskService {
	return &taskService{r: r, rdb: rdb, log: log}
}

func taskCacheKey(taskID uuid.UUID) string { return "task:" + taskID.String() }

func (s *taskService) Create(ctx context.Context, projectID uuid.UUID, taskType string, total int) (*model.Task, error) {
	t := &model.Task{
		ProjectID: projectID,
		TaskType:  taskType,
		Status:    model.TaskStatusPending,
		Progress:  datatypes.NewJSONType(model.Progress{Total: total}),
	}
	if err := s.r.Create(ctx, t); err != nil {
		return nil, err
	}
	s.mirror(ctx, t)
	return t, nil
}

func (s *taskService) Get(ctx context.Context, taskID uuid.UUID) (*model.Task, error) {
	if raw, err := s.rdb.Get(ctx, taskCacheKey(taskID)).Bytes(); err == nil {
		var t model.Task
		if err := sonic.Unmarshal(raw, &t); err == nil {
			return &t, nil
		}
	}

	t, err := s.r.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	s.mirror(ctx, t)
	return t, nil
}

func (s *taskService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Task, error) {
	return s.r.ListByProject(ctx, projectID)
}

func (s *taskService) Start(ctx context.Context, taskID uuid.UUID) error {
	if err := s.r.Start(ctx, taskID); err != nil {
		return err
	}
	s.refresh(ctx, taskID)
	return nil
}

// UpdateProgress applies a merge function to the stored progress object.
// The read-modify-write runs under a lock so concurrent workers of a batch
// task cannot lose each other's increments.
func (s *taskService) UpdateProgress(ctx context.Context, taskID uuid.UUID, mutate func(p *model.Progress)) error {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()

	t, err := s.r.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if t.IsTerminal() {
		return nil
	}

	p := t.Progress.Data()
	mutate(&p)
	if p.Completed+p.Failed > p.Total {
		s.log.Sugar().Warnw("progress accounting exceeds total, clamping",
			"task_id", taskID, "completed", p.Completed, "failed", p.Failed, "total", p.Total)
		p.Completed = p.Total - p.Failed
	}

	if err := s.r.SaveProgress(ctx, taskID, p); err != nil {
		return err
	}
	s.refresh(ctx, taskID)
	return nil
}

func (s *taskService) Complete(ctx context.Context, taskID uuid.UUID, result map[string]any) error {
	if err := s.r.Complete(ctx, taskID, result); err != nil {
		return err
	}
	s.refresh(ctx, taskID)
	return nil
}

func (s *taskService) Fail(ctx context.Context, taskID uuid.UUID, errMsg string) error {
	if err := s.r.Fail(ctx, taskID, errMsg); err != nil {
		return err
	}
	s.refresh(ctx, taskID)
	return nil
}

// mirror best-effort caches the task; polling falls back to Postgres when
// Redis is unavailable.
func (s *taskService) mirror(ctx context.Context, t *model.Task) {
	raw, err := sonic.Marshal(t)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, taskCacheKey(t.ID), raw, taskCacheTTL).Err(); err != nil {
		s.log.Sugar().Debugw("task cache write failed", "task_id", t.ID, "err", err)
	}
}

func (s *taskService) refresh(ctx context.Context, taskID uuid.UUID) {
	t, err := s.r.Get(ctx, taskID)
	if err != nil {
		return
	}
	s.mirror(ctx, t)
}
