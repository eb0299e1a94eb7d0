package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/xobi-ai/xobi/internal/modules/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TaskRepo interface {
	Create(ctx context.Context, t *model.Task) error
	Get(ctx context.Context, taskID uuid.UUID) (*model.Task, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Task, error)
	Start(ctx context.Context, taskID uuid.UUID) error
	SaveProgress(ctx context.Context, taskID uuid.UUID, p model.Progress) error
	Complete(ctx context.Context, taskID uuid.UUID, result map[string]any) error
	Fail(ctx context.Context, taskID uuid.UUID, errMsg string) error
}

type taskRepo struct{ db *gorm.DB }

func NewTaskRepo(db *gorm.DB) TaskRepo {
	return &taskRepo{db: db}
}

func (r *taskRepo) Create(ctx context.Context, t *model.Task) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *taskRepo) Get(ctx context.Context, taskID uuid.UUID) (*model.Task, error) {
	var t model.Task
	if err := r.db.WithContext(ctx).Where("id = ?", taskID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *taskRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Task, error) {
	var items []model.Task
	return items, r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").Find(&items).Error
}

// Start moves PENDING to PROCESSING. A task in any other state is left
// untouched.
func (r *taskRepo) Start(ctx context.Context, taskID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND status = ?", taskID, model.TaskStatusPending).
		Update("status", model.TaskStatusProcessing).Error
}

// SaveProgress persists the progress object. Callers serialize their
// read-modify-write cycles, so a plain column write is sufficient.
func (r *taskRepo) SaveProgress(ctx context.Context, taskID uuid.UUID, p model.Progress) error {
	return r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND status NOT IN ?", taskID, terminalStatuses()).
		Update("progress", datatypes.NewJSONType(p)).Error
}

// Complete transitions to COMPLETED exactly once. A second terminal call is
// a no-op: the WHERE clause excludes tasks already terminal, so it can never
// overwrite FAILED with COMPLETED.
func (r *taskRepo) Complete(ctx context.Context, taskID uuid.UUID, result map[string]any) error {
	now := time.Now().UTC()
	cols := map[string]any{
		"status":       model.TaskStatusCompleted,
		"completed_at": &now,
	}
	if result != nil {
		cols["result"] = datatypes.JSONMap(result)
	}
	return r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND status NOT IN ?", taskID, terminalStatuses()).
		Updates(cols).Error
}

// Fail transitions to FAILED exactly once, with the same terminal guard.
func (r *taskRepo) Fail(ctx context.Context, taskID uuid.UUID, errMsg string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND status NOT IN ?", taskID, terminalStatuses()).
		Updates(map[string]any{
			"status":        model.TaskStatusFailed,
			"error_message": errMsg,
			"completed_at":  &now,
		}).Error
}

func terminalStatuses() []string {
	return []string{model.TaskStatusCompleted, model.TaskStatusFailed}
}
