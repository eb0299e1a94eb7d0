package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/xobi-ai/xobi/internal/modules/model"
	"gorm.io/gorm"
)

type ReferenceFileRepo interface {
	Create(ctx context.Context, f *model.ReferenceFile) error
	Get(ctx context.Context, id uuid.UUID) (*model.ReferenceFile, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.ReferenceFile, error)
	UpdateParse(ctx context.Context, id uuid.UUID, status, markdown, errMsg string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type referenceFileRepo struct{ db *gorm.DB }

func NewReferenceFileRepo(db *gorm.DB) ReferenceFileRepo {
	return &referenceFileRepo{db: db}
}

func (r *referenceFileRepo) Create(ctx context.Context, f *model.ReferenceFile) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *referenceFileRepo) Get(ctx context.Context, id uuid.UUID) (*model.ReferenceFile, error) {
	var f model.ReferenceFile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *referenceFileRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.ReferenceFile, error) {
	var items []model.ReferenceFile
	return items, r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").Find(&items).Error
}

func (r *referenceFileRepo) UpdateParse(ctx context.Context, id uuid.UUID, status, markdown, errMsg string) error {
	return r.db.WithContext(ctx).Model(&model.ReferenceFile{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"parse_status":     status,
			"markdown_content": markdown,
			"error_message":    errMsg,
		}).Error
}

func (r *referenceFileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ReferenceFile{}).Error
}
