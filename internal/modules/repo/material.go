package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/xobi-ai/xobi/internal/modules/model"
	"gorm.io/gorm"
)

// ErrMaterialInUse is returned when deleting a material still associated
// with at least one project.
var ErrMaterialInUse = errors.New("material is associated with a project")

type MaterialRepo interface {
	Create(ctx context.Context, m *model.Material, projectID *uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*model.Material, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Material, error)
	ListUnassociated(ctx context.Context) ([]model.Material, error)
	ListAll(ctx context.Context) ([]model.Material, error)
	Associate(ctx context.Context, projectID, materialID uuid.UUID) error
	Dissociate(ctx context.Context, projectID, materialID uuid.UUID) error
	UpdateCaption(ctx context.Context, id uuid.UUID, caption, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type materialRepo struct{ db *gorm.DB }

func NewMaterialRepo(db *gorm.DB) MaterialRepo {
	return &materialRepo{db: db}
}

func (r *materialRepo) Create(ctx context.Context, m *model.Material, projectID *uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		if projectID != nil {
			return tx.Create(&model.ProjectMaterial{ProjectID: *projectID, MaterialID: m.ID}).Error
		}
		return nil
	})
}

func (r *materialRepo) Get(ctx context.Context, id uuid.UUID) (*model.Material, error) {
	var m model.Material
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *materialRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Material, error) {
	var items []model.Material
	err := r.db.WithContext(ctx).
		Joins("JOIN project_materials pm ON pm.material_id = materials.id").
		Where("pm.project_id = ?", projectID).
		Order("materials.created_at DESC").
		Find(&items).Error
	return items, err
}

// ListUnassociated returns global materials, i.e. those linked to no
// project at all.
func (r *materialRepo) ListUnassociated(ctx context.Context) ([]model.Material, error) {
	var items []model.Material
	err := r.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM project_materials pm WHERE pm.material_id = materials.id)").
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

func (r *materialRepo) ListAll(ctx context.Context) ([]model.Material, error) {
	var items []model.Material
	return items, r.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error
}

func (r *materialRepo) Associate(ctx context.Context, projectID, materialID uuid.UUID) error {
	link := model.ProjectMaterial{ProjectID: projectID, MaterialID: materialID}
	// Re-associating is a no-op.
	return r.db.WithContext(ctx).
		Where(&model.ProjectMaterial{ProjectID: projectID, MaterialID: materialID}).
		FirstOrCreate(&link).Error
}

func (r *materialRepo) Dissociate(ctx context.Context, projectID, materialID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("project_id = ? AND material_id = ?", projectID, materialID).
		Delete(&model.ProjectMaterial{}).Error
}

func (r *materialRepo) UpdateCaption(ctx context.Context, id uuid.UUID, caption, status string) error {
	return r.db.WithContext(ctx).Model(&model.Material{}).
		Where("id = ?", id).
		Updates(map[string]any{"caption": caption, "caption_status": status}).Error
}

// Delete removes a material only when no project still references it.
func (r *materialRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&model.ProjectMaterial{}).Where("material_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrMaterialInUse
		}
		return tx.Where("id = ?", id).Delete(&model.Material{}).Error
	})
}
