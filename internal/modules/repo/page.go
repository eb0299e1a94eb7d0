package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/xobi-ai/xobi/internal/modules/model"
	"gorm.io/gorm"
)

type PageRepo interface {
	CreateBatch(ctx context.Context, pages []model.Page) error
	ReplaceAll(ctx context.Context, projectID uuid.UUID, pages []model.Page) error
	Get(ctx context.Context, projectID, pageID uuid.UUID) (*model.Page, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Page, error)
	Update(ctx context.Context, p *model.Page) error
	UpdateColumns(ctx context.Context, pageID uuid.UUID, cols map[string]any) error
	InsertAt(ctx context.Context, p *model.Page) error
	Delete(ctx context.Context, projectID, pageID uuid.UUID) error
	Reorder(ctx context.Context, projectID uuid.UUID, orderedIDs []uuid.UUID) error
	SetCurrentImage(ctx context.Context, pageID uuid.UUID, imageKey string) (*model.PageImageVersion, error)
	MarkCurrentVersion(ctx context.Context, pageID, versionID uuid.UUID) error
}

type pageRepo struct{ db *gorm.DB }

func NewPageRepo(db *gorm.DB) PageRepo {
	return &pageRepo{db: db}
}

func (r *pageRepo) CreateBatch(ctx context.Context, pages []model.Page) error {
	if len(pages) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&pages).Error
}

// ReplaceAll swaps the project's whole page set in one transaction. Used by
// outline generation, which plans the deck from scratch.
func (r *pageRepo) ReplaceAll(ctx context.Context, projectID uuid.UUID, pages []model.Page) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&model.Page{}).Error; err != nil {
			return err
		}
		if len(pages) == 0 {
			return nil
		}
		return tx.Create(&pages).Error
	})
}

func (r *pageRepo) Get(ctx context.Context, projectID, pageID uuid.UUID) (*model.Page, error) {
	var p model.Page
	err := r.db.WithContext(ctx).
		Preload("ImageVersions", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("version_number DESC")
		}).
		Where("id = ? AND project_id = ?", pageID, projectID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pageRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Page, error) {
	var items []model.Page
	return items, r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("order_index ASC").Find(&items).Error
}

func (r *pageRepo) Update(ctx context.Context, p *model.Page) error {
	return r.db.WithContext(ctx).Where(&model.Page{ID: p.ID}).Updates(p).Error
}

func (r *pageRepo) UpdateColumns(ctx context.Context, pageID uuid.UUID, cols map[string]any) error {
	return r.db.WithContext(ctx).Model(&model.Page{}).Where("id = ?", pageID).Updates(cols).Error
}

// InsertAt creates a page at p.OrderIndex, shifting following siblings up by
// one. The shift runs high-to-low so the (project_id, order_index) unique
// index never sees a duplicate.
func (r *pageRepo) InsertAt(ctx context.Context, p *model.Page) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Page{}).Where("project_id = ?", p.ProjectID).Count(&count).Error; err != nil {
			return err
		}
		if p.OrderIndex < 0 || p.OrderIndex > int(count) {
			p.OrderIndex = int(count)
		}

		var tail []model.Page
		if err := tx.Where("project_id = ? AND order_index >= ?", p.ProjectID, p.OrderIndex).
			Order("order_index DESC").Find(&tail).Error; err != nil {
			return err
		}
		for i := range tail {
			if err := tx.Model(&model.Page{}).Where("id = ?", tail[i].ID).
				Update("order_index", tail[i].OrderIndex+1).Error; err != nil {
				return err
			}
		}

		return tx.Create(p).Error
	})
}

// Delete removes the page and renumbers the remaining siblings so
// order_index stays contiguous 0..N-1.
func (r *pageRepo) Delete(ctx context.Context, projectID, pageID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Page
		if err := tx.Where("id = ? AND project_id = ?", pageID, projectID).First(&p).Error; err != nil {
			return err
		}
		if err := tx.Delete(&p).Error; err != nil {
			return err
		}

		var tail []model.Page
		if err := tx.Where("project_id = ? AND order_index > ?", projectID, p.OrderIndex).
			Order("order_index ASC").Find(&tail).Error; err != nil {
			return err
		}
		for i := range tail {
			if err := tx.Model(&model.Page{}).Where("id = ?", tail[i].ID).
				Update("order_index", tail[i].OrderIndex-1).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Reorder applies a full permutation of the project's pages. Indexes pass
// through a negative range first so the unique index holds mid-update.
func (r *pageRepo) Reorder(ctx context.Context, projectID uuid.UUID, orderedIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Page{}).Where("project_id = ?", projectID).Count(&count).Error; err != nil {
			return err
		}
		if int(count) != len(orderedIDs) {
			return fmt.Errorf("reorder needs all %d page ids, got %d", count, len(orderedIDs))
		}

		for i, id := range orderedIDs {
			res := tx.Model(&model.Page{}).Where("id = ? AND project_id = ?", id, projectID).
				Update("order_index", -(i + 1))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("page %s not in project", id)
			}
		}
		for i, id := range orderedIDs {
			if err := tx.Model(&model.Page{}).Where("id = ?", id).
				Update("order_index", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SetCurrentImage records a newly generated image as the next version and
// flips is_current in the same transaction, so exactly one version is
// current even when batch triggers race on the same page.
func (r *pageRepo) SetCurrentImage(ctx context.Context, pageID uuid.UUID, imageKey string) (*model.PageImageVersion, error) {
	var version model.PageImageVersion
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxVersion int
		row := tx.Model(&model.PageImageVersion{}).
			Where("page_id = ?", pageID).
			Select("COALESCE(MAX(version_number), 0)").Row()
		if err := row.Scan(&maxVersion); err != nil {
			return err
		}

		if err := tx.Model(&model.PageImageVersion{}).
			Where("page_id = ? AND is_current", pageID).
			Update("is_current", false).Error; err != nil {
			return err
		}

		version = model.PageImageVersion{
			PageID:        pageID,
			ImageKey:      imageKey,
			VersionNumber: maxVersion + 1,
			IsCurrent:     true,
		}
		if err := tx.Create(&version).Error; err != nil {
			return err
		}

		return tx.Model(&model.Page{}).Where("id = ?", pageID).
			Update("generated_image_key", imageKey).Error
	})
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// MarkCurrentVersion flips is_current to an existing stored version.
func (r *pageRepo) MarkCurrentVersion(ctx context.Context, pageID, versionID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v model.PageImageVersion
		if err := tx.Where("id = ? AND page_id = ?", versionID, pageID).First(&v).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.PageImageVersion{}).
			Where("page_id = ? AND is_current", pageID).
			Update("is_current", false).Error; err != nil {
			return err
		}
		return tx.Model(&model.PageImageVersion{}).Where("id = ?", v.ID).
			Update("is_current", true).Error
	})
}
