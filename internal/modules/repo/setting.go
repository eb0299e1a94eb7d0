package repo

import (
	"context"

	"github.com/xobi-ai/xobi/internal/modules/model"
	"gorm.io/gorm"
)

// settingRowID pins the settings table to a single row.
const settingRowID = 1

type SettingRepo interface {
	Get(ctx context.Context) (*model.Setting, error)
	Save(ctx context.Context, s *model.Setting) error
}

type settingRepo struct{ db *gorm.DB }

func NewSettingRepo(db *gorm.DB) SettingRepo {
	return &settingRepo{db: db}
}

func (r *settingRepo) Get(ctx context.Context) (*model.Setting, error) {
	var s model.Setting
	if err := r.db.WithContext(ctx).Where("id = ?", settingRowID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// Save upserts the singleton row.
func (r *settingRepo) Save(ctx context.Context, s *model.Setting) error {
	s.ID = settingRowID
	return r.db.WithContext(ctx).Save(s).Error
}
