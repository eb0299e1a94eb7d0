package service

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/xobi-ai/xobi/internal/config"
	"github.com/xobi-ai/xobi/internal/infra/blob"
	"github.com/xobi-ai/xobi/internal/modules/model"
	"github.com/xobi-ai/xobi/internal/modules/repo"
	"github.com/xobi-ai/xobi/internal/pkg/aspect"
	"github.com/xobi-ai/xobi/internal/pkg/content"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// UpdatePageInput carries the editable page fields. Nil means unchanged.
type UpdatePageInput struct {
	Part            *string
	AspectRatio     *string
	Outline         *content.Outline
	DescriptionText *string
}

// InsertPageInput creates a page at a position. OrderIndex -1 appends.
type InsertPageInput struct {
	OrderIndex int
	Part       string
	Outline    *content.Outline
}

type PageService interface {
	Get(ctx context.Context, projectID, pageID uuid.UUID) (*model.Page, error)
	Update(ctx context.Context, projectID, pageID uuid.UUID, in UpdatePageInput) (*model.Page, error)
	Insert(ctx context.Context, projectID uuid.UUID, in InsertPageInput) (*model.Page, error)
	Delete(ctx context.Context, projectID, pageID uuid.UUID) error
	Reorder(ctx context.Context, projectID uuid.UUID, orderedIDs []uuid.UUID) ([]model.Page, error)
	SetCurrentVersion(ctx context.Context, projectID, pageID uuid.UUID, versionID uuid.UUID) (*model.Page, error)
}

type pageService struct {
	cfg      *config.Config
	log      *zap.Logger
	pages    repo.PageRepo
	projects repo.ProjectRepo
	s3       *blob.S3Deps
}

func NewPageService(cfg *config.Config, log *zap.Logger, pages repo.PageRepo, projects repo.ProjectRepo, s3 *blob.S3Deps) PageService {
	return &pageService{cfg: cfg, log: log, pages: pages, projects: projects, s3: s3}
}

func (s *pageService) Get(ctx context.Context, projectID, pageID uuid.UUID) (*model.Page, error) {
	pg, err := s.pages.Get(ctx, projectID, pageID)
	if err != nil {
		return nil, err
	}
	s.decorate(ctx, pg)
	return pg, nil
}

func (s *pageService) Update(ctx context.Context, projectID, pageID uuid.UUID, in UpdatePageInput) (*model.Page, error) {
	pg, err := s.pages.Get(ctx, projectID, pageID)
	if err != nil {
		return nil, err
	}
	if pg.Status == model.PageStatusGenerating {
		return nil, statusf("page %s is generating", pageID)
	}

	cols := map[string]any{}
	if in.Part != nil {
		cols["part"] = *in.Part
	}
	if in.AspectRatio != nil {
		r, err := aspect.Normalize(*in.AspectRatio)
		if err != nil {
			return nil, validationf("aspect_ratio: expected W:H")
		}
		cols["aspect_ratio"] = r
	}
	if in.Outline != nil {
		raw, err := sonic.Marshal(in.Outline)
		if err != nil {
			return nil, err
		}
		cols["outline_content"] = datatypes.JSON(raw)
	}
	if in.DescriptionText != nil {
		if *in.DescriptionText == "" {
			return nil, validationf("description text must not be empty")
		}
		// A description always refers to an outline item; the outline may
		// arrive in the same update.
		if in.Outline == nil && len(pg.OutlineContent) == 0 {
			return nil, statusf("page %s has no outline to describe", pageID)
		}
		raw, err := sonic.Marshal(content.FreeText(*in.DescriptionText))
		if err != nil {
			return nil, err
		}
		cols["description_content"] = datatypes.JSON(raw)
		// Editing the description does not touch an already rendered image.
		if pg.Status == model.PageStatusDraft {
			cols["status"] = model.PageStatusDescriptionGenerated
		}
	}

	if len(cols) > 0 {
		if err := s.pages.UpdateColumns(ctx, pageID, cols); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, projectID, pageID)
}

func (s *pageService) Insert(ctx context.Context, projectID uuid.UUID, in InsertPageInput) (*model.Page, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}

	existing, err := s.pages.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	idx := in.OrderIndex
	if idx < 0 || idx > len(existing) {
		idx = len(existing)
	}

	pg := &model.Page{
		ProjectID:  projectID,
		OrderIndex: idx,
		Part:       in.Part,
		Status:     model.PageStatusDraft,
	}
	if in.Outline != nil {
		raw, err := sonic.Marshal(in.Outline)
		if err != nil {
			return nil, err
		}
		pg.OutlineContent = datatypes.JSON(raw)
	}

	if err := s.pages.InsertAt(ctx, pg); err != nil {
		return nil, err
	}
	return s.Get(ctx, projectID, pg.ID)
}

func (s *pageService) Delete(ctx context.Context, projectID, pageID uuid.UUID) error {
	pg, err := s.pages.Get(ctx, projectID, pageID)
	if err != nil {
		return err
	}
	if pg.Status == model.PageStatusGenerating {
		return statusf("page %s is generating", pageID)
	}
	if err := s.pages.Delete(ctx, projectID, pageID); err != nil {
		return err
	}
	for _, v := range pg.ImageVersions {
		if derr := s.s3.Delete(ctx, v.ImageKey); derr != nil {
			s.log.Sugar().Warnw("delete page image failed", "key", v.ImageKey, "err", derr)
		}
	}
	return nil
}

func (s *pageService) Reorder(ctx context.Context, projectID uuid.UUID, orderedIDs []uuid.UUID) ([]model.Page, error) {
	if len(orderedIDs) == 0 {
		return nil, validationf("page_ids must not be empty")
	}
	if err := s.pages.Reorder(ctx, projectID, orderedIDs); err != nil {
		return nil, err
	}

	pages, err := s.pages.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for i := range pages {
		s.decorate(ctx, &pages[i])
	}
	return pages, nil
}

// SetCurrentVersion points the page at one of its stored image versions.
func (s *pageService) SetCurrentVersion(ctx context.Context, projectID, pageID, versionID uuid.UUID) (*model.Page, error) {
	pg, err := s.pages.Get(ctx, projectID, pageID)
	if err != nil {
		return nil, err
	}

	var target *model.PageImageVersion
	for i := range pg.ImageVersions {
		if pg.ImageVersions[i].ID == versionID {
			target = &pg.ImageVersions[i]
			break
		}
	}
	if target == nil {
		return nil, validationf("version %s does not belong to page %s", versionID, pageID)
	}

	cols := map[string]any{"generated_image_key": target.ImageKey}
	if err := s.pages.UpdateColumns(ctx, pageID, cols); err != nil {
		return nil, err
	}
	if err := s.pages.MarkCurrentVersion(ctx, pageID, versionID); err != nil {
		return nil, err
	}
	return s.Get(ctx, projectID, pageID)
}

func (s *pageService) decorate(ctx context.Context, pg *model.Page) {
	expire := presignDuration(s.cfg)
	if pg.GeneratedImageKey != "" {
		if url, err := s.s3.PresignGet(ctx, pg.GeneratedImageKey, expire); err == nil {
			pg.GeneratedImageURL = url
		}
	}
	for i := range pg.ImageVersions {
		v := &pg.ImageVersions[i]
		if url, err := s.s3.PresignGet(ctx, v.ImageKey, expire); err == nil {
			v.ImageURL = url
		}
	}
}
