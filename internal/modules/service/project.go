package service

import (
	"context"
	"mime/multipart"
	"strings"

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

// CreateProjectInput is the validated body of POST /api/projects.
type CreateProjectInput struct {
	CreationType      string
	IdeaPrompt        string
	OutlineText       string
	DescriptionText   string
	ExtraRequirements string
	PageAspectRatio   string
	CoverAspectRatio  string
	ImageModel        string
}

// UpdateProjectInput carries the editable project fields. Nil pointers mean
// "leave unchanged".
type UpdateProjectInput struct {
	IdeaPrompt        *string
	OutlineText       *string
	DescriptionText   *string
	ExtraRequirements *string
	PageAspectRatio   *string
	CoverAspectRatio  *string
	ImageModel        *string
}

type ProjectService interface {
	Create(ctx context.Context, in CreateProjectInput) (*model.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Project, error)
	List(ctx context.Context) ([]model.Project, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateProjectInput) (*model.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UploadTemplate(ctx context.Context, id uuid.UUID, fh *multipart.FileHeader) (*model.Project, error)
}

type projectService struct {
	cfg   *config.Config
	log   *zap.Logger
	repo  repo.ProjectRepo
	pages repo.PageRepo
	s3    *blob.S3Deps
}

func NewProjectService(cfg *config.Config, log *zap.Logger, r repo.ProjectRepo, pages repo.PageRepo, s3 *blob.S3Deps) ProjectService {
	return &projectService{cfg: cfg, log: log, repo: r, pages: pages, s3: s3}
}

func (s *projectService) Create(ctx context.Context, in CreateProjectInput) (*model.Project, error) {
	switch in.CreationType {
	case model.CreationTypeIdea, model.CreationTypeEcom:
		if in.IdeaPrompt == "" {
			return nil, validationf("idea_prompt is required for creation_type %q", in.CreationType)
		}
	case model.CreationTypeOutline:
		if in.OutlineText == "" {
			return nil, validationf("outline_text is required for creation_type %q", in.CreationType)
		}
	case model.CreationTypeDescription:
		if in.DescriptionText == "" {
			return nil, validationf("description_text is required for creation_type %q", in.CreationType)
		}
	default:
		return nil, validationf("unknown creation_type %q", in.CreationType)
	}

	pageRatio, err := aspect.Normalize(in.PageAspectRatio)
	if err != nil {
		return nil, validationf("page_aspect_ratio: %v", err)
	}
	if pageRatio == "" {
		pageRatio = s.cfg.Gen.DefaultPageAspectRatio
	}
	coverRatio, err := aspect.Normalize(in.CoverAspectRatio)
	if err != nil {
		return nil, validationf("cover_aspect_ratio: %v", err)
	}
	if coverRatio == "" {
		coverRatio = s.cfg.Gen.DefaultCoverAspectRatio
	}

	p := &model.Project{
		CreationType:      in.CreationType,
		IdeaPrompt:        in.IdeaPrompt,
		OutlineText:       in.OutlineText,
		DescriptionText:   in.DescriptionText,
		ExtraRequirements: in.ExtraRequirements,
		PageAspectRatio:   pageRatio,
		CoverAspectRatio:  coverRatio,
		ImageModel:        in.ImageModel,
		Status:            model.ProjectStatusDraft,
	}

	// A user supplied outline needs no model call: its pages are created
	// right here and the project starts at OUTLINE_GENERATED.
	var pages []model.Page
	if in.CreationType == model.CreationTypeOutline {
		pages = outlinePages(in.OutlineText)
		if len(pages) == 0 {
			return nil, validationf("outline_text contains no page lines")
		}
		p.Status = model.ProjectStatusOutlineGenerated
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	if len(pages) > 0 {
		for i := range pages {
			pages[i].ProjectID = p.ID
		}
		if err := s.pages.CreateBatch(ctx, pages); err != nil {
			return nil, err
		}
		p.Pages = pages
	}
	return p, nil
}

// outlinePages turns user outline text into one page per non-empty line,
// stripping common list markers.
func outlinePages(text string) []model.Page {
	var pages []model.Page
	for _, line := range strings.Split(text, "\n") {
		title := strings.TrimSpace(line)
		title = strings.TrimLeft(title, "-*#0123456789.、 \t")
		if title == "" {
			continue
		}
		doc, err := sonic.Marshal(content.Outline{Title: title})
		if err != nil {
			continue
		}
		pages = append(pages, model.Page{
			OrderIndex:     len(pages),
			OutlineContent: datatypes.JSON(doc),
			Status:         model.PageStatusDraft,
		})
	}
	return pages
}

func (s *projectService) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	p, err := s.repo.GetWithPages(ctx, id)
	if err != nil {
		return nil, err
	}
	s.decorate(ctx, p)
	return p, nil
}

func (s *projectService) List(ctx context.Context) ([]model.Project, error) {
	return s.repo.List(ctx)
}

func (s *projectService) Update(ctx context.Context, id uuid.UUID, in UpdateProjectInput) (*model.Project, error) {
	cols := map[string]any{}
	if in.IdeaPrompt != nil {
		cols["idea_prompt"] = *in.IdeaPrompt
	}
	if in.OutlineText != nil {
		cols["outline_text"] = *in.OutlineText
	}
	if in.DescriptionText != nil {
		cols["description_text"] = *in.DescriptionText
	}
	if in.ExtraRequirements != nil {
		cols["extra_requirements"] = *in.ExtraRequirements
	}
	if in.ImageModel != nil {
		cols["image_model"] = *in.ImageModel
	}
	if in.PageAspectRatio != nil {
		r, err := aspect.Normalize(*in.PageAspectRatio)
		if err != nil || r == "" {
			return nil, validationf("page_aspect_ratio: expected W:H")
		}
		cols["page_aspect_ratio"] = r
	}
	if in.CoverAspectRatio != nil {
		r, err := aspect.Normalize(*in.CoverAspectRatio)
		if err != nil || r == "" {
			return nil, validationf("cover_aspect_ratio: expected W:H")
		}
		cols["cover_aspect_ratio"] = r
	}

	if len(cols) > 0 {
		if err := s.repo.UpdateColumns(ctx, id, cols); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

func (s *projectService) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.GetWithPages(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	// Blob cleanup is best effort: the rows are gone, orphaned objects only
	// cost storage.
	for i := range p.Pages {
		for _, v := range p.Pages[i].ImageVersions {
			if derr := s.s3.Delete(ctx, v.ImageKey); derr != nil {
				s.log.Sugar().Warnw("delete page image failed", "key", v.ImageKey, "err", derr)
			}
		}
	}
	if p.TemplateImageKey != "" {
		if derr := s.s3.Delete(ctx, p.TemplateImageKey); derr != nil {
			s.log.Sugar().Warnw("delete template image failed", "key", p.TemplateImageKey, "err", derr)
		}
	}
	return nil
}

func (s *projectService) UploadTemplate(ctx context.Context, id uuid.UUID, fh *multipart.FileHeader) (*model.Project, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := blob.TemplateImageKey(id, blob.SanitizeFilename(fh.Filename))
	if _, err := s.s3.UploadFormFile(ctx, key, fh); err != nil {
		return nil, err
	}

	old := p.TemplateImageKey
	if err := s.repo.UpdateColumns(ctx, id, map[string]any{"template_image_key": key}); err != nil {
		return nil, err
	}
	if old != "" && old != key {
		if derr := s.s3.Delete(ctx, old); derr != nil {
			s.log.Sugar().Warnw("delete old template image failed", "key", old, "err", derr)
		}
	}
	return s.Get(ctx, id)
}

// decorate fills the derived status and the presigned URL fields on a loaded
// project tree.
func (s *projectService) decorate(ctx context.Context, p *model.Project) {
	p.Status = model.DerivedStatus(p.Pages)

	expire := presignDuration(s.cfg)
	if p.TemplateImageKey != "" {
		if url, err := s.s3.PresignGet(ctx, p.TemplateImageKey, expire); err == nil {
			p.TemplateImageURL = url
		}
	}
	for i := range p.Pages {
		pg := &p.Pages[i]
		if pg.GeneratedImageKey != "" {
			if url, err := s.s3.PresignGet(ctx, pg.GeneratedImageKey, expire); err == nil {
				pg.GeneratedImageURL = url
			}
		}
		for j := range pg.ImageVersions {
			v := &pg.ImageVersions[j]
			if url, err := s.s3.PresignGet(ctx, v.ImageKey, expire); err == nil {
				v.ImageURL = url
			}
		}
	}
}
