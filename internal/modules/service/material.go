package service

import (
	"context"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/xobi-ai/xobi/internal/config"
	"github.com/xobi-ai/xobi/internal/infra/blob"
	"github.com/xobi-ai/xobi/internal/modules/model"
	"github.com/xobi-ai/xobi/internal/modules/repo"
	"go.uber.org/zap"
)

// Material list scopes. A concrete project id scopes to that project;
// ScopeUnassociated lists globals only; ScopeAll lists everything.
const (
	ScopeAll          = "all"
	ScopeUnassociated = "none"
)

type MaterialService interface {
	Upload(ctx context.Context, projectID *uuid.UUID, fh *multipart.FileHeader) (*model.Material, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Material, error)
	List(ctx context.Context, scope string) ([]model.Material, error)
	Associate(ctx context.Context, projectID, materialID uuid.UUID) error
	Dissociate(ctx context.Context, projectID, materialID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type materialService struct {
	cfg      *config.Config
	log      *zap.Logger
	repo     repo.MaterialRepo
	projects repo.ProjectRepo
	s3       *blob.S3Deps
}

func NewMaterialService(cfg *config.Config, log *zap.Logger, r repo.MaterialRepo, projects repo.ProjectRepo, s3 *blob.S3Deps) MaterialService {
	return &materialService{cfg: cfg, log: log, repo: r, projects: projects, s3: s3}
}

func (s *materialService) Upload(ctx context.Context, projectID *uuid.UUID, fh *multipart.FileHeader) (*model.Material, error) {
	mime := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(mime, "image/") {
		return nil, validationf("materials must be images, got %q", mime)
	}
	if projectID != nil {
		if _, err := s.projects.Get(ctx, *projectID); err != nil {
			return nil, err
		}
	}

	filename := blob.SanitizeFilename(fh.Filename)
	key := blob.MaterialKey(filename)
	meta, err := s.s3.UploadFormFile(ctx, key, fh)
	if err != nil {
		return nil, err
	}

	m := &model.Material{
		Filename:      filename,
		ObjectKey:     key,
		MIME:          meta.MIME,
		SizeB:         meta.SizeB,
		Source:        model.MaterialSourceUpload,
		CaptionStatus: model.ParseStatusPending,
	}
	if err := s.repo.Create(ctx, m, projectID); err != nil {
		return nil, err
	}
	s.decorate(ctx, m)
	return m, nil
}

func (s *materialService) Get(ctx context.Context, id uuid.UUID) (*model.Material, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.decorate(ctx, m)
	return m, nil
}

func (s *materialService) List(ctx context.Context, scope string) ([]model.Material, error) {
	var (
		items []model.Material
		err   error
	)
	switch scope {
	case "", ScopeAll:
		items, err = s.repo.ListAll(ctx)
	case ScopeUnassociated, "global":
		items, err = s.repo.ListUnassociated(ctx)
	default:
		projectID, perr := uuid.Parse(scope)
		if perr != nil {
			return nil, validationf("project_id must be a uuid, %q or %q", ScopeAll, ScopeUnassociated)
		}
		items, err = s.repo.ListByProject(ctx, projectID)
	}
	if err != nil {
		return nil, err
	}
	for i := range items {
		s.decorate(ctx, &items[i])
	}
	return items, nil
}

func (s *materialService) Associate(ctx context.Context, projectID, materialID uuid.UUID) error {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return err
	}
	if _, err := s.repo.Get(ctx, materialID); err != nil {
		return err
	}
	return s.repo.Associate(ctx, projectID, materialID)
}

func (s *materialService) Dissociate(ctx context.Context, projectID, materialID uuid.UUID) error {
	return s.repo.Dissociate(ctx, projectID, materialID)
}

func (s *materialService) Delete(ctx context.Context, id uuid.UUID) error {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if derr := s.s3.Delete(ctx, m.ObjectKey); derr != nil {
		s.log.Sugar().Warnw("delete material object failed", "key", m.ObjectKey, "err", derr)
	}
	return nil
}

func (s *materialService) decorate(ctx context.Context, m *model.Material) {
	if url, err := s.s3.PresignGet(ctx, m.ObjectKey, presignDuration(s.cfg)); err == nil {
		m.URL = url
	}
}
