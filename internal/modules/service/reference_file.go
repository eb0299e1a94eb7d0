package service

import (
	"context"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xobi-ai/xobi/internal/config"
	"github.com/xobi-ai/xobi/internal/infra/blob"
	"github.com/xobi-ai/xobi/internal/modules/model"
	"github.com/xobi-ai/xobi/internal/modules/repo"
	"go.uber.org/zap"
)

// Document types accepted as reference files.
var allowedReferenceTypes = map[string]bool{
	"txt": true, "md": true, "markdown": true, "pdf": true, "docx": true,
}

type ReferenceFileService interface {
	Upload(ctx context.Context, projectID *uuid.UUID, fh *multipart.FileHeader) (*model.ReferenceFile, error)
	Get(ctx context.Context, id uuid.UUID) (*model.ReferenceFile, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.ReferenceFile, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type referenceFileService struct {
	cfg      *config.Config
	log      *zap.Logger
	repo     repo.ReferenceFileRepo
	projects repo.ProjectRepo
	s3       *blob.S3Deps
}

func NewReferenceFileService(cfg *config.Config, log *zap.Logger, r repo.ReferenceFileRepo, projects repo.ProjectRepo, s3 *blob.S3Deps) ReferenceFileService {
	return &referenceFileService{cfg: cfg, log: log, repo: r, projects: projects, s3: s3}
}

func (s *referenceFileService) Upload(ctx context.Context, projectID *uuid.UUID, fh *multipart.FileHeader) (*model.ReferenceFile, error) {
	filename := blob.SanitizeFilename(fh.Filename)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !allowedReferenceTypes[ext] {
		return nil, validationf("unsupported reference file type %q", ext)
	}
	if projectID != nil {
		if _, err := s.projects.Get(ctx, *projectID); err != nil {
			return nil, err
		}
	}

	key := blob.ReferenceFileKey(filename)
	meta, err := s.s3.UploadFormFile(ctx, key, fh)
	if err != nil {
		return nil, err
	}

	f := &model.ReferenceFile{
		ProjectID:   projectID,
		Filename:    filename,
		ObjectKey:   key,
		SizeB:       meta.SizeB,
		FileType:    ext,
		ParseStatus: model.ParseStatusPending,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *referenceFileService) Get(ctx context.Context, id uuid.UUID) (*model.ReferenceFile, error) {
	return s.repo.Get(ctx, id)
}

func (s *referenceFileService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.ReferenceFile, error) {
	return s.repo.ListByProject(ctx, projectID)
}

func (s *referenceFileService) Delete(ctx context.Context, id uuid.UUID) error {
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if derr := s.s3.Delete(ctx, f.ObjectKey); derr != nil {
		s.log.Sugar().Warnw("delete reference file object failed", "key", f.ObjectKey, "err", derr)
	}
	return nil
}
