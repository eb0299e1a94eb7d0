package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/xobi-ai/xobi/internal/infra/blob"
	"github.com/xobi-ai/xobi/internal/modules/repo"
	"go.uber.org/zap"
)

// Export formats. Only the image archive is implemented; pptx and pdf are
// reserved and reported as unsupported.
const (
	ExportFormatImages = "images"
	ExportFormatPPTX   = "pptx"
	ExportFormatPDF    = "pdf"
)

// ExportArchive is a built export ready to stream to the client.
type ExportArchive struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService interface {
	Export(ctx context.Context, projectID uuid.UUID, format string, pageIDs []uuid.UUID) (*ExportArchive, error)
}

type exportService struct {
	log      *zap.Logger
	projects repo.ProjectRepo
	s3       *blob.S3Deps
}

func NewExportService(log *zap.Logger, projects repo.ProjectRepo, s3 *blob.S3Deps) ExportService {
	return &exportService{log: log, projects: projects, s3: s3}
}

func (s *exportService) Export(ctx context.Context, projectID uuid.UUID, format string, pageIDs []uuid.UUID) (*ExportArchive, error) {
	switch format {
	case ExportFormatImages:
		return s.exportImages(ctx, projectID, pageIDs)
	case ExportFormatPPTX, ExportFormatPDF:
		return nil, fmt.Errorf("%w: %s export is not available yet", ErrUnsupported, format)
	default:
		return nil, validationf("unknown export format %q", format)
	}
}

// exportImages bundles the current image of each requested page into a ZIP,
// named by deck order so the archive unpacks in presentation order.
func (s *exportService) exportImages(ctx context.Context, projectID uuid.UUID, pageIDs []uuid.UUID) (*ExportArchive, error) {
	p, err := s.projects.GetWithPages(ctx, projectID)
	if err != nil {
		return nil, err
	}

	requested := map[uuid.UUID]bool{}
	for _, id := range pageIDs {
		requested[id] = true
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	count := 0
	for i := range p.Pages {
		pg := &p.Pages[i]
		if len(pageIDs) > 0 && !requested[pg.ID] {
			continue
		}
		if pg.GeneratedImageKey == "" {
			continue
		}

		data, err := s.s3.Download(ctx, pg.GeneratedImageKey)
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("fetch image for page %d: %w", pg.OrderIndex, err)
		}

		name := fmt.Sprintf("page_%02d.jpg", pg.OrderIndex+1)
		w, err := zw.Create(name)
		if err != nil {
			zw.Close()
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			zw.Close()
			return nil, err
		}
		count++
	}
	if count == 0 {
		zw.Close()
		return nil, statusf("project has no generated images to export")
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	return &ExportArchive{
		Filename:    fmt.Sprintf("project_%s_images.zip", projectID.String()[:8]),
		ContentType: "application/zip",
		Data:        buf.Bytes(),
	}, nil
}
