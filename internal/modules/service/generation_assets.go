package service

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/xobi-ai/xobi/internal/infra/ai"
	"github.com/xobi-ai/xobi/internal/infra/blob"
	"github.com/xobi-ai/xobi/internal/modules/model"
	"github.com/xobi-ai/xobi/internal/pkg/aspect"
)

// GenerateMaterialInput describes a standalone material generation. A nil
// ProjectID produces a global material.
type GenerateMaterialInput struct {
	ProjectID   *uuid.UUID
	Prompt      string
	AspectRatio string
	Resolution  string
	// Existing materials attached as reference images.
	RefMaterialIDs []uuid.UUID
}

// GenerateMaterial renders a single standalone image into the material
// library.
func (s *generationService) GenerateMaterial(ctx context.Context, in GenerateMaterialInput) (*model.Task, error) {
	if strings.TrimSpace(in.Prompt) == "" {
		return nil, validationf("prompt is required")
	}
	ratio, err := aspect.Normalize(in.AspectRatio)
	if err != nil {
		return nil, validationf("aspect_ratio: expected W:H")
	}
	if ratio == "" {
		ratio = s.cfg.Gen.DefaultPageAspectRatio
	}
	resolution := in.Resolution
	if resolution == "" {
		resolution = s.cfg.Gen.DefaultResolution
	}

	scope := uuid.Nil
	var imageModel string
	if in.ProjectID != nil {
		p, err := s.projects.Get(ctx, *in.ProjectID)
		if err != nil {
			return nil, err
		}
		scope = p.ID
		imageModel = p.ImageModel
	}

	var refs []ai.RefImage
	for _, id := range in.RefMaterialIDs {
		m, err := s.materials.Get(ctx, id)
		if err != nil {
			return nil, validationf("reference material %s not found", id)
		}
		data, err := s.s3.Download(ctx, m.ObjectKey)
		if err != nil {
			return nil, fmt.Errorf("fetch reference material %s: %w", id, err)
		}
		refs = append(refs, ai.RefImage{MIME: http.DetectContentType(data), Data: data})
	}

	task, err := s.tasks.Create(ctx, scope, model.TaskTypeGenerateMaterial, 1)
	if err != nil {
		return nil, err
	}

	req := ai.ImageRequest{
		Prompt:      in.Prompt,
		AspectRatio: ratio,
		Resolution:  resolution,
		RefImages:   refs,
	}
	projectID := in.ProjectID
	job := func(jctx context.Context) error {
		return s.runMaterialJob(jctx, task.ID, projectID, imageModel, in.Prompt, req)
	}
	if err := s.imagePool.Submit(job); err != nil {
		_ = s.tasks.Fail(ctx, task.ID, err.Error())
		return nil, err
	}
	return task, nil
}

func (s *generationService) runMaterialJob(ctx context.Context, taskID uuid.UUID, projectID *uuid.UUID, imageModel, prompt string, req ai.ImageRequest) error {
	if err := s.tasks.Start(ctx, taskID); err != nil {
		return err
	}

	img, err := s.providers.Image(imageModel).GenerateImage(ctx, req)
	if err != nil {
		return s.tasks.Fail(ctx, taskID, truncateErr(err))
	}

	filename := fmt.Sprintf("generated_%s.jpg", time.Now().UTC().Format("20060102T150405"))
	key := blob.MaterialKey(filename)
	if _, err := s.s3.UploadBytes(ctx, key, img.MIME, img.Data); err != nil {
		return s.tasks.Fail(ctx, taskID, truncateErr(err))
	}

	m := &model.Material{
		Filename:      filename,
		ObjectKey:     key,
		MIME:          img.MIME,
		SizeB:         int64(len(img.Data)),
		Source:        model.MaterialSourceGenerated,
		Caption:       prompt,
		CaptionStatus: model.ParseStatusCompleted,
	}
	if err := s.materials.Create(ctx, m, projectID); err != nil {
		return s.tasks.Fail(ctx, taskID, truncateErr(err))
	}

	result := map[string]any{"material_id": m.ID.String()}
	if url, perr := s.s3.PresignGet(ctx, key, presignDuration(s.cfg)); perr == nil {
		result["image_url"] = url
	}
	_ = s.tasks.UpdateProgress(ctx, taskID, func(pr *model.Progress) { pr.Completed = 1 })
	return s.tasks.Complete(ctx, taskID, result)
}

// CaptionMaterial asks the vision model for a one-line caption of an
// existing material.
func (s *generationService) CaptionMaterial(ctx context.Context, materialID uuid.UUID) (*model.Task, error) {
	m, err := s.materials.Get(ctx, materialID)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.Create(ctx, uuid.Nil, model.TaskTypeCaptionImage, 1)
	if err != nil {
		return nil, err
	}
	if err := s.materials.UpdateCaption(ctx, m.ID, m.Caption, model.ParseStatusParsing); err != nil {
		s.log.Sugar().Warnw("caption status update failed", "material_id", m.ID, "err", err)
	}

	job := func(jctx context.Context) error {
		return s.runCaptionJob(jctx, task.ID, m)
	}
	if err := s.textPool.Submit(job); err != nil {
		_ = s.tasks.Fail(ctx, task.ID, err.Error())
		return nil, err
	}
	return task, nil
}

func (s *generationService) runCaptionJob(ctx context.Context, taskID uuid.UUID, m *model.Material) error {
	if err := s.tasks.Start(ctx, taskID); err != nil {
		return err
	}

	data, err := s.s3.Download(ctx, m.ObjectKey)
	if err != nil {
		_ = s.materials.UpdateCaption(ctx, m.ID, m.Caption, model.ParseStatusFailed)
		return s.tasks.Fail(ctx, taskID, truncateErr(err))
	}

	caption, err := s.providers.Captioner().Caption(ctx, ai.RefImage{
		MIME: http.DetectContentType(data),
		Data: data,
	}, ai.CaptionPrompt)
	if err != nil {
		_ = s.materials.UpdateCaption(ctx, m.ID, m.Caption, model.ParseStatusFailed)
		return s.tasks.Fail(ctx, taskID, truncateErr(err))
	}

	caption = strings.TrimSpace(caption)
	if err := s.materials.UpdateCaption(ctx, m.ID, caption, model.ParseStatusCompleted); err != nil {
		return s.tasks.Fail(ctx, taskID, truncateErr(err))
	}

	_ = s.tasks.UpdateProgress(ctx, taskID, func(pr *model.Progress) { pr.Completed = 1 })
	return s.tasks.Complete(ctx, taskID, map[string]any{"caption": caption})
}

// ParseReferenceFile extracts document text into markdown for prompt use.
func (s *generationService) ParseReferenceFile(ctx context.Context, fileID uuid.UUID) (*model.Task, error) {
	f, err := s.refFiles.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if f.ParseStatus == model.ParseStatusParsing {
		return nil, statusf("file %s is already parsing", fileID)
	}

	scope := uuid.Nil
	if f.ProjectID != nil {
		scope = *f.ProjectID
	}
	task, err := s.tasks.Create(ctx, scope, model.TaskTypeParseFile, 1)
	if err != nil {
		return nil, err
	}

	job := func(jctx context.Context) error {
		return s.runParseJob(jctx, task.ID, f)
	}
	if err := s.textPool.Submit(job); err != nil {
		_ = s.tasks.Fail(ctx, task.ID, err.Error())
		return nil, err
	}
	return task, nil
}

func (s *generationService) runParseJob(ctx context.Context, taskID uuid.UUID, f *model.ReferenceFile) error {
	if err := s.tasks.Start(ctx, taskID); err != nil {
		return err
	}
	if err := s.refFiles.UpdateParse(ctx, f.ID, model.ParseStatusParsing, "", ""); err != nil {
		return s.tasks.Fail(ctx, taskID, truncateErr(err))
	}

	data, err := s.s3.Download(ctx, f.ObjectKey)
	if err != nil {
		_ = s.refFiles.UpdateParse(ctx, f.ID, model.ParseStatusFailed, "", truncateErr(err))
		return s.tasks.Fail(ctx, taskID, truncateErr(err))
	}

	markdown, err := extractText(f.FileType, data)
	if err != nil {
		_ = s.refFiles.UpdateParse(ctx, f.ID, model.ParseStatusFailed, "", truncateErr(err))
		return s.tasks.Fail(ctx, taskID, truncateErr(err))
	}

	if err := s.refFiles.UpdateParse(ctx, f.ID, model.ParseStatusCompleted, markdown, ""); err != nil {
		return s.tasks.Fail(ctx, taskID, truncateErr(err))
	}
	_ = s.tasks.UpdateProgress(ctx, taskID, func(pr *model.Progress) { pr.Completed = 1 })
	return s.tasks.Complete(ctx, taskID, map[string]any{"chars": len(markdown)})
}

// extractText pulls plain text out of a stored document. Plain text formats
// pass through; PDFs and Word documents go through their readers.
func extractText(fileType string, data []byte) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(fileType, ".")) {
	case "txt", "md", "markdown":
		return strings.TrimSpace(string(data)), nil
	case "pdf":
		r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return "", fmt.Errorf("open pdf: %w", err)
		}
		plain, err := r.GetPlainText()
		if err != nil {
			return "", fmt.Errorf("extract pdf text: %w", err)
		}
		var b strings.Builder
		if _, err := io.Copy(&b, plain); err != nil {
			return "", err
		}
		text := strings.TrimSpace(b.String())
		if text == "" {
			return "", fmt.Errorf("pdf contains no extractable text")
		}
		return text, nil
	case "docx":
		d, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return "", fmt.Errorf("open docx: %w", err)
		}
		defer d.Close()
		text := docxPlainText(d.Editable().GetContent())
		if text == "" {
			return "", fmt.Errorf("docx contains no extractable text")
		}
		return text, nil
	default:
		return "", fmt.Errorf("unsupported file type %q", fileType)
	}
}

var docxTagRe = regexp.MustCompile(`<[^>]+>`)

// docxPlainText flattens word/document.xml into paragraph-per-line text.
func docxPlainText(raw string) string {
	raw = strings.ReplaceAll(raw, "</w:p>", "\n")
	raw = docxTagRe.ReplaceAllString(raw, "")
	raw = html.UnescapeString(raw)

	lines := make([]string, 0, 16)
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
