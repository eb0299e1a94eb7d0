package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/xobi-ai/xobi/internal/infra/ai"
	"github.com/xobi-ai/xobi/internal/infra/blob"
	"github.com/xobi-ai/xobi/internal/modules/model"
	"github.com/xobi-ai/xobi/internal/pkg/aspect"
	"github.com/xobi-ai/xobi/internal/pkg/content"
)

// GenerateImages renders pages. An empty pageIDs slice means every page of
// the project; pages without a description or already generating are
// skipped.
func (s *generationService) GenerateImages(ctx context.Context, projectID uuid.UUID, pageIDs []uuid.UUID) (*model.Task, error) {
	p, err := s.projects.GetWithPages(ctx, projectID)
	if err != nil {
		return nil, err
	}

	requested := map[uuid.UUID]bool{}
	for _, id := range pageIDs {
		requested[id] = true
	}

	var eligible []model.Page
	for i := range p.Pages {
		pg := p.Pages[i]
		if len(pageIDs) > 0 && !requested[pg.ID] {
			continue
		}
		if pg.Status == model.PageStatusGenerating {
			continue
		}
		if len(pg.DescriptionContent) == 0 {
			continue
		}
		eligible = append(eligible, pg)
	}
	if len(eligible) == 0 {
		return nil, statusf("no pages with a description to render")
	}

	for i := range eligible {
		if err := s.claimPage(ctx, eligible[i].ID); err != nil {
			return nil, err
		}
	}

	task, err := s.tasks.Create(ctx, projectID, model.TaskTypeGenerateImages, len(eligible))
	if err != nil {
		return nil, err
	}

	go s.runImageBatch(task.ID, p, eligible)
	return task, nil
}

// RegenerateImage re-renders a single page, adding a new image version.
func (s *generationService) RegenerateImage(ctx context.Context, projectID, pageID uuid.UUID) (*model.Task, error) {
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	pg, err := s.pages.Get(ctx, projectID, pageID)
	if err != nil {
		return nil, err
	}
	if pg.Status == model.PageStatusGenerating {
		return nil, statusf("page %s is already generating", pageID)
	}
	if len(pg.DescriptionContent) == 0 {
		return nil, statusf("page %s has no description", pageID)
	}
	if err := s.claimPage(ctx, pageID); err != nil {
		return nil, err
	}

	task, err := s.tasks.Create(ctx, projectID, model.TaskTypeGenerateSingleImage, 1)
	if err != nil {
		return nil, err
	}

	go s.runImageBatch(task.ID, p, []model.Page{*pg})
	return task, nil
}

// claimPage flips a page to GENERATING, making it the exclusive target of
// one render until that render reaches COMPLETED or FAILED.
func (s *generationService) claimPage(ctx context.Context, pageID uuid.UUID) error {
	return s.pages.UpdateColumns(ctx, pageID, map[string]any{
		"status":     model.PageStatusGenerating,
		"last_error": "",
	})
}

// runImageBatch is the coordinator for an image task. Per-page renders go
// through the image pool so the provider call cap holds across projects.
func (s *generationService) runImageBatch(taskID uuid.UUID, p *model.Project, pages []model.Page) {
	ctx := context.Background()
	if err := s.tasks.Start(ctx, taskID); err != nil {
		s.log.Sugar().Warnw("task start failed", "task_id", taskID, "err", err)
		return
	}

	// The template reference is shared by every page in the batch; fetch it
	// once here instead of per render.
	var template *ai.RefImage
	if p.TemplateImageKey != "" {
		if data, err := s.s3.Download(ctx, p.TemplateImageKey); err == nil {
			template = &ai.RefImage{MIME: http.DetectContentType(data), Data: data}
		} else {
			s.log.Sugar().Warnw("template image fetch failed", "project_id", p.ID, "err", err)
		}
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
		failed    int
	)
	account := func(err error) {
		mu.Lock()
		if err != nil {
			failed++
		} else {
			completed++
		}
		mu.Unlock()
		_ = s.tasks.UpdateProgress(ctx, taskID, func(pr *model.Progress) {
			if err != nil {
				pr.Failed++
			} else {
				pr.Completed++
			}
		})
	}

	for i := range pages {
		pg := pages[i]
		wg.Add(1)
		job := func(jctx context.Context) error {
			defer wg.Done()
			accounted := false
			// The pool recovers panics; make sure a unit that never
			// returned still counts as failed.
			defer func() {
				if !accounted {
					err := fmt.Errorf("page %s: image generation aborted", pg.ID)
					s.failPage(ctx, pg.ID, err)
					account(err)
				}
			}()
			err := s.renderPage(jctx, p, pg, template)
			accounted = true
			account(err)
			return err
		}
		if err := s.imagePool.Submit(job); err != nil {
			wg.Done()
			s.failPage(ctx, pg.ID, err)
			account(err)
		}
	}
	wg.Wait()

	mu.Lock()
	c, f := completed, failed
	mu.Unlock()
	// Settle the stored counters before the terminal write; Complete and
	// Fail leave the progress column untouched.
	_ = s.tasks.UpdateProgress(ctx, taskID, func(pr *model.Progress) {
		pr.Completed, pr.Failed = c, f
	})
	if c == 0 {
		_ = s.tasks.Fail(ctx, taskID, "all image generations failed")
		return
	}
	_ = s.tasks.Complete(ctx, taskID, map[string]any{"completed": c, "failed": f})
	s.refreshProjectStatus(ctx, p.ID)
}

// renderPage performs one image-model call, stores the result as the page's
// new current version and settles the page status.
func (s *generationService) renderPage(ctx context.Context, p *model.Project, pg model.Page, template *ai.RefImage) error {
	desc, err := content.ParseDescription(pg.DescriptionContent)
	if err != nil {
		s.failPage(ctx, pg.ID, err)
		return err
	}
	text, err := desc.Canonical()
	if err != nil {
		s.failPage(ctx, pg.ID, err)
		return err
	}

	ratio := aspect.Resolve(pg.AspectRatio, p.PageAspectRatio)
	if pg.OrderIndex == 0 {
		ratio = aspect.Resolve(pg.AspectRatio, p.CoverAspectRatio)
	}

	prompt := ai.BuildImagePrompt(ai.ImagePromptInput{
		DescriptionText: text,
		Part:            pg.Part,
		AspectRatio:     ratio,
		TemplateStyled:  template != nil,
		OutputLanguage:  s.cfg.AI.OutputLanguage,
	})

	req := ai.ImageRequest{
		Prompt:      prompt,
		AspectRatio: ratio,
		Resolution:  s.cfg.Gen.DefaultResolution,
	}
	if template != nil {
		req.RefImages = []ai.RefImage{*template}
	}

	img, err := s.providers.Image(p.ImageModel).GenerateImage(ctx, req)
	if err != nil {
		s.failPage(ctx, pg.ID, err)
		return err
	}

	// The page is GENERATING, so this job is its only writer and the next
	// version number is stable.
	next := 1
	for _, v := range pg.ImageVersions {
		if v.VersionNumber >= next {
			next = v.VersionNumber + 1
		}
	}
	key := blob.PageImageKey(p.ID, pg.ID, next)
	if _, err := s.s3.UploadBytes(ctx, key, img.MIME, img.Data); err != nil {
		s.failPage(ctx, pg.ID, err)
		return err
	}
	if _, err := s.pages.SetCurrentImage(ctx, pg.ID, key); err != nil {
		s.failPage(ctx, pg.ID, err)
		return err
	}

	return s.pages.UpdateColumns(ctx, pg.ID, map[string]any{
		"status":     model.PageStatusCompleted,
		"last_error": "",
	})
}

func (s *generationService) failPage(ctx context.Context, pageID uuid.UUID, cause error) {
	if err := s.pages.UpdateColumns(ctx, pageID, map[string]any{
		"status":     model.PageStatusFailed,
		"last_error": truncateErr(cause),
	}); err != nil {
		s.log.Sugar().Warnw("page fail update lost", "page_id", pageID, "err", err)
	}
}
