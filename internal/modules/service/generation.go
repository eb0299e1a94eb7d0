package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/xobi-ai/xobi/internal/config"
	"github.com/xobi-ai/xobi/internal/infra/ai"
	"github.com/xobi-ai/xobi/internal/infra/blob"
	"github.com/xobi-ai/xobi/internal/infra/workers"
	"github.com/xobi-ai/xobi/internal/modules/model"
	"github.com/xobi-ai/xobi/internal/modules/repo"
	"github.com/xobi-ai/xobi/internal/pkg/content"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ProviderFactory narrows ai.Factory so generation jobs can run against
// mocks in tests.
type ProviderFactory interface {
	Text() ai.TextProvider
	Captioner() ai.TextProvider
	Image(model string) ai.ImageProvider
}

// GenerationService starts background AI jobs. Every method creates a task
// record, hands the work to a pool and returns the task immediately; clients
// follow progress by polling the task endpoints.
type GenerationService interface {
	GenerateOutline(ctx context.Context, projectID uuid.UUID) (*model.Task, error)
	GenerateDescriptions(ctx context.Context, projectID uuid.UUID) (*model.Task, error)
	RegenerateDescription(ctx context.Context, projectID, pageID uuid.UUID) (*model.Task, error)
	GenerateImages(ctx context.Context, projectID uuid.UUID, pageIDs []uuid.UUID) (*model.Task, error)
	RegenerateImage(ctx context.Context, projectID, pageID uuid.UUID) (*model.Task, error)
	GenerateMaterial(ctx context.Context, in GenerateMaterialInput) (*model.Task, error)
	CaptionMaterial(ctx context.Context, materialID uuid.UUID) (*model.Task, error)
	ParseReferenceFile(ctx context.Context, fileID uuid.UUID) (*model.Task, error)
}

type generationService struct {
	cfg *config.Config
	log *zap.Logger

	tasks     TaskService
	projects  repo.ProjectRepo
	pages     repo.PageRepo
	materials repo.MaterialRepo
	refFiles  repo.ReferenceFileRepo
	s3        *blob.S3Deps
	providers ProviderFactory

	textPool  *workers.Pool
	imagePool *workers.Pool
}

// GenerationDeps bundles the generation service's collaborators.
type GenerationDeps struct {
	Cfg       *config.Config
	Log       *zap.Logger
	Tasks     TaskService
	Projects  repo.ProjectRepo
	Pages     repo.PageRepo
	Materials repo.MaterialRepo
	RefFiles  repo.ReferenceFileRepo
	S3        *blob.S3Deps
	Providers ProviderFactory
	TextPool  *workers.Pool
	ImagePool *workers.Pool
}

func NewGenerationService(d GenerationDeps) GenerationService {
	return &generationService{
		cfg:       d.Cfg,
		log:       d.Log,
		tasks:     d.Tasks,
		projects:  d.Projects,
		pages:     d.Pages,
		materials: d.Materials,
		refFiles:  d.RefFiles,
		s3:        d.S3,
		providers: d.Providers,
		textPool:  d.TextPool,
		imagePool: d.ImagePool,
	}
}

const maxErrLen = 500

func truncateErr(err error) string {
	msg := err.Error()
	if len(msg) > maxErrLen {
		return msg[:maxErrLen]
	}
	return msg
}

// referenceDocs collects the parsed reference files attached to a project.
func (s *generationService) referenceDocs(ctx context.Context, projectID uuid.UUID) []ai.ReferenceDoc {
	files, err := s.refFiles.ListByProject(ctx, projectID)
	if err != nil {
		s.log.Sugar().Warnw("list reference files failed", "project_id", projectID, "err", err)
		return nil
	}
	var docs []ai.ReferenceDoc
	for i := range files {
		f := &files[i]
		if f.ParseStatus == model.ParseStatusCompleted && f.MarkdownContent != "" {
			docs = append(docs, ai.ReferenceDoc{Filename: f.Filename, Content: f.MarkdownContent})
		}
	}
	return docs
}

// GenerateOutline plans the page set for a project. Any existing pages are
// replaced.
func (s *generationService) GenerateOutline(ctx context.Context, projectID uuid.UUID) (*model.Task, error) {
	p, err := s.projects.GetWithPages(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for i := range p.Pages {
		if p.Pages[i].Status == model.PageStatusGenerating {
			return nil, statusf("project has pages generating")
		}
	}

	task, err := s.tasks.Create(ctx, projectID, model.TaskTypeGenerateOutline, 1)
	if err != nil {
		return nil, err
	}

	docs := s.referenceDocs(ctx, projectID)
	job := func(jctx context.Context) error {
		return s.runOutlineJob(jctx, task.ID, p, docs)
	}
	if err := s.textPool.Submit(job); err != nil {
		_ = s.tasks.Fail(ctx, task.ID, err.Error())
		return nil, err
	}
	return task, nil
}

func (s *generationService) runOutlineJob(ctx context.Context, taskID uuid.UUID, p *model.Project, docs []ai.ReferenceDoc) error {
	if err := s.tasks.Start(ctx, taskID); err != nil {
		return err
	}

	prompt := ai.BuildOutlinePrompt(ai.OutlineInput{
		IdeaPrompt:        p.IdeaPrompt,
		DescriptionText:   p.DescriptionText,
		ExtraRequirements: p.ExtraRequirements,
		ReferenceDocs:     docs,
		OutputLanguage:    s.cfg.AI.OutputLanguage,
	})

	raw, err := s.providers.Text().GenerateText(ctx, prompt)
	if err != nil {
		return s.tasks.Fail(ctx, taskID, truncateErr(err))
	}
	outlines, err := content.ParseOutlineList(raw)
	if err != nil {
		return s.tasks.Fail(ctx, taskID, "outline parse failed: "+truncateErr(err))
	}

	pages := make([]model.Page, 0, len(outlines))
	for i, o := range outlines {
		doc, merr := sonic.Marshal(o)
		if merr != nil {
			return s.tasks.Fail(ctx, taskID, truncateErr(merr))
		}
		pages = append(pages, model.Page{
			ProjectID:      p.ID,
			OrderIndex:     i,
			OutlineContent: datatypes.JSON(doc),
			Status:         model.PageStatusDraft,
		})
	}

	if err := s.pages.ReplaceAll(ctx, p.ID, pages); err != nil {
		return s.tasks.Fail(ctx, taskID, truncateErr(err))
	}
	if err := s.projects.UpdateColumns(ctx, p.ID, map[string]any{
		"outline_text": raw,
		"status":       model.ProjectStatusOutlineGenerated,
	}); err != nil {
		s.log.Sugar().Warnw("project status update failed", "project_id", p.ID, "err", err)
	}

	_ = s.tasks.UpdateProgress(ctx, taskID, func(pr *model.Progress) { pr.Completed = 1 })
	return s.tasks.Complete(ctx, taskID, map[string]any{"page_count": len(pages)})
}

// GenerateDescriptions writes copy for every page that has an outline and is
// not mid-generation.
func (s *generationService) GenerateDescriptions(ctx context.Context, projectID uuid.UUID) (*model.Task, error) {
	p, err := s.projects.GetWithPages(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var eligible []model.Page
	for i := range p.Pages {
		pg := p.Pages[i]
		if pg.Status == model.PageStatusGenerating {
			continue
		}
		if len(pg.OutlineContent) == 0 {
			continue
		}
		eligible = append(eligible, pg)
	}
	if len(eligible) == 0 {
		return nil, statusf("no pages with an outline to describe")
	}

	task, err := s.tasks.Create(ctx, projectID, model.TaskTypeGenerateDescriptions, len(eligible))
	if err != nil {
		return nil, err
	}

	go s.runDescriptionBatch(task.ID, p, eligible, len(p.Pages))
	return task, nil
}

// RegenerateDescription rewrites the copy of one page.
func (s *generationService) RegenerateDescription(ctx context.Context, projectID, pageID uuid.UUID) (*model.Task, error) {
	p, err := s.projects.GetWithPages(ctx, projectID)
	if err != nil {
		return nil, err
	}
	pg, err := s.pages.Get(ctx, projectID, pageID)
	if err != nil {
		return nil, err
	}
	if pg.Status == model.PageStatusGenerating {
		return nil, statusf("page %s is generating", pageID)
	}
	if len(pg.OutlineContent) == 0 {
		return nil, statusf("page %s has no outline", pageID)
	}

	task, err := s.tasks.Create(ctx, projectID, model.TaskTypeGenerateDescriptions, 1)
	if err != nil {
		return nil, err
	}

	go s.runDescriptionBatch(task.ID, p, []model.Page{*pg}, len(p.Pages))
	return task, nil
}

// runDescriptionBatch is the coordinator for a description task. It runs
// outside the pools; only the per-page provider calls consume text workers,
// so the worker cap bounds provider concurrency and a wide batch cannot
// starve the coordinator.
func (s *generationService) runDescriptionBatch(taskID uuid.UUID, p *model.Project, pages []model.Page, pageCount int) {
	ctx := context.Background()
	if err := s.tasks.Start(ctx, taskID); err != nil {
		s.log.Sugar().Warnw("task start failed", "task_id", taskID, "err", err)
		return
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
					account(fmt.Errorf("page %s: description generation aborted", pg.ID))
				}
			}()
			err := s.describePage(jctx, p, pg, pageCount)
			accounted = true
			account(err)
			return err
		}
		if err := s.textPool.Submit(job); err != nil {
			wg.Done()
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
		_ = s.tasks.Fail(ctx, taskID, "all description generations failed")
		return
	}
	_ = s.tasks.Complete(ctx, taskID, map[string]any{"completed": c, "failed": f})
	s.refreshProjectStatus(ctx, p.ID)
}

// describePage performs one text-model call and stores the result.
func (s *generationService) describePage(ctx context.Context, p *model.Project, pg model.Page, pageCount int) error {
	var outline content.Outline
	if err := sonic.Unmarshal(pg.OutlineContent, &outline); err != nil {
		_ = s.pages.UpdateColumns(ctx, pg.ID, map[string]any{"last_error": truncateErr(err)})
		return err
	}

	prompt := ai.BuildDescriptionPrompt(ai.DescriptionInput{
		Outline:           outline,
		PageIndex:         pg.OrderIndex,
		PageCount:         pageCount,
		IdeaPrompt:        p.IdeaPrompt,
		ExtraRequirements: p.ExtraRequirements,
		OutputLanguage:    s.cfg.AI.OutputLanguage,
	})

	text, err := s.providers.Text().GenerateText(ctx, prompt)
	if err != nil {
		_ = s.pages.UpdateColumns(ctx, pg.ID, map[string]any{"last_error": truncateErr(err)})
		return err
	}

	doc, err := sonic.Marshal(content.FreeText(text))
	if err != nil {
		return err
	}
	cols := map[string]any{
		"description_content": datatypes.JSON(doc),
		"last_error":          "",
	}
	// A page with a rendered image keeps its COMPLETED status; the new copy
	// only takes visual effect on the next image generation.
	if pg.Status != model.PageStatusCompleted {
		cols["status"] = model.PageStatusDescriptionGenerated
	}
	return s.pages.UpdateColumns(ctx, pg.ID, cols)
}

// refreshProjectStatus re-derives and stores the project stage after a batch.
func (s *generationService) refreshProjectStatus(ctx context.Context, projectID uuid.UUID) {
	pages, err := s.pages.ListByProject(ctx, projectID)
	if err != nil {
		return
	}
	status := model.DerivedStatus(pages)
	if err := s.projects.UpdateColumns(ctx, projectID, map[string]any{"status": status}); err != nil {
		s.log.Sugar().Warnw("project status update failed", "project_id", projectID, "err", err)
	}
}
