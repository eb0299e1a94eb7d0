package bootstrap

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xobi-ai/xobi/internal/config"
	"github.com/xobi-ai/xobi/internal/infra/ai"
	"github.com/xobi-ai/xobi/internal/infra/blob"
	"github.com/xobi-ai/xobi/internal/infra/cache"
	"github.com/xobi-ai/xobi/internal/infra/db"
	"github.com/xobi-ai/xobi/internal/infra/logger"
	"github.com/xobi-ai/xobi/internal/infra/workers"
	"github.com/xobi-ai/xobi/internal/modules/handler"
	"github.com/xobi-ai/xobi/internal/modules/model"
	"github.com/xobi-ai/xobi/internal/modules/repo"
	"github.com/xobi-ai/xobi/internal/modules/service"
)

// GenPools holds the two bounded pools that cap concurrent provider calls.
// Text covers outline, description, caption and parse jobs; Image covers
// renders.
type GenPools struct {
	Text  *workers.Pool
	Image *workers.Pool
}

func BuildContainer() *do.Injector {
	inj := do.New()

	// config
	do.Provide(inj, func(i *do.Injector) (*config.Config, error) {
		return config.Load()
	})

	// logger
	do.Provide(inj, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logger.New(cfg.Log.Level)
	})

	// DB
	do.Provide(inj, func(i *do.Injector) (*gorm.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		d, err := db.New(cfg)
		if err != nil {
			return nil, err
		}
		// [optional] auto migrate
		if cfg.Database.AutoMigrate {
			_ = d.AutoMigrate(
				&model.Project{},
				&model.Page{},
				&model.PageImageVersion{},
				&model.Task{},
				&model.Material{},
				&model.ProjectMaterial{},
				&model.ReferenceFile{},
				&model.Setting{},
			)
		}
		return d, nil
	})

	// Redis
	do.Provide(inj, func(i *do.Injector) (*redis.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return cache.New(cfg), nil
	})

	// S3
	do.Provide(inj, func(i *do.Injector) (*blob.S3Deps, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return blob.NewS3(context.Background(), cfg)
	})

	// AI providers
	do.Provide(inj, func(i *do.Injector) (service.ProviderFactory, error) {
		return ai.NewFactory(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	// Worker pools
	do.Provide(inj, func(i *do.Injector) (*GenPools, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		return &GenPools{
			Text:  workers.New("text", cfg.Gen.DescriptionWorkers, cfg.Gen.QueueSize, log),
			Image: workers.New("image", cfg.Gen.ImageWorkers, cfg.Gen.QueueSize, log),
		}, nil
	})

	// Repo
	do.Provide(inj, func(i *do.Injector) (repo.ProjectRepo, error) {
		return repo.NewProjectRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.PageRepo, error) {
		return repo.NewPageRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.TaskRepo, error) {
		return repo.NewTaskRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.MaterialRepo, error) {
		return repo.NewMaterialRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.ReferenceFileRepo, error) {
		return repo.NewReferenceFileRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.SettingRepo, error) {
		return repo.NewSettingRepo(do.MustInvoke[*gorm.DB](i)), nil
	})

	// Service
	do.Provide(inj, func(i *do.Injector) (service.TaskService, error) {
		return service.NewTaskService(
			do.MustInvoke[repo.TaskRepo](i),
			do.MustInvoke[*redis.Client](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ProjectService, error) {
		return service.NewProjectService(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[repo.PageRepo](i),
			do.MustInvoke[*blob.S3Deps](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.PageService, error) {
		return service.NewPageService(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
			do.MustInvoke[repo.PageRepo](i),
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[*blob.S3Deps](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.GenerationService, error) {
		pools := do.MustInvoke[*GenPools](i)
		return service.NewGenerationService(service.GenerationDeps{
			Cfg:       do.MustInvoke[*config.Config](i),
			Log:       do.MustInvoke[*zap.Logger](i),
			Tasks:     do.MustInvoke[service.TaskService](i),
			Projects:  do.MustInvoke[repo.ProjectRepo](i),
			Pages:     do.MustInvoke[repo.PageRepo](i),
			Materials: do.MustInvoke[repo.MaterialRepo](i),
			RefFiles:  do.MustInvoke[repo.ReferenceFileRepo](i),
			S3:        do.MustInvoke[*blob.S3Deps](i),
			Providers: do.MustInvoke[service.ProviderFactory](i),
			TextPool:  pools.Text,
			ImagePool: pools.Image,
		}), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.MaterialService, error) {
		return service.NewMaterialService(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
			do.MustInvoke[repo.MaterialRepo](i),
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[*blob.S3Deps](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ReferenceFileService, error) {
		return service.NewReferenceFileService(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
			do.MustInvoke[repo.ReferenceFileRepo](i),
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[*blob.S3Deps](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.SettingService, error) {
		return service.NewSettingService(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
			do.MustInvoke[repo.SettingRepo](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ExportService, error) {
		return service.NewExportService(
			do.MustInvoke[*zap.Logger](i),
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[*blob.S3Deps](i),
		), nil
	})

	// Handler
	do.Provide(inj, func(i *do.Injector) (*handler.ProjectHandler, error) {
		return handler.NewProjectHandler(
			do.MustInvoke[service.ProjectService](i),
			do.MustInvoke[service.GenerationService](i),
			do.MustInvoke[service.ExportService](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.PageHandler, error) {
		return handler.NewPageHandler(
			do.MustInvoke[service.PageService](i),
			do.MustInvoke[service.GenerationService](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.TaskHandler, error) {
		return handler.NewTaskHandler(do.MustInvoke[service.TaskService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.MaterialHandler, error) {
		return handler.NewMaterialHandler(
			do.MustInvoke[service.MaterialService](i),
			do.MustInvoke[service.GenerationService](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ReferenceFileHandler, error) {
		return handler.NewReferenceFileHandler(
			do.MustInvoke[service.ReferenceFileService](i),
			do.MustInvoke[service.GenerationService](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.SettingHandler, error) {
		return handler.NewSettingHandler(do.MustInvoke[service.SettingService](i)), nil
	})

	return inj
}
