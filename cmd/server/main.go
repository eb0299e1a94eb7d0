package main

//	@title			xobi API
//	@version		1.0
//	@description	AI assisted product deck generation service.
//	@schemes		http https
//	@BasePath		/api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xobi-ai/xobi/internal/bootstrap"
	"github.com/xobi-ai/xobi/internal/config"
	"github.com/xobi-ai/xobi/internal/infra/cache"
	dbpkg "github.com/xobi-ai/xobi/internal/infra/db"
	"github.com/xobi-ai/xobi/internal/modules/handler"
	"github.com/xobi-ai/xobi/internal/modules/service"
	"github.com/xobi-ai/xobi/internal/router"
	"github.com/xobi-ai/xobi/internal/telemetry"
)

func main() {
	// build dependency injection container
	inj := bootstrap.BuildContainer()

	cfg := do.MustInvoke[*config.Config](inj)
	log := do.MustInvoke[*zap.Logger](inj)
	db := do.MustInvoke[*gorm.DB](inj)
	rdb := do.MustInvoke[*redis.Client](inj)

	// Setup OpenTelemetry tracing (using configuration system)
	shutdownTracing, err := telemetry.SetupTracing(context.Background(), cfg)
	if err != nil {
		log.Sugar().Warnw("failed to setup tracing, continuing without tracing", "err", err)
	} else if shutdownTracing != nil {
		log.Sugar().Infow("OpenTelemetry tracing enabled", "endpoint", cfg.Telemetry.OtlpEndpoint)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				log.Sugar().Errorw("failed to shutdown tracer", "err", err)
			}
		}()

		// Register GORM OpenTelemetry plugin after tracer provider is set
		if err := dbpkg.RegisterOpenTelemetryPlugin(db); err != nil {
			log.Sugar().Warnw("failed to register GORM OpenTelemetry plugin, continuing without database tracing", "err", err)
		}

		// Register Redis OpenTelemetry plugin after tracer provider is set
		if err := cache.RegisterOpenTelemetryPlugin(rdb); err != nil {
			log.Sugar().Warnw("failed to register Redis OpenTelemetry plugin, continuing without Redis tracing", "err", err)
		}
	}

	// Hydrate stored setting overrides before anything reads the config.
	if _, err := do.MustInvoke[service.SettingService](inj).Get(context.Background()); err != nil {
		log.Sugar().Warnw("failed to load stored settings, using environment values", "err", err)
	}

	// init gin
	gin.SetMode(cfg.App.Env)

	engine := router.NewRouter(router.RouterDeps{
		Config:               cfg,
		Log:                  log,
		ProjectHandler:       do.MustInvoke[*handler.ProjectHandler](inj),
		PageHandler:          do.MustInvoke[*handler.PageHandler](inj),
		TaskHandler:          do.MustInvoke[*handler.TaskHandler](inj),
		MaterialHandler:      do.MustInvoke[*handler.MaterialHandler](inj),
		ReferenceFileHandler: do.MustInvoke[*handler.ReferenceFileHandler](inj),
		SettingHandler:       do.MustInvoke[*handler.SettingHandler](inj),
	})

	addr := fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port)
	srv := &http.Server{Addr: addr, Handler: engine}

	go func() {
		log.Sugar().Infow("starting http server", "addr", addr)
		log.Sugar().Infow("swagger url", "url", addr+"/swagger/index.html")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Sugar().Fatalw("listen error", "err", err)
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Sugar().Errorw("server shutdown", "err", err)
	}

	// drain in-flight generation jobs before the process exits
	pools := do.MustInvoke[*bootstrap.GenPools](inj)
	if err := pools.Text.Shutdown(ctx); err != nil {
		log.Sugar().Warnw("text pool shutdown", "err", err)
	}
	if err := pools.Image.Shutdown(ctx); err != nil {
		log.Sugar().Warnw("image pool shutdown", "err", err)
	}
	log.Sugar().Info("server exited")
}
