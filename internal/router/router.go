// Package router assembles the gin engine and the API route table.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/xobi-ai/xobi/docs"
	"github.com/xobi-ai/xobi/internal/config"
	"github.com/xobi-ai/xobi/internal/middleware"
	"github.com/xobi-ai/xobi/internal/modules/handler"
	"github.com/xobi-ai/xobi/internal/modules/serializer"
)

type RouterDeps struct {
	Config *config.Config
	Log    *zap.Logger

	ProjectHandler       *handler.ProjectHandler
	PageHandler          *handler.PageHandler
	TaskHandler          *handler.TaskHandler
	MaterialHandler      *handler.MaterialHandler
	ReferenceFileHandler *handler.ReferenceFileHandler
	SettingHandler       *handler.SettingHandler
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if d.Config.Telemetry.Enabled {
		r.Use(middleware.OtelTracing(d.Config.App.Name))
		r.Use(middleware.TraceID())
	}

	r.Use(middleware.ZapLogger(d.Log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	{
		projects := api.Group("/projects")
		{
			projects.GET("", d.ProjectHandler.GetProjects)
			projects.POST("", d.ProjectHandler.CreateProject)

			projects.GET("/:project_id", d.ProjectHandler.GetProject)
			projects.PUT("/:project_id", d.ProjectHandler.UpdateProject)
			projects.DELETE("/:project_id", d.ProjectHandler.DeleteProject)

			projects.POST("/:project_id/template", d.ProjectHandler.UploadTemplate)
			projects.GET("/:project_id/export/:format", d.ProjectHandler.Export)
			projects.GET("/:project_id/tasks", d.TaskHandler.ListProjectTasks)

			projects.POST("/:project_id/pages", d.PageHandler.CreatePage)
			projects.PUT("/:project_id/pages/:page_id", d.PageHandler.UpdatePage)
			projects.DELETE("/:project_id/pages/:page_id", d.PageHandler.DeletePage)

			projects.POST("/:project_id/materials/:material_id", d.MaterialHandler.AssociateMaterial)
			projects.DELETE("/:project_id/materials/:material_id", d.MaterialHandler.DissociateMaterial)

			projects.GET("/:project_id/reference-files", d.ReferenceFileHandler.ListReferenceFiles)

			// Custom verbs such as pages:reorder carry a colon inside the
			// path segment, which gin would parse as a wildcard. They are
			// registered behind an action param and dispatched here.
			projects.POST("/:project_id/:action", dispatch(map[string]gin.HandlerFunc{
				"descriptions:generate": d.PageHandler.GenerateDescriptions,
				"images:generate":       d.PageHandler.GenerateImages,
			}))
			projects.PUT("/:project_id/:action", dispatch(map[string]gin.HandlerFunc{
				"pages:reorder": d.PageHandler.ReorderPages,
			}))
			projects.POST("/:project_id/pages/:page_id/:action", dispatch(map[string]gin.HandlerFunc{
				"description:regenerate": d.PageHandler.RegenerateDescription,
				"image:regenerate":       d.PageHandler.RegenerateImage,
				"image:select":           d.PageHandler.SelectImageVersion,
			}))
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET("/:project_id/:task_id", d.TaskHandler.GetTask)
		}

		materials := api.Group("/materials")
		{
			materials.GET("", d.MaterialHandler.ListMaterials)
			materials.POST("", d.MaterialHandler.UploadMaterial)
			materials.POST("/generate", d.MaterialHandler.GenerateMaterial)
			materials.POST("/:material_id/caption", d.MaterialHandler.CaptionMaterial)
			materials.DELETE("/:material_id", d.MaterialHandler.DeleteMaterial)
		}

		settings := api.Group("/settings")
		{
			settings.GET("", d.SettingHandler.GetSettings)
			settings.PUT("", d.SettingHandler.UpdateSettings)
			settings.POST("/reset", d.SettingHandler.ResetSettings)
		}

		files := api.Group("/reference-files")
		{
			files.POST("", d.ReferenceFileHandler.UploadReferenceFile)
			files.GET("/:file_id", d.ReferenceFileHandler.GetReferenceFile)
			files.DELETE("/:file_id", d.ReferenceFileHandler.DeleteReferenceFile)
		}
	}

	return r
}

func dispatch(actions map[string]gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h, ok := actions[c.Param("action")]; ok {
			h(c)
			return
		}
		serializer.AbortNotFound(c, "route")
	}
}
