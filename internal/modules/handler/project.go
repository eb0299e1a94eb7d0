package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xobi-ai/xobi/internal/modules/model"
	"github.com/xobi-ai/xobi/internal/modules/serializer"
	"github.com/xobi-ai/xobi/internal/modules/service"
)

type ProjectHandler struct {
	svc    service.ProjectService
	gen    service.GenerationService
	export service.ExportService
}

func NewProjectHandler(svc service.ProjectService, gen service.GenerationService, export service.ExportService) *ProjectHandler {
	return &ProjectHandler{svc: svc, gen: gen, export: export}
}

type CreateProjectReq struct {
	CreationType      string `json:"creation_type" binding:"required" example:"idea"`
	IdeaPrompt        string `json:"idea_prompt"`
	OutlineText       string `json:"outline_text"`
	DescriptionText   string `json:"description_text"`
	ExtraRequirements string `json:"extra_requirements"`
	PageAspectRatio   string `json:"page_aspect_ratio" example:"3:4"`
	CoverAspectRatio  string `json:"cover_aspect_ratio" example:"1:1"`
	ImageModel        string `json:"image_model"`
}

// CreateProject godoc
//
//	@Summary		Create project
//	@Description	Create a project. For idea/description/ecom projects an outline generation task starts immediately; outline projects get their pages synchronously.
//	@Tags			project
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.CreateProjectReq	true	"CreateProject payload"
//	@Success		201	{object}	serializer.Response{data=model.Project}
//	@Success		202	{object}	serializer.Response{data=model.Project}
//	@Router			/api/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	req := CreateProjectReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	p, err := h.svc.Create(c.Request.Context(), service.CreateProjectInput{
		CreationType:      req.CreationType,
		IdeaPrompt:        req.IdeaPrompt,
		OutlineText:       req.OutlineText,
		DescriptionText:   req.DescriptionText,
		ExtraRequirements: req.ExtraRequirements,
		PageAspectRatio:   req.PageAspectRatio,
		CoverAspectRatio:  req.CoverAspectRatio,
		ImageModel:        req.ImageModel,
	})
	if err != nil {
		respondErr(c, err, "project")
		return
	}

	if p.CreationType == model.CreationTypeOutline {
		c.JSON(http.StatusCreated, serializer.OK(p))
		return
	}

	task, err := h.gen.GenerateOutline(c.Request.Context(), p.ID)
	if err != nil {
		// Without its outline task the fresh project would sit in DRAFT
		// with no pages and no way to retry; roll the row back so the
		// client can re-submit.
		_ = h.svc.Delete(c.Request.Context(), p.ID)
		respondErr(c, err, "project")
		return
	}
	c.JSON(http.StatusAccepted, serializer.Accepted(task.ID.String(), p))
}

// GetProjects godoc
//
//	@Summary	List projects
//	@Tags		project
//	@Produce	json
//	@Success	200	{object}	serializer.Response{data=[]model.Project}
//	@Router		/api/projects [get]
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondErr(c, err, "project")
		return
	}
	c.JSON(http.StatusOK, serializer.OK(items))
}

// GetProject godoc
//
//	@Summary		Get project
//	@Description	Project with ordered pages, image versions and derived status
//	@Tags			project
//	@Produce		json
//	@Param			project_id	path		string	true	"Project ID"	format(uuid)
//	@Success		200			{object}	serializer.Response{data=model.Project}
//	@Router			/api/projects/{project_id} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), projectID)
	if err != nil {
		respondErr(c, err, "project")
		return
	}
	c.JSON(http.StatusOK, serializer.OK(p))
}

type UpdateProjectReq struct {
	IdeaPrompt        *string `json:"idea_prompt"`
	OutlineText       *string `json:"outline_text"`
	DescriptionText   *string `json:"description_text"`
	ExtraRequirements *string `json:"extra_requirements"`
	PageAspectRatio   *string `json:"page_aspect_ratio"`
	CoverAspectRatio  *string `json:"cover_aspect_ratio"`
	ImageModel        *string `json:"image_model"`
}

// UpdateProject godoc
//
//	@Summary	Update project inputs
//	@Tags		project
//	@Accept		json
//	@Produce	json
//	@Param		project_id	path	string						true	"Project ID"	format(uuid)
//	@Param		payload		body	handler.UpdateProjectReq	true	"Fields to update"
//	@Success	200	{object}	serializer.Response{data=model.Project}
//	@Router		/api/projects/{project_id} [put]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}
	req := UpdateProjectReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	p, err := h.svc.Update(c.Request.Context(), projectID, service.UpdateProjectInput{
		IdeaPrompt:        req.IdeaPrompt,
		OutlineText:       req.OutlineText,
		DescriptionText:   req.DescriptionText,
		ExtraRequirements: req.ExtraRequirements,
		PageAspectRatio:   req.PageAspectRatio,
		CoverAspectRatio:  req.CoverAspectRatio,
		ImageModel:        req.ImageModel,
	})
	if err != nil {
		respondErr(c, err, "project")
		return
	}
	c.JSON(http.StatusOK, serializer.OK(p))
}

// DeleteProject godoc
//
//	@Summary	Delete project
//	@Tags		project
//	@Produce	json
//	@Param		project_id	path		string	true	"Project ID"	format(uuid)
//	@Success	200			{object}	serializer.Response
//	@Router		/api/projects/{project_id} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), projectID); err != nil {
		respondErr(c, err, "project")
		return
	}
	c.JSON(http.StatusOK, serializer.OK(nil))
}

// UploadTemplate godoc
//
//	@Summary		Upload template image
//	@Description	Style reference attached to every image generation of the project
//	@Tags			project
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			project_id	path		string	true	"Project ID"	format(uuid)
//	@Param			file		formData	file	true	"Template image"
//	@Success		200			{object}	serializer.Response{data=model.Project}
//	@Router			/api/projects/{project_id}/template [post]
func (h *ProjectHandler) UploadTemplate(c *gin.Context) {
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("file is required", err))
		return
	}
	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("template must be an image", nil))
		return
	}

	p, err := h.svc.UploadTemplate(c.Request.Context(), projectID, fh)
	if err != nil {
		respondErr(c, err, "project")
		return
	}
	c.JSON(http.StatusOK, serializer.OK(p))
}

// Export godoc
//
//	@Summary		Export project
//	@Description	format=images streams a ZIP of current page images; pptx and pdf are not available yet
//	@Tags			project
//	@Produce		application/zip
//	@Param			project_id	path	string	true	"Project ID"	format(uuid)
//	@Param			format		path	string	true	"Export format"	Enums(images, pptx, pdf)
//	@Param			page_ids	query	string	false	"Comma separated page IDs to include"
//	@Success		200	{file}		binary
//	@Failure		400	{object}	serializer.Response
//	@Router			/api/projects/{project_id}/export/{format} [get]
func (h *ProjectHandler) Export(c *gin.Context) {
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}

	var pageIDs []uuid.UUID
	if raw := c.Query("page_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid page_ids", err))
				return
			}
			pageIDs = append(pageIDs, id)
		}
	}

	archive, err := h.export.Export(c.Request.Context(), projectID, c.Param("format"), pageIDs)
	if err != nil {
		respondErr(c, err, "project")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archive.Filename))
	c.Data(http.StatusOK, archive.ContentType, archive.Data)
}
