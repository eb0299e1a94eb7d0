package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xobi-ai/xobi/internal/modules/serializer"
	"github.com/xobi-ai/xobi/internal/modules/service"
	"github.com/xobi-ai/xobi/internal/pkg/content"
)

type PageHandler struct {
	svc service.PageService
	gen service.GenerationService
}

func NewPageHandler(svc service.PageService, gen service.GenerationService) *PageHandler {
	return &PageHandler{svc: svc, gen: gen}
}

type CreatePageReq struct {
	OrderIndex *int             `json:"order_index"`
	Part       string           `json:"part"`
	Outline    *content.Outline `json:"outline"`
}

// CreatePage godoc
//
//	@Summary		Insert page
//	@Description	Insert a page at order_index (append when omitted); following pages shift up
//	@Tags			page
//	@Accept			json
//	@Produce		json
//	@Param			project_id	path	string					true	"Project ID"	format(uuid)
//	@Param			payload		body	handler.CreatePageReq	true	"CreatePage payload"
//	@Success		201	{object}	serializer.Response{data=model.Page}
//	@Router			/api/projects/{project_id}/pages [post]
func (h *PageHandler) CreatePage(c *gin.Context) {
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}
	req := CreatePageReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	idx := -1
	if req.OrderIndex != nil {
		idx = *req.OrderIndex
	}
	pg, err := h.svc.Insert(c.Request.Context(), projectID, service.InsertPageInput{
		OrderIndex: idx,
		Part:       req.Part,
		Outline:    req.Outline,
	})
	if err != nil {
		respondErr(c, err, "project")
		return
	}
	c.JSON(http.StatusCreated, serializer.OK(pg))
}

type UpdatePageReq struct {
	Part            *string          `json:"part"`
	AspectRatio     *string          `json:"aspect_ratio"`
	Outline         *content.Outline `json:"outline"`
	DescriptionText *string          `json:"description_text"`
}

// UpdatePage godoc
//
//	@Summary		Update page
//	@Description	Edit outline, description, part or aspect ratio. Edits do not invalidate generated content.
//	@Tags			page
//	@Accept			json
//	@Produce		json
//	@Param			project_id	path	string					true	"Project ID"	format(uuid)
//	@Param			page_id		path	string					true	"Page ID"		format(uuid)
//	@Param			payload		body	handler.UpdatePageReq	true	"Fields to update"
//	@Success		200	{object}	serializer.Response{data=model.Page}
//	@Failure		409	{object}	serializer.Response
//	@Router			/api/projects/{project_id}/pages/{page_id} [put]
func (h *PageHandler) UpdatePage(c *gin.Context) {
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}
	pageID, ok := pathUUID(c, "page_id")
	if !ok {
		return
	}
	req := UpdatePageReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	pg, err := h.svc.Update(c.Request.Context(), projectID, pageID, service.UpdatePageInput{
		Part:            req.Part,
		AspectRatio:     req.AspectRatio,
		Outline:         req.Outline,
		DescriptionText: req.DescriptionText,
	})
	if err != nil {
		respondErr(c, err, "page")
		return
	}
	c.JSON(http.StatusOK, serializer.OK(pg))
}

// DeletePage godoc
//
//	@Summary		Delete page
//	@Description	Remove a page; remaining pages renumber to stay contiguous
//	@Tags			page
//	@Produce		json
//	@Param			project_id	path		string	true	"Project ID"	format(uuid)
//	@Param			page_id		path		string	true	"Page ID"		format(uuid)
//	@Success		200			{object}	serializer.Response
//	@Router			/api/projects/{project_id}/pages/{page_id} [delete]
func (h *PageHandler) DeletePage(c *gin.Context) {
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}
	pageID, ok := pathUUID(c, "page_id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), projectID, pageID); err != nil {
		respondErr(c, err, "page")
		return
	}
	c.JSON(http.StatusOK, serializer.OK(nil))
}

type ReorderPagesReq struct {
	PageIDs []string `json:"page_ids" binding:"required"`
}

// ReorderPages godoc
//
//	@Summary		Reorder pages
//	@Description	Apply a full permutation of the project's pages
//	@Tags			page
//	@Accept			json
//	@Produce		json
//	@Param			project_id	path	string					true	"Project ID"	format(uuid)
//	@Param			payload		body	handler.ReorderPagesReq	true	"Every page ID in the new order"
//	@Success		200	{object}	serializer.Response{data=[]model.Page}
//	@Router			/api/projects/{project_id}/pages:reorder [put]
func (h *PageHandler) ReorderPages(c *gin.Context) {
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}
	req := ReorderPagesReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	ids := make([]uuid.UUID, 0, len(req.PageIDs))
	for _, raw := range req.PageIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid page id "+raw, err))
			return
		}
		ids = append(ids, id)
	}

	pages, err := h.svc.Reorder(c.Request.Context(), projectID, ids)
	if err != nil {
		respondErr(c, err, "page")
		return
	}
	c.JSON(http.StatusOK, serializer.OK(pages))
}

type SelectImageVersionReq struct {
	VersionID string `json:"version_id" binding:"required" format:"uuid"`
}

// SelectImageVersion godoc
//
//	@Summary		Select image version
//	@Description	Point the page at one of its stored image versions
//	@Tags			page
//	@Accept			json
//	@Produce		json
//	@Param			project_id	path	string							true	"Project ID"	format(uuid)
//	@Param			page_id		path	string							true	"Page ID"		format(uuid)
//	@Param			payload		body	handler.SelectImageVersionReq	true	"Version to make current"
//	@Success		200	{object}	serializer.Response{data=model.Page}
//	@Router			/api/projects/{project_id}/pages/{page_id}/image:select [post]
func (h *PageHandler) SelectImageVersion(c *gin.Context) {
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}
	pageID, ok := pathUUID(c, "page_id")
	if !ok {
		return
	}
	req := SelectImageVersionReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	versionID, err := uuid.Parse(req.VersionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid version_id", err))
		return
	}

	pg, err := h.svc.SetCurrentVersion(c.Request.Context(), projectID, pageID, versionID)
	if err != nil {
		respondErr(c, err, "page")
		return
	}
	c.JSON(http.StatusOK, serializer.OK(pg))
}

// GenerateDescriptions godoc
//
//	@Summary		Generate descriptions
//	@Description	Start a batch description task over every page with an outline
//	@Tags			generation
//	@Produce		json
//	@Param			project_id	path		string	true	"Project ID"	format(uuid)
//	@Success		202			{object}	serializer.Response{data=model.Task}
//	@Failure		409			{object}	serializer.Response
//	@Router			/api/projects/{project_id}/descriptions:generate [post]
func (h *PageHandler) GenerateDescriptions(c *gin.Context) {
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}
	task, err := h.gen.GenerateDescriptions(c.Request.Context(), projectID)
	if err != nil {
		respondErr(c, err, "project")
		return
	}
	c.JSON(http.StatusAccepted, serializer.Accepted(task.ID.String(), task))
}

// RegenerateDescription godoc
//
//	@Summary	Regenerate one page description
//	@Tags		generation
//	@Produce	json
//	@Param		project_id	path		string	true	"Project ID"	format(uuid)
//	@Param		page_id		path		string	true	"Page ID"		format(uuid)
//	@Success	202			{object}	serializer.Response{data=model.Task}
//	@Failure	409			{object}	serializer.Response
//	@Router		/api/projects/{project_id}/pages/{page_id}/description:regenerate [post]
func (h *PageHandler) RegenerateDescription(c *gin.Context) {
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}
	pageID, ok := pathUUID(c, "page_id")
	if !ok {
		return
	}
	task, err := h.gen.RegenerateDescription(c.Request.Context(), projectID, pageID)
	if err != nil {
		respondErr(c, err, "page")
		return
	}
	c.JSON(http.StatusAccepted, serializer.Accepted(task.ID.String(), task))
}

type GenerateImagesReq struct {
	PageIDs []string `json:"page_ids"`
}

// GenerateImages godoc
//
//	@Summary		Generate images
//	@Description	Start a batch image task over pages with descriptions; optional page_ids filter
//	@Tags			generation
//	@Accept			json
//	@Produce		json
//	@Param			project_id	path	string						true	"Project ID"	format(uuid)
//	@Param			payload		body	handler.GenerateImagesReq	false	"Optional page filter"
//	@Success		202	{object}	serializer.Response{data=model.Task}
//	@Failure		409	{object}	serializer.Response
//	@Router			/api/projects/{project_id}/images:generate [post]
func (h *PageHandler) GenerateImages(c *gin.Context) {
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}
	req := GenerateImagesReq{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
			return
		}
	}

	var ids []uuid.UUID
	for _, raw := range req.PageIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid page id "+raw, err))
			return
		}
		ids = append(ids, id)
	}

	task, err := h.gen.GenerateImages(c.Request.Context(), projectID, ids)
	if err != nil {
		respondErr(c, err, "project")
		return
	}
	c.JSON(http.StatusAccepted, serializer.Accepted(task.ID.String(), task))
}

// RegenerateImage godoc
//
//	@Summary		Regenerate one page image
//	@Description	Allowed from COMPLETED or FAILED; the new render becomes a new current version
//	@Tags			generation
//	@Produce		json
//	@Param			project_id	path		string	true	"Project ID"	format(uuid)
//	@Param			page_id		path		string	true	"Page ID"		format(uuid)
//	@Success		202			{object}	serializer.Response{data=model.Task}
//	@Failure		409			{object}	serializer.Response
//	@Router			/api/projects/{project_id}/pages/{page_id}/image:regenerate [post]
func (h *PageHandler) RegenerateImage(c *gin.Context) {
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}
	pageID, ok := pathUUID(c, "page_id")
	if !ok {
		return
	}
	task, err := h.gen.RegenerateImage(c.Request.Context(), projectID, pageID)
	if err != nil {
		respondErr(c, err, "page")
		return
	}
	c.JSON(http.StatusAccepted, serializer.Accepted(task.ID.String(), task))
}
