package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xobi-ai/xobi/internal/modules/serializer"
	"github.com/xobi-ai/xobi/internal/modules/service"
)

type MaterialHandler struct {
	svc service.MaterialService
	gen service.GenerationService
}

func NewMaterialHandler(svc service.MaterialService, gen service.GenerationService) *MaterialHandler {
	return &MaterialHandler{svc: svc, gen: gen}
}

// optionalProjectID reads a project_id form or query value; empty means
// global.
func optionalProjectID(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.PostForm("project_id")
	if raw == "" {
		raw = c.Query("project_id")
	}
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid project_id", err))
		return nil, false
	}
	return &id, true
}

// UploadMaterial godoc
//
//	@Summary		Upload material
//	@Description	Store an image in the material library, optionally associated with a project
//	@Tags			material
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file		formData	file	true	"Image file"
//	@Param			project_id	formData	string	false	"Project to associate"	format(uuid)
//	@Success		201			{object}	serializer.Response{data=model.Material}
//	@Router			/api/materials [post]
func (h *MaterialHandler) UploadMaterial(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("file is required", err))
		return
	}
	projectID, ok := optionalProjectID(c)
	if !ok {
		return
	}

	m, err := h.svc.Upload(c.Request.Context(), projectID, fh)
	if err != nil {
		respondErr(c, err, "project")
		return
	}
	c.JSON(http.StatusCreated, serializer.OK(m))
}

// ListMaterials godoc
//
//	@Summary		List materials
//	@Description	project_id scopes the list: a uuid, "none" for unassociated only, "all" or empty for everything
//	@Tags			material
//	@Produce		json
//	@Param			project_id	query		string	false	"Scope"
//	@Success		200			{object}	serializer.Response{data=[]model.Material}
//	@Router			/api/materials [get]
func (h *MaterialHandler) ListMaterials(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), c.Query("project_id"))
	if err != nil {
		respondErr(c, err, "material")
		return
	}
	c.JSON(http.StatusOK, serializer.OK(items))
}

type GenerateMaterialReq struct {
	ProjectID      string   `json:"project_id" format:"uuid"`
	Prompt         string   `json:"prompt" binding:"required"`
	AspectRatio    string   `json:"aspect_ratio" example:"1:1"`
	Resolution     string   `json:"resolution" example:"2K"`
	RefMaterialIDs []string `json:"ref_material_ids"`
}

// GenerateMaterial godoc
//
//	@Summary		Generate material
//	@Description	Start a standalone image generation into the material library; poll the returned task for material_id and image_url
//	@Tags			material
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.GenerateMaterialReq	true	"GenerateMaterial payload"
//	@Success		202	{object}	serializer.Response{data=model.Task}
//	@Router			/api/materials/generate [post]
func (h *MaterialHandler) GenerateMaterial(c *gin.Context) {
	req := GenerateMaterialReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	in := service.GenerateMaterialInput{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Resolution:  req.Resolution,
	}
	if req.ProjectID != "" {
		id, err := uuid.Parse(req.ProjectID)
		if err != nil {
			c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid project_id", err))
			return
		}
		in.ProjectID = &id
	}
	for _, raw := range req.RefMaterialIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid ref material id "+raw, err))
			return
		}
		in.RefMaterialIDs = append(in.RefMaterialIDs, id)
	}

	task, err := h.gen.GenerateMaterial(c.Request.Context(), in)
	if err != nil {
		respondErr(c, err, "material")
		return
	}
	c.JSON(http.StatusAccepted, serializer.Accepted(task.ID.String(), task))
}

// CaptionMaterial godoc
//
//	@Summary	Caption material
//	@Tags		material
//	@Produce	json
//	@Param		material_id	path		string	true	"Material ID"	format(uuid)
//	@Success	202			{object}	serializer.Response{data=model.Task}
//	@Router		/api/materials/{material_id}/caption [post]
func (h *MaterialHandler) CaptionMaterial(c *gin.Context) {
	materialID, ok := pathUUID(c, "material_id")
	if !ok {
		return
	}
	task, err := h.gen.CaptionMaterial(c.Request.Context(), materialID)
	if err != nil {
		respondErr(c, err, "material")
		return
	}
	c.JSON(http.StatusAccepted, serializer.Accepted(task.ID.String(), task))
}

// AssociateMaterial godoc
//
//	@Summary	Associate material with project
//	@Tags		material
//	@Produce	json
//	@Param		project_id	path		string	true	"Project ID"	format(uuid)
//	@Param		material_id	path		string	true	"Material ID"	format(uuid)
//	@Success	200			{object}	serializer.Response
//	@Router		/api/projects/{project_id}/materials/{material_id} [post]
func (h *MaterialHandler) AssociateMaterial(c *gin.Context) {
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}
	materialID, ok := pathUUID(c, "material_id")
	if !ok {
		return
	}
	if err := h.svc.Associate(c.Request.Context(), projectID, materialID); err != nil {
		respondErr(c, err, "material")
		return
	}
	c.JSON(http.StatusOK, serializer.OK(nil))
}

// DissociateMaterial godoc
//
//	@Summary		Remove material from project
//	@Description	Removes the association only; the material itself stays in the library
//	@Tags			material
//	@Produce		json
//	@Param			project_id	path		string	true	"Project ID"	format(uuid)
//	@Param			material_id	path		string	true	"Material ID"	format(uuid)
//	@Success		200			{object}	serializer.Response
//	@Router			/api/projects/{project_id}/materials/{material_id} [delete]
func (h *MaterialHandler) DissociateMaterial(c *gin.Context) {
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}
	materialID, ok := pathUUID(c, "material_id")
	if !ok {
		return
	}
	if err := h.svc.Dissociate(c.Request.Context(), projectID, materialID); err != nil {
		respondErr(c, err, "material")
		return
	}
	c.JSON(http.StatusOK, serializer.OK(nil))
}

// DeleteMaterial godoc
//
//	@Summary		Delete material
//	@Description	Refused with 409 while any project still references the material
//	@Tags			material
//	@Produce		json
//	@Param			material_id	path		string	true	"Material ID"	format(uuid)
//	@Success		200			{object}	serializer.Response
//	@Failure		409			{object}	serializer.Response
//	@Router			/api/materials/{material_id} [delete]
func (h *MaterialHandler) DeleteMaterial(c *gin.Context) {
	materialID, ok := pathUUID(c, "material_id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), materialID); err != nil {
		respondErr(c, err, "material")
		return
	}
	c.JSON(http.StatusOK, serializer.OK(nil))
}
