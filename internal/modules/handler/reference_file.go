package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xobi-ai/xobi/internal/modules/serializer"
	"github.com/xobi-ai/xobi/internal/modules/service"
)

type ReferenceFileHandler struct {
	svc service.ReferenceFileService
	gen service.GenerationService
}

func NewReferenceFileHandler(svc service.ReferenceFileService, gen service.GenerationService) *ReferenceFileHandler {
	return &ReferenceFileHandler{svc: svc, gen: gen}
}

// UploadReferenceFile godoc
//
//	@Summary		Upload reference file
//	@Description	Store a document (txt/md/pdf) and start its parse task; parsed content feeds outline prompts
//	@Tags			reference-file
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file		formData	file	true	"Document file"
//	@Param			project_id	formData	string	false	"Project to attach"	format(uuid)
//	@Success		202			{object}	serializer.Response{data=model.ReferenceFile}
//	@Router			/api/reference-files [post]
func (h *ReferenceFileHandler) UploadReferenceFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("file is required", err))
		return
	}
	projectID, ok := optionalProjectID(c)
	if !ok {
		return
	}

	f, err := h.svc.Upload(c.Request.Context(), projectID, fh)
	if err != nil {
		respondErr(c, err, "project")
		return
	}

	task, err := h.gen.ParseReferenceFile(c.Request.Context(), f.ID)
	if err != nil {
		respondErr(c, err, "reference file")
		return
	}
	c.JSON(http.StatusAccepted, serializer.Accepted(task.ID.String(), f))
}

// GetReferenceFile godoc
//
//	@Summary	Get reference file
//	@Tags		reference-file
//	@Produce	json
//	@Param		file_id	path		string	true	"Reference file ID"	format(uuid)
//	@Success	200		{object}	serializer.Response{data=model.ReferenceFile}
//	@Router		/api/reference-files/{file_id} [get]
func (h *ReferenceFileHandler) GetReferenceFile(c *gin.Context) {
	fileID, ok := pathUUID(c, "file_id")
	if !ok {
		return
	}
	f, err := h.svc.Get(c.Request.Context(), fileID)
	if err != nil {
		respondErr(c, err, "reference file")
		return
	}
	c.JSON(http.StatusOK, serializer.OK(f))
}

// ListReferenceFiles godoc
//
//	@Summary	List project reference files
//	@Tags		reference-file
//	@Produce	json
//	@Param		project_id	path		string	true	"Project ID"	format(uuid)
//	@Success	200			{object}	serializer.Response{data=[]model.ReferenceFile}
//	@Router		/api/projects/{project_id}/reference-files [get]
func (h *ReferenceFileHandler) ListReferenceFiles(c *gin.Context) {
	projectID, ok := pathUUID(c, "project_id")
	if !ok {
		return
	}
	items, err := h.svc.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		respondErr(c, err, "project")
		return
	}
	c.JSON(http.StatusOK, serializer.OK(items))
}

// DeleteReferenceFile godoc
//
//	@Summary	Delete reference file
//	@Tags		reference-file
//	@Produce	json
//	@Param		file_id	path		string	true	"Reference file ID"	format(uuid)
//	@Success	200		{object}	serializer.Response
//	@Router		/api/reference-files/{file_id} [delete]
func (h *ReferenceFileHandler) DeleteReferenceFile(c *gin.Context) {
	fileID, ok := pathUUID(c, "file_id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), fileID); err != nil {
		respondErr(c, err, "reference file")
		return
	}
	c.JSON(http.StatusOK, serializer.OK(nil))
}
