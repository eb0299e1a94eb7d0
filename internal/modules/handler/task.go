package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xobi-ai/xobi/internal/modules/serializer"
	"github.com/xobi-ai/xobi/internal/modules/service"
)

type TaskHandler struct {
	svc service.TaskService
}

func NewTaskHandler(svc service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// GetTask godoc
//
//	@Summary		Poll task
//	@Description	Task status and progress for polling clients. project_id "global" addresses tasks without a project scope.
//	@Tags			task
//	@Produce		json
//	@Param			project_id	path		string	true	"Project ID or \"global\""
//	@Param			task_id		path		string	true	"Task ID"	format(uuid)
//	@Success		200			{object}	serializer.Response{data=model.Task}
//	@Router			/api/tasks/{project_id}/{task_id} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	scope := uuid.Nil
	if raw := c.Param("project_id"); raw != "global" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid project_id", err))
			return
		}
		scope = parsed
	}

	taskID, ok := pathUUID(c, "task_id")
	if !ok {
		return
	}

	task, err := h.svc.Get(c.Request.Context(), taskID)
	if err != nil {
		respondErr(c, err, "task")
		return
	}
	if task.ProjectID != scope {
		serializer.AbortNotFound(c, "task")
		return
	}
	c.JSON(http.StatusOK, serializer.OK(task))
}

// ListProjectTasks godoc
//
//	@Summary	List project tasks
//	@Tags		task
//	@Produce	json
//	@Param		project_id	path		string	true	"Project ID"	format(uuid)
//	@Success	200			{object}	serializer.Response{data=[]model.Task}
//	@Router		/api/projects/{project_id}/tasks [get]
func (h *TaskHandler) ListProjectTasks(c *gin.Context) {
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
