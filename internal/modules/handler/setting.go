package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xobi-ai/xobi/internal/modules/serializer"
	"github.com/xobi-ai/xobi/internal/modules/service"
)

type SettingHandler struct {
	svc service.SettingService
}

func NewSettingHandler(svc service.SettingService) *SettingHandler {
	return &SettingHandler{svc: svc}
}

// GetSettings godoc
//
//	@Summary		Get settings
//	@Description	Current runtime settings, seeded from the environment on first use
//	@Tags			setting
//	@Produce		json
//	@Success		200	{object}	serializer.Response{data=model.Setting}
//	@Router			/api/settings [get]
func (h *SettingHandler) GetSettings(c *gin.Context) {
	set, err := h.svc.Get(c.Request.Context())
	if err != nil {
		respondErr(c, err, "settings")
		return
	}
	c.JSON(http.StatusOK, serializer.OK(set))
}

// UpdateSettings godoc
//
//	@Summary		Update settings
//	@Description	Partial update; omitted fields keep their value, empty strings clear an override
//	@Tags			setting
//	@Accept			json
//	@Produce		json
//	@Param			body	body		service.SettingUpdate	true	"Fields to change"
//	@Success		200		{object}	serializer.Response{data=model.Setting}
//	@Router			/api/settings [put]
func (h *SettingHandler) UpdateSettings(c *gin.Context) {
	var in service.SettingUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid settings payload", err))
		return
	}

	set, err := h.svc.Update(c.Request.Context(), in)
	if err != nil {
		respondErr(c, err, "settings")
		return
	}
	c.JSON(http.StatusOK, serializer.OK(set))
}

// ResetSettings godoc
//
//	@Summary		Reset settings
//	@Description	Drop every stored override and return to the environment defaults
//	@Tags			setting
//	@Produce		json
//	@Success		200	{object}	serializer.Response{data=model.Setting}
//	@Router			/api/settings/reset [post]
func (h *SettingHandler) ResetSettings(c *gin.Context) {
	set, err := h.svc.Reset(c.Request.Context())
	if err != nil {
		respondErr(c, err, "settings")
		return
	}
	c.JSON(http.StatusOK, serializer.OK(set))
}
