// Package handler contains the gin endpoint implementations. Handlers bind
// and validate input, call one service method and translate its error into
// the response envelope; they hold no business rules of their own.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xobi-ai/xobi/internal/modules/repo"
	"github.com/xobi-ai/xobi/internal/modules/serializer"
	"github.com/xobi-ai/xobi/internal/modules/service"
	"gorm.io/gorm"
)

// pathUUID parses a uuid path parameter, aborting with a 400 on garbage.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		serializer.AbortParam(c, "invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

// respondErr maps service errors onto HTTP statuses.
func respondErr(c *gin.Context, err error, resource string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, serializer.NotFound(resource))
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrUnsupported):
		c.JSON(http.StatusBadRequest, serializer.ParamErr(err.Error(), nil))
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusConflict, serializer.InvalidStatus(err.Error()))
	case errors.Is(err, repo.ErrMaterialInUse):
		c.JSON(http.StatusConflict, serializer.Err(err.Error(), nil))
	default:
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
	}
}
