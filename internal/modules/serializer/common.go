package serializer

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint returns. Callers branch on
// Success before trusting Data.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	TaskID  string      `json:"task_id,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK wraps data in a successful envelope.
func OK(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// Accepted reports an async operation with the task id to poll.
func Accepted(taskID string, data interface{}) Response {
	return Response{Success: true, TaskID: taskID, Data: data}
}

// Err builds a failed envelope. The raw error detail is only exposed
// outside release mode.
func Err(msg string, err error) Response {
	res := Response{Success: false, Message: msg}
	if err != nil && gin.Mode() != gin.ReleaseMode {
		res.Error = fmt.Sprintf("%+v", err)
	}
	return res
}

// ParamErr reports a validation failure.
func ParamErr(msg string, err error) Response {
	if msg == "" {
		msg = "parameter error"
	}
	return Err(msg, err)
}

// NotFound reports a missing resource.
func NotFound(resource string) Response {
	if resource == "" {
		resource = "resource"
	}
	return Err(resource+" not found", nil)
}

// DBErr reports a storage failure.
func DBErr(msg string, err error) Response {
	if msg == "" {
		msg = "database error"
	}
	return Err(msg, err)
}

// InvalidStatus reports an operation attempted in the wrong project or page
// state.
func InvalidStatus(msg string) Response {
	if msg == "" {
		msg = "invalid status for this operation"
	}
	return Err(msg, nil)
}

// AIServiceErr reports an upstream generation failure.
func AIServiceErr(msg string, err error) Response {
	if msg == "" {
		msg = "AI service error"
	}
	return Err(msg, err)
}

// Abort helpers keep handler bodies short.

func AbortNotFound(c *gin.Context, resource string) {
	c.AbortWithStatusJSON(http.StatusNotFound, NotFound(resource))
}

func AbortParam(c *gin.Context, msg string, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ParamErr(msg, err))
}
