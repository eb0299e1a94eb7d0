package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/xobi-ai/xobi/internal/config"
	"github.com/xobi-ai/xobi/internal/modules/handler"
)

// newTestRouter builds the production route table. Handlers get nil
// services; the requests below are answered by path validation or the
// dispatch map before any service is touched.
func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterDeps{
		Config:               &config.Config{},
		Log:                  zap.NewNop(),
		ProjectHandler:       handler.NewProjectHandler(nil, nil, nil),
		PageHandler:          handler.NewPageHandler(nil, nil),
		TaskHandler:          handler.NewTaskHandler(nil),
		MaterialHandler:      handler.NewMaterialHandler(nil, nil),
		ReferenceFileHandler: handler.NewReferenceFileHandler(nil, nil),
		SettingHandler:       handler.NewSettingHandler(nil),
	})
}

func TestRouter_CustomVerbRoutesReachHandlers(t *testing.T) {
	r := newTestRouter()

	// A routed URL with a garbage uuid fails handler validation with 400;
	// only an unrouted URL yields 404.
	tests := []struct {
		method string
		path   string
	}{
		{"POST", "/api/projects/not-a-uuid/descriptions:generate"},
		{"POST", "/api/projects/not-a-uuid/images:generate"},
		{"PUT", "/api/projects/not-a-uuid/pages:reorder"},
		{"POST", "/api/projects/not-a-uuid/pages/also-bad/description:regenerate"},
		{"POST", "/api/projects/not-a-uuid/pages/also-bad/image:regenerate"},
		{"POST", "/api/projects/not-a-uuid/pages/also-bad/image:select"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRouter_StaticSiblingsCoexistWithActionParam(t *testing.T) {
	r := newTestRouter()

	// Static segments under /:project_id must not be shadowed by the
	// :action wildcard.
	for _, path := range []string{
		"/api/projects/not-a-uuid/template",
		"/api/projects/not-a-uuid/pages",
	} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest("POST", path, nil))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRouter_UnknownActionIs404(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/api/projects/not-a-uuid/images:destroy", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Health(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
