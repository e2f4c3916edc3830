package adapters

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

func TestGinAdapter(t *testing.T) {
	binder, routes := newRoutes(t)
	adapter := NewGinAdapter(binder)
	assert.Equal(t, "Gin", adapter.Name())

	engine := gin.New()
	adapter.Mount(engine, routes)

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantBody   string
	}{
		{name: "action", method: http.MethodPost, target: "/api/Catalog.Rate", body: `{"stars":4,"comment":"nice"}`,
			wantStatus: http.StatusCreated, wantBody: `{"stars":4,"comment":"nice"}`},
		{name: "handler error", method: http.MethodPost, target: "/api/Catalog.Rate", body: `{"stars":9}`,
			wantStatus: http.StatusBadRequest, wantBody: `{"status_code":400,"message":"too many stars"}`},
		{name: "unknown member", method: http.MethodPost, target: "/api/Catalog.Rate", body: `{"comment":"x","stars":0,"extra":1}`,
			wantStatus: http.StatusBadRequest},
		{name: "function", method: http.MethodGet, target: "/api/Catalog.Lookup?term=lamp",
			wantStatus: http.StatusOK, wantBody: `{"term":"lamp"}`},
		{name: "function missing parameter", method: http.MethodGet, target: "/api/Catalog.Lookup",
			wantStatus: http.StatusUnprocessableEntity},
		{name: "no content", method: http.MethodPost, target: "/api/Catalog.Forget",
			wantStatus: http.StatusNoContent},
		{name: "wrong method", method: http.MethodGet, target: "/api/Catalog.Rate",
			wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			engine.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestGinAdapter_Group(t *testing.T) {
	binder, routes := newRoutes(t)

	engine := gin.New()
	NewGinAdapter(binder).Mount(engine.Group("/v1"), routes)

	req := httptest.NewRequest(http.MethodGet, "/v1/api/Catalog.Lookup?term=desk", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"term":"desk"}`, rec.Body.String())
}
